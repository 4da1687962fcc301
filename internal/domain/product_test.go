package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want ProductID
	}{
		{"string", "p1", "p1"},
		{"int", 7, "7"},
		{"int64", int64(42), "42"},
		{"float without fraction", float64(3), "3"},
		{"json number", json.Number("12"), "12"},
		{"integral json number", json.Number("1.0"), "1"},
		{"exponent json number", json.Number("1e3"), "1000"},
		{"fractional json number", json.Number("2.5"), "2.5"},
		{"already normalized", ProductID("x"), "x"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeID(tt.in))
		})
	}
}

func TestProductID_UnmarshalJSON(t *testing.T) {
	var p struct {
		ID ProductID `json:"id"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"id": 5}`), &p))
	assert.Equal(t, ProductID("5"), p.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id": 1.0}`), &p))
	assert.Equal(t, ProductID("1"), p.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id": "abc"}`), &p))
	assert.Equal(t, ProductID("abc"), p.ID)

	assert.Error(t, json.Unmarshal([]byte(`{"id": {"x": 1}}`), &p))
}

func TestProduct_Validate(t *testing.T) {
	stock := -1
	assert.Error(t, (&Product{}).Validate())
	assert.Error(t, (&Product{ID: "1", Price: decimal.NewFromInt(-1)}).Validate())
	assert.Error(t, (&Product{ID: "1", Stock: &stock}).Validate())
	assert.NoError(t, (&Product{ID: "1", Price: decimal.RequireFromString("345.000")}).Validate())
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "345.000 TND", FormatPrice(decimal.NewFromInt(345)))
	assert.Equal(t, "10.500 TND", FormatPrice(decimal.RequireFromString("10.5")))
}

func TestDocument_Decode(t *testing.T) {
	doc := Document{ID: "abc", Fields: map[string]any{
		"name":  "Rouge",
		"price": 145.0,
		"isNew": true,
		"stock": 3.0,
	}}

	var p Product
	require.NoError(t, doc.Decode("id", &p))

	assert.Equal(t, ProductID("abc"), p.ID)
	assert.Equal(t, "Rouge", p.Name)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(145)))
	assert.True(t, p.IsNew)
	require.NotNil(t, p.Stock)
	assert.Equal(t, 3, *p.Stock)
}

func TestToFields(t *testing.T) {
	fields, err := ToFields(Session{UserID: "u1", Email: "a@b.c"})
	require.NoError(t, err)

	assert.Equal(t, "u1", fields["userId"])
	assert.Equal(t, "a@b.c", fields["email"])
}
