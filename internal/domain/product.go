package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// PricePlaces задаёт точность цены (TND, 3 знака после запятой).
const PricePlaces = 3

// ProductID: нормализованный строковый идентификатор товара.
// Источники отдают id то строкой, то числом; сравнение всегда идёт по строке.
type ProductID string

// NormalizeID приводит идентификатор любого представления к ProductID.
func NormalizeID(v any) ProductID {
	switch id := v.(type) {
	case ProductID:
		return id
	case string:
		return ProductID(id)
	case int:
		return ProductID(strconv.Itoa(id))
	case int32:
		return ProductID(strconv.FormatInt(int64(id), 10))
	case int64:
		return ProductID(strconv.FormatInt(id, 10))
	case uint64:
		return ProductID(strconv.FormatUint(id, 10))
	case float64:
		return ProductID(strconv.FormatFloat(id, 'f', -1, 64))
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return ProductID(strconv.FormatInt(n, 10))
		}
		if f, err := id.Float64(); err == nil {
			return ProductID(strconv.FormatFloat(f, 'f', -1, 64))
		}
		return ProductID(id.String())
	case nil:
		return ""
	default:
		return ProductID(fmt.Sprint(id))
	}
}

func (id ProductID) String() string {
	return string(id)
}

// UnmarshalJSON принимает как строку, так и число.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or a number: %w", err)
	}
	*id = NormalizeID(n)
	return nil
}

// Product описывает товар каталога.
type Product struct {
	ID          ProductID       `json:"id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Description string          `json:"description,omitempty"`
	IsNew       bool            `json:"isNew"`
	Stock       *int            `json:"stock,omitempty"`
	CreatedAt   *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

// Validate проверяет инварианты записи каталога.
func (p *Product) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("product without id")
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("product %s: negative price", p.ID)
	}
	if p.Stock != nil && *p.Stock < 0 {
		return fmt.Errorf("product %s: negative stock", p.ID)
	}
	return nil
}

// FormatPrice форматирует цену как "345.000 TND".
func FormatPrice(price decimal.Decimal) string {
	return price.StringFixed(PricePlaces) + " TND"
}
