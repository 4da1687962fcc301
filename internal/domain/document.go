package domain

import "encoding/json"

// Коллекции хранилища документов.
const (
	CollectionProducts = "products"
	CollectionUsers    = "users"
	CollectionOrders   = "orders"
	CollectionSessions = "sessions"
)

// Document: запись хранилища документов с непрозрачным id и набором полей.
type Document struct {
	ID     string
	Fields map[string]any
}

// Decode раскладывает поля документа в out, подставляя id в поле idField.
func (d Document) Decode(idField string, out any) error {
	fields := make(map[string]any, len(d.Fields)+1)
	for k, v := range d.Fields {
		fields[k] = v
	}
	if idField != "" {
		fields[idField] = d.ID
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// ToFields переводит структуру в набор полей документа.
func ToFields(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
