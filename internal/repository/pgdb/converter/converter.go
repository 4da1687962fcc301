package converter

import (
	"bytes"
	"encoding/json"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
)

// DocumentConverter преобразует документы между domain и моделью PostgreSQL.
type DocumentConverter struct{}

// FieldsToJSON сериализует поля документа для колонки jsonb.
func (DocumentConverter) FieldsToJSON(fields map[string]any) ([]byte, error) {
	if fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(fields)
}

func (DocumentConverter) ToEntity(model *DocumentModel) (*domain.Document, error) {
	fields := make(map[string]any)
	if len(bytes.TrimSpace(model.Fields)) > 0 {
		if err := json.Unmarshal(model.Fields, &fields); err != nil {
			return nil, err
		}
	}

	return &domain.Document{ID: model.ID, Fields: fields}, nil
}

// OutboxEventConverter преобразует события outbox между usecase и моделью PostgreSQL.
type OutboxEventConverter struct{}

func (OutboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		ProductID:   entity.ProductID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (OutboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		ProductID:   model.ProductID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c OutboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	res := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		res = append(res, c.ToEntity(model))
	}
	return res
}
