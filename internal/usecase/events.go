package usecase

import (
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// newProductEvent формирует событие outbox об изменении товара.
// Payload содержит сериализованный google.protobuf.Struct.
func newProductEvent(eventType OutboxEventType, product *domain.Product, at time.Time) (*OutboxEvent, error) {
	body := map[string]any{
		"eventType":  string(eventType),
		"productId":  product.ID.String(),
		"occurredAt": at.Format(time.RFC3339Nano),
	}

	if eventType != ProductDeleted {
		fields, err := domain.ToFields(product)
		if err != nil {
			return nil, err
		}
		body["product"] = fields
	}

	st, err := structpb.NewStruct(body)
	if err != nil {
		return nil, err
	}

	payload, err := proto.Marshal(st)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		ProductID: product.ID.String(),
		Payload:   payload,
		Status:    Pending,
		CreatedAt: at,
	}, nil
}
