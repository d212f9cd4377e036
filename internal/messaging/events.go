package messaging

import (
	"time"

	"community-portal/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const EventOrderPlaced = "order.placed"

// OrderPlaced is published after an order is stored
type OrderPlaced struct {
	Type       string           `json:"type"`
	OrderID    uuid.UUID        `json:"order_id"`
	MemberID   string           `json:"member_id"`
	Customer   domain.Customer  `json:"customer"`
	Lines      []OrderLineEvent `json:"lines"`
	Total      decimal.Decimal  `json:"total"`
	OccurredAt time.Time        `json:"occurred_at"`
}

type OrderLineEvent struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity"`
}

func NewOrderPlaced(order *domain.Order) OrderPlaced {
	lines := make([]OrderLineEvent, len(order.Lines))
	for i, l := range order.Lines {
		lines[i] = OrderLineEvent{ProductID: l.ProductID, VariantID: l.VariantID, Quantity: l.Quantity}
	}
	return OrderPlaced{
		Type:       EventOrderPlaced,
		OrderID:    order.ID,
		MemberID:   order.MemberID,
		Customer:   order.Customer,
		Lines:      lines,
		Total:      order.Total,
		OccurredAt: order.CreatedAt,
	}
}
