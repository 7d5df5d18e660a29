package catalog

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	EventProductCreated  = "ProductCreated"
	EventProductUpdated  = "ProductUpdated"
	EventProductDeleted  = "ProductDeleted"
	EventReviewCreated   = "ReviewCreated"
	EventReviewUpdated   = "ReviewUpdated"
	EventReviewDeleted   = "ReviewDeleted"
	EventWishlistAdded   = "WishlistEntryAdded"
	EventWishlistRemoved = "WishlistEntryRemoved"
)

type Envelope struct {
	EventID       string          `json:"event_id"` // uuid
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // product id
	Payload       json.RawMessage `json:"payload"`
}

type ProductChangedPayload struct {
	ProductID     int64  `json:"product_id"`
	OwnerID       int64  `json:"owner_id"`
	CategoryID    *int64 `json:"category_id,omitempty"`
	Name          string `json:"name,omitempty"`
	Price         string `json:"price,omitempty"`
	StockQuantity int    `json:"stock_quantity"`
}

type ReviewChangedPayload struct {
	ReviewID  int64 `json:"review_id"`
	ProductID int64 `json:"product_id"`
	UserID    int64 `json:"user_id"`
	Rating    int   `json:"rating,omitempty"`
}

type WishlistChangedPayload struct {
	EntryID   int64 `json:"entry_id"`
	ProductID int64 `json:"product_id"`
	UserID    int64 `json:"user_id"`
}

// Publisher emits change events after a write has been committed. It must not
// block the request on broker availability.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, env Envelope)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte, Envelope) {}

func ProductChanged(p Product) ProductChangedPayload {
	out := ProductChangedPayload{
		ProductID:     p.ID,
		OwnerID:       p.OwnerID,
		Name:          p.Name,
		Price:         p.Price.StringFixed(2),
		StockQuantity: p.StockQuantity,
	}
	if p.Category != nil {
		id := p.Category.ID
		out.CategoryID = &id
	}
	return out
}

// NewEnvelope wraps payload in a v1 envelope keyed by productID.
func NewEnvelope(eventType, producer, traceID string, productID int64, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: strconv.FormatInt(productID, 10),
		Payload:       b,
	}, nil
}
