package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/localharvest/checkout/internal/domain"
	pkgkafka "github.com/localharvest/checkout/pkg/kafka"
)

// Kafka topic constants for checkout domain events.
const (
	TopicCheckoutStarted   = "marketplace.checkout.started"
	TopicCheckoutCompleted = "marketplace.checkout.completed"
	TopicCheckoutFailed    = "marketplace.checkout.failed"
)

// Aggregate type constant.
const AggregateTypeCheckout = "checkout"

// Source identifier for events originating from this service.
const SourceCheckoutService = "checkout-service"

// CheckoutStartedData is the payload for a checkout.started event.
type CheckoutStartedData struct {
	ID         string `json:"id"`
	CartID     string `json:"cart_id"`
	CustomerID string `json:"customer_id,omitempty"`
	GuestToken string `json:"guest_token,omitempty"`
	StoreCount int    `json:"store_count"`
	Subtotal   int64  `json:"subtotal"`
	Currency   string `json:"currency"`
}

// CheckoutCompletedData is the payload for a checkout.completed event.
type CheckoutCompletedData struct {
	ID                string `json:"id"`
	CartID            string `json:"cart_id"`
	CustomerID        string `json:"customer_id,omitempty"`
	OrderID           string `json:"order_id"`
	FulfillmentMethod string `json:"fulfillment_method"`
	Total             int64  `json:"total"`
}

// CheckoutFailedData is the payload for a checkout.failed event.
type CheckoutFailedData struct {
	ID            string `json:"id"`
	CartID        string `json:"cart_id"`
	CustomerID    string `json:"customer_id,omitempty"`
	FailureReason string `json:"failure_reason"`
}

// Producer publishes checkout domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the checkout service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCheckoutStarted publishes a checkout.started event.
func (p *Producer) PublishCheckoutStarted(ctx context.Context, session *domain.CheckoutSession, cart *domain.Cart) error {
	data := CheckoutStartedData{
		ID:         session.ID,
		CartID:     session.CartID,
		CustomerID: session.CustomerID,
		GuestToken: session.GuestToken,
		StoreCount: len(domain.StoreIDs(cart.Items)),
		Subtotal:   cart.Subtotal(),
		Currency:   cart.Currency,
	}

	event, err := pkgkafka.NewEvent(TopicCheckoutStarted, session.ID, AggregateTypeCheckout, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create checkout.started event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCheckoutStarted, event); err != nil {
		return fmt.Errorf("publish checkout.started event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.started event",
		slog.String("checkout_id", session.ID),
		slog.String("cart_id", session.CartID),
	)

	return nil
}

// PublishCheckoutCompleted publishes a checkout.completed event.
func (p *Producer) PublishCheckoutCompleted(ctx context.Context, session *domain.CheckoutSession) error {
	data := CheckoutCompletedData{
		ID:                session.ID,
		CartID:            session.CartID,
		CustomerID:        session.CustomerID,
		OrderID:           session.OrderID,
		FulfillmentMethod: session.FulfillmentMethod,
	}
	if session.Totals != nil {
		data.Total = session.Totals.Total
	}

	event, err := pkgkafka.NewEvent(TopicCheckoutCompleted, session.ID, AggregateTypeCheckout, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create checkout.completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCheckoutCompleted, event); err != nil {
		return fmt.Errorf("publish checkout.completed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.completed event",
		slog.String("checkout_id", session.ID),
		slog.String("order_id", session.OrderID),
	)

	return nil
}

// PublishCheckoutFailed publishes a checkout.failed event.
func (p *Producer) PublishCheckoutFailed(ctx context.Context, session *domain.CheckoutSession, reason string) error {
	data := CheckoutFailedData{
		ID:            session.ID,
		CartID:        session.CartID,
		CustomerID:    session.CustomerID,
		FailureReason: reason,
	}

	event, err := pkgkafka.NewEvent(TopicCheckoutFailed, session.ID, AggregateTypeCheckout, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create checkout.failed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCheckoutFailed, event); err != nil {
		return fmt.Errorf("publish checkout.failed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.failed event",
		slog.String("checkout_id", session.ID),
		slog.String("failure_reason", reason),
	)

	return nil
}
