package contract

import (
	"context"

	"deckster-be/internal/entity"
	"deckster-be/internal/repository/specification"
)

type SubscriptionRepository interface {
	// Upsert keys on stripe_subscription_id, matching Stripe's at-least-once
	// delivery: replaying an event converges on the same row.
	Upsert(ctx context.Context, sub *entity.Subscription) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error)
}

type PaymentRepository interface {
	// CreateIfAbsent is a no-op when the invoice id was already recorded.
	CreateIfAbsent(ctx context.Context, payment *entity.Payment) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Payment, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
