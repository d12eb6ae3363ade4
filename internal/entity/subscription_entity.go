package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string
type BillingCycle string
type PaymentStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"

	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"

	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusFailed PaymentStatus = "failed"
)

// Grants reports whether the subscription status entitles the user to the
// paid tier. Anything else downgrades to free.
func (s SubscriptionStatus) Grants() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// Subscription mirrors one Stripe subscription object, keyed by the Stripe
// subscription id and upserted from webhook events.
type Subscription struct {
	Id                   uuid.UUID
	UserId               uuid.UUID
	StripeSubscriptionId string
	StripePriceId        string
	Status               SubscriptionStatus
	Tier                 UserTier
	BillingCycle         BillingCycle
	CurrentPeriodStart   time.Time
	CurrentPeriodEnd     time.Time
	CancelAtPeriodEnd    bool
	CanceledAt           *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Payment is an append-only ledger row for one invoice outcome.
type Payment struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	StripeInvoiceId string
	Amount          int64
	Currency        string
	Status          PaymentStatus
	PaidAt          *time.Time
	CreatedAt       time.Time
}
