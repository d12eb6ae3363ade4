package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserTier string
type UserRole string

const (
	UserTierFree       UserTier = "free"
	UserTierPro        UserTier = "pro"
	UserTierEnterprise UserTier = "enterprise"

	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	Id         uuid.UUID
	Email      string
	Name       string
	Image      *string
	Role       UserRole
	Tier       UserTier
	Approved   bool
	ApprovedAt *time.Time
	ApprovedBy *string

	// Stripe linkage, maintained by the billing webhook only.
	StripeCustomerId       *string
	StripeSubscriptionId   *string
	StripePriceId          *string
	StripeCurrentPeriodEnd *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
