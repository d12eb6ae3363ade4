package model

import (
	"time"

	"github.com/google/uuid"
)

type Subscription struct {
	Id                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId               uuid.UUID `gorm:"type:uuid;not null;index"`
	StripeSubscriptionId string    `gorm:"type:text;not null;uniqueIndex"`
	StripePriceId        string    `gorm:"type:text;not null"`
	Status               string    `gorm:"type:text;not null"`
	Tier                 string    `gorm:"type:text;not null"`
	BillingCycle         string    `gorm:"type:text;not null"`
	CurrentPeriodStart   time.Time `gorm:"not null"`
	CurrentPeriodEnd     time.Time `gorm:"not null"`
	CancelAtPeriodEnd    bool      `gorm:"not null;default:false"`
	CanceledAt           *time.Time
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

type Payment struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId          uuid.UUID `gorm:"type:uuid;not null;index"`
	StripeInvoiceId string    `gorm:"type:text;not null;uniqueIndex"`
	Amount          int64     `gorm:"not null"`
	Currency        string    `gorm:"type:text;not null"`
	Status          string    `gorm:"type:text;not null"`
	PaidAt          *time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

func (Payment) TableName() string {
	return "payments"
}
