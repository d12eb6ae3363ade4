package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email      string    `gorm:"type:text;not null;uniqueIndex"`
	Name       string    `gorm:"type:text;not null"`
	Image      *string   `gorm:"type:text"`
	Role       string    `gorm:"type:text;not null;default:'user'"`
	Tier       string    `gorm:"type:text;not null;default:'free'"`
	Approved   bool      `gorm:"not null;default:false"`
	ApprovedAt *time.Time
	ApprovedBy *string `gorm:"type:text"`

	StripeCustomerId       *string `gorm:"type:text;index"`
	StripeSubscriptionId   *string `gorm:"type:text"`
	StripePriceId          *string `gorm:"type:text"`
	StripeCurrentPeriodEnd *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "auth_users"
}
