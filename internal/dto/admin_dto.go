package dto

import (
	"time"

	"github.com/google/uuid"
)

type AdminUserResponse struct {
	Id                   uuid.UUID  `json:"id"`
	Email                string     `json:"email"`
	Name                 string     `json:"name"`
	Role                 string     `json:"role"`
	Tier                 string     `json:"tier"`
	Approved             bool       `json:"approved"`
	ApprovedAt           *time.Time `json:"approvedAt"`
	ApprovedBy           *string    `json:"approvedBy"`
	StripeCustomerId     *string    `json:"stripeCustomerId"`
	StripeSubscriptionId *string    `json:"stripeSubscriptionId"`
	CreatedAt            time.Time  `json:"createdAt"`
}

type ApproveUserRequest struct {
	UserId string `json:"userId" validate:"required,uuid"`
}

type ApproveUserResponse struct {
	Id         uuid.UUID  `json:"id"`
	Approved   bool       `json:"approved"`
	ApprovedAt *time.Time `json:"approvedAt"`
	ApprovedBy *string    `json:"approvedBy"`
}

// CleanupReport is shared by the dry-run and purge endpoints; DryRun marks
// which one produced it.
type CleanupReport struct {
	DryRun           bool      `json:"dryRun"`
	ThresholdHours   int       `json:"thresholdHours"`
	CandidateIds     []string  `json:"candidateIds"`
	SessionsDeleted  int       `json:"sessionsDeleted"`
	MessagesDeleted  int       `json:"messagesDeleted"`
	FilesDeleted     int       `json:"filesDeleted"`
	CachesDeleted    int       `json:"cachesDeleted"`
	StoresDeleted    int       `json:"storesDeleted"`
	StoreDeleteFails int       `json:"storeDeleteFails"`
	Errors           []string  `json:"errors,omitempty"`
	RanAt            time.Time `json:"ranAt"`
}
