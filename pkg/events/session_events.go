package events

import "time"

const (
	TypeSessionActivated = "SESSION_ACTIVATED"
	TypeSessionDeleted   = "SESSION_DELETED"
	TypeStageChanged     = "STAGE_CHANGED"
	TypeUserApproved     = "USER_APPROVED"
	TypeTierChanged      = "TIER_CHANGED"
)

func NewSessionActivatedEvent(userId, sessionId string) Event {
	return BaseEvent{
		Type: TypeSessionActivated,
		Data: map[string]interface{}{
			"user_id":    userId,
			"session_id": sessionId,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionDeletedEvent(userId, sessionId string) Event {
	return BaseEvent{
		Type: TypeSessionDeleted,
		Data: map[string]interface{}{
			"user_id":    userId,
			"session_id": sessionId,
		},
		OccurredAt: time.Now(),
	}
}

func NewStageChangedEvent(userId, sessionId string, stage int) Event {
	return BaseEvent{
		Type: TypeStageChanged,
		Data: map[string]interface{}{
			"user_id":    userId,
			"session_id": sessionId,
			"stage":      stage,
		},
		OccurredAt: time.Now(),
	}
}

func NewUserApprovedEvent(userId, email string) Event {
	return BaseEvent{
		Type: TypeUserApproved,
		Data: map[string]interface{}{
			"user_id": userId,
			"email":   email,
		},
		OccurredAt: time.Now(),
	}
}

func NewTierChangedEvent(userId, tier string) Event {
	return BaseEvent{
		Type: TypeTierChanged,
		Data: map[string]interface{}{
			"user_id": userId,
			"tier":    tier,
		},
		OccurredAt: time.Now(),
	}
}
