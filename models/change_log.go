package models

import (
	"time"

	"github.com/google/uuid"
)

type ChangeAction string

const (
	ActionCreate  ChangeAction = "create"
	ActionUpdate  ChangeAction = "update"
	ActionSubmit  ChangeAction = "submit"
	ActionApprove ChangeAction = "approve"
	ActionReject  ChangeAction = "reject"
)

// ChangeLog is the append-only audit trail. Rows are created in the same
// transaction as the state change they record and are never mutated.
type ChangeLog struct {
	ID            uint         `json:"id" gorm:"primarykey"`
	WaterObjectID uint         `json:"water_object_id" gorm:"index;not null"`
	CanonicalID   uuid.UUID    `json:"canonical_id" gorm:"type:uuid;index;not null"`
	Action        ChangeAction `json:"action" gorm:"not null"`
	PerformedBy   uint         `json:"performed_by" gorm:"not null"`
	ReviewerNotes *string      `json:"reviewer_notes,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}
