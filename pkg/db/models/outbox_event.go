package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/enums"
)

// OutboxEvent represents an append-only event emitted via the outbox pattern.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:event_type_enum;not null" json:"event_type"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:aggregate_type_enum;not null" json:"aggregate_type"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null;index" json:"aggregate_id"`
	DedupeKey     *string                   `gorm:"column:dedupe_key;index" json:"dedupe_key"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	PublishedAt   *time.Time                `gorm:"column:published_at" json:"published_at"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null" json:"attempt_count"`
	LastError     *string                   `gorm:"column:last_error" json:"last_error"`
	NextAttemptAt *time.Time                `gorm:"column:next_attempt_at" json:"next_attempt_at"`
}

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
