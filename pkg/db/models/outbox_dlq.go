package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/enums"
)

// OutboxDLQ captures terminal outbox failures for auditing and remediation.
type OutboxDLQ struct {
	ID            uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventID       uuid.UUID                  `gorm:"column:event_id;type:uuid;not null;uniqueIndex" json:"event_id"`
	EventType     enums.OutboxEventType      `gorm:"column:event_type;type:event_type_enum;not null" json:"event_type"`
	AggregateType enums.OutboxAggregateType  `gorm:"column:aggregate_type;type:aggregate_type_enum;not null" json:"aggregate_type"`
	AggregateID   uuid.UUID                  `gorm:"column:aggregate_id;type:uuid;not null" json:"aggregate_id"`
	Payload       json.RawMessage            `gorm:"column:payload_json;type:jsonb;not null" json:"payload_json"`
	ErrorReason   enums.OutboxDLQErrorReason `gorm:"column:error_reason;type:outbox_dlq_error_reason_enum;not null" json:"error_reason"`
	ErrorMessage  *string                    `gorm:"column:error_message" json:"error_message"`
	AttemptCount  int                        `gorm:"column:attempt_count;not null" json:"attempt_count"`
	FailedAt      time.Time                  `gorm:"column:failed_at;autoCreateTime" json:"failed_at"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (OutboxDLQ) TableName() string {
	return "outbox_dlq"
}

func (d *OutboxDLQ) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
