package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/enums"
)

// WorkOrder is one physical rug moving through the production line.
// CurrentStage mirrors the active WorkOrderStage record.
type WorkOrder struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID           string                  `gorm:"column:order_id;not null;index" json:"order_id"`
	OrderItemID       string                  `gorm:"column:order_item_id;not null;uniqueIndex:work_orders_order_item_unit_key,priority:1" json:"order_item_id"`
	UnitIndex         int                     `gorm:"column:unit_index;not null;uniqueIndex:work_orders_order_item_unit_key,priority:2" json:"unit_index"`
	UnitCount         int                     `gorm:"column:unit_count;not null" json:"unit_count"`
	Title             string                  `gorm:"column:title;not null" json:"title"`
	Size              *string                 `gorm:"column:size" json:"size"`
	SKU               *string                 `gorm:"column:sku" json:"sku"`
	ThumbnailURL      *string                 `gorm:"column:thumbnail_url" json:"thumbnail_url"`
	CurrentStage      enums.ProductionStage   `gorm:"column:current_stage;type:production_stage;not null" json:"current_stage"`
	Status            enums.WorkOrderStatus   `gorm:"column:status;type:work_order_status;not null" json:"status"`
	Priority          enums.WorkOrderPriority `gorm:"column:priority;type:work_order_priority;not null" json:"priority"`
	AssignedArtisanID *uuid.UUID              `gorm:"column:assigned_artisan_id;type:uuid;index" json:"assigned_artisan_id"`
	DueDate           *time.Time              `gorm:"column:due_date" json:"due_date"`
	StartedAt         *time.Time              `gorm:"column:started_at" json:"started_at"`
	CompletedAt       *time.Time              `gorm:"column:completed_at" json:"completed_at"`
	Notes             *string                 `gorm:"column:notes" json:"notes"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (w *WorkOrder) BeforeCreate(*gorm.DB) error {
	ensureID(&w.ID)
	return nil
}

// WorkOrderStage is one history entry per stage visited.
type WorkOrderStage struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	WorkOrderID  uuid.UUID             `gorm:"column:work_order_id;type:uuid;not null;index" json:"work_order_id"`
	Stage        enums.ProductionStage `gorm:"column:stage;type:production_stage;not null" json:"stage"`
	Status       enums.StageStatus     `gorm:"column:status;type:stage_status;not null" json:"status"`
	StartedAt    *time.Time            `gorm:"column:started_at" json:"started_at"`
	CompletedAt  *time.Time            `gorm:"column:completed_at" json:"completed_at"`
	AssignedTo   *uuid.UUID            `gorm:"column:assigned_to;type:uuid" json:"assigned_to"`
	Notes        *string               `gorm:"column:notes" json:"notes"`
	QualityScore *int                  `gorm:"column:quality_score" json:"quality_score"`
	Issues       *string               `gorm:"column:issues" json:"issues"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (s *WorkOrderStage) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// WorkOrderMedia is an attachment. URL is opaque; upload happens elsewhere.
type WorkOrderMedia struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	WorkOrderID uuid.UUID              `gorm:"column:work_order_id;type:uuid;not null;index" json:"work_order_id"`
	Stage       *enums.ProductionStage `gorm:"column:stage;type:production_stage" json:"stage"`
	Kind        enums.MediaKind        `gorm:"column:kind;type:work_order_media_kind;not null" json:"kind"`
	URL         string                 `gorm:"column:url;not null" json:"url"`
	Caption     *string                `gorm:"column:caption" json:"caption"`
	UploadedBy  *uuid.UUID             `gorm:"column:uploaded_by;type:uuid" json:"uploaded_by"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (WorkOrderMedia) TableName() string {
	return "work_order_media"
}

func (m *WorkOrderMedia) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
