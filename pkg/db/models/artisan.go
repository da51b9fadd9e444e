package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/enums"
)

type Artisan struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name       string           `gorm:"column:name;not null" json:"name"`
	Email      *string          `gorm:"column:email" json:"email"`
	Phone      *string          `gorm:"column:phone" json:"phone"`
	Specialty  *string          `gorm:"column:specialty" json:"specialty"`
	HourlyRate *decimal.Decimal `gorm:"column:hourly_rate;type:numeric(10,2)" json:"hourly_rate"`
	IsActive   bool             `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (a *Artisan) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// WorkOrderArtisan is a labor assignment with its own payment bookkeeping.
type WorkOrderArtisan struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	WorkOrderID   uuid.UUID              `gorm:"column:work_order_id;type:uuid;not null;index" json:"work_order_id"`
	ArtisanID     uuid.UUID              `gorm:"column:artisan_id;type:uuid;not null;index" json:"artisan_id"`
	Stage         *enums.ProductionStage `gorm:"column:stage;type:production_stage" json:"stage"`
	Cost          decimal.Decimal        `gorm:"column:cost;type:numeric(10,2);not null" json:"cost"`
	PaymentStatus enums.PaymentStatus    `gorm:"column:payment_status;type:payment_status;not null" json:"payment_status"`
	PaidAt        *time.Time             `gorm:"column:paid_at" json:"paid_at"`
	Notes         *string                `gorm:"column:notes" json:"notes"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (a *WorkOrderArtisan) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
