package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supplier is a vendor profile referenced by materials and purchase orders.
type Supplier struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	ContactName  *string   `gorm:"column:contact_name" json:"contact_name"`
	Email        *string   `gorm:"column:email" json:"email"`
	Phone        *string   `gorm:"column:phone" json:"phone"`
	Address      *string   `gorm:"column:address" json:"address"`
	Notes        *string   `gorm:"column:notes" json:"notes"`
	LeadTimeDays *int      `gorm:"column:lead_time_days" json:"lead_time_days"`
	IsActive     bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
