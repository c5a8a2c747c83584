package models

import (
	"time"

	"github.com/google/uuid"
)

// WarehouseRecord captures a storage stay. DispatchedAt stays nil until the
// product leaves for retail.
type WarehouseRecord struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID         uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	ManagerID         uuid.UUID  `gorm:"column:manager_id;type:uuid;not null;index"`
	WarehouseName     string     `gorm:"column:warehouse_name;not null"`
	Location          string     `gorm:"column:location;not null"`
	StorageConditions *string    `gorm:"column:storage_conditions"`
	StoredAt          time.Time  `gorm:"column:stored_at;not null"`
	DispatchedAt      *time.Time `gorm:"column:dispatched_at"`
	Notes             *string    `gorm:"column:notes"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
