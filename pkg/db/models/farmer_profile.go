package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// FarmerProfile carries the farm details attached to a farmer account. Pickup
// instructions shown to transporters come from here.
type FarmerProfile struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	FarmName       string         `gorm:"column:farm_name;not null"`
	Location       string         `gorm:"column:location;not null"`
	Address        *string        `gorm:"column:address"`
	Pincode        *string        `gorm:"column:pincode"`
	ContactNumber  *string        `gorm:"column:contact_number"`
	Certifications pq.StringArray `gorm:"column:certifications;type:text[];not null;default:ARRAY[]::text[]"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
