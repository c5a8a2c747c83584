package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agritrace/agritrace-backend/pkg/enums"
)

// TransportRecord captures one transporter leg for a product.
type TransportRecord struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID             `gorm:"column:product_id;type:uuid;not null;index"`
	TransporterID uuid.UUID             `gorm:"column:transporter_id;type:uuid;not null;index"`
	PickupAddress string                `gorm:"column:pickup_address;not null"`
	Destination   string                `gorm:"column:destination;not null"`
	VehicleNumber *string               `gorm:"column:vehicle_number"`
	Status        enums.TransportStatus `gorm:"column:status;type:transport_status;not null;default:'picked_up'"`
	PickedUpAt    time.Time             `gorm:"column:picked_up_at;not null"`
	DeliveredAt   *time.Time            `gorm:"column:delivered_at"`
	Notes         *string               `gorm:"column:notes"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
