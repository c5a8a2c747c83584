package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agritrace/agritrace-backend/pkg/enums"
)

// Product is the tracked unit moving through the supply pipeline. The stage
// column is the single source of truth for where the product currently sits;
// the assignment columns record which actor handled each leg.
type Product struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductCode string             `gorm:"column:product_code;not null;uniqueIndex"`
	Name        string             `gorm:"column:name;not null"`
	Category    string             `gorm:"column:category;not null"`
	Description *string            `gorm:"column:description"`
	Quantity    int                `gorm:"column:quantity;not null"`
	Unit        string             `gorm:"column:unit;not null;default:'kg'"`
	BasePrice   decimal.Decimal    `gorm:"column:base_price;type:numeric(12,2);not null"`
	HarvestDate time.Time          `gorm:"column:harvest_date;not null"`
	Stage       enums.ProductStage `gorm:"column:stage;type:product_stage;not null;default:'harvested'"`

	FarmerID      uuid.UUID  `gorm:"column:farmer_id;type:uuid;not null;index"`
	TransporterID *uuid.UUID `gorm:"column:transporter_id;type:uuid;index"`
	WarehouseID   *uuid.UUID `gorm:"column:warehouse_id;type:uuid;index"`
	RetailerID    *uuid.UUID `gorm:"column:retailer_id;type:uuid;index"`

	// Set once, by the sale that closes the pipeline.
	CustomerPhone *string `gorm:"column:customer_phone"`

	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
