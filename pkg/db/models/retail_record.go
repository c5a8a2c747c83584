package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RetailRecord captures the shop listing for a product. A sell-out zeroes the
// stock, stamps SoldAt and records the buyer's phone number for lookups.
type RetailRecord struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	RetailerID    uuid.UUID       `gorm:"column:retailer_id;type:uuid;not null;index"`
	ShopName      string          `gorm:"column:shop_name;not null"`
	Location      string          `gorm:"column:location;not null"`
	SellingPrice  decimal.Decimal `gorm:"column:selling_price;type:numeric(12,2);not null"`
	Stock         int             `gorm:"column:stock;not null"`
	ReceivedAt    time.Time       `gorm:"column:received_at;not null"`
	SoldAt        *time.Time      `gorm:"column:sold_at"`
	CustomerPhone *string         `gorm:"column:customer_phone"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
