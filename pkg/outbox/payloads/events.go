// Package payloads defines the typed event bodies published through the
// outbox. Downstream consumers decode against these shapes, so fields are
// append-only.
package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agritrace/agritrace-backend/pkg/enums"
)

// ProductCreatedEvent signals a new harvest registered by a farmer.
type ProductCreatedEvent struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductCode string          `json:"product_code"`
	FarmerID    uuid.UUID       `json:"farmer_id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	Unit        string          `json:"unit"`
	BasePrice   decimal.Decimal `json:"base_price"`
	HarvestDate time.Time       `json:"harvest_date"`
}

// StageAdvancedEvent is emitted on every pipeline transition.
type StageAdvancedEvent struct {
	ProductID   uuid.UUID          `json:"product_id"`
	ProductCode string             `json:"product_code"`
	FromStage   enums.ProductStage `json:"from_stage"`
	ToStage     enums.ProductStage `json:"to_stage"`
	ActorID     uuid.UUID          `json:"actor_id"`
	ActorRole   enums.UserRole     `json:"actor_role"`
}

// TransportAcceptedEvent records a transporter taking custody of a product.
type TransportAcceptedEvent struct {
	ProductID         uuid.UUID `json:"product_id"`
	TransportRecordID uuid.UUID `json:"transport_record_id"`
	TransporterID     uuid.UUID `json:"transporter_id"`
	PickupAddress     string    `json:"pickup_address"`
	Destination       string    `json:"destination"`
	PickedUpAt        time.Time `json:"picked_up_at"`
}

// TransportCompletedEvent records delivery at the destination.
type TransportCompletedEvent struct {
	ProductID         uuid.UUID `json:"product_id"`
	TransportRecordID uuid.UUID `json:"transport_record_id"`
	TransporterID     uuid.UUID `json:"transporter_id"`
	DeliveredAt       time.Time `json:"delivered_at"`
}

// ProductStoredEvent records intake at a warehouse.
type ProductStoredEvent struct {
	ProductID         uuid.UUID `json:"product_id"`
	WarehouseRecordID uuid.UUID `json:"warehouse_record_id"`
	ManagerID         uuid.UUID `json:"manager_id"`
	WarehouseName     string    `json:"warehouse_name"`
	StoredAt          time.Time `json:"stored_at"`
}

// ProductDispatchedEvent records a warehouse releasing stock to a retailer.
type ProductDispatchedEvent struct {
	ProductID         uuid.UUID `json:"product_id"`
	WarehouseRecordID uuid.UUID `json:"warehouse_record_id"`
	RetailerID        uuid.UUID `json:"retailer_id"`
	DispatchedAt      time.Time `json:"dispatched_at"`
}

// ProductListedEvent records a retailer putting a product on sale.
type ProductListedEvent struct {
	ProductID      uuid.UUID       `json:"product_id"`
	RetailRecordID uuid.UUID       `json:"retail_record_id"`
	RetailerID     uuid.UUID       `json:"retailer_id"`
	ShopName       string          `json:"shop_name"`
	SellingPrice   decimal.Decimal `json:"selling_price"`
	Stock          int             `json:"stock"`
}

// ProductSoldEvent closes out the pipeline for a product.
type ProductSoldEvent struct {
	ProductID      uuid.UUID `json:"product_id"`
	RetailRecordID uuid.UUID `json:"retail_record_id"`
	RetailerID     uuid.UUID `json:"retailer_id"`
	CustomerPhone  string    `json:"customer_phone"`
	SoldAt         time.Time `json:"sold_at"`
}
