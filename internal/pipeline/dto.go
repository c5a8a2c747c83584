package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
)

// ProductDTO is the transport shape for a tracked product.
type ProductDTO struct {
	ID            uuid.UUID          `json:"id"`
	ProductCode   string             `json:"product_code"`
	Name          string             `json:"name"`
	Category      string             `json:"category"`
	Description   *string            `json:"description,omitempty"`
	Quantity      int                `json:"quantity"`
	Unit          string             `json:"unit"`
	BasePrice     decimal.Decimal    `json:"base_price"`
	HarvestDate   time.Time          `json:"harvest_date"`
	Stage         enums.ProductStage `json:"current_stage"`
	FarmerID      uuid.UUID          `json:"farmer_id"`
	TransporterID *uuid.UUID         `json:"transporter_id,omitempty"`
	WarehouseID   *uuid.UUID         `json:"warehouse_id,omitempty"`
	RetailerID    *uuid.UUID         `json:"retailer_id,omitempty"`
	CustomerPhone *string            `json:"customer_phone,omitempty"`
	IsActive      bool               `json:"is_active"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// TransportRecordDTO is the transport shape for a transporter leg.
type TransportRecordDTO struct {
	ID            uuid.UUID             `json:"id"`
	ProductID     uuid.UUID             `json:"product_id"`
	TransporterID uuid.UUID             `json:"transporter_id"`
	PickupAddress string                `json:"pickup_address"`
	Destination   string                `json:"destination"`
	VehicleNumber *string               `json:"vehicle_number,omitempty"`
	Status        enums.TransportStatus `json:"status"`
	PickedUpAt    time.Time             `json:"picked_up_at"`
	DeliveredAt   *time.Time            `json:"delivered_at,omitempty"`
	Notes         *string               `json:"notes,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// WarehouseRecordDTO is the transport shape for a storage stay.
type WarehouseRecordDTO struct {
	ID                uuid.UUID  `json:"id"`
	ProductID         uuid.UUID  `json:"product_id"`
	ManagerID         uuid.UUID  `json:"manager_id"`
	WarehouseName     string     `json:"warehouse_name"`
	Location          string     `json:"location"`
	StorageConditions *string    `json:"storage_conditions,omitempty"`
	StoredAt          time.Time  `json:"stored_at"`
	DispatchedAt      *time.Time `json:"dispatched_at,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// RetailRecordDTO is the transport shape for a shop listing.
type RetailRecordDTO struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	RetailerID    uuid.UUID       `json:"retailer_id"`
	ShopName      string          `json:"shop_name"`
	Location      string          `json:"location"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Stock         int             `json:"stock"`
	ReceivedAt    time.Time       `json:"received_at"`
	SoldAt        *time.Time      `json:"sold_at,omitempty"`
	CustomerPhone *string         `json:"customer_phone,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func ProductFromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:            p.ID,
		ProductCode:   p.ProductCode,
		Name:          p.Name,
		Category:      p.Category,
		Description:   p.Description,
		Quantity:      p.Quantity,
		Unit:          p.Unit,
		BasePrice:     p.BasePrice,
		HarvestDate:   p.HarvestDate,
		Stage:         p.Stage,
		FarmerID:      p.FarmerID,
		TransporterID: p.TransporterID,
		WarehouseID:   p.WarehouseID,
		RetailerID:    p.RetailerID,
		CustomerPhone: p.CustomerPhone,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func ProductsFromModels(list []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(list))
	for i := range list {
		out = append(out, *ProductFromModel(&list[i]))
	}
	return out
}

func TransportFromModel(r *models.TransportRecord) *TransportRecordDTO {
	if r == nil {
		return nil
	}
	return &TransportRecordDTO{
		ID:            r.ID,
		ProductID:     r.ProductID,
		TransporterID: r.TransporterID,
		PickupAddress: r.PickupAddress,
		Destination:   r.Destination,
		VehicleNumber: r.VehicleNumber,
		Status:        r.Status,
		PickedUpAt:    r.PickedUpAt,
		DeliveredAt:   r.DeliveredAt,
		Notes:         r.Notes,
		CreatedAt:     r.CreatedAt,
	}
}

func TransportsFromModels(list []models.TransportRecord) []TransportRecordDTO {
	out := make([]TransportRecordDTO, 0, len(list))
	for i := range list {
		out = append(out, *TransportFromModel(&list[i]))
	}
	return out
}

func WarehouseFromModel(r *models.WarehouseRecord) *WarehouseRecordDTO {
	if r == nil {
		return nil
	}
	return &WarehouseRecordDTO{
		ID:                r.ID,
		ProductID:         r.ProductID,
		ManagerID:         r.ManagerID,
		WarehouseName:     r.WarehouseName,
		Location:          r.Location,
		StorageConditions: r.StorageConditions,
		StoredAt:          r.StoredAt,
		DispatchedAt:      r.DispatchedAt,
		Notes:             r.Notes,
		CreatedAt:         r.CreatedAt,
	}
}

func WarehousesFromModels(list []models.WarehouseRecord) []WarehouseRecordDTO {
	out := make([]WarehouseRecordDTO, 0, len(list))
	for i := range list {
		out = append(out, *WarehouseFromModel(&list[i]))
	}
	return out
}

func RetailFromModel(r *models.RetailRecord) *RetailRecordDTO {
	if r == nil {
		return nil
	}
	return &RetailRecordDTO{
		ID:            r.ID,
		ProductID:     r.ProductID,
		RetailerID:    r.RetailerID,
		ShopName:      r.ShopName,
		Location:      r.Location,
		SellingPrice:  r.SellingPrice,
		Stock:         r.Stock,
		ReceivedAt:    r.ReceivedAt,
		SoldAt:        r.SoldAt,
		CustomerPhone: r.CustomerPhone,
		CreatedAt:     r.CreatedAt,
	}
}

func RetailsFromModels(list []models.RetailRecord) []RetailRecordDTO {
	out := make([]RetailRecordDTO, 0, len(list))
	for i := range list {
		out = append(out, *RetailFromModel(&list[i]))
	}
	return out
}
