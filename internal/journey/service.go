// Package journey reconstructs the consumer-facing timeline of a product
// from its stage records. Events are appended in pipeline order and carry an
// explicit sequence index; record timestamps are display data only and are
// never used for ordering.
package journey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
	"github.com/agritrace/agritrace-backend/pkg/metrics"
)

const (
	fallbackFarmName = "Farm not specified"
	fallbackLocation = "Location not specified"
)

// Event is one reconstructed step in a product's history.
type Event struct {
	Sequence  int       `json:"sequence"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
	Notes     *string   `json:"notes,omitempty"`
}

// Journey is the full tracking payload served to consumers.
type Journey struct {
	ProductID     uuid.UUID          `json:"product_id"`
	ProductCode   string             `json:"product_code"`
	Name          string             `json:"name"`
	Category      string             `json:"category"`
	Quantity      int                `json:"quantity"`
	Unit          string             `json:"unit"`
	CurrentStage  enums.ProductStage `json:"current_stage"`
	CurrentStatus string             `json:"current_status"`
	IsActive      bool               `json:"is_active"`
	Events        []Event            `json:"journey"`
}

type recordReader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductByCode(ctx context.Context, code string) (*models.Product, error)
	FindFirstTransportRecordByProduct(ctx context.Context, productID uuid.UUID) (*models.TransportRecord, error)
	FindFirstWarehouseRecordByProduct(ctx context.Context, productID uuid.UUID) (*models.WarehouseRecord, error)
	FindRetailRecordByProduct(ctx context.Context, productID uuid.UUID) (*models.RetailRecord, error)
	ListRetailRecordsByCustomerPhone(ctx context.Context, phone string) ([]models.RetailRecord, error)
}

// Purchase is one sold product matched to a customer phone number.
type Purchase struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductCode  string          `json:"product_code"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	ShopName     string          `json:"shop_name"`
	Location     string          `json:"location"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	SoldAt       *time.Time      `json:"sold_at,omitempty"`
}

type profileFinder interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.FarmerProfile, error)
}

// Service reconstructs product journeys.
type Service interface {
	ByProductID(ctx context.Context, productID uuid.UUID) (*Journey, error)
	ByProductCode(ctx context.Context, code string) (*Journey, error)
	PurchasesByPhone(ctx context.Context, phone string) ([]Purchase, error)
}

type service struct {
	reader   recordReader
	profiles profileFinder
	metrics  *metrics.PipelineMetrics
}

// NewService builds a journey service.
func NewService(reader recordReader, profiles profileFinder, pipelineMetrics *metrics.PipelineMetrics) (Service, error) {
	if reader == nil {
		return nil, fmt.Errorf("record reader required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("farmer profile finder required")
	}
	return &service{reader: reader, profiles: profiles, metrics: pipelineMetrics}, nil
}

func (s *service) ByProductID(ctx context.Context, productID uuid.UUID) (*Journey, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.reader.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	s.metrics.IncJourneyLookup("id")
	return s.build(ctx, product)
}

func (s *service) ByProductCode(ctx context.Context, code string) (*Journey, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product code required")
	}
	product, err := s.reader.FindProductByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	s.metrics.IncJourneyLookup("code")
	return s.build(ctx, product)
}

func (s *service) PurchasesByPhone(ctx context.Context, phone string) ([]Purchase, error) {
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone required")
	}
	records, err := s.reader.ListRetailRecordsByCustomerPhone(ctx, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list purchases")
	}
	out := make([]Purchase, 0, len(records))
	for i := range records {
		record := &records[i]
		purchase := Purchase{
			ProductID:    record.ProductID,
			ShopName:     record.ShopName,
			Location:     record.Location,
			SellingPrice: record.SellingPrice,
			SoldAt:       record.SoldAt,
		}
		if product, err := s.reader.FindProduct(ctx, record.ProductID); err == nil {
			purchase.ProductCode = product.ProductCode
			purchase.Name = product.Name
			purchase.Category = product.Category
		}
		out = append(out, purchase)
	}
	return out, nil
}

func (s *service) build(ctx context.Context, product *models.Product) (*Journey, error) {
	events := make([]Event, 0, 5)
	appendEvent := func(event Event) {
		event.Sequence = len(events) + 1
		events = append(events, event)
	}

	appendEvent(s.harvestedEvent(ctx, product))

	if product.TransporterID != nil {
		appendEvent(s.transportEvent(ctx, product))
	}
	if product.WarehouseID != nil && product.Stage.Reached(enums.ProductStageInWarehouse) {
		appendEvent(s.warehouseEvent(ctx, product))
	}

	var retail *models.RetailRecord
	if product.RetailerID != nil && product.Stage.Reached(enums.ProductStageInRetail) {
		record, err := s.reader.FindRetailRecordByProduct(ctx, product.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load retail record")
		}
		retail = record
		appendEvent(retailEvent(product, retail))
	}
	if product.Stage == enums.ProductStageSold && retail != nil && retail.CustomerPhone != nil {
		appendEvent(soldEvent(product, retail))
	}

	return &Journey{
		ProductID:     product.ID,
		ProductCode:   product.ProductCode,
		Name:          product.Name,
		Category:      product.Category,
		Quantity:      product.Quantity,
		Unit:          product.Unit,
		CurrentStage:  product.Stage,
		CurrentStatus: StageLabel(product.Stage),
		IsActive:      product.IsActive,
		Events:        events,
	}, nil
}

func (s *service) harvestedEvent(ctx context.Context, product *models.Product) Event {
	actor := fallbackFarmName
	location := fallbackLocation
	if profile, err := s.profiles.FindByUserID(ctx, product.FarmerID); err == nil {
		if profile.FarmName != "" {
			actor = profile.FarmName
		}
		if profile.Location != "" {
			location = profile.Location
		}
	}
	return Event{
		Stage:     StageLabel(enums.ProductStageHarvested),
		Actor:     actor,
		Location:  location,
		Timestamp: product.CreatedAt,
	}
}

func (s *service) transportEvent(ctx context.Context, product *models.Product) Event {
	status := "Delivered"
	if product.Stage == enums.ProductStageInTransport {
		status = "In Transit"
	}
	location := fallbackLocation
	timestamp := product.UpdatedAt
	var notes *string
	if record, err := s.reader.FindFirstTransportRecordByProduct(ctx, product.ID); err == nil {
		if record.Destination != "" {
			location = record.Destination
		}
		if !record.PickedUpAt.IsZero() {
			timestamp = record.PickedUpAt
		}
		notes = record.Notes
	}
	return Event{
		Stage:     StageLabel(enums.ProductStageInTransport),
		Status:    status,
		Location:  location,
		Timestamp: timestamp,
		Notes:     notes,
	}
}

func (s *service) warehouseEvent(ctx context.Context, product *models.Product) Event {
	status := "Dispatched"
	if product.Stage == enums.ProductStageInWarehouse {
		status = "In Storage"
	}
	location := fallbackLocation
	timestamp := product.UpdatedAt
	var actor string
	var notes *string
	// Only the earliest storage stay feeds the timeline, even when a product
	// passed through several warehouses.
	if record, err := s.reader.FindFirstWarehouseRecordByProduct(ctx, product.ID); err == nil {
		if record.Location != "" {
			location = record.Location
		}
		if !record.StoredAt.IsZero() {
			timestamp = record.StoredAt
		}
		actor = record.WarehouseName
		notes = record.StorageConditions
	}
	return Event{
		Stage:     StageLabel(enums.ProductStageInWarehouse),
		Status:    status,
		Actor:     actor,
		Location:  location,
		Timestamp: timestamp,
		Notes:     notes,
	}
}

func retailEvent(product *models.Product, record *models.RetailRecord) Event {
	status := "Available for Sale"
	if product.Stage == enums.ProductStageSold {
		status = "Sold"
	}
	location := fallbackLocation
	timestamp := product.UpdatedAt
	var actor string
	if record != nil {
		if record.Location != "" {
			location = record.Location
		}
		if !record.ReceivedAt.IsZero() {
			timestamp = record.ReceivedAt
		}
		actor = record.ShopName
	}
	return Event{
		Stage:     StageLabel(enums.ProductStageInRetail),
		Status:    status,
		Actor:     actor,
		Location:  location,
		Timestamp: timestamp,
	}
}

func soldEvent(product *models.Product, record *models.RetailRecord) Event {
	location := fallbackLocation
	timestamp := product.UpdatedAt
	if record.Location != "" {
		location = record.Location
	}
	if record.SoldAt != nil {
		timestamp = *record.SoldAt
	}
	return Event{
		Stage:     StageLabel(enums.ProductStageSold),
		Status:    "Sold",
		Actor:     record.ShopName,
		Location:  location,
		Timestamp: timestamp,
	}
}
