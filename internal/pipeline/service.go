package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/codes"
	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
	"github.com/agritrace/agritrace-backend/pkg/metrics"
	"github.com/agritrace/agritrace-backend/pkg/outbox"
	"github.com/agritrace/agritrace-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type profileFinder interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.FarmerProfile, error)
}

// Actor identifies who is driving an operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
}

func (a Actor) isAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// CreateProductInput captures a farmer registering a harvest.
type CreateProductInput struct {
	Actor       Actor
	Name        string
	Category    string
	Description *string
	Quantity    int
	Unit        string
	BasePrice   decimal.Decimal
	HarvestDate time.Time
}

// UpdateProductInput carries farmer corrections to a still-harvested product.
type UpdateProductInput struct {
	Actor       Actor
	ProductID   uuid.UUID
	Name        *string
	Description *string
	Quantity    *int
	BasePrice   *decimal.Decimal
}

// AcceptPickupInput captures a transporter taking custody.
type AcceptPickupInput struct {
	Actor         Actor
	ProductID     uuid.UUID
	PickupAddress string
	Destination   string
	VehicleNumber *string
	Notes         *string
}

// CompleteTransportInput marks a leg delivered.
type CompleteTransportInput struct {
	Actor             Actor
	TransportRecordID uuid.UUID
}

// StoreProductInput captures warehouse intake.
type StoreProductInput struct {
	Actor             Actor
	ProductID         uuid.UUID
	WarehouseName     string
	Location          string
	StorageConditions *string
	Notes             *string
}

// DispatchInput releases stored stock to a retailer.
type DispatchInput struct {
	Actor      Actor
	ProductID  uuid.UUID
	RetailerID uuid.UUID
}

// ListForRetailInput puts a dispatched product on sale.
type ListForRetailInput struct {
	Actor        Actor
	ProductID    uuid.UUID
	ShopName     string
	Location     string
	SellingPrice decimal.Decimal
	Stock        int
}

// SellOutInput closes a listing against a customer purchase.
type SellOutInput struct {
	Actor          Actor
	RetailRecordID uuid.UUID
	CustomerPhone  string
	Quantity       int
}

// UpdateWarehouseRecordInput carries in-place storage corrections.
type UpdateWarehouseRecordInput struct {
	Actor             Actor
	RecordID          uuid.UUID
	StorageConditions *string
	StoredAt          *time.Time
	Notes             *string
}

// UpdateRetailRecordInput carries in-place listing corrections.
type UpdateRetailRecordInput struct {
	Actor        Actor
	RecordID     uuid.UUID
	SellingPrice *decimal.Decimal
	Stock        *int
}

// Service owns every product stage mutation plus the role-scoped reads over
// stage records.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context) ([]ProductDTO, error)
	ListFarmerProducts(ctx context.Context, farmerID uuid.UUID) ([]ProductDTO, error)

	AcceptPickup(ctx context.Context, input AcceptPickupInput) (*TransportRecordDTO, error)
	CompleteTransport(ctx context.Context, input CompleteTransportInput) (*TransportRecordDTO, error)
	StoreProduct(ctx context.Context, input StoreProductInput) (*WarehouseRecordDTO, error)
	DispatchToRetail(ctx context.Context, input DispatchInput) (*ProductDTO, error)
	ListForRetail(ctx context.Context, input ListForRetailInput) (*RetailRecordDTO, error)
	SellOut(ctx context.Context, input SellOutInput) (*RetailRecordDTO, error)

	ListTransportRecords(ctx context.Context, actor Actor) ([]TransportRecordDTO, error)
	ListWarehouseRecords(ctx context.Context, actor Actor) ([]WarehouseRecordDTO, error)
	ListRetailRecords(ctx context.Context, actor Actor) ([]RetailRecordDTO, error)
	UpdateWarehouseRecord(ctx context.Context, input UpdateWarehouseRecordInput) error
	UpdateRetailRecord(ctx context.Context, input UpdateRetailRecordInput) error
	DeleteTransportRecord(ctx context.Context, recordID uuid.UUID) error
	DeleteWarehouseRecord(ctx context.Context, recordID uuid.UUID) error
	DeleteRetailRecord(ctx context.Context, recordID uuid.UUID) error
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	profiles profileFinder
	metrics  *metrics.PipelineMetrics
	newCode  func() (string, error)
}

// NewService builds the stage transition service with its dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, profiles profileFinder, pipelineMetrics *metrics.PipelineMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pipeline repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("farmer profile finder required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		profiles: profiles,
		metrics:  pipelineMetrics,
		newCode:  codes.NewProductCode,
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Name == "" || input.Category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and category required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}
	if input.HarvestDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "harvest date required")
	}

	if _, err := s.profiles.FindByUserID(ctx, input.Actor.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "farmer profile required before registering products")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load farmer profile")
	}

	code, err := s.newCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate product code")
	}

	unit := input.Unit
	if unit == "" {
		unit = "kg"
	}

	product := &models.Product{
		ProductCode: code,
		Name:        input.Name,
		Category:    input.Category,
		Description: input.Description,
		Quantity:    input.Quantity,
		Unit:        unit,
		BasePrice:   input.BasePrice,
		HarvestDate: input.HarvestDate,
		Stage:       enums.ProductStageHarvested,
		FarmerID:    input.Actor.ID,
		IsActive:    true,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductCreated,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.ProductCreatedEvent{
				ProductID:   product.ID,
				ProductCode: product.ProductCode,
				FarmerID:    product.FarmerID,
				Name:        product.Name,
				Category:    product.Category,
				Quantity:    product.Quantity,
				Unit:        product.Unit,
				BasePrice:   product.BasePrice,
				HarvestDate: product.HarvestDate,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return ProductFromModel(product), nil
}

func (s *service) UpdateProduct(ctx context.Context, input UpdateProductInput) (*ProductDTO, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Quantity != nil && *input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.BasePrice != nil && input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.loadProduct(ctx, repo, input.ProductID)
		if err != nil {
			return err
		}
		if product.FarmerID != input.Actor.ID && !input.Actor.isAdmin() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another farmer")
		}
		if product.Stage != enums.ProductStageHarvested {
			return pkgerrors.New(pkgerrors.CodeStageTransition,
				fmt.Sprintf("product is in stage %s, edits require stage %s", product.Stage, enums.ProductStageHarvested))
		}

		updates := map[string]any{}
		if input.Name != nil {
			updates["name"] = *input.Name
		}
		if input.Description != nil {
			updates["description"] = *input.Description
		}
		if input.Quantity != nil {
			updates["quantity"] = *input.Quantity
		}
		if input.BasePrice != nil {
			updates["base_price"] = *input.BasePrice
		}
		if len(updates) == 0 {
			updated = product
			return nil
		}
		if err := repo.UpdateProduct(ctx, product.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
		}
		updated, err = repo.FindProduct(ctx, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload product")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductUpdated,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.ProductCreatedEvent{
				ProductID:   updated.ID,
				ProductCode: updated.ProductCode,
				FarmerID:    updated.FarmerID,
				Name:        updated.Name,
				Category:    updated.Category,
				Quantity:    updated.Quantity,
				Unit:        updated.Unit,
				BasePrice:   updated.BasePrice,
				HarvestDate: updated.HarvestDate,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return ProductFromModel(updated), nil
}

func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if _, err := s.repo.FindProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, s.repo, productID)
	if err != nil {
		return nil, err
	}
	return ProductFromModel(product), nil
}

func (s *service) ListProducts(ctx context.Context) ([]ProductDTO, error) {
	list, err := s.repo.ListActiveProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return ProductsFromModels(list), nil
}

func (s *service) ListFarmerProducts(ctx context.Context, farmerID uuid.UUID) ([]ProductDTO, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListProductsByFarmer(ctx, farmerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list farmer products")
	}
	return ProductsFromModels(list), nil
}

func (s *service) AcceptPickup(ctx context.Context, input AcceptPickupInput) (*TransportRecordDTO, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Destination == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination required")
	}

	var record *models.TransportRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.loadProduct(ctx, repo, input.ProductID)
		if err != nil {
			return err
		}
		if err := stageGuard(product, enums.ProductStageHarvested); err != nil {
			s.rejected("accept_pickup", "stage_mismatch")
			return err
		}

		pickup := input.PickupAddress
		if pickup == "" {
			pickup = s.resolvePickupAddress(ctx, product.FarmerID)
		}

		rows, err := repo.AdvanceStage(ctx, product.ID,
			enums.ProductStageHarvested, enums.ProductStageInTransport,
			map[string]any{"transporter_id": input.Actor.ID})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance stage")
		}
		if rows == 0 {
			s.rejected("accept_pickup", "lost_race")
			return pkgerrors.New(pkgerrors.CodeConflict, "product was claimed concurrently")
		}

		record = &models.TransportRecord{
			ProductID:     product.ID,
			TransporterID: input.Actor.ID,
			PickupAddress: pickup,
			Destination:   input.Destination,
			VehicleNumber: input.VehicleNumber,
			Status:        enums.TransportStatusPickedUp,
			PickedUpAt:    time.Now(),
			Notes:         input.Notes,
		}
		if _, err := repo.CreateTransportRecord(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create transport record")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransportAccepted,
			AggregateType: enums.AggregateTransportRecord,
			AggregateID:   record.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.TransportAcceptedEvent{
				ProductID:         product.ID,
				TransportRecordID: record.ID,
				TransporterID:     input.Actor.ID,
				PickupAddress:     record.PickupAddress,
				Destination:       record.Destination,
				PickedUpAt:        record.PickedUpAt,
			},
		}); err != nil {
			return err
		}
		return s.emitStageAdvanced(ctx, tx, product, enums.ProductStageHarvested, enums.ProductStageInTransport, input.Actor)
	})
	if err != nil {
		return nil, err
	}
	s.transitioned(enums.ProductStageHarvested, enums.ProductStageInTransport)
	return TransportFromModel(record), nil
}

func (s *service) CompleteTransport(ctx context.Context, input CompleteTransportInput) (*TransportRecordDTO, error) {
	if input.TransportRecordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transport record id required")
	}

	var record *models.TransportRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		record, err = repo.FindTransportRecord(ctx, input.TransportRecordID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transport record not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load transport record")
		}
		if record.TransporterID != input.Actor.ID && !input.Actor.isAdmin() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "transport record belongs to another transporter")
		}
		if record.Status.IsTerminal() {
			s.rejected("complete_transport", "already_delivered")
			return pkgerrors.New(pkgerrors.CodeStageTransition, "transport leg already delivered")
		}

		product, err := s.loadProduct(ctx, repo, record.ProductID)
		if err != nil {
			return err
		}
		if err := stageGuard(product, enums.ProductStageInTransport); err != nil {
			s.rejected("complete_transport", "stage_mismatch")
			return err
		}

		deliveredAt := time.Now()
		if err := repo.UpdateTransportRecord(ctx, record.ID, map[string]any{
			"status":       enums.TransportStatusDelivered,
			"delivered_at": deliveredAt,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update transport record")
		}
		record.Status = enums.TransportStatusDelivered
		record.DeliveredAt = &deliveredAt

		rows, err := repo.AdvanceStage(ctx, product.ID,
			enums.ProductStageInTransport, enums.ProductStageInWarehouse, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance stage")
		}
		if rows == 0 {
			s.rejected("complete_transport", "lost_race")
			return pkgerrors.New(pkgerrors.CodeConflict, "product stage changed concurrently")
		}

		// Delivery is terminal for the leg; a retried completion must not
		// queue the event twice.
		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransportCompleted,
			AggregateType: enums.AggregateTransportRecord,
			AggregateID:   record.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.TransportCompletedEvent{
				ProductID:         product.ID,
				TransportRecordID: record.ID,
				TransporterID:     record.TransporterID,
				DeliveredAt:       deliveredAt,
			},
		}); err != nil {
			return err
		}
		return s.emitStageAdvanced(ctx, tx, product, enums.ProductStageInTransport, enums.ProductStageInWarehouse, input.Actor)
	})
	if err != nil {
		return nil, err
	}
	s.transitioned(enums.ProductStageInTransport, enums.ProductStageInWarehouse)
	return TransportFromModel(record), nil
}

func (s *service) StoreProduct(ctx context.Context, input StoreProductInput) (*WarehouseRecordDTO, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.WarehouseName == "" || input.Location == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse name and location required")
	}

	var record *models.WarehouseRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.loadProduct(ctx, repo, input.ProductID)
		if err != nil {
			return err
		}
		if err := stageGuard(product, enums.ProductStageInWarehouse); err != nil {
			s.rejected("store_product", "stage_mismatch")
			return err
		}
		if product.WarehouseID != nil {
			s.rejected("store_product", "already_stored")
			return pkgerrors.New(pkgerrors.CodeConflict, "product is already stored")
		}

		rows, err := repo.ClaimStorage(ctx, product.ID, input.Actor.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim storage")
		}
		if rows == 0 {
			s.rejected("store_product", "lost_race")
			return pkgerrors.New(pkgerrors.CodeConflict, "product was stored concurrently")
		}

		record = &models.WarehouseRecord{
			ProductID:         product.ID,
			ManagerID:         input.Actor.ID,
			WarehouseName:     input.WarehouseName,
			Location:          input.Location,
			StorageConditions: input.StorageConditions,
			StoredAt:          time.Now(),
			Notes:             input.Notes,
		}
		if _, err := repo.CreateWarehouseRecord(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create warehouse record")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductStored,
			AggregateType: enums.AggregateWarehouseRecord,
			AggregateID:   record.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.ProductStoredEvent{
				ProductID:         product.ID,
				WarehouseRecordID: record.ID,
				ManagerID:         input.Actor.ID,
				WarehouseName:     record.WarehouseName,
				StoredAt:          record.StoredAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return WarehouseFromModel(record), nil
}

func (s *service) DispatchToRetail(ctx context.Context, input DispatchInput) (*ProductDTO, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.RetailerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer id required")
	}

	var product *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		product, err = s.loadProduct(ctx, repo, input.ProductID)
		if err != nil {
			return err
		}
		if err := stageGuard(product, enums.ProductStageInWarehouse); err != nil {
			s.rejected("dispatch_to_retail", "stage_mismatch")
			return err
		}
		if product.WarehouseID == nil {
			s.rejected("dispatch_to_retail", "not_stored")
			return pkgerrors.New(pkgerrors.CodeStageTransition, "product has not been stored yet")
		}
		if *product.WarehouseID != input.Actor.ID && !input.Actor.isAdmin() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "product is stored by another warehouse")
		}

		rows, err := repo.AdvanceStage(ctx, product.ID,
			enums.ProductStageInWarehouse, enums.ProductStageInRetail,
			map[string]any{"retailer_id": input.RetailerID})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance stage")
		}
		if rows == 0 {
			s.rejected("dispatch_to_retail", "lost_race")
			return pkgerrors.New(pkgerrors.CodeConflict, "product stage changed concurrently")
		}

		dispatchedAt := time.Now()
		record, err := repo.FindFirstWarehouseRecordByProduct(ctx, product.ID)
		if err == nil {
			if err := repo.UpdateWarehouseRecord(ctx, record.ID, map[string]any{
				"dispatched_at": dispatchedAt,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update warehouse record")
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load warehouse record")
		}

		product.Stage = enums.ProductStageInRetail
		retailerID := input.RetailerID
		product.RetailerID = &retailerID

		if record != nil {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventProductDispatched,
				AggregateType: enums.AggregateWarehouseRecord,
				AggregateID:   record.ID,
				Version:       1,
				Actor:         buildActor(input.Actor),
				Data: payloads.ProductDispatchedEvent{
					ProductID:         product.ID,
					WarehouseRecordID: record.ID,
					RetailerID:        input.RetailerID,
					DispatchedAt:      dispatchedAt,
				},
			}); err != nil {
				return err
			}
		}
		return s.emitStageAdvanced(ctx, tx, product, enums.ProductStageInWarehouse, enums.ProductStageInRetail, input.Actor)
	})
	if err != nil {
		return nil, err
	}
	s.transitioned(enums.ProductStageInWarehouse, enums.ProductStageInRetail)
	return ProductFromModel(product), nil
}

func (s *service) ListForRetail(ctx context.Context, input ListForRetailInput) (*RetailRecordDTO, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.ShopName == "" || input.Location == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop name and location required")
	}
	if input.SellingPrice.IsNegative() || input.SellingPrice.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "selling price must be positive")
	}
	if input.Stock <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be positive")
	}

	var record *models.RetailRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.loadProduct(ctx, repo, input.ProductID)
		if err != nil {
			return err
		}
		if err := stageGuard(product, enums.ProductStageInRetail); err != nil {
			s.rejected("list_for_retail", "stage_mismatch")
			return err
		}
		if product.RetailerID == nil || (*product.RetailerID != input.Actor.ID && !input.Actor.isAdmin()) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "product is dispatched to another retailer")
		}

		if _, err := repo.FindRetailRecordByProduct(ctx, product.ID); err == nil {
			s.rejected("list_for_retail", "already_listed")
			return pkgerrors.New(pkgerrors.CodeConflict, "product is already listed")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load retail record")
		}

		record = &models.RetailRecord{
			ProductID:    product.ID,
			RetailerID:   *product.RetailerID,
			ShopName:     input.ShopName,
			Location:     input.Location,
			SellingPrice: input.SellingPrice,
			Stock:        input.Stock,
			ReceivedAt:   time.Now(),
		}
		if _, err := repo.CreateRetailRecord(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create retail record")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductListed,
			AggregateType: enums.AggregateRetailRecord,
			AggregateID:   record.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.ProductListedEvent{
				ProductID:      product.ID,
				RetailRecordID: record.ID,
				RetailerID:     record.RetailerID,
				ShopName:       record.ShopName,
				SellingPrice:   record.SellingPrice,
				Stock:          record.Stock,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return RetailFromModel(record), nil
}

func (s *service) SellOut(ctx context.Context, input SellOutInput) (*RetailRecordDTO, error) {
	if input.RetailRecordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retail record id required")
	}
	if input.CustomerPhone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var record *models.RetailRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		record, err = repo.FindRetailRecord(ctx, input.RetailRecordID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "retail record not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load retail record")
		}
		if record.RetailerID != input.Actor.ID && !input.Actor.isAdmin() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "retail record belongs to another retailer")
		}

		product, err := s.loadProduct(ctx, repo, record.ProductID)
		if err != nil {
			return err
		}
		if err := stageGuard(product, enums.ProductStageInRetail); err != nil {
			s.rejected("sell_out", "stage_mismatch")
			return err
		}
		if input.Quantity > record.Stock {
			s.rejected("sell_out", "insufficient_stock")
			return pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("requested %d units, only %d in stock", input.Quantity, record.Stock))
		}

		soldAt := time.Now()
		if err := repo.UpdateRetailRecord(ctx, record.ID, map[string]any{
			"stock":          0,
			"sold_at":        soldAt,
			"customer_phone": input.CustomerPhone,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update retail record")
		}
		record.Stock = 0
		record.SoldAt = &soldAt
		phone := input.CustomerPhone
		record.CustomerPhone = &phone

		rows, err := repo.AdvanceStage(ctx, product.ID,
			enums.ProductStageInRetail, enums.ProductStageSold,
			map[string]any{
				"is_active":      false,
				"customer_phone": input.CustomerPhone,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance stage")
		}
		if rows == 0 {
			s.rejected("sell_out", "lost_race")
			return pkgerrors.New(pkgerrors.CodeConflict, "product stage changed concurrently")
		}

		// A sale closes the record for good; a retried sell-out must not
		// queue the event twice.
		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductSold,
			AggregateType: enums.AggregateRetailRecord,
			AggregateID:   record.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.ProductSoldEvent{
				ProductID:      product.ID,
				RetailRecordID: record.ID,
				RetailerID:     record.RetailerID,
				CustomerPhone:  input.CustomerPhone,
				SoldAt:         soldAt,
			},
		}); err != nil {
			return err
		}
		return s.emitStageAdvanced(ctx, tx, product, enums.ProductStageInRetail, enums.ProductStageSold, input.Actor)
	})
	if err != nil {
		return nil, err
	}
	s.transitioned(enums.ProductStageInRetail, enums.ProductStageSold)
	return RetailFromModel(record), nil
}

func (s *service) ListTransportRecords(ctx context.Context, actor Actor) ([]TransportRecordDTO, error) {
	scope := scopeFor(actor)
	list, err := s.repo.ListTransportRecords(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list transport records")
	}
	return TransportsFromModels(list), nil
}

func (s *service) ListWarehouseRecords(ctx context.Context, actor Actor) ([]WarehouseRecordDTO, error) {
	scope := scopeFor(actor)
	list, err := s.repo.ListWarehouseRecords(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list warehouse records")
	}
	return WarehousesFromModels(list), nil
}

func (s *service) ListRetailRecords(ctx context.Context, actor Actor) ([]RetailRecordDTO, error) {
	scope := scopeFor(actor)
	list, err := s.repo.ListRetailRecords(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list retail records")
	}
	return RetailsFromModels(list), nil
}

func (s *service) UpdateWarehouseRecord(ctx context.Context, input UpdateWarehouseRecordInput) error {
	if input.RecordID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "warehouse record id required")
	}
	record, err := s.repo.FindWarehouseRecord(ctx, input.RecordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "warehouse record not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load warehouse record")
	}
	if record.ManagerID != input.Actor.ID && !input.Actor.isAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "warehouse record belongs to another manager")
	}

	updates := map[string]any{}
	if input.StorageConditions != nil {
		updates["storage_conditions"] = *input.StorageConditions
	}
	if input.StoredAt != nil {
		updates["stored_at"] = *input.StoredAt
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.repo.UpdateWarehouseRecord(ctx, record.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update warehouse record")
	}
	return nil
}

func (s *service) UpdateRetailRecord(ctx context.Context, input UpdateRetailRecordInput) error {
	if input.RecordID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "retail record id required")
	}
	if input.SellingPrice != nil && (input.SellingPrice.IsNegative() || input.SellingPrice.IsZero()) {
		return pkgerrors.New(pkgerrors.CodeValidation, "selling price must be positive")
	}
	if input.Stock != nil && *input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	record, err := s.repo.FindRetailRecord(ctx, input.RecordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "retail record not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load retail record")
	}
	if record.RetailerID != input.Actor.ID && !input.Actor.isAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "retail record belongs to another retailer")
	}
	if record.SoldAt != nil {
		return pkgerrors.New(pkgerrors.CodeStageTransition, "sold listings cannot be edited")
	}

	updates := map[string]any{}
	if input.SellingPrice != nil {
		updates["selling_price"] = *input.SellingPrice
	}
	if input.Stock != nil {
		updates["stock"] = *input.Stock
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.repo.UpdateRetailRecord(ctx, record.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update retail record")
	}
	return nil
}

func (s *service) DeleteTransportRecord(ctx context.Context, recordID uuid.UUID) error {
	if err := s.repo.DeleteTransportRecord(ctx, recordID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete transport record")
	}
	return nil
}

func (s *service) DeleteWarehouseRecord(ctx context.Context, recordID uuid.UUID) error {
	if err := s.repo.DeleteWarehouseRecord(ctx, recordID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete warehouse record")
	}
	return nil
}

func (s *service) DeleteRetailRecord(ctx context.Context, recordID uuid.UUID) error {
	if err := s.repo.DeleteRetailRecord(ctx, recordID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete retail record")
	}
	return nil
}

func (s *service) loadProduct(ctx context.Context, repo Repository, id uuid.UUID) (*models.Product, error) {
	product, err := repo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func (s *service) resolvePickupAddress(ctx context.Context, farmerID uuid.UUID) string {
	profile, err := s.profiles.FindByUserID(ctx, farmerID)
	if err != nil || profile.Location == "" {
		return "Location not specified"
	}
	return profile.Location
}

func (s *service) emitStageAdvanced(ctx context.Context, tx *gorm.DB, product *models.Product, from, to enums.ProductStage, actor Actor) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventStageAdvanced,
		AggregateType: enums.AggregateProduct,
		AggregateID:   product.ID,
		Version:       1,
		Actor:         buildActor(actor),
		Data: payloads.StageAdvancedEvent{
			ProductID:   product.ID,
			ProductCode: product.ProductCode,
			FromStage:   from,
			ToStage:     to,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
		},
	})
}

func (s *service) transitioned(from, to enums.ProductStage) {
	s.metrics.IncTransition(from.String(), to.String())
}

func (s *service) rejected(operation, reason string) {
	s.metrics.IncRejection(operation, reason)
}

func scopeFor(actor Actor) *uuid.UUID {
	if actor.isAdmin() {
		return nil
	}
	id := actor.ID
	return &id
}

func stageGuard(product *models.Product, required enums.ProductStage) error {
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeStageTransition,
			fmt.Sprintf("product %s is no longer active", product.ProductCode))
	}
	if product.Stage != required {
		return pkgerrors.New(pkgerrors.CodeStageTransition,
			fmt.Sprintf("product is in stage %s, operation requires stage %s", product.Stage, required))
	}
	return nil
}

func buildActor(actor Actor) *outbox.ActorRef {
	if actor.ID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{
		UserID: actor.ID,
		Role:   actor.Role.String(),
	}
}
