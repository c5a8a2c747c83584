package pipeline

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
)

// Repository defines persistence operations for products and their
// stage records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductByCode(ctx context.Context, code string) (*models.Product, error)
	ListActiveProducts(ctx context.Context) ([]models.Product, error)
	ListAllProducts(ctx context.Context) ([]models.Product, error)
	ListProductsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	// AdvanceStage runs the conditional stage update and reports how many
	// rows it touched. Zero rows after a passing read means a lost race.
	AdvanceStage(ctx context.Context, id uuid.UUID, from, to enums.ProductStage, updates map[string]any) (int64, error)

	// ClaimStorage assigns the warehouse actor iff the product is still
	// unclaimed in the in_warehouse stage.
	ClaimStorage(ctx context.Context, id, managerID uuid.UUID) (int64, error)

	CreateTransportRecord(ctx context.Context, record *models.TransportRecord) (*models.TransportRecord, error)
	FindTransportRecord(ctx context.Context, id uuid.UUID) (*models.TransportRecord, error)
	FindFirstTransportRecordByProduct(ctx context.Context, productID uuid.UUID) (*models.TransportRecord, error)
	ListTransportRecords(ctx context.Context, transporterID *uuid.UUID) ([]models.TransportRecord, error)
	UpdateTransportRecord(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteTransportRecord(ctx context.Context, id uuid.UUID) error

	CreateWarehouseRecord(ctx context.Context, record *models.WarehouseRecord) (*models.WarehouseRecord, error)
	FindWarehouseRecord(ctx context.Context, id uuid.UUID) (*models.WarehouseRecord, error)
	FindFirstWarehouseRecordByProduct(ctx context.Context, productID uuid.UUID) (*models.WarehouseRecord, error)
	ListWarehouseRecords(ctx context.Context, managerID *uuid.UUID) ([]models.WarehouseRecord, error)
	UpdateWarehouseRecord(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteWarehouseRecord(ctx context.Context, id uuid.UUID) error

	CreateRetailRecord(ctx context.Context, record *models.RetailRecord) (*models.RetailRecord, error)
	FindRetailRecord(ctx context.Context, id uuid.UUID) (*models.RetailRecord, error)
	FindRetailRecordByProduct(ctx context.Context, productID uuid.UUID) (*models.RetailRecord, error)
	ListRetailRecords(ctx context.Context, retailerID *uuid.UUID) ([]models.RetailRecord, error)
	ListRetailRecordsByCustomerPhone(ctx context.Context, phone string) ([]models.RetailRecord, error)
	UpdateRetailRecord(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteRetailRecord(ctx context.Context, id uuid.UUID) error
}
