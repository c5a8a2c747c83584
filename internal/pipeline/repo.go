package pipeline

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pipeline repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindProductByCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("product_code = ?", code).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListActiveProducts(ctx context.Context) ([]models.Product, error) {
	var list []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *repository) ListAllProducts(ctx context.Context) ([]models.Product, error) {
	var list []models.Product
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *repository) ListProductsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Product, error) {
	var list []models.Product
	err := r.db.WithContext(ctx).
		Where("farmer_id = ?", farmerID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Product{}).Error
}

func (r *repository) AdvanceStage(ctx context.Context, id uuid.UUID, from, to enums.ProductStage, updates map[string]any) (int64, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["stage"] = to
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stage = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) ClaimStorage(ctx context.Context, id, managerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stage = ? AND warehouse_id IS NULL", id, enums.ProductStageInWarehouse).
		Update("warehouse_id", managerID)
	return res.RowsAffected, res.Error
}

func (r *repository) CreateTransportRecord(ctx context.Context, record *models.TransportRecord) (*models.TransportRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) FindTransportRecord(ctx context.Context, id uuid.UUID) (*models.TransportRecord, error) {
	var record models.TransportRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindFirstTransportRecordByProduct(ctx context.Context, productID uuid.UUID) (*models.TransportRecord, error) {
	var record models.TransportRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) ListTransportRecords(ctx context.Context, transporterID *uuid.UUID) ([]models.TransportRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.TransportRecord{})
	if transporterID != nil {
		query = query.Where("transporter_id = ?", *transporterID)
	}
	var list []models.TransportRecord
	err := query.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *repository) UpdateTransportRecord(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.TransportRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteTransportRecord(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.TransportRecord{}).Error
}

func (r *repository) CreateWarehouseRecord(ctx context.Context, record *models.WarehouseRecord) (*models.WarehouseRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) FindWarehouseRecord(ctx context.Context, id uuid.UUID) (*models.WarehouseRecord, error) {
	var record models.WarehouseRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindFirstWarehouseRecordByProduct(ctx context.Context, productID uuid.UUID) (*models.WarehouseRecord, error) {
	var record models.WarehouseRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) ListWarehouseRecords(ctx context.Context, managerID *uuid.UUID) ([]models.WarehouseRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.WarehouseRecord{})
	if managerID != nil {
		query = query.Where("manager_id = ?", *managerID)
	}
	var list []models.WarehouseRecord
	err := query.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *repository) UpdateWarehouseRecord(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.WarehouseRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteWarehouseRecord(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.WarehouseRecord{}).Error
}

func (r *repository) CreateRetailRecord(ctx context.Context, record *models.RetailRecord) (*models.RetailRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) FindRetailRecord(ctx context.Context, id uuid.UUID) (*models.RetailRecord, error) {
	var record models.RetailRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindRetailRecordByProduct(ctx context.Context, productID uuid.UUID) (*models.RetailRecord, error) {
	var record models.RetailRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) ListRetailRecords(ctx context.Context, retailerID *uuid.UUID) ([]models.RetailRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.RetailRecord{})
	if retailerID != nil {
		query = query.Where("retailer_id = ?", *retailerID)
	}
	var list []models.RetailRecord
	err := query.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *repository) ListRetailRecordsByCustomerPhone(ctx context.Context, phone string) ([]models.RetailRecord, error) {
	var list []models.RetailRecord
	err := r.db.WithContext(ctx).
		Where("customer_phone = ?", phone).
		Order("sold_at DESC").
		Find(&list).Error
	return list, err
}

func (r *repository) UpdateRetailRecord(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.RetailRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteRetailRecord(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.RetailRecord{}).Error
}
