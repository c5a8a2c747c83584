package assignments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
)

// Repository answers stage-scoped product queries for work lists.
type Repository interface {
	ListHarvested(ctx context.Context) ([]models.Product, error)
	ListInWarehouse(ctx context.Context, managerID *uuid.UUID) ([]models.Product, error)
	ListInRetail(ctx context.Context, retailerID *uuid.UUID) ([]models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an assignments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListHarvested(ctx context.Context) ([]models.Product, error) {
	var list []models.Product
	err := r.db.WithContext(ctx).
		Where("stage = ? AND is_active = ?", enums.ProductStageHarvested, true).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *repository) ListInWarehouse(ctx context.Context, managerID *uuid.UUID) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Where("stage = ? AND is_active = ?", enums.ProductStageInWarehouse, true)
	if managerID != nil {
		query = query.Where("warehouse_id = ?", *managerID)
	}
	var list []models.Product
	err := query.Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *repository) ListInRetail(ctx context.Context, retailerID *uuid.UUID) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Where("stage = ? AND is_active = ?", enums.ProductStageInRetail, true)
	if retailerID != nil {
		query = query.Where("retailer_id = ?", *retailerID)
	}
	var list []models.Product
	err := query.Order("created_at ASC").Find(&list).Error
	return list, err
}
