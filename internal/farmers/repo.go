package farmers

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
)

// Repository exposes farmer profile persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a farmers repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByUserID loads the profile attached to a farmer account.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.FarmerProfile, error) {
	var profile models.FarmerProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create inserts a new profile.
func (r *Repository) Create(ctx context.Context, profile *models.FarmerProfile) (*models.FarmerProfile, error) {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// Update overwrites the mutable profile fields for the given user.
func (r *Repository) Update(ctx context.Context, userID uuid.UUID, input UpsertProfileInput) error {
	return r.db.WithContext(ctx).
		Model(&models.FarmerProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"farm_name":      input.FarmName,
			"location":       input.Location,
			"address":        input.Address,
			"pincode":        input.Pincode,
			"contact_number": input.ContactNumber,
			"certifications": pq.StringArray(input.Certifications),
		}).Error
}
