package farmers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
)

// Service defines farmer profile operations.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpsertProfile(ctx context.Context, input UpsertProfileInput) (*ProfileDTO, error)
}

type profileRepo interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.FarmerProfile, error)
	Create(ctx context.Context, profile *models.FarmerProfile) (*models.FarmerProfile, error)
	Update(ctx context.Context, userID uuid.UUID, input UpsertProfileInput) error
}

type service struct {
	repo profileRepo
}

// NewService builds a farmers service.
func NewService(repo profileRepo) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("farmers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "farmer profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load farmer profile")
	}
	return FromModel(profile), nil
}

func (s *service) UpsertProfile(ctx context.Context, input UpsertProfileInput) (*ProfileDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.FarmName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farm name required")
	}
	if input.Location == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location required")
	}

	existing, err := s.repo.FindByUserID(ctx, input.UserID)
	switch {
	case err == nil:
		if err := s.repo.Update(ctx, input.UserID, input); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update farmer profile")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		certs := input.Certifications
		if certs == nil {
			certs = []string{}
		}
		existing, err = s.repo.Create(ctx, &models.FarmerProfile{
			UserID:         input.UserID,
			FarmName:       input.FarmName,
			Location:       input.Location,
			Address:        input.Address,
			Pincode:        input.Pincode,
			ContactNumber:  input.ContactNumber,
			Certifications: pq.StringArray(certs),
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create farmer profile")
		}
		return FromModel(existing), nil
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load farmer profile")
	}

	updated, err := s.repo.FindByUserID(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload farmer profile")
	}
	return FromModel(updated), nil
}
