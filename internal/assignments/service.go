// Package assignments answers "what work is mine" queries for each pipeline
// role. Non-admin callers only see products assigned to them; admins see the
// unscoped pool.
package assignments

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/agritrace/agritrace-backend/internal/pipeline"
	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
)

type profileFinder interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.FarmerProfile, error)
}

type userLister interface {
	ListByRole(ctx context.Context, role enums.UserRole) ([]models.User, error)
}

// Service exposes the role work lists.
type Service interface {
	AvailableForPickup(ctx context.Context) ([]PickupProduct, error)
	AssignedToWarehouse(ctx context.Context, actor pipeline.Actor) ([]pipeline.ProductDTO, error)
	AvailableForStorage(ctx context.Context) ([]pipeline.ProductDTO, error)
	AssignedToRetailer(ctx context.Context, actor pipeline.Actor) ([]pipeline.ProductDTO, error)
	AvailableRetailers(ctx context.Context) ([]RetailerDTO, error)
}

type service struct {
	repo     Repository
	profiles profileFinder
	users    userLister
}

// NewService builds an assignments service.
func NewService(repo Repository, profiles profileFinder, users userLister) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("farmer profile finder required")
	}
	if users == nil {
		return nil, fmt.Errorf("user lister required")
	}
	return &service{repo: repo, profiles: profiles, users: users}, nil
}

func (s *service) AvailableForPickup(ctx context.Context) ([]PickupProduct, error) {
	products, err := s.repo.ListHarvested(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list harvested products")
	}

	// One profile fetch per distinct farmer, not per product.
	profilesByFarmer := map[uuid.UUID]*models.FarmerProfile{}
	out := make([]PickupProduct, 0, len(products))
	for i := range products {
		product := &products[i]
		profile, seen := profilesByFarmer[product.FarmerID]
		if !seen {
			profile, err = s.profiles.FindByUserID(ctx, product.FarmerID)
			if err != nil {
				profile = nil
			}
			profilesByFarmer[product.FarmerID] = profile
		}
		out = append(out, pickupProductFrom(product, profile))
	}
	return out, nil
}

func (s *service) AssignedToWarehouse(ctx context.Context, actor pipeline.Actor) ([]pipeline.ProductDTO, error) {
	products, err := s.repo.ListInWarehouse(ctx, scopeFor(actor))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list warehouse products")
	}
	return pipeline.ProductsFromModels(products), nil
}

func (s *service) AvailableForStorage(ctx context.Context) ([]pipeline.ProductDTO, error) {
	products, err := s.repo.ListInWarehouse(ctx, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list storage pool")
	}
	return pipeline.ProductsFromModels(products), nil
}

func (s *service) AssignedToRetailer(ctx context.Context, actor pipeline.Actor) ([]pipeline.ProductDTO, error) {
	products, err := s.repo.ListInRetail(ctx, scopeFor(actor))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list retail products")
	}
	return pipeline.ProductsFromModels(products), nil
}

func (s *service) AvailableRetailers(ctx context.Context) ([]RetailerDTO, error) {
	retailers, err := s.users.ListByRole(ctx, enums.UserRoleRetailer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list retailers")
	}
	out := make([]RetailerDTO, 0, len(retailers))
	for i := range retailers {
		user := &retailers[i]
		out = append(out, RetailerDTO{
			ID:    user.ID,
			Name:  user.FirstName + " " + user.LastName,
			Email: user.Email,
		})
	}
	return out, nil
}

func scopeFor(actor pipeline.Actor) *uuid.UUID {
	if actor.Role == enums.UserRoleAdmin {
		return nil
	}
	id := actor.ID
	return &id
}
