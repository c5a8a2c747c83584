// Package admin covers the back-office operations that sit outside the
// pipeline state machine: account management and role statistics.
package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/users"
	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
)

// RoleStats reports account counts per pipeline role.
type RoleStats struct {
	Total  int64            `json:"total"`
	ByRole map[string]int64 `json:"by_role"`
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	CountByRole(ctx context.Context) (map[enums.UserRole]int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes the admin back office.
type Service interface {
	ListUsers(ctx context.Context) ([]users.UserDTO, error)
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
	RoleStats(ctx context.Context) (*RoleStats, error)
}

type service struct {
	users userRepository
}

// NewService builds an admin service.
func NewService(userRepo userRepository) (Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{users: userRepo}, nil
}

func (s *service) ListUsers(ctx context.Context) ([]users.UserDTO, error) {
	list, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	out := make([]users.UserDTO, 0, len(list))
	for i := range list {
		out = append(out, *users.FromModel(&list[i]))
	}
	return out, nil
}

func (s *service) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if actorID == userID {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot delete your own account")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	return nil
}

func (s *service) RoleStats(ctx context.Context) (*RoleStats, error) {
	counts, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count users by role")
	}
	stats := &RoleStats{ByRole: make(map[string]int64, len(counts))}
	for role, count := range counts {
		stats.ByRole[role.String()] = count
		stats.Total += count
	}
	return stats, nil
}
