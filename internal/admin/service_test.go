package admin

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
)

type stubUserRepo struct {
	byID map[uuid.UUID]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: map[uuid.UUID]*models.User{}}
}

func (r *stubUserRepo) add(role enums.UserRole) *models.User {
	user := &models.User{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@example.com",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
		IsActive:  true,
	}
	r.byID[user.ID] = user
	return user
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(r.byID))
	for _, user := range r.byID {
		out = append(out, *user)
	}
	return out, nil
}

func (r *stubUserRepo) CountByRole(_ context.Context) (map[enums.UserRole]int64, error) {
	out := map[enums.UserRole]int64{}
	for _, user := range r.byID {
		out[user.Role]++
	}
	return out, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

func TestListUsers(t *testing.T) {
	repo := newStubUserRepo()
	repo.add(enums.UserRoleFarmer)
	repo.add(enums.UserRoleRetailer)
	svc, err := NewService(repo)
	require.NoError(t, err)

	list, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDeleteUser(t *testing.T) {
	repo := newStubUserRepo()
	adminUser := repo.add(enums.UserRoleAdmin)
	target := repo.add(enums.UserRoleFarmer)
	svc, err := NewService(repo)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(context.Background(), adminUser.ID, target.ID))
	assert.NotContains(t, repo.byID, target.ID)

	err = svc.DeleteUser(context.Background(), adminUser.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.DeleteUser(context.Background(), adminUser.ID, adminUser.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRoleStats(t *testing.T) {
	repo := newStubUserRepo()
	repo.add(enums.UserRoleFarmer)
	repo.add(enums.UserRoleFarmer)
	repo.add(enums.UserRoleWarehouse)
	svc, err := NewService(repo)
	require.NoError(t, err)

	stats, err := svc.RoleStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByRole["farmer"])
	assert.Equal(t, int64(1), stats.ByRole["warehouse"])
}
