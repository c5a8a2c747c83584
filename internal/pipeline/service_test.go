package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
	"github.com/agritrace/agritrace-backend/pkg/outbox"
)

type stubRepo struct {
	products   map[uuid.UUID]*models.Product
	transports map[uuid.UUID]*models.TransportRecord
	warehouses []*models.WarehouseRecord
	retails    map[uuid.UUID]*models.RetailRecord

	// beforeAdvance lets a test mutate state between the guard read and
	// the conditional update, simulating a concurrent writer.
	beforeAdvance func()

	// listErr fails the product list reads, simulating a broken store.
	listErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		products:   map[uuid.UUID]*models.Product{},
		transports: map[uuid.UUID]*models.TransportRecord{},
		retails:    map[uuid.UUID]*models.RetailRecord{},
	}
}

func (r *stubRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubRepo) CreateProduct(_ context.Context, p *models.Product) (*models.Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.products[p.ID] = p
	return p, nil
}

func (r *stubRepo) FindProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubRepo) FindProductByCode(_ context.Context, code string) (*models.Product, error) {
	for _, p := range r.products {
		if p.ProductCode == code {
			clone := *p
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepo) ListActiveProducts(_ context.Context) ([]models.Product, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.Product
	for _, p := range r.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubRepo) ListAllProducts(_ context.Context) ([]models.Product, error) {
	var out []models.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubRepo) ListProductsByFarmer(_ context.Context, farmerID uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, p := range r.products {
		if p.FarmerID == farmerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubRepo) UpdateProduct(_ context.Context, id uuid.UUID, updates map[string]any) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	applyProductUpdates(p, updates)
	return nil
}

func (r *stubRepo) DeleteProduct(_ context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

func (r *stubRepo) AdvanceStage(_ context.Context, id uuid.UUID, from, to enums.ProductStage, updates map[string]any) (int64, error) {
	if r.beforeAdvance != nil {
		r.beforeAdvance()
	}
	p, ok := r.products[id]
	if !ok || p.Stage != from {
		return 0, nil
	}
	p.Stage = to
	applyProductUpdates(p, updates)
	return 1, nil
}

func (r *stubRepo) ClaimStorage(_ context.Context, id, managerID uuid.UUID) (int64, error) {
	if r.beforeAdvance != nil {
		r.beforeAdvance()
	}
	p, ok := r.products[id]
	if !ok || p.Stage != enums.ProductStageInWarehouse || p.WarehouseID != nil {
		return 0, nil
	}
	p.WarehouseID = &managerID
	return 1, nil
}

func (r *stubRepo) CreateTransportRecord(_ context.Context, record *models.TransportRecord) (*models.TransportRecord, error) {
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	r.transports[record.ID] = record
	return record, nil
}

func (r *stubRepo) FindTransportRecord(_ context.Context, id uuid.UUID) (*models.TransportRecord, error) {
	record, ok := r.transports[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

func (r *stubRepo) FindFirstTransportRecordByProduct(_ context.Context, productID uuid.UUID) (*models.TransportRecord, error) {
	for _, record := range r.transports {
		if record.ProductID == productID {
			clone := *record
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepo) ListTransportRecords(_ context.Context, transporterID *uuid.UUID) ([]models.TransportRecord, error) {
	var out []models.TransportRecord
	for _, record := range r.transports {
		if transporterID == nil || record.TransporterID == *transporterID {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (r *stubRepo) UpdateTransportRecord(_ context.Context, id uuid.UUID, updates map[string]any) error {
	record, ok := r.transports[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["status"]; ok {
		record.Status = v.(enums.TransportStatus)
	}
	if v, ok := updates["delivered_at"]; ok {
		t := v.(time.Time)
		record.DeliveredAt = &t
	}
	return nil
}

func (r *stubRepo) DeleteTransportRecord(_ context.Context, id uuid.UUID) error {
	delete(r.transports, id)
	return nil
}

func (r *stubRepo) CreateWarehouseRecord(_ context.Context, record *models.WarehouseRecord) (*models.WarehouseRecord, error) {
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	r.warehouses = append(r.warehouses, record)
	return record, nil
}

func (r *stubRepo) FindWarehouseRecord(_ context.Context, id uuid.UUID) (*models.WarehouseRecord, error) {
	for _, record := range r.warehouses {
		if record.ID == id {
			clone := *record
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepo) FindFirstWarehouseRecordByProduct(_ context.Context, productID uuid.UUID) (*models.WarehouseRecord, error) {
	for _, record := range r.warehouses {
		if record.ProductID == productID {
			clone := *record
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepo) ListWarehouseRecords(_ context.Context, managerID *uuid.UUID) ([]models.WarehouseRecord, error) {
	var out []models.WarehouseRecord
	for _, record := range r.warehouses {
		if managerID == nil || record.ManagerID == *managerID {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (r *stubRepo) UpdateWarehouseRecord(_ context.Context, id uuid.UUID, updates map[string]any) error {
	for _, record := range r.warehouses {
		if record.ID != id {
			continue
		}
		if v, ok := updates["dispatched_at"]; ok {
			t := v.(time.Time)
			record.DispatchedAt = &t
		}
		if v, ok := updates["storage_conditions"]; ok {
			s := v.(string)
			record.StorageConditions = &s
		}
		if v, ok := updates["notes"]; ok {
			s := v.(string)
			record.Notes = &s
		}
		if v, ok := updates["stored_at"]; ok {
			record.StoredAt = v.(time.Time)
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *stubRepo) DeleteWarehouseRecord(_ context.Context, id uuid.UUID) error {
	for i, record := range r.warehouses {
		if record.ID == id {
			r.warehouses = append(r.warehouses[:i], r.warehouses[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *stubRepo) CreateRetailRecord(_ context.Context, record *models.RetailRecord) (*models.RetailRecord, error) {
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	r.retails[record.ID] = record
	return record, nil
}

func (r *stubRepo) FindRetailRecord(_ context.Context, id uuid.UUID) (*models.RetailRecord, error) {
	record, ok := r.retails[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

func (r *stubRepo) FindRetailRecordByProduct(_ context.Context, productID uuid.UUID) (*models.RetailRecord, error) {
	for _, record := range r.retails {
		if record.ProductID == productID {
			clone := *record
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepo) ListRetailRecords(_ context.Context, retailerID *uuid.UUID) ([]models.RetailRecord, error) {
	var out []models.RetailRecord
	for _, record := range r.retails {
		if retailerID == nil || record.RetailerID == *retailerID {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (r *stubRepo) ListRetailRecordsByCustomerPhone(_ context.Context, phone string) ([]models.RetailRecord, error) {
	var out []models.RetailRecord
	for _, record := range r.retails {
		if record.CustomerPhone != nil && *record.CustomerPhone == phone {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (r *stubRepo) UpdateRetailRecord(_ context.Context, id uuid.UUID, updates map[string]any) error {
	record, ok := r.retails[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["stock"]; ok {
		record.Stock = v.(int)
	}
	if v, ok := updates["sold_at"]; ok {
		t := v.(time.Time)
		record.SoldAt = &t
	}
	if v, ok := updates["customer_phone"]; ok {
		s := v.(string)
		record.CustomerPhone = &s
	}
	if v, ok := updates["selling_price"]; ok {
		record.SellingPrice = v.(decimal.Decimal)
	}
	return nil
}

func (r *stubRepo) DeleteRetailRecord(_ context.Context, id uuid.UUID) error {
	delete(r.retails, id)
	return nil
}

func applyProductUpdates(p *models.Product, updates map[string]any) {
	for key, value := range updates {
		switch key {
		case "stage":
			p.Stage = value.(enums.ProductStage)
		case "transporter_id":
			id := value.(uuid.UUID)
			p.TransporterID = &id
		case "retailer_id":
			id := value.(uuid.UUID)
			p.RetailerID = &id
		case "is_active":
			p.IsActive = value.(bool)
		case "customer_phone":
			s := value.(string)
			p.CustomerPhone = &s
		case "name":
			p.Name = value.(string)
		case "description":
			s := value.(string)
			p.Description = &s
		case "quantity":
			p.Quantity = value.(int)
		case "base_price":
			p.BasePrice = value.(decimal.Decimal)
		}
	}
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	for _, queued := range s.events {
		if queued.EventType == event.EventType &&
			queued.AggregateType == event.AggregateType &&
			queued.AggregateID == event.AggregateID {
			return nil
		}
	}
	return s.Emit(ctx, tx, event)
}

func (s *stubOutbox) eventTypes() []enums.OutboxEventType {
	out := make([]enums.OutboxEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

type stubProfiles struct {
	profiles map[uuid.UUID]*models.FarmerProfile
}

func (s *stubProfiles) FindByUserID(_ context.Context, userID uuid.UUID) (*models.FarmerProfile, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return profile, nil
}

type fixture struct {
	svc      Service
	repo     *stubRepo
	outbox   *stubOutbox
	profiles *stubProfiles
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newStubRepo()
	ob := &stubOutbox{}
	profiles := &stubProfiles{profiles: map[uuid.UUID]*models.FarmerProfile{}}
	svc, err := NewService(repo, stubTxRunner{}, ob, profiles, nil)
	require.NoError(t, err)
	return &fixture{svc: svc, repo: repo, outbox: ob, profiles: profiles}
}

func (f *fixture) addFarmer(userID uuid.UUID, location string) {
	f.profiles.profiles[userID] = &models.FarmerProfile{
		UserID:   userID,
		FarmName: "Green Acres",
		Location: location,
	}
}

func (f *fixture) seedProduct(t *testing.T, farmerID uuid.UUID, stage enums.ProductStage) *models.Product {
	t.Helper()
	product := &models.Product{
		ProductCode: "PC1700000000000ABCD",
		Name:        "Tomatoes",
		Category:    "vegetables",
		Quantity:    50,
		Unit:        "kg",
		BasePrice:   decimal.NewFromInt(120),
		HarvestDate: time.Now().AddDate(0, 0, -2),
		Stage:       stage,
		FarmerID:    farmerID,
		IsActive:    true,
	}
	_, err := f.repo.CreateProduct(context.Background(), product)
	require.NoError(t, err)
	return product
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected coded error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestCreateProduct_RequiresFarmerProfile(t *testing.T) {
	f := newFixture(t)
	farmerID := uuid.New()

	_, err := f.svc.CreateProduct(context.Background(), CreateProductInput{
		Actor:       Actor{ID: farmerID, Role: enums.UserRoleFarmer},
		Name:        "Tomatoes",
		Category:    "vegetables",
		Quantity:    50,
		BasePrice:   decimal.NewFromInt(120),
		HarvestDate: time.Now(),
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestCreateProduct_Success(t *testing.T) {
	f := newFixture(t)
	farmerID := uuid.New()
	f.addFarmer(farmerID, "Nashik, Maharashtra")

	product, err := f.svc.CreateProduct(context.Background(), CreateProductInput{
		Actor:       Actor{ID: farmerID, Role: enums.UserRoleFarmer},
		Name:        "Tomatoes",
		Category:    "vegetables",
		Quantity:    50,
		BasePrice:   decimal.NewFromInt(120),
		HarvestDate: time.Now().AddDate(0, 0, -1),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(product.ProductCode, "PC"))
	assert.Equal(t, enums.ProductStageHarvested, product.Stage)
	assert.Equal(t, "kg", product.Unit)
	assert.True(t, product.IsActive)
	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.EventProductCreated, f.outbox.events[0].EventType)
}

func TestUpdateProduct_OnlyWhileHarvested(t *testing.T) {
	f := newFixture(t)
	farmerID := uuid.New()
	product := f.seedProduct(t, farmerID, enums.ProductStageInTransport)

	name := "Cherry Tomatoes"
	_, err := f.svc.UpdateProduct(context.Background(), UpdateProductInput{
		Actor:     Actor{ID: farmerID, Role: enums.UserRoleFarmer},
		ProductID: product.ID,
		Name:      &name,
	})
	assertCode(t, err, pkgerrors.CodeStageTransition)
}

func TestUpdateProduct_ForbidsOtherFarmer(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(t, uuid.New(), enums.ProductStageHarvested)

	name := "Cherry Tomatoes"
	_, err := f.svc.UpdateProduct(context.Background(), UpdateProductInput{
		Actor:     Actor{ID: uuid.New(), Role: enums.UserRoleFarmer},
		ProductID: product.ID,
		Name:      &name,
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestAcceptPickup_Success(t *testing.T) {
	f := newFixture(t)
	farmerID := uuid.New()
	f.addFarmer(farmerID, "Nashik, Maharashtra")
	product := f.seedProduct(t, farmerID, enums.ProductStageHarvested)
	transporterID := uuid.New()

	record, err := f.svc.AcceptPickup(context.Background(), AcceptPickupInput{
		Actor:       Actor{ID: transporterID, Role: enums.UserRoleTransporter},
		ProductID:   product.ID,
		Destination: "Mumbai central warehouse",
	})
	require.NoError(t, err)

	assert.Equal(t, "Nashik, Maharashtra", record.PickupAddress)
	assert.Equal(t, enums.TransportStatusPickedUp, record.Status)

	stored := f.repo.products[product.ID]
	assert.Equal(t, enums.ProductStageInTransport, stored.Stage)
	require.NotNil(t, stored.TransporterID)
	assert.Equal(t, transporterID, *stored.TransporterID)

	assert.Equal(t, []enums.OutboxEventType{
		enums.EventTransportAccepted,
		enums.EventStageAdvanced,
	}, f.outbox.eventTypes())
}

func TestAcceptPickup_WrongStage(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(t, uuid.New(), enums.ProductStageInWarehouse)

	_, err := f.svc.AcceptPickup(context.Background(), AcceptPickupInput{
		Actor:       Actor{ID: uuid.New(), Role: enums.UserRoleTransporter},
		ProductID:   product.ID,
		Destination: "Mumbai",
	})
	assertCode(t, err, pkgerrors.CodeStageTransition)
	assert.Contains(t, err.Error(), "requires stage harvested")
}

func TestAcceptPickup_LostRaceReturnsConflict(t *testing.T) {
	f := newFixture(t)
	farmerID := uuid.New()
	f.addFarmer(farmerID, "Nashik")
	product := f.seedProduct(t, farmerID, enums.ProductStageHarvested)

	// Another transporter wins between the guard read and the update.
	f.repo.beforeAdvance = func() {
		f.repo.products[product.ID].Stage = enums.ProductStageInTransport
	}

	_, err := f.svc.AcceptPickup(context.Background(), AcceptPickupInput{
		Actor:       Actor{ID: uuid.New(), Role: enums.UserRoleTransporter},
		ProductID:   product.ID,
		Destination: "Mumbai",
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestCompleteTransport_ForbidsOtherTransporter(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(t, uuid.New(), enums.ProductStageInTransport)
	record, err := f.repo.CreateTransportRecord(context.Background(), &models.TransportRecord{
		ProductID:     product.ID,
		TransporterID: uuid.New(),
		PickupAddress: "Nashik",
		Destination:   "Mumbai",
		Status:        enums.TransportStatusPickedUp,
		PickedUpAt:    time.Now(),
	})
	require.NoError(t, err)

	_, err = f.svc.CompleteTransport(context.Background(), CompleteTransportInput{
		Actor:             Actor{ID: uuid.New(), Role: enums.UserRoleTransporter},
		TransportRecordID: record.ID,
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestCompleteTransport_Success(t *testing.T) {
	f := newFixture(t)
	transporterID := uuid.New()
	product := f.seedProduct(t, uuid.New(), enums.ProductStageInTransport)
	record, err := f.repo.CreateTransportRecord(context.Background(), &models.TransportRecord{
		ProductID:     product.ID,
		TransporterID: transporterID,
		PickupAddress: "Nashik",
		Destination:   "Mumbai",
		Status:        enums.TransportStatusPickedUp,
		PickedUpAt:    time.Now(),
	})
	require.NoError(t, err)

	updated, err := f.svc.CompleteTransport(context.Background(), CompleteTransportInput{
		Actor:             Actor{ID: transporterID, Role: enums.UserRoleTransporter},
		TransportRecordID: record.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.TransportStatusDelivered, updated.Status)
	require.NotNil(t, updated.DeliveredAt)
	assert.Equal(t, enums.ProductStageInWarehouse, f.repo.products[product.ID].Stage)
	assert.Equal(t, []enums.OutboxEventType{
		enums.EventTransportCompleted,
		enums.EventStageAdvanced,
	}, f.outbox.eventTypes())
}

func TestCompleteTransport_AlreadyDelivered(t *testing.T) {
	f := newFixture(t)
	transporterID := uuid.New()
	product := f.seedProduct(t, uuid.New(), enums.ProductStageInWarehouse)
	deliveredAt := time.Now()
	record, err := f.repo.CreateTransportRecord(context.Background(), &models.TransportRecord{
		ProductID:     product.ID,
		TransporterID: transporterID,
		PickupAddress: "Nashik",
		Destination:   "Mumbai",
		Status:        enums.TransportStatusDelivered,
		PickedUpAt:    time.Now().Add(-time.Hour),
		DeliveredAt:   &deliveredAt,
	})
	require.NoError(t, err)

	_, err = f.svc.CompleteTransport(context.Background(), CompleteTransportInput{
		Actor:             Actor{ID: transporterID, Role: enums.UserRoleTransporter},
		TransportRecordID: record.ID,
	})
	assertCode(t, err, pkgerrors.CodeStageTransition)
}

func TestStoreProduct_Success(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(t, uuid.New(), enums.ProductStageInWarehouse)
	managerID := uuid.New()

	record, err := f.svc.StoreProduct(context.Background(), StoreProductInput{
		Actor:         Actor{ID: managerID, Role: enums.UserRoleWarehouse},
		ProductID:     product.ID,
		WarehouseName: "Cold Store 3",
		Location:      "Mumbai",
	})
	require.NoError(t, err)

	assert.Equal(t, managerID, record.ManagerID)
	stored := f.repo.products[product.ID]
	require.NotNil(t, stored.WarehouseID)
	assert.Equal(t, managerID, *stored.WarehouseID)
	assert.Equal(t, enums.ProductStageInWarehouse, stored.Stage)
	assert.Equal(t, []enums.OutboxEventType{enums.EventProductStored}, f.outbox.eventTypes())
}

func TestStoreProduct_AlreadyStored(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(t, uuid.New(), enums.ProductStageInWarehouse)
	existing := uuid.New()
	f.repo.products[product.ID].WarehouseID = &existing

	_, err := f.svc.StoreProduct(context.Background(), StoreProductInput{
		Actor:         Actor{ID: uuid.New(), Role: enums.UserRoleWarehouse},
		ProductID:     product.ID,
		WarehouseName: "Cold Store 3",
		Location:      "Mumbai",
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestStoreProduct_LostRaceReturnsConflict(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(t, uuid.New(), enums.ProductStageInWarehouse)

	other := uuid.New()
	f.repo.beforeAdvance = func() {
		f.repo.products[product.ID].WarehouseID = &other
	}

	_, err := f.svc.StoreProduct(context.Background(), StoreProductInput{
		Actor:         Actor{ID: uuid.New(), Role: enums.UserRoleWarehouse},
		ProductID:     product.ID,
		WarehouseName: "Cold Store 3",
		Location:      "Mumbai",
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestDispatchToRetail_RequiresStorage(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(t, uuid.New(), enums.ProductStageInWarehouse)

	_, err := f.svc.DispatchToRetail(context.Background(), DispatchInput{
		Actor:      Actor{ID: uuid.New(), Role: enums.UserRoleWarehouse},
		ProductID:  product.ID,
		RetailerID: uuid.New(),
	})
	assertCode(t, err, pkgerrors.CodeStageTransition)
}

func TestDispatchToRetail_Success(t *testing.T) {
	f := newFixture(t)
	managerID := uuid.New()
	product := f.seedProduct(t, uuid.New(), enums.ProductStageInWarehouse)
	f.repo.products[product.ID].WarehouseID = &managerID
	whRecord, err := f.repo.CreateWarehouseRecord(context.Background(), &models.WarehouseRecord{
		ProductID:     product.ID,
		ManagerID:     managerID,
		WarehouseName: "Cold Store 3",
		Location:      "Mumbai",
		StoredAt:      time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	retailerID := uuid.New()
	updated, err := f.svc.DispatchToRetail(context.Background(), DispatchInput{
		Actor:      Actor{ID: managerID, Role: enums.UserRoleWarehouse},
		ProductID:  product.ID,
		RetailerID: retailerID,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.ProductStageInRetail, updated.Stage)
	require.NotNil(t, updated.RetailerID)
	assert.Equal(t, retailerID, *updated.RetailerID)

	first, err := f.repo.FindWarehouseRecord(context.Background(), whRecord.ID)
	require.NoError(t, err)
	assert.NotNil(t, first.DispatchedAt)

	assert.Equal(t, []enums.OutboxEventType{
		enums.EventProductDispatched,
		enums.EventStageAdvanced,
	}, f.outbox.eventTypes())
}

func TestDispatchToRetail_ForbidsOtherWarehouse(t *testing.T) {
	f := newFixture(t)
	managerID := uuid.New()
	product := f.seedProduct(t, uuid.New(), enums.ProductStageInWarehouse)
	f.repo.products[product.ID].WarehouseID = &managerID

	_, err := f.svc.DispatchToRetail(context.Background(), DispatchInput{
		Actor:      Actor{ID: uuid.New(), Role: enums.UserRoleWarehouse},
		ProductID:  product.ID,
		RetailerID: uuid.New(),
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestListForRetail_Success(t *testing.T) {
	f := newFixture(t)
	retailerID := uuid.New()
	product := f.seedProduct(t, uuid.New(), enums.ProductStageInRetail)
	f.repo.products[product.ID].RetailerID = &retailerID

	record, err := f.svc.ListForRetail(context.Background(), ListForRetailInput{
		Actor:        Actor{ID: retailerID, Role: enums.UserRoleRetailer},
		ProductID:    product.ID,
		ShopName:     "Fresh Basket",
		Location:     "Pune",
		SellingPrice: decimal.NewFromInt(180),
		Stock:        40,
	})
	require.NoError(t, err)

	assert.Equal(t, retailerID, record.RetailerID)
	assert.Equal(t, 40, record.Stock)
	assert.Equal(t, []enums.OutboxEventType{enums.EventProductListed}, f.outbox.eventTypes())
}

func TestListForRetail_AlreadyListed(t *testing.T) {
	f := newFixture(t)
	retailerID := uuid.New()
	product := f.seedProduct(t, uuid.New(), enums.ProductStageInRetail)
	f.repo.products[product.ID].RetailerID = &retailerID
	_, err := f.repo.CreateRetailRecord(context.Background(), &models.RetailRecord{
		ProductID:    product.ID,
		RetailerID:   retailerID,
		ShopName:     "Fresh Basket",
		Location:     "Pune",
		SellingPrice: decimal.NewFromInt(180),
		Stock:        40,
		ReceivedAt:   time.Now(),
	})
	require.NoError(t, err)

	_, err = f.svc.ListForRetail(context.Background(), ListForRetailInput{
		Actor:        Actor{ID: retailerID, Role: enums.UserRoleRetailer},
		ProductID:    product.ID,
		ShopName:     "Fresh Basket",
		Location:     "Pune",
		SellingPrice: decimal.NewFromInt(180),
		Stock:        40,
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestSellOut_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	retailerID := uuid.New()
	product := f.seedProduct(t, uuid.New(), enums.ProductStageInRetail)
	f.repo.products[product.ID].RetailerID = &retailerID
	record, err := f.repo.CreateRetailRecord(context.Background(), &models.RetailRecord{
		ProductID:    product.ID,
		RetailerID:   retailerID,
		ShopName:     "Fresh Basket",
		Location:     "Pune",
		SellingPrice: decimal.NewFromInt(180),
		Stock:        10,
		ReceivedAt:   time.Now(),
	})
	require.NoError(t, err)

	_, err = f.svc.SellOut(context.Background(), SellOutInput{
		Actor:          Actor{ID: retailerID, Role: enums.UserRoleRetailer},
		RetailRecordID: record.ID,
		CustomerPhone:  "+919876543210",
		Quantity:       25,
	})
	assertCode(t, err, pkgerrors.CodeInsufficientStock)
}

func TestSellOut_Success(t *testing.T) {
	f := newFixture(t)
	retailerID := uuid.New()
	product := f.seedProduct(t, uuid.New(), enums.ProductStageInRetail)
	f.repo.products[product.ID].RetailerID = &retailerID
	record, err := f.repo.CreateRetailRecord(context.Background(), &models.RetailRecord{
		ProductID:    product.ID,
		RetailerID:   retailerID,
		ShopName:     "Fresh Basket",
		Location:     "Pune",
		SellingPrice: decimal.NewFromInt(180),
		Stock:        40,
		ReceivedAt:   time.Now(),
	})
	require.NoError(t, err)

	sold, err := f.svc.SellOut(context.Background(), SellOutInput{
		Actor:          Actor{ID: retailerID, Role: enums.UserRoleRetailer},
		RetailRecordID: record.ID,
		CustomerPhone:  "+919876543210",
		Quantity:       40,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, sold.Stock)
	require.NotNil(t, sold.SoldAt)
	require.NotNil(t, sold.CustomerPhone)
	assert.Equal(t, "+919876543210", *sold.CustomerPhone)

	stored := f.repo.products[product.ID]
	assert.Equal(t, enums.ProductStageSold, stored.Stage)
	assert.False(t, stored.IsActive)
	require.NotNil(t, stored.CustomerPhone)
	assert.Equal(t, "+919876543210", *stored.CustomerPhone)

	dto := ProductFromModel(stored)
	require.NotNil(t, dto.CustomerPhone)
	assert.Equal(t, "+919876543210", *dto.CustomerPhone)
	assert.Equal(t, []enums.OutboxEventType{
		enums.EventProductSold,
		enums.EventStageAdvanced,
	}, f.outbox.eventTypes())
}

func TestSellOut_RequiresPhone(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SellOut(context.Background(), SellOutInput{
		Actor:          Actor{ID: uuid.New(), Role: enums.UserRoleRetailer},
		RetailRecordID: uuid.New(),
		Quantity:       1,
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestFullPipeline_EmitsOrderedEvents(t *testing.T) {
	f := newFixture(t)
	farmerID := uuid.New()
	f.addFarmer(farmerID, "Nashik, Maharashtra")
	ctx := context.Background()

	product, err := f.svc.CreateProduct(ctx, CreateProductInput{
		Actor:       Actor{ID: farmerID, Role: enums.UserRoleFarmer},
		Name:        "Alphonso Mangoes",
		Category:    "fruits",
		Quantity:    100,
		BasePrice:   decimal.NewFromInt(400),
		HarvestDate: time.Now().AddDate(0, 0, -1),
	})
	require.NoError(t, err)

	transporterID := uuid.New()
	transport, err := f.svc.AcceptPickup(ctx, AcceptPickupInput{
		Actor:       Actor{ID: transporterID, Role: enums.UserRoleTransporter},
		ProductID:   product.ID,
		Destination: "Mumbai central warehouse",
	})
	require.NoError(t, err)

	_, err = f.svc.CompleteTransport(ctx, CompleteTransportInput{
		Actor:             Actor{ID: transporterID, Role: enums.UserRoleTransporter},
		TransportRecordID: transport.ID,
	})
	require.NoError(t, err)

	managerID := uuid.New()
	_, err = f.svc.StoreProduct(ctx, StoreProductInput{
		Actor:         Actor{ID: managerID, Role: enums.UserRoleWarehouse},
		ProductID:     product.ID,
		WarehouseName: "Cold Store 3",
		Location:      "Mumbai",
	})
	require.NoError(t, err)

	retailerID := uuid.New()
	_, err = f.svc.DispatchToRetail(ctx, DispatchInput{
		Actor:      Actor{ID: managerID, Role: enums.UserRoleWarehouse},
		ProductID:  product.ID,
		RetailerID: retailerID,
	})
	require.NoError(t, err)

	listing, err := f.svc.ListForRetail(ctx, ListForRetailInput{
		Actor:        Actor{ID: retailerID, Role: enums.UserRoleRetailer},
		ProductID:    product.ID,
		ShopName:     "Fresh Basket",
		Location:     "Pune",
		SellingPrice: decimal.NewFromInt(600),
		Stock:        100,
	})
	require.NoError(t, err)

	_, err = f.svc.SellOut(ctx, SellOutInput{
		Actor:          Actor{ID: retailerID, Role: enums.UserRoleRetailer},
		RetailRecordID: listing.ID,
		CustomerPhone:  "+919876543210",
		Quantity:       100,
	})
	require.NoError(t, err)

	assert.Equal(t, []enums.OutboxEventType{
		enums.EventProductCreated,
		enums.EventTransportAccepted,
		enums.EventStageAdvanced,
		enums.EventTransportCompleted,
		enums.EventStageAdvanced,
		enums.EventProductStored,
		enums.EventProductDispatched,
		enums.EventStageAdvanced,
		enums.EventProductListed,
		enums.EventProductSold,
		enums.EventStageAdvanced,
	}, f.outbox.eventTypes())

	final := f.repo.products[product.ID]
	assert.Equal(t, enums.ProductStageSold, final.Stage)
	require.NotNil(t, final.CustomerPhone)
	assert.Equal(t, "+919876543210", *final.CustomerPhone)
}

func TestListProducts_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.repo.listErr = errors.New("connection reset")

	_, err := f.svc.ListProducts(context.Background())
	assertCode(t, err, pkgerrors.CodeInternal)
}
