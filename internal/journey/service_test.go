package journey

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
)

type stubReader struct {
	products   map[uuid.UUID]*models.Product
	transports map[uuid.UUID]*models.TransportRecord
	warehouses map[uuid.UUID]*models.WarehouseRecord
	retails    map[uuid.UUID]*models.RetailRecord
}

func newStubReader() *stubReader {
	return &stubReader{
		products:   map[uuid.UUID]*models.Product{},
		transports: map[uuid.UUID]*models.TransportRecord{},
		warehouses: map[uuid.UUID]*models.WarehouseRecord{},
		retails:    map[uuid.UUID]*models.RetailRecord{},
	}
}

func (r *stubReader) FindProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubReader) FindProductByCode(_ context.Context, code string) (*models.Product, error) {
	for _, p := range r.products {
		if p.ProductCode == code {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubReader) FindFirstTransportRecordByProduct(_ context.Context, productID uuid.UUID) (*models.TransportRecord, error) {
	record, ok := r.transports[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (r *stubReader) FindFirstWarehouseRecordByProduct(_ context.Context, productID uuid.UUID) (*models.WarehouseRecord, error) {
	record, ok := r.warehouses[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (r *stubReader) FindRetailRecordByProduct(_ context.Context, productID uuid.UUID) (*models.RetailRecord, error) {
	record, ok := r.retails[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (r *stubReader) ListRetailRecordsByCustomerPhone(_ context.Context, phone string) ([]models.RetailRecord, error) {
	var out []models.RetailRecord
	for _, record := range r.retails {
		if record.CustomerPhone != nil && *record.CustomerPhone == phone {
			out = append(out, *record)
		}
	}
	return out, nil
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
	reader   *stubReader
	profiles *stubProfiles
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reader := newStubReader()
	profiles := &stubProfiles{profiles: map[uuid.UUID]*models.FarmerProfile{}}
	svc, err := NewService(reader, profiles, nil)
	require.NoError(t, err)
	return &fixture{svc: svc, reader: reader, profiles: profiles}
}

func (f *fixture) seedProduct(stage enums.ProductStage) *models.Product {
	product := &models.Product{
		ID:          uuid.New(),
		ProductCode: "PC1700000000000ABCD",
		Name:        "Alphonso Mangoes",
		Category:    "fruits",
		Quantity:    100,
		Unit:        "kg",
		HarvestDate: time.Now().AddDate(0, 0, -7),
		Stage:       stage,
		FarmerID:    uuid.New(),
		IsActive:    true,
		CreatedAt:   time.Now().AddDate(0, 0, -6),
		UpdatedAt:   time.Now(),
	}
	f.reader.products[product.ID] = product
	return product
}

func TestJourney_HarvestedOnly(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(enums.ProductStageHarvested)
	f.profiles.profiles[product.FarmerID] = &models.FarmerProfile{
		UserID:   product.FarmerID,
		FarmName: "Green Acres",
		Location: "Ratnagiri, Maharashtra",
	}

	journey, err := f.svc.ByProductID(context.Background(), product.ID)
	require.NoError(t, err)

	assert.Equal(t, "Harvested", journey.CurrentStatus)
	require.Len(t, journey.Events, 1)
	assert.Equal(t, 1, journey.Events[0].Sequence)
	assert.Equal(t, "Harvested", journey.Events[0].Stage)
	assert.Equal(t, "Green Acres", journey.Events[0].Actor)
	assert.Equal(t, "Ratnagiri, Maharashtra", journey.Events[0].Location)
	assert.Equal(t, product.CreatedAt, journey.Events[0].Timestamp)
}

func TestJourney_MissingFarmerDataUsesPlaceholders(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(enums.ProductStageHarvested)

	journey, err := f.svc.ByProductID(context.Background(), product.ID)
	require.NoError(t, err)

	require.Len(t, journey.Events, 1)
	assert.Equal(t, "Farm not specified", journey.Events[0].Actor)
	assert.Equal(t, "Location not specified", journey.Events[0].Location)
}

func TestJourney_InTransitVsDelivered(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(enums.ProductStageInTransport)
	transporterID := uuid.New()
	product.TransporterID = &transporterID
	f.reader.transports[product.ID] = &models.TransportRecord{
		ID:            uuid.New(),
		ProductID:     product.ID,
		TransporterID: transporterID,
		PickupAddress: "Ratnagiri",
		Destination:   "Mumbai central warehouse",
		Status:        enums.TransportStatusPickedUp,
		PickedUpAt:    time.Now().Add(-time.Hour),
	}

	journey, err := f.svc.ByProductID(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, journey.Events, 2)
	assert.Equal(t, "In Transit", journey.Events[1].Status)
	assert.Equal(t, "Mumbai central warehouse", journey.Events[1].Location)

	product.Stage = enums.ProductStageInWarehouse
	journey, err = f.svc.ByProductID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Delivered", journey.Events[1].Status)
}

func TestJourney_SoldRequiresCustomerPhone(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(enums.ProductStageSold)
	retailerID := uuid.New()
	product.RetailerID = &retailerID
	f.reader.retails[product.ID] = &models.RetailRecord{
		ID:         uuid.New(),
		ProductID:  product.ID,
		RetailerID: retailerID,
		ShopName:   "Fresh Basket",
		Location:   "Pune",
		Stock:      0,
		ReceivedAt: time.Now().Add(-2 * time.Hour),
	}

	// No phone recorded yet: the retail event shows Sold but no terminal
	// Sold event is appended.
	journey, err := f.svc.ByProductID(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, journey.Events, 2)
	assert.Equal(t, "In Retail", journey.Events[1].Stage)
	assert.Equal(t, "Sold", journey.Events[1].Status)

	phone := "+919876543210"
	soldAt := time.Now()
	f.reader.retails[product.ID].CustomerPhone = &phone
	f.reader.retails[product.ID].SoldAt = &soldAt

	journey, err = f.svc.ByProductID(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, journey.Events, 3)
	assert.Equal(t, "Sold", journey.Events[2].Stage)
	assert.Equal(t, soldAt, journey.Events[2].Timestamp)
}

func TestJourney_FullPipelineFiveOrderedEvents(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(enums.ProductStageSold)
	transporterID, managerID, retailerID := uuid.New(), uuid.New(), uuid.New()
	product.TransporterID = &transporterID
	product.WarehouseID = &managerID
	product.RetailerID = &retailerID

	f.profiles.profiles[product.FarmerID] = &models.FarmerProfile{
		UserID:   product.FarmerID,
		FarmName: "Green Acres",
		Location: "Ratnagiri",
	}
	deliveredAt := time.Now().Add(-4 * time.Hour)
	f.reader.transports[product.ID] = &models.TransportRecord{
		ProductID:     product.ID,
		TransporterID: transporterID,
		PickupAddress: "Ratnagiri",
		Destination:   "Mumbai",
		Status:        enums.TransportStatusDelivered,
		PickedUpAt:    time.Now().Add(-5 * time.Hour),
		DeliveredAt:   &deliveredAt,
	}
	conditions := "4C cold storage"
	f.reader.warehouses[product.ID] = &models.WarehouseRecord{
		ProductID:         product.ID,
		ManagerID:         managerID,
		WarehouseName:     "Cold Store 3",
		Location:          "Mumbai",
		StorageConditions: &conditions,
		StoredAt:          time.Now().Add(-3 * time.Hour),
	}
	phone := "9876543210"
	soldAt := time.Now()
	f.reader.retails[product.ID] = &models.RetailRecord{
		ProductID:     product.ID,
		RetailerID:    retailerID,
		ShopName:      "Fresh Basket",
		Location:      "Pune",
		Stock:         0,
		ReceivedAt:    time.Now().Add(-2 * time.Hour),
		SoldAt:        &soldAt,
		CustomerPhone: &phone,
	}

	journey, err := f.svc.ByProductID(context.Background(), product.ID)
	require.NoError(t, err)

	require.Len(t, journey.Events, 5)
	stages := make([]string, 0, 5)
	for i, event := range journey.Events {
		assert.Equal(t, i+1, event.Sequence)
		stages = append(stages, event.Stage)
	}
	assert.Equal(t, []string{"Harvested", "In Transport", "In Warehouse", "In Retail", "Sold"}, stages)
	assert.Equal(t, "Sold", journey.CurrentStatus)
	assert.Equal(t, "Dispatched", journey.Events[2].Status)
	require.NotNil(t, journey.Events[2].Notes)
	assert.Equal(t, "4C cold storage", *journey.Events[2].Notes)
}

func TestJourney_WarehouseStatusTracksStage(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(enums.ProductStageInWarehouse)
	transporterID, managerID, retailerID := uuid.New(), uuid.New(), uuid.New()
	product.TransporterID = &transporterID
	product.WarehouseID = &managerID
	f.reader.warehouses[product.ID] = &models.WarehouseRecord{
		ProductID:     product.ID,
		ManagerID:     managerID,
		WarehouseName: "Cold Store 3",
		Location:      "Mumbai",
		StoredAt:      time.Now().Add(-time.Hour),
	}

	journey, err := f.svc.ByProductID(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, journey.Events, 3)
	assert.Equal(t, "In Storage", journey.Events[2].Status)

	product.Stage = enums.ProductStageInRetail
	product.RetailerID = &retailerID
	f.reader.retails[product.ID] = &models.RetailRecord{
		ProductID:  product.ID,
		RetailerID: retailerID,
		ShopName:   "Fresh Basket",
		Location:   "Pune",
		Stock:      50,
		ReceivedAt: time.Now(),
	}
	journey, err = f.svc.ByProductID(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, journey.Events, 4)
	assert.Equal(t, "Dispatched", journey.Events[2].Status)
}

func TestJourney_ByCodeMatchesByID(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(enums.ProductStageInWarehouse)
	transporterID, managerID := uuid.New(), uuid.New()
	product.TransporterID = &transporterID
	product.WarehouseID = &managerID

	byID, err := f.svc.ByProductID(context.Background(), product.ID)
	require.NoError(t, err)
	byCode, err := f.svc.ByProductCode(context.Background(), product.ProductCode)
	require.NoError(t, err)

	assert.Equal(t, byID, byCode)
}

func TestJourney_Idempotent(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(enums.ProductStageHarvested)

	first, err := f.svc.ByProductID(context.Background(), product.ID)
	require.NoError(t, err)
	second, err := f.svc.ByProductID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPurchasesByPhone(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(enums.ProductStageSold)
	phone := "+919876543210"
	soldAt := time.Now()
	f.reader.retails[product.ID] = &models.RetailRecord{
		ProductID:     product.ID,
		RetailerID:    uuid.New(),
		ShopName:      "Fresh Basket",
		Location:      "Pune",
		Stock:         0,
		ReceivedAt:    time.Now().Add(-time.Hour),
		SoldAt:        &soldAt,
		CustomerPhone: &phone,
	}

	purchases, err := f.svc.PurchasesByPhone(context.Background(), phone)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, product.ProductCode, purchases[0].ProductCode)
	assert.Equal(t, "Fresh Basket", purchases[0].ShopName)

	empty, err := f.svc.PurchasesByPhone(context.Background(), "+910000000000")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestJourney_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ByProductID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.ByProductCode(context.Background(), "PC0000000000000XXXX")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
