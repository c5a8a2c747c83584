// Package reports produces the admin export: a gzip-compressed CSV dump of
// every entity in the pipeline, streamed section by section.
package reports

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/multierr"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
)

type entityLister interface {
	ListAllProducts(ctx context.Context) ([]models.Product, error)
	ListTransportRecords(ctx context.Context, transporterID *uuid.UUID) ([]models.TransportRecord, error)
	ListWarehouseRecords(ctx context.Context, managerID *uuid.UUID) ([]models.WarehouseRecord, error)
	ListRetailRecords(ctx context.Context, retailerID *uuid.UUID) ([]models.RetailRecord, error)
}

type userLister interface {
	ListAll(ctx context.Context) ([]models.User, error)
}

// Service streams the full-entity export.
type Service interface {
	WriteCSVArchive(ctx context.Context, w io.Writer) error
}

type service struct {
	entities entityLister
	users    userLister
}

// NewService builds a reports service.
func NewService(entities entityLister, users userLister) (Service, error) {
	if entities == nil {
		return nil, fmt.Errorf("entity lister required")
	}
	if users == nil {
		return nil, fmt.Errorf("user lister required")
	}
	return &service{entities: entities, users: users}, nil
}

// WriteCSVArchive writes one gzip stream holding a CSV section per entity
// type. Each section starts with a marker row ("# <entity>") followed by its
// column header. Sections that fail to load are skipped; the combined error
// reports every failed section.
func (s *service) WriteCSVArchive(ctx context.Context, w io.Writer) error {
	gz := gzip.NewWriter(w)
	cw := csv.NewWriter(gz)

	var errs []error
	errs = append(errs, s.writeUsers(ctx, cw))
	errs = append(errs, s.writeProducts(ctx, cw))
	errs = append(errs, s.writeTransportRecords(ctx, cw))
	errs = append(errs, s.writeWarehouseRecords(ctx, cw))
	errs = append(errs, s.writeRetailRecords(ctx, cw))

	cw.Flush()
	errs = append(errs, cw.Error(), gz.Close())
	return multierr.Combine(errs...)
}

func (s *service) writeUsers(ctx context.Context, cw *csv.Writer) error {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("export users: %w", err)
	}
	if err := writeSection(cw, "users",
		[]string{"id", "email", "first_name", "last_name", "role", "is_active", "created_at"}); err != nil {
		return err
	}
	for i := range users {
		u := &users[i]
		if err := cw.Write([]string{
			u.ID.String(),
			u.Email,
			u.FirstName,
			u.LastName,
			u.Role.String(),
			strconv.FormatBool(u.IsActive),
			formatTime(u.CreatedAt),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) writeProducts(ctx context.Context, cw *csv.Writer) error {
	products, err := s.entities.ListAllProducts(ctx)
	if err != nil {
		return fmt.Errorf("export products: %w", err)
	}
	if err := writeSection(cw, "products",
		[]string{"id", "product_code", "name", "category", "quantity", "unit", "base_price", "stage", "farmer_id", "is_active", "created_at"}); err != nil {
		return err
	}
	for i := range products {
		p := &products[i]
		if err := cw.Write([]string{
			p.ID.String(),
			p.ProductCode,
			p.Name,
			p.Category,
			strconv.Itoa(p.Quantity),
			p.Unit,
			p.BasePrice.String(),
			p.Stage.String(),
			p.FarmerID.String(),
			strconv.FormatBool(p.IsActive),
			formatTime(p.CreatedAt),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) writeTransportRecords(ctx context.Context, cw *csv.Writer) error {
	records, err := s.entities.ListTransportRecords(ctx, nil)
	if err != nil {
		return fmt.Errorf("export transport records: %w", err)
	}
	if err := writeSection(cw, "transport_records",
		[]string{"id", "product_id", "transporter_id", "pickup_address", "destination", "status", "picked_up_at", "delivered_at"}); err != nil {
		return err
	}
	for i := range records {
		r := &records[i]
		if err := cw.Write([]string{
			r.ID.String(),
			r.ProductID.String(),
			r.TransporterID.String(),
			r.PickupAddress,
			r.Destination,
			r.Status.String(),
			formatTime(r.PickedUpAt),
			formatTimePtr(r.DeliveredAt),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) writeWarehouseRecords(ctx context.Context, cw *csv.Writer) error {
	records, err := s.entities.ListWarehouseRecords(ctx, nil)
	if err != nil {
		return fmt.Errorf("export warehouse records: %w", err)
	}
	if err := writeSection(cw, "warehouse_records",
		[]string{"id", "product_id", "manager_id", "warehouse_name", "location", "stored_at", "dispatched_at"}); err != nil {
		return err
	}
	for i := range records {
		r := &records[i]
		if err := cw.Write([]string{
			r.ID.String(),
			r.ProductID.String(),
			r.ManagerID.String(),
			r.WarehouseName,
			r.Location,
			formatTime(r.StoredAt),
			formatTimePtr(r.DispatchedAt),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) writeRetailRecords(ctx context.Context, cw *csv.Writer) error {
	records, err := s.entities.ListRetailRecords(ctx, nil)
	if err != nil {
		return fmt.Errorf("export retail records: %w", err)
	}
	if err := writeSection(cw, "retail_records",
		[]string{"id", "product_id", "retailer_id", "shop_name", "location", "selling_price", "stock", "sold_at", "customer_phone"}); err != nil {
		return err
	}
	for i := range records {
		r := &records[i]
		phone := ""
		if r.CustomerPhone != nil {
			phone = *r.CustomerPhone
		}
		if err := cw.Write([]string{
			r.ID.String(),
			r.ProductID.String(),
			r.RetailerID.String(),
			r.ShopName,
			r.Location,
			r.SellingPrice.String(),
			strconv.Itoa(r.Stock),
			formatTimePtr(r.SoldAt),
			phone,
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeSection(cw *csv.Writer, name string, header []string) error {
	if err := cw.Write([]string{"# " + name}); err != nil {
		return err
	}
	return cw.Write(header)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
