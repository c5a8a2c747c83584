package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agritrace/agritrace-backend/api/responses"
	"github.com/agritrace/agritrace-backend/api/validators"
	"github.com/agritrace/agritrace-backend/internal/assignments"
	"github.com/agritrace/agritrace-backend/internal/pipeline"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
	"github.com/agritrace/agritrace-backend/pkg/logger"
)

type listForRetailRequest struct {
	ProductID    uuid.UUID       `json:"product_id" validate:"required"`
	ShopName     string          `json:"shop_name" validate:"required"`
	Location     string          `json:"location" validate:"required"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Stock        int             `json:"stock" validate:"required,min=1"`
}

type updateRetailRecordRequest struct {
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
	Stock        *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
}

type sellOutRequest struct {
	CustomerPhone string `json:"customer_phone" validate:"required"`
	Quantity      int    `json:"quantity" validate:"required,min=1"`
}

// RetailListRecords serves the caller's retail listings. Admins see all.
func RetailListRecords(svc pipeline.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pipeline service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListRetailRecords(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, records)
	}
}

// RetailAssignedProducts serves the products routed to the caller's shop.
// Both the available-products and assigned-products routes mount this; a
// dispatched product stays in the list until it is sold.
func RetailAssignedProducts(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := svc.AssignedToRetailer(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// RetailListForSale puts a dispatched product on the shelf.
func RetailListForSale(svc pipeline.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pipeline service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body listForRetailRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.ListForRetail(r.Context(), pipeline.ListForRetailInput{
			Actor:        actor,
			ProductID:    body.ProductID,
			ShopName:     body.ShopName,
			Location:     body.Location,
			SellingPrice: body.SellingPrice,
			Stock:        body.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// RetailUpdateRecord applies in-place corrections to a listing.
func RetailUpdateRecord(svc pipeline.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pipeline service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordID, err := parseUUIDParam(chi.URLParam(r, "retailId"), "retail record id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateRetailRecordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.UpdateRetailRecord(r.Context(), pipeline.UpdateRetailRecordInput{
			Actor:        actor,
			RecordID:     recordID,
			SellingPrice: body.SellingPrice,
			Stock:        body.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// RetailSellOut closes a listing against a customer purchase.
func RetailSellOut(svc pipeline.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pipeline service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordID, err := parseUUIDParam(chi.URLParam(r, "retailId"), "retail record id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sellOutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.SellOut(r.Context(), pipeline.SellOutInput{
			Actor:          actor,
			RetailRecordID: recordID,
			CustomerPhone:  body.CustomerPhone,
			Quantity:       body.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

// RetailDeleteRecord removes a listing. Admin surface only.
func RetailDeleteRecord(svc pipeline.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pipeline service unavailable"))
			return
		}

		recordID, err := parseUUIDParam(chi.URLParam(r, "retailId"), "retail record id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteRetailRecord(r.Context(), recordID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
