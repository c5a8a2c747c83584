package controllers

import (
	"net/http"

	"github.com/agritrace/agritrace-backend/api/responses"
	"github.com/agritrace/agritrace-backend/api/validators"
	"github.com/agritrace/agritrace-backend/internal/farmers"
	"github.com/agritrace/agritrace-backend/internal/pipeline"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
	"github.com/agritrace/agritrace-backend/pkg/logger"
)

type upsertProfileRequest struct {
	FarmName       string   `json:"farm_name" validate:"required"`
	Location       string   `json:"location" validate:"required"`
	Address        *string  `json:"address,omitempty"`
	Pincode        *string  `json:"pincode,omitempty"`
	ContactNumber  *string  `json:"contact_number,omitempty"`
	Certifications []string `json:"certifications,omitempty"`
}

// FarmerGetProfile serves the authenticated farmer's profile.
func FarmerGetProfile(svc farmers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "farmers service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.GetProfile(r.Context(), actor.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// FarmerUpsertProfile creates or replaces the authenticated farmer's profile.
// POST and PUT share this handler; the service decides which write applies.
func FarmerUpsertProfile(svc farmers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "farmers service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body upsertProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpsertProfile(r.Context(), farmers.UpsertProfileInput{
			UserID:         actor.ID,
			FarmName:       body.FarmName,
			Location:       body.Location,
			Address:        body.Address,
			Pincode:        body.Pincode,
			ContactNumber:  body.ContactNumber,
			Certifications: body.Certifications,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// FarmerListProducts serves every product the farmer has registered.
func FarmerListProducts(svc pipeline.Service, logg *logger.Logger) http.HandlerFunc {
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

		products, err := svc.ListFarmerProducts(r.Context(), actor.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}
