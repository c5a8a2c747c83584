package farmers

import (
	"time"

	"github.com/google/uuid"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
)

// ProfileDTO is the transport shape for a farmer profile.
type ProfileDTO struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	FarmName       string    `json:"farm_name"`
	Location       string    `json:"location"`
	Address        *string   `json:"address,omitempty"`
	Pincode        *string   `json:"pincode,omitempty"`
	ContactNumber  *string   `json:"contact_number,omitempty"`
	Certifications []string  `json:"certifications"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UpsertProfileInput carries the fields a farmer can set on their profile.
type UpsertProfileInput struct {
	UserID         uuid.UUID
	FarmName       string
	Location       string
	Address        *string
	Pincode        *string
	ContactNumber  *string
	Certifications []string
}

func FromModel(p *models.FarmerProfile) *ProfileDTO {
	if p == nil {
		return nil
	}
	certs := append([]string(nil), []string(p.Certifications)...)
	if certs == nil {
		certs = []string{}
	}
	return &ProfileDTO{
		ID:             p.ID,
		UserID:         p.UserID,
		FarmName:       p.FarmName,
		Location:       p.Location,
		Address:        p.Address,
		Pincode:        p.Pincode,
		ContactNumber:  p.ContactNumber,
		Certifications: certs,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
