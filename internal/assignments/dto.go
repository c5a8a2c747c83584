package assignments

import (
	"github.com/google/uuid"

	"github.com/agritrace/agritrace-backend/internal/pipeline"
	"github.com/agritrace/agritrace-backend/pkg/db/models"
)

const (
	fallbackFarmName = "Farm not specified"
	fallbackLocation = "Location not specified"
	fallbackAddress  = "Address not specified"
	fallbackPincode  = "Pincode not specified"
	fallbackContact  = "Contact not specified"
)

// PickupFarmer is the farmer block embedded in pickup listings. Every field is
// always populated; missing profile data falls back to a placeholder.
type PickupFarmer struct {
	UserID        uuid.UUID `json:"user_id"`
	FarmName      string    `json:"farm_name"`
	Location      string    `json:"location"`
	Address       string    `json:"address"`
	Pincode       string    `json:"pincode"`
	ContactNumber string    `json:"contact_number"`
}

// PickupLocation is the pre-built address block a transporter navigates to.
type PickupLocation struct {
	Address string `json:"address"`
	Pincode string `json:"pincode"`
	Contact string `json:"contact"`
}

// PickupProduct is a harvested product offered for transport, with the
// farmer's pickup details resolved.
type PickupProduct struct {
	pipeline.ProductDTO
	Farmer         PickupFarmer   `json:"farmer"`
	PickupLocation PickupLocation `json:"pickup_location"`
}

// RetailerDTO is a retailer option for the warehouse dispatch form.
type RetailerDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func pickupProductFrom(product *models.Product, profile *models.FarmerProfile) PickupProduct {
	farmer := PickupFarmer{
		UserID:        product.FarmerID,
		FarmName:      fallbackFarmName,
		Location:      fallbackLocation,
		Address:       fallbackAddress,
		Pincode:       fallbackPincode,
		ContactNumber: fallbackContact,
	}
	if profile != nil {
		if profile.FarmName != "" {
			farmer.FarmName = profile.FarmName
		}
		if profile.Location != "" {
			farmer.Location = profile.Location
		}
		if profile.Address != nil && *profile.Address != "" {
			farmer.Address = *profile.Address
		}
		if profile.Pincode != nil && *profile.Pincode != "" {
			farmer.Pincode = *profile.Pincode
		}
		if profile.ContactNumber != nil && *profile.ContactNumber != "" {
			farmer.ContactNumber = *profile.ContactNumber
		}
	}
	return PickupProduct{
		ProductDTO: *pipeline.ProductFromModel(product),
		Farmer:     farmer,
		PickupLocation: PickupLocation{
			Address: farmer.Address,
			Pincode: farmer.Pincode,
			Contact: farmer.ContactNumber,
		},
	}
}
