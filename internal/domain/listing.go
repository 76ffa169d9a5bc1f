package domain

import "time"

// Gender policies a listing can declare.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderColive = "colive"
)

// PriceTier is an (occupancy type, monthly rent) pair.
type PriceTier struct {
	SharingType string `json:"sharingType" dynamodbav:"sharing_type" validate:"required"`
	Price       int    `json:"price" dynamodbav:"price" validate:"required,gt=0"`
}

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat" dynamodbav:"lat"`
	Lng float64 `json:"lng" dynamodbav:"lng"`
}

// Listing is a shared-housing advertisement owned by one Identity.
// OwnerID is immutable and always set server-side from the authenticated caller.
type Listing struct {
	ListingID   string      `json:"id" dynamodbav:"listing_id"`
	OwnerID     string      `json:"owner_id" dynamodbav:"owner_id"`
	Name        string      `json:"name" dynamodbav:"name"`
	Description string      `json:"description" dynamodbav:"description"`
	Gender      string      `json:"gender" dynamodbav:"gender"`
	City        string      `json:"city" dynamodbav:"city"`
	Area        string      `json:"area" dynamodbav:"area"`
	Location    GeoPoint    `json:"location" dynamodbav:"location"`
	Phone       string      `json:"phone" dynamodbav:"phone"`
	Prices      []PriceTier `json:"prices" dynamodbav:"prices"`
	Images      []string    `json:"images" dynamodbav:"images"`
	CreatedAt   time.Time   `json:"created" dynamodbav:"created_at"`

	// Read-time denormalizations, never persisted.
	OwnerName string `json:"owner_name,omitempty" dynamodbav:"-"`
	MinPrice  int    `json:"min_price,omitempty" dynamodbav:"-"`
}

// CreateListingRequest carries the scalar multipart fields of a create call.
// Lat, Lng and Prices arrive as text and are parsed by the listing service.
type CreateListingRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Gender      string `json:"gender" validate:"required,oneof=male female colive"`
	City        string `json:"city" validate:"required,oneof=Bengaluru Hyderabad Mumbai Chennai Kolkata Noida Pune Kochi Lucknow Delhi Ahmedabad Jaipur Indore Chandigarh Bhopal"`
	Area        string `json:"area" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	Lat         string `json:"lat" validate:"required"`
	Lng         string `json:"lng" validate:"required"`
	Prices      string `json:"prices" validate:"required"` // JSON array of PriceTier
}

// MinPrice returns the lowest price across tiers, or 0 when tiers is empty.
func MinPrice(tiers []PriceTier) int {
	min := 0
	for i, t := range tiers {
		if i == 0 || t.Price < min {
			min = t.Price
		}
	}
	return min
}
