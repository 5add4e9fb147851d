package models

import (
	"time"
)

// Category enumerates the kinds of items the marketplace trades in.
type Category string

const (
	CategoryCar         Category = "car"
	CategoryPart        Category = "part"
	CategoryMemorabilia Category = "memorabilia"
)

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryCar, CategoryPart, CategoryMemorabilia:
		return true
	}
	return false
}

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

const (
	ListingStatusActive ListingStatus = "active"
	ListingStatusSold   ListingStatus = "sold"
)

// Listing represents a marketplace listing.
type Listing struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"owner_id"`
	Title       string        `json:"title"`
	Category    Category      `json:"category"`
	PriceEUR    *int          `json:"price_eur,omitempty"`
	Location    *string       `json:"location,omitempty"`
	Condition   *string       `json:"condition,omitempty"`
	Description *string       `json:"description,omitempty"`
	ImageURLs   []string      `json:"image_urls"`
	Status      ListingStatus `json:"status"`
	SoldAt      *time.Time    `json:"sold_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ListingCounts summarizes a seller's listings per status tab.
type ListingCounts struct {
	Active int `json:"active"`
	Sold   int `json:"sold"`
	Total  int `json:"total"`
}
