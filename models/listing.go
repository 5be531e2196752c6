package models

import "time"

// SearchResponse is the body returned by the Trade Me residential search.
type SearchResponse struct {
	TotalCount int             `json:"TotalCount"`
	Page       int             `json:"Page"`
	PageSize   int             `json:"PageSize"`
	List       []ListingRecord `json:"List"`
}

// ListingRecord is one listing as received from Trade Me. It only lives for
// the duration of a single fetch.
type ListingRecord struct {
	ListingID    int64      `json:"ListingId"`
	Title        string     `json:"Title"`
	Suburb       string     `json:"Suburb"`
	District     string     `json:"District"`
	Region       string     `json:"Region"`
	Bedrooms     int        `json:"Bedrooms"`
	Bathrooms    int        `json:"Bathrooms"`
	PriceDisplay string     `json:"PriceDisplay"`
	PictureHref  string     `json:"PictureHref"`
	OpenHomes    []OpenHome `json:"OpenHomes"`
}

// OpenHome is a scheduled public viewing attached to a listing.
type OpenHome struct {
	Start TradeMeTime `json:"Start"`
	End   TradeMeTime `json:"End"`
}

// OpenHomeSummary is the normalized record served by the API and stored in
// the open_homes table.
type OpenHomeSummary struct {
	ID           int64     `json:"id"`
	ListingID    int64     `json:"listingId"`
	Title        string    `json:"title"`
	Location     string    `json:"location"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	OpenHomeTime time.Time `json:"openHomeTime"`
	Price        string    `json:"price"`
	PictureHref  string    `json:"pictureHref"`
}

// InsightReport holds aggregate figures over a set of open homes.
type InsightReport struct {
	TotalOpenHomes      int              `json:"totalOpenHomes"`
	AverageBedrooms     float64          `json:"averageBedrooms"`
	EarliestOpenHome    *OpenHomeSummary `json:"earliestOpenHome,omitempty"`
	LatestOpenHome      *OpenHomeSummary `json:"latestOpenHome,omitempty"`
	OpenHomesByLocation map[string]int   `json:"openHomesByLocation"`
	OpenHomesByBedrooms map[int]int      `json:"openHomesByBedrooms"`
}
