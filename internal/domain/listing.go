package domain

// PlaceholderDescription replaces empty or missing listing descriptions
// before embedding, so the provider never receives an empty string.
const PlaceholderDescription = "No description available"

// RawListing is an uncleaned row as delivered by a data source.
// All fields are raw strings; normalization happens at ingestion.
type RawListing struct {
	Price       string
	Bedrooms    string
	Bathrooms   string
	City        string
	Description string
}

// Listing is a single rental property record. Immutable once ingested.
type Listing struct {
	Price       float64
	Bedrooms    int
	Bathrooms   float64
	City        string
	Description string
}
