package domain

// Query holds one search invocation's parameters.
// Nil MaxPrice / MinBedrooms mean the criterion is unconstrained and
// counts as satisfied for every listing.
type Query struct {
	Text        string
	MaxPrice    *float64
	MinBedrooms *int
}

// Weights blends constraint satisfaction with semantic similarity.
// Expected (not enforced) to sum to 1.0.
type Weights struct {
	Hard     float64 `yaml:"hard"`
	Semantic float64 `yaml:"semantic"`
}

// ScoredListing is a listing with its per-query scores.
// HardScore is in [0,1], SemanticScore in [-1,1] (cosine range),
// FinalScore is the weighted sum.
type ScoredListing struct {
	Listing       Listing
	HardScore     float64
	SemanticScore float64
	FinalScore    float64
}
