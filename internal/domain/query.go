package domain

const FilterAll = "All"

// Sort keys. Anything else sorts as SortEndingSoon.
const (
	SortEndingSoon   = "Ending Soon"
	SortNewlyListed  = "Newly Listed"
	SortMostBids     = "Most Bids"
	SortPriceHighLow = "Price High to Low"
	SortPriceLowHigh = "Price Low to High"
)

// Price buckets on the starting bid.
const (
	PriceUnder1000   = "Under 1000"
	Price1000To5000  = "1000-5000"
	Price5000To10000 = "5000-10000"
	PriceOver10000   = "Over 10000"
)

const (
	FeaturedDefault = 3
	FeaturedMax     = 10
	FeaturedMin     = 1
)

// Query holds the public catalog filter and sort parameters of one request.
type Query struct {
	Search     string `form:"search"`
	Category   string `form:"category"`
	PriceRange string `form:"price"`
	SortBy     string `form:"sort"`
}

// ClampFeaturedCount keeps a requested featured count inside [FeaturedMin, FeaturedMax].
// Zero or negative means "not given" and yields the default.
func ClampFeaturedCount(n int) int {
	switch {
	case n <= 0:
		return FeaturedDefault
	case n > FeaturedMax:
		return FeaturedMax
	default:
		return n
	}
}
