package listing

import (
	"cmp"
	"sort"
	"strings"
	"time"

	"luxauction-api/internal/domain"
)

// Apply narrows a catalog snapshot to the listings a public query asks for and
// orders them. Filters run in a fixed order: active window, search term,
// category, price bucket. Ties on the sort key are broken by ascending id.
func Apply(rows []domain.Listing, q domain.Query, now time.Time) []domain.Listing {
	term := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]domain.Listing, 0, len(rows))
	for i := range rows {
		l := &rows[i]
		if !l.InActiveWindow(now) {
			continue
		}
		if term != "" && !matchesSearch(l, term) {
			continue
		}
		if isSet(q.Category) && l.Category != q.Category {
			continue
		}
		if isSet(q.PriceRange) && !InPriceRange(l.StartingBid, q.PriceRange) {
			continue
		}
		out = append(out, *l)
	}
	Sort(out, q.SortBy)
	return out
}

// Featured returns up to count active listings, soonest ending first.
func Featured(rows []domain.Listing, count int, now time.Time) []domain.Listing {
	count = domain.ClampFeaturedCount(count)
	out := make([]domain.Listing, 0, count)
	for i := range rows {
		if rows[i].InActiveWindow(now) {
			out = append(out, rows[i])
		}
	}
	Sort(out, domain.SortEndingSoon)
	if len(out) > count {
		out = out[:count]
	}
	return out
}

// InPriceRange buckets on the starting bid. Unknown bucket names match everything.
func InPriceRange(bid float64, bucket string) bool {
	switch bucket {
	case domain.PriceUnder1000:
		return bid < 1000
	case domain.Price1000To5000:
		return bid >= 1000 && bid < 5000
	case domain.Price5000To10000:
		return bid >= 5000 && bid < 10000
	case domain.PriceOver10000:
		return bid >= 10000
	}
	return true
}

// Sort orders listings in place by the named key; unknown keys sort as Ending Soon.
func Sort(ls []domain.Listing, key string) {
	by := comparator(key)
	sort.SliceStable(ls, func(i, j int) bool {
		if c := by(&ls[i], &ls[j]); c != 0 {
			return c < 0
		}
		return ls[i].ID < ls[j].ID
	})
}

func comparator(key string) func(a, b *domain.Listing) int {
	switch key {
	case domain.SortNewlyListed:
		return func(a, b *domain.Listing) int { return b.StartTime.Compare(a.StartTime) }
	case domain.SortMostBids:
		// no bid counts yet: newest id first
		return func(a, b *domain.Listing) int { return cmp.Compare(b.ID, a.ID) }
	case domain.SortPriceHighLow:
		return func(a, b *domain.Listing) int { return cmp.Compare(b.StartingBid, a.StartingBid) }
	case domain.SortPriceLowHigh:
		return func(a, b *domain.Listing) int { return cmp.Compare(a.StartingBid, b.StartingBid) }
	default:
		return func(a, b *domain.Listing) int { return a.EndTime.Compare(b.EndTime) }
	}
}

func matchesSearch(l *domain.Listing, term string) bool {
	return strings.Contains(strings.ToLower(l.Title), term) ||
		strings.Contains(strings.ToLower(l.SellerName()), term)
}

func isSet(v string) bool {
	return strings.TrimSpace(v) != "" && !strings.EqualFold(v, domain.FilterAll)
}
