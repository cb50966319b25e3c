package listing

import (
	"time"

	"luxauction-api/internal/domain"
)

// Display is the read-side projection returned by every listing endpoint.
// CurrentBid and Bids mirror StartingBid and zero until bidding exists.
type Display struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	StartingBid float64   `json:"startingBid"`
	CurrentBid  float64   `json:"currentBid"`
	Bids        int       `json:"bids"`
	Status      string    `json:"status"`
	TimeLeft    string    `json:"timeLeft"`
	ImageURL    *string   `json:"imageUrl"`
	SellerName  string    `json:"sellerName"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
}

// Detail is a Display plus the descriptive attributes, used for single-listing reads.
type Detail struct {
	Display
	Description     string   `json:"description"`
	Condition       string   `json:"condition"`
	Era             *string  `json:"era,omitempty"`
	Materials       []string `json:"materials"`
	Weight          *float64 `json:"weight,omitempty"`
	Dimensions      *string  `json:"dimensions,omitempty"`
	HasCertificates bool     `json:"hasCertificates"`
	ShippingInfo    *string  `json:"shippingInfo,omitempty"`
	ReservePrice    *float64 `json:"reservePrice,omitempty"`
	ImageURLs       []string `json:"imageUrls"`
}

func ToDisplay(l *domain.Listing, now time.Time) Display {
	d := Display{
		ID:          l.ID,
		Title:       l.Title,
		Category:    l.Category,
		StartingBid: l.StartingBid,
		CurrentBid:  l.StartingBid,
		Bids:        0,
		Status:      string(l.Status),
		TimeLeft:    TimeLeft(now, l.StartTime, l.EndTime, l.Status),
		SellerName:  l.SellerName(),
		StartTime:   l.StartTime,
		EndTime:     l.EndTime,
	}
	if imgs := l.Images(); len(imgs) > 0 {
		first := imgs[0]
		d.ImageURL = &first
	}
	return d
}

func ToDisplays(ls []domain.Listing, now time.Time) []Display {
	out := make([]Display, 0, len(ls))
	for i := range ls {
		out = append(out, ToDisplay(&ls[i], now))
	}
	return out
}

func ToDetail(l *domain.Listing, now time.Time) Detail {
	materials := l.MaterialTags()
	if materials == nil {
		materials = []string{}
	}
	images := l.Images()
	if images == nil {
		images = []string{}
	}
	return Detail{
		Display:         ToDisplay(l, now),
		Description:     l.Description,
		Condition:       l.Condition,
		Era:             l.Era,
		Materials:       materials,
		Weight:          l.Weight,
		Dimensions:      l.Dimensions,
		HasCertificates: l.HasCertificates,
		ShippingInfo:    l.ShippingInfo,
		ReservePrice:    l.ReservePrice,
		ImageURLs:       images,
	}
}
