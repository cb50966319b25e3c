package domain

import (
	"context"
	"strings"
	"time"
)

type ListingStatus string

const (
	StatusPending   ListingStatus = "Pending"
	StatusActive    ListingStatus = "Active"
	StatusSold      ListingStatus = "Sold"
	StatusExpired   ListingStatus = "Expired"
	StatusCancelled ListingStatus = "Cancelled"
)

// Listing is one auctioned jewelry item. List-valued attributes are stored
// comma-joined; nil means the list is empty.
type Listing struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	Title           string        `gorm:"size:200;not null" json:"title"`
	Category        string        `gorm:"size:64;not null;index" json:"category"`
	Description     string        `gorm:"type:text;not null" json:"description"`
	Condition       string        `gorm:"size:64" json:"condition"`
	Era             *string       `gorm:"size:64" json:"era,omitempty"`
	Materials       *string       `gorm:"size:512" json:"materials,omitempty"`
	Weight          *float64      `gorm:"type:decimal(10,2)" json:"weight,omitempty"`
	Dimensions      *string       `gorm:"size:128" json:"dimensions,omitempty"`
	HasCertificates bool          `gorm:"not null;default:false" json:"hasCertificates"`
	ShippingInfo    *string       `gorm:"type:text" json:"shippingInfo,omitempty"`
	StartingBid     float64       `gorm:"type:decimal(18,2);not null" json:"startingBid"`
	ReservePrice    *float64      `gorm:"type:decimal(18,2)" json:"reservePrice,omitempty"`
	StartTime       time.Time     `gorm:"not null;index" json:"startTime"`
	EndTime         time.Time     `gorm:"not null;index" json:"endTime"`
	ImageURLs       *string       `gorm:"column:image_urls;type:text" json:"imageUrls,omitempty"`
	Status          ListingStatus `gorm:"size:16;not null;index" json:"status"`
	SellerID        uint          `gorm:"not null;index" json:"sellerId"`

	Seller *User `gorm:"foreignKey:SellerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"seller,omitempty"`
}

func (Listing) TableName() string { return "listings" }

// Images returns the stored image references in submission order.
func (l *Listing) Images() []string { return SplitList(l.ImageURLs) }

func (l *Listing) MaterialTags() []string { return SplitList(l.Materials) }

func (l *Listing) SellerName() string {
	if l.Seller == nil {
		return ""
	}
	return l.Seller.FullName
}

// InActiveWindow reports whether the listing is Active and now lies in [StartTime, EndTime).
func (l *Listing) InActiveWindow(now time.Time) bool {
	return l.Status == StatusActive && !l.StartTime.After(now) && l.EndTime.After(now)
}

// JoinList is the storage form of a list attribute.
func JoinList(items []string) *string {
	if len(items) == 0 {
		return nil
	}
	s := strings.Join(items, ",")
	return &s
}

func SplitList(s *string) []string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	parts := strings.Split(*s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type ListingRepository interface {
	Add(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, id uint) (*Listing, error)
	ListBySeller(ctx context.Context, sellerID uint) ([]Listing, error)
	DeleteOwned(ctx context.Context, id, sellerID uint) (bool, error)
	QueryActive(ctx context.Context, q Query, now time.Time) ([]Listing, error)
	ListFeatured(ctx context.Context, count int, now time.Time) ([]Listing, error)
	ImageRefs(ctx context.Context) ([]string, error)
}
