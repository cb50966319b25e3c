package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"luxauction-api/internal/domain"
	"luxauction-api/internal/feature/listing"
)

type ListingRepo struct{ db *gorm.DB }

func NewListingRepo(db *gorm.DB) *ListingRepo { return &ListingRepo{db: db} }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.StorageError{Op: op, Err: err}
}

func (r *ListingRepo) Add(ctx context.Context, l *domain.Listing) error {
	return storageErr("insert listing", r.db.WithContext(ctx).Omit("Seller").Create(l).Error)
}

func (r *ListingRepo) GetByID(ctx context.Context, id uint) (*domain.Listing, error) {
	var l domain.Listing
	err := r.db.WithContext(ctx).Preload("Seller").First(&l, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get listing", err)
	}
	return &l, nil
}

func (r *ListingRepo) ListBySeller(ctx context.Context, sellerID uint) ([]domain.Listing, error) {
	var ls []domain.Listing
	err := r.db.WithContext(ctx).
		Preload("Seller").
		Where("seller_id = ?", sellerID).
		Order("start_time desc").Order("id desc").
		Find(&ls).Error
	return ls, storageErr("list seller listings", err)
}

// DeleteOwned removes the row only if sellerID owns it and reports whether a row went away.
func (r *ListingRepo) DeleteOwned(ctx context.Context, id, sellerID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND seller_id = ?", id, sellerID).Delete(&domain.Listing{})
	if res.Error != nil {
		return false, storageErr("delete listing", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// QueryActive loads the active window from the database with sellers
// attached, then narrows and orders it in memory.
func (r *ListingRepo) QueryActive(ctx context.Context, q domain.Query, now time.Time) ([]domain.Listing, error) {
	var rows []domain.Listing
	err := r.active(ctx, now).Preload("Seller").Find(&rows).Error
	if err != nil {
		return nil, storageErr("query active listings", err)
	}
	return listing.Apply(rows, q, now), nil
}

func (r *ListingRepo) ListFeatured(ctx context.Context, count int, now time.Time) ([]domain.Listing, error) {
	var rows []domain.Listing
	err := r.active(ctx, now).
		Preload("Seller").
		Order("end_time asc").Order("id asc").
		Limit(domain.ClampFeaturedCount(count)).
		Find(&rows).Error
	if err != nil {
		return nil, storageErr("list featured listings", err)
	}
	return rows, nil
}

// ImageRefs returns every stored image reference across all listings.
func (r *ListingRepo) ImageRefs(ctx context.Context) ([]string, error) {
	var joined []*string
	err := r.db.WithContext(ctx).Model(&domain.Listing{}).
		Where("image_urls IS NOT NULL").
		Pluck("image_urls", &joined).Error
	if err != nil {
		return nil, storageErr("list image refs", err)
	}
	var refs []string
	for _, s := range joined {
		refs = append(refs, domain.SplitList(s)...)
	}
	return refs, nil
}

func (r *ListingRepo) active(ctx context.Context, now time.Time) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.Listing{}).
		Where("status = ? AND start_time <= ? AND end_time > ?", domain.StatusActive, now, now)
}
