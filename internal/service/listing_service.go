package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"luxauction-api/internal/core/cache"
	"luxauction-api/internal/core/media"
	"luxauction-api/internal/domain"
	"luxauction-api/internal/feature/listing"
)

type ListingService struct {
	repo      domain.ListingRepository
	media     media.Store
	validator *listing.Validator
	log       *zap.Logger

	cache       cache.Store
	featuredTTL time.Duration
	featuredDef int
	featuredMax int

	now func() time.Time
}

type ListingOption func(*ListingService)

// WithClock replaces the wall clock used for start times and time-left text.
func WithClock(now func() time.Time) ListingOption {
	return func(s *ListingService) { s.now = now }
}

// WithFeaturedCache caches featured rows for ttl.
func WithFeaturedCache(c cache.Store, ttl time.Duration) ListingOption {
	return func(s *ListingService) { s.cache, s.featuredTTL = c, ttl }
}

// WithFeaturedBounds overrides the default and maximum featured count.
func WithFeaturedBounds(def, limit int) ListingOption {
	return func(s *ListingService) { s.featuredDef, s.featuredMax = def, limit }
}

func NewListingService(repo domain.ListingRepository, store media.Store, v *listing.Validator, l *zap.Logger, opts ...ListingOption) *ListingService {
	s := &ListingService{
		repo:        repo,
		media:       store,
		validator:   v,
		log:         l,
		cache:       cache.Nop{},
		featuredDef: domain.FeaturedDefault,
		featuredMax: domain.FeaturedMax,
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateListing validates sub, stores its images and persists an Active
// listing starting now. Images are all-or-nothing: a failed save removes the
// ones already written and no row is inserted.
func (s *ListingService) CreateListing(ctx context.Context, sellerID string, sub listing.Submission) (*listing.Detail, error) {
	seller, err := domain.ParseUserID(sellerID)
	if err != nil {
		return nil, err
	}
	draft, err := s.validator.Validate(sub)
	if err != nil {
		return nil, err
	}
	log := s.log.With(zap.Uint("seller_id", seller))
	log.Info("creating listing", zap.String("title", draft.Title), zap.Int("images", len(draft.Images)))

	urls, err := s.storeImages(ctx, log, draft.Images)
	if err != nil {
		return nil, err
	}

	start := s.now().UTC()
	l := &domain.Listing{
		Title:           draft.Title,
		Category:        draft.Category,
		Description:     draft.Description,
		Condition:       draft.Condition,
		Era:             draft.Era,
		Materials:       domain.JoinList(draft.Materials),
		Weight:          draft.Weight,
		Dimensions:      draft.Dimensions,
		HasCertificates: draft.HasCertificates,
		ShippingInfo:    draft.ShippingInfo,
		StartingBid:     draft.StartingBid,
		ReservePrice:    draft.ReservePrice,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(draft.DurationDays) * 24 * time.Hour),
		ImageURLs:       domain.JoinList(urls),
		Status:          domain.StatusActive,
		SellerID:        seller,
	}
	if err := s.repo.Add(ctx, l); err != nil {
		if len(urls) > 0 {
			log.Warn("inconsistency: media stored but listing insert failed", zap.Strings("paths", urls), zap.Error(err))
		} else {
			log.Error("listing insert failed", zap.Error(err))
		}
		var se *domain.StorageError
		if !errors.As(err, &se) {
			err = &domain.StorageError{Op: "insert listing", Err: err}
		}
		return nil, err
	}
	listingsCreated.Inc()
	s.invalidateFeatured(ctx)
	log.Info("listing created", zap.Uint("listing_id", l.ID))

	if stored, err := s.repo.GetByID(ctx, l.ID); err == nil {
		l = stored
	} else {
		log.Warn("reload created listing failed", zap.Uint("listing_id", l.ID), zap.Error(err))
	}
	d := listing.ToDetail(l, s.now())
	return &d, nil
}

func (s *ListingService) storeImages(ctx context.Context, log *zap.Logger, images []listing.Upload) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}
	if err := s.media.Prepare(ctx); err != nil {
		mediaFailures.WithLabelValues("prepare").Inc()
		return nil, &domain.MediaError{Msg: "media storage unavailable", Err: err}
	}
	urls := make([]string, 0, len(images))
	for i, up := range images {
		url, err := s.saveOne(ctx, up)
		if err != nil {
			mediaFailures.WithLabelValues("save").Inc()
			log.Error("image save failed, discarding batch",
				zap.Int("index", i), zap.String("name", up.Name), zap.Int("already_stored", len(urls)), zap.Error(err))
			for _, u := range urls {
				if derr := s.media.Delete(ctx, u); derr != nil {
					mediaFailures.WithLabelValues("delete").Inc()
				}
			}
			return nil, &domain.MediaError{Msg: fmt.Sprintf("failed to store image '%s'", filepath.Base(up.Name)), Err: err}
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *ListingService) saveOne(ctx context.Context, up listing.Upload) (string, error) {
	rc, err := up.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return s.media.Save(ctx, rc, up.Size, up.Name)
}

// DeleteListing removes a listing owned by sellerID and then, best-effort, its
// images. Absent and foreign listings are reported alike.
func (s *ListingService) DeleteListing(ctx context.Context, id uint, sellerID string) error {
	seller, err := domain.ParseUserID(sellerID)
	if err != nil {
		return err
	}
	log := s.log.With(zap.Uint("listing_id", id), zap.Uint("seller_id", seller))

	l, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFoundOrForbidden
	}
	if err != nil {
		return err
	}
	if l.SellerID != seller {
		log.Warn("delete refused, not owner")
		return domain.ErrNotFoundOrForbidden
	}

	deleted, err := s.repo.DeleteOwned(ctx, id, seller)
	if err != nil {
		log.Error("listing delete failed", zap.Error(err))
		return err
	}
	if !deleted {
		return domain.ErrNotFoundOrForbidden
	}
	listingsDeleted.Inc()
	s.invalidateFeatured(ctx)

	for _, u := range l.Images() {
		if err := s.media.Delete(ctx, u); err != nil {
			mediaFailures.WithLabelValues("delete").Inc()
			log.Warn("image cleanup failed", zap.String("path", u), zap.Error(err))
		}
	}
	log.Info("listing deleted")
	return nil
}

func (s *ListingService) ListSellerListings(ctx context.Context, sellerID string) ([]listing.Display, error) {
	seller, err := domain.ParseUserID(sellerID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListBySeller(ctx, seller)
	if err != nil {
		return nil, err
	}
	return listing.ToDisplays(rows, s.now()), nil
}

func (s *ListingService) QueryActiveListings(ctx context.Context, q domain.Query) ([]listing.Display, error) {
	now := s.now()
	rows, err := s.repo.QueryActive(ctx, q, now)
	if err != nil {
		return nil, err
	}
	return listing.ToDisplays(rows, now), nil
}

// FeaturedListings returns up to count soonest-ending active listings. Rows may
// come from cache, so the active window is re-checked against the current time.
func (s *ListingService) FeaturedListings(ctx context.Context, count int) ([]listing.Display, error) {
	count = s.clampFeatured(count)
	now := s.now()

	rows, err := cache.LoadJSON(ctx, s.cache, featuredKey(count), s.featuredTTL, func(ctx context.Context) ([]domain.Listing, error) {
		return s.repo.ListFeatured(ctx, count, now)
	})
	if err != nil {
		return nil, err
	}
	return listing.ToDisplays(listing.Featured(rows, count, now), now), nil
}

func (s *ListingService) GetListing(ctx context.Context, id uint) (*listing.Detail, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := listing.ToDetail(l, s.now())
	return &d, nil
}

func (s *ListingService) clampFeatured(n int) int {
	switch {
	case n <= 0:
		return s.featuredDef
	case n > s.featuredMax:
		return s.featuredMax
	}
	return n
}

func (s *ListingService) invalidateFeatured(ctx context.Context) {
	keys := make([]string, 0, s.featuredMax)
	for i := 1; i <= s.featuredMax; i++ {
		keys = append(keys, featuredKey(i))
	}
	_ = s.cache.Invalidate(ctx, keys...)
}

func featuredKey(count int) string { return fmt.Sprintf("listings:featured:%d", count) }
