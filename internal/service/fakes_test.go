package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"luxauction-api/internal/core/media"
	"luxauction-api/internal/domain"
	"luxauction-api/internal/feature/listing"
)

// memRepo is an in-memory ListingRepository with sellers attached on read.
type memRepo struct {
	mu      sync.Mutex
	nextID  uint
	rows    map[uint]domain.Listing
	sellers map[uint]*domain.User
	addErr  error
}

func newMemRepo(sellers ...*domain.User) *memRepo {
	r := &memRepo{rows: map[uint]domain.Listing{}, sellers: map[uint]*domain.User{}}
	for _, u := range sellers {
		r.sellers[u.ID] = u
	}
	return r
}

func (r *memRepo) withSeller(l domain.Listing) domain.Listing {
	l.Seller = r.sellers[l.SellerID]
	return l
}

func (r *memRepo) snapshot() []domain.Listing {
	out := make([]domain.Listing, 0, len(r.rows))
	for _, l := range r.rows {
		out = append(out, r.withSeller(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memRepo) Add(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addErr != nil {
		return &domain.StorageError{Op: "insert listing", Err: r.addErr}
	}
	r.nextID++
	l.ID = r.nextID
	r.rows[l.ID] = *l
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uint) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	l = r.withSeller(l)
	return &l, nil
}

func (r *memRepo) ListBySeller(_ context.Context, sellerID uint) ([]domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Listing
	for _, l := range r.snapshot() {
		if l.SellerID == sellerID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (r *memRepo) DeleteOwned(_ context.Context, id, sellerID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	if !ok || l.SellerID != sellerID {
		return false, nil
	}
	delete(r.rows, id)
	return true, nil
}

func (r *memRepo) QueryActive(_ context.Context, q domain.Query, now time.Time) ([]domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return listing.Apply(r.snapshot(), q, now), nil
}

func (r *memRepo) ListFeatured(_ context.Context, count int, now time.Time) ([]domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return listing.Featured(r.snapshot(), count, now), nil
}

func (r *memRepo) ImageRefs(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, l := range r.snapshot() {
		out = append(out, l.Images()...)
	}
	return out, nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Prepare(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *mockStore) Save(ctx context.Context, r io.Reader, size int64, name string) (string, error) {
	args := m.Called(ctx, r, size, name)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	args := m.Called(ctx, name)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Get(1).(int64), args.Error(2)
}

func (m *mockStore) Delete(ctx context.Context, url string) error { return m.Called(ctx, url).Error(0) }

func (m *mockStore) List(ctx context.Context) ([]media.Object, error) {
	args := m.Called(ctx)
	objs, _ := args.Get(0).([]media.Object)
	return objs, args.Error(1)
}

func (m *mockStore) Prefix() string { return "/uploads" }

type recordingCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	loads       int
	invalidated []string
}

func newRecordingCache() *recordingCache { return &recordingCache{data: map[string][]byte{}} }

func (c *recordingCache) GetOrLoad(ctx context.Context, key string, _ time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.data[key]; ok {
		return b, nil
	}
	c.loads++
	b, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.data[key] = b
	return b, nil
}

func (c *recordingCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.invalidated = append(c.invalidated, keys...)
	return nil
}

var (
	testNow  = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seller42 = &domain.User{ID: 42, FullName: "Ada Seller", Role: domain.RoleSeller}
	seller7  = &domain.User{ID: 7, FullName: "Bea Jeweler", Role: domain.RoleSeller}
)

func fixedClock() time.Time { return testNow }

func newTestService(t *testing.T, repo domain.ListingRepository, store media.Store, opts ...ListingOption) *ListingService {
	t.Helper()
	opts = append([]ListingOption{WithClock(fixedClock)}, opts...)
	return NewListingService(repo, store, listing.NewValidator(listing.DefaultRules()), zap.NewNop(), opts...)
}

func ringSubmission() listing.Submission {
	return listing.Submission{
		Title:           "Ring",
		Category:        "Ring",
		Description:     "Yellow gold band",
		StartingBid:     "100",
		AuctionDuration: "7",
	}
}

func upload(name, content string) listing.Upload {
	return listing.Upload{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(content)), nil },
	}
}

func brokenUpload(name string) listing.Upload {
	return listing.Upload{
		Name: name,
		Size: 128,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(iotest.ErrReader(errors.New("disk full"))), nil },
	}
}

func activeListing(id uint, title string, bid float64, end time.Duration, sellerID uint) domain.Listing {
	return domain.Listing{
		ID: id, Title: title, Category: "Rings", Description: "d", StartingBid: bid,
		StartTime: testNow.Add(-time.Hour), EndTime: testNow.Add(end),
		Status: domain.StatusActive, SellerID: sellerID,
	}
}
