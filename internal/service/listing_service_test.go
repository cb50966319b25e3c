package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"luxauction-api/internal/core/media"
	"luxauction-api/internal/domain"
	"luxauction-api/internal/feature/listing"
)

func TestCreateQueryDelete_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(seller42)
	svc := newTestService(t, repo, media.NewLocal(t.TempDir(), "/uploads", zap.NewNop()))

	created, err := svc.CreateListing(ctx, "42", ringSubmission())
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusActive), created.Status)
	assert.Equal(t, created.StartTime.Add(7*24*time.Hour), created.EndTime)
	assert.True(t, created.EndTime.After(created.StartTime))
	assert.Nil(t, created.ImageURL)
	assert.Equal(t, "Ada Seller", created.SellerName)
	assert.Equal(t, "7d left", created.TimeLeft)
	assert.Equal(t, created.StartingBid, created.CurrentBid)
	assert.Zero(t, created.Bids)

	got, err := svc.QueryActiveListings(ctx, domain.Query{Category: "Ring"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, created.ID, got[0].ID)

	require.NoError(t, svc.DeleteListing(ctx, created.ID, "42"))

	got, err = svc.QueryActiveListings(ctx, domain.Query{Category: "Ring"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCreateListing_InvalidOwner(t *testing.T) {
	repo := newMemRepo()
	store := &mockStore{}
	svc := newTestService(t, repo, store)

	for _, id := range []string{"", "abc", "0", "-3", "4.2"} {
		_, err := svc.CreateListing(context.Background(), id, ringSubmission())
		assert.ErrorIs(t, err, domain.ErrInvalidOwner, "seller id %q", id)
	}
	assert.Zero(t, repo.count())
	store.AssertNotCalled(t, "Prepare", mock.Anything)
}

func TestCreateListing_ValidationCollectsEveryField(t *testing.T) {
	repo := newMemRepo(seller42)
	store := &mockStore{}
	svc := newTestService(t, repo, store)

	sub := listing.Submission{
		Title:           "   ",
		Category:        "Ring",
		StartingBid:     "-1",
		AuctionDuration: "5",
		Images:          []listing.Upload{upload("a.jpg", "x")},
	}
	_, err := svc.CreateListing(context.Background(), "42", sub)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "description")
	assert.Contains(t, verr.Fields, "startingBid")
	assert.Contains(t, verr.Fields, "auctionDuration")
	assert.NotContains(t, verr.Fields, "category")
	assert.Zero(t, repo.count())
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateListing_StoresImagesInOrder(t *testing.T) {
	dir := t.TempDir()
	repo := newMemRepo(seller42)
	svc := newTestService(t, repo, media.NewLocal(dir, "/uploads", zap.NewNop()))

	sub := ringSubmission()
	sub.Materials = []string{"Gold", " Diamond ", "Gold"}
	sub.Images = []listing.Upload{upload("front.jpg", "front"), upload("../../side.png", "side"), {Name: "empty.jpg"}}

	d, err := svc.CreateListing(context.Background(), "42", sub)
	require.NoError(t, err)
	require.Len(t, d.ImageURLs, 2)
	assert.Regexp(t, `^/uploads/[0-9a-f-]{36}_front\.jpg$`, d.ImageURLs[0])
	assert.Regexp(t, `^/uploads/[0-9a-f-]{36}_side\.png$`, d.ImageURLs[1])
	assert.Equal(t, d.ImageURLs[0], *d.ImageURL)
	assert.Equal(t, []string{"Gold", "Diamond"}, d.Materials)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCreateListing_ImageFailureLeavesNothingBehind(t *testing.T) {
	dir := t.TempDir()
	repo := newMemRepo(seller42)
	svc := newTestService(t, repo, media.NewLocal(dir, "/uploads", zap.NewNop()))

	sub := ringSubmission()
	sub.Images = []listing.Upload{
		upload("1.jpg", "one"),
		upload("2.jpg", "two"),
		brokenUpload("3.jpg"),
		upload("4.jpg", "four"),
		upload("5.jpg", "five"),
	}
	_, err := svc.CreateListing(context.Background(), "42", sub)

	var merr *domain.MediaError
	require.ErrorAs(t, err, &merr)
	assert.Contains(t, merr.Error(), "3.jpg")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, repo.count())
}

func TestCreateListing_PrepareFailure(t *testing.T) {
	repo := newMemRepo(seller42)
	store := &mockStore{}
	store.On("Prepare", mock.Anything).Return(errors.New("permission denied"))
	svc := newTestService(t, repo, store)

	sub := ringSubmission()
	sub.Images = []listing.Upload{upload("a.jpg", "x")}
	_, err := svc.CreateListing(context.Background(), "42", sub)

	var merr *domain.MediaError
	require.ErrorAs(t, err, &merr)
	assert.Zero(t, repo.count())
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateListing_InsertFailureLeavesMediaForSweep(t *testing.T) {
	dir := t.TempDir()
	repo := newMemRepo(seller42)
	repo.addErr = errors.New("foreign key violation")
	store := media.NewLocal(dir, "/uploads", zap.NewNop())
	svc := newTestService(t, repo, store)

	sub := ringSubmission()
	sub.Images = []listing.Upload{upload("a.jpg", "x")}
	_, err := svc.CreateListing(context.Background(), "42", sub)

	var serr *domain.StorageError
	require.ErrorAs(t, err, &serr)
	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 1)

	sweeper := NewMediaSweeper(repo, store, 0, zap.NewNop())
	rep, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Deleted)
	entries, _ = os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestDeleteListing_OtherSellerCannotDelete(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(seller42, seller7)
	l := activeListing(0, "Opal Pendant", 500, 48*time.Hour, 7)
	l.ImageURLs = domain.JoinList([]string{"/uploads/x_opal.jpg"})
	require.NoError(t, repo.Add(ctx, &l))

	store := &mockStore{}
	svc := newTestService(t, repo, store)

	err := svc.DeleteListing(ctx, l.ID, "42")
	assert.ErrorIs(t, err, domain.ErrNotFoundOrForbidden)
	assert.Equal(t, 1, repo.count())
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	err = svc.DeleteListing(ctx, 999, "42")
	assert.ErrorIs(t, err, domain.ErrNotFoundOrForbidden)

	err = svc.DeleteListing(ctx, l.ID, "seven")
	assert.ErrorIs(t, err, domain.ErrInvalidOwner)
}

func TestDeleteListing_MediaCleanupIsBestEffort(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(seller42)
	l := activeListing(0, "Cameo", 80, time.Hour, 42)
	l.ImageURLs = domain.JoinList([]string{"/uploads/a_cameo.jpg", "/uploads/b_cameo.jpg"})
	require.NoError(t, repo.Add(ctx, &l))

	store := &mockStore{}
	store.On("Delete", mock.Anything, "/uploads/a_cameo.jpg").Return(os.ErrNotExist).Once()
	store.On("Delete", mock.Anything, "/uploads/b_cameo.jpg").Return(nil).Once()
	svc := newTestService(t, repo, store)

	require.NoError(t, svc.DeleteListing(ctx, l.ID, "42"))
	assert.Zero(t, repo.count())
	store.AssertExpectations(t)
}

func TestListSellerListings(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(seller42, seller7)
	mine := activeListing(0, "Mine", 10, time.Hour, 42)
	theirs := activeListing(0, "Theirs", 10, time.Hour, 7)
	cancelled := activeListing(0, "Old", 10, time.Hour, 42)
	cancelled.Status = domain.StatusCancelled
	cancelled.StartTime = testNow.Add(-48 * time.Hour)
	for _, l := range []*domain.Listing{&mine, &theirs, &cancelled} {
		require.NoError(t, repo.Add(ctx, l))
	}
	svc := newTestService(t, repo, &mockStore{})

	got, err := svc.ListSellerListings(ctx, "42")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Mine", got[0].Title)
	assert.Equal(t, "Cancelled", got[1].TimeLeft)

	_, err = svc.ListSellerListings(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidOwner)
}

func TestFeaturedListings_ClampsCount(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(seller42)
	for i := 1; i <= 12; i++ {
		l := activeListing(0, "Item", 100, time.Duration(13-i)*time.Hour, 42)
		require.NoError(t, repo.Add(ctx, &l))
	}
	svc := newTestService(t, repo, &mockStore{})

	cases := []struct{ in, want int }{{0, 3}, {-4, 3}, {1, 1}, {5, 5}, {50, 10}}
	for _, tc := range cases {
		got, err := svc.FeaturedListings(ctx, tc.in)
		require.NoError(t, err)
		assert.Len(t, got, tc.want, "count %d", tc.in)
	}

	got, _ := svc.FeaturedListings(ctx, 2)
	assert.Equal(t, uint(12), got[0].ID)
	assert.Equal(t, uint(11), got[1].ID)
}

func TestFeaturedListings_CacheInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(seller42)
	c := newRecordingCache()
	svc := newTestService(t, repo, &mockStore{}, WithFeaturedCache(c, time.Minute))

	got, err := svc.FeaturedListings(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	created, err := svc.CreateListing(ctx, "42", ringSubmission())
	require.NoError(t, err)
	assert.Contains(t, c.invalidated, "listings:featured:3")
	assert.Contains(t, c.invalidated, "listings:featured:10")

	got, err = svc.FeaturedListings(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, created.ID, got[0].ID)
	assert.Equal(t, "Ada Seller", got[0].SellerName)
	assert.Equal(t, 2, c.loads)
}

func TestFeaturedListings_DropsRowsThatExpiredWhileCached(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(seller42)
	l := activeListing(0, "Soon", 100, time.Minute, 42)
	require.NoError(t, repo.Add(ctx, &l))

	clock := testNow
	c := newRecordingCache()
	svc := NewListingService(repo, &mockStore{}, listing.NewValidator(listing.DefaultRules()), zap.NewNop(),
		WithClock(func() time.Time { return clock }), WithFeaturedCache(c, time.Hour))

	got, err := svc.FeaturedListings(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)

	clock = testNow.Add(2 * time.Minute)
	got, err = svc.FeaturedListings(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, c.loads)
}

func TestGetListing(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(seller42)
	l := activeListing(0, "Brooch", 250, 90*time.Minute, 42)
	require.NoError(t, repo.Add(ctx, &l))
	svc := newTestService(t, repo, &mockStore{})

	d, err := svc.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "1h 30m left", d.TimeLeft)
	assert.Equal(t, []string{}, d.ImageURLs)

	_, err = svc.GetListing(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
