package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"luxauction-api/internal/core/media"
)

type ImageRefLister interface {
	ImageRefs(ctx context.Context) ([]string, error)
}

type SweepReport struct {
	Scanned int            `json:"scanned"`
	Orphans []media.Object `json:"orphans"`
	Deleted int            `json:"deleted"`
	Failed  int            `json:"failed"`
}

// MediaSweeper finds stored images no listing references, the leftovers of
// a create whose insert failed after its files were written.
type MediaSweeper struct {
	refs  ImageRefLister
	store media.Store
	grace time.Duration
	log   *zap.Logger
	now   func() time.Time
}

func NewMediaSweeper(refs ImageRefLister, store media.Store, grace time.Duration, l *zap.Logger) *MediaSweeper {
	return &MediaSweeper{refs: refs, store: store, grace: grace, log: l, now: time.Now}
}

// Find lists unreferenced objects older than the grace period. Younger ones
// may belong to a create still in flight.
func (s *MediaSweeper) Find(ctx context.Context) ([]media.Object, int, error) {
	refs, err := s.refs.ImageRefs(ctx)
	if err != nil {
		return nil, 0, err
	}
	referenced := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		referenced[r] = struct{}{}
	}
	objs, err := s.store.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	cutoff := s.now().Add(-s.grace)
	orphans := []media.Object{}
	for _, o := range objs {
		if _, ok := referenced[o.URL]; ok {
			continue
		}
		if o.ModTime.After(cutoff) {
			continue
		}
		orphans = append(orphans, o)
	}
	return orphans, len(objs), nil
}

func (s *MediaSweeper) Sweep(ctx context.Context) (*SweepReport, error) {
	orphans, scanned, err := s.Find(ctx)
	if err != nil {
		return nil, err
	}
	rep := &SweepReport{Scanned: scanned, Orphans: orphans}
	for _, o := range orphans {
		if err := s.store.Delete(ctx, o.URL); err != nil {
			rep.Failed++
			mediaFailures.WithLabelValues("sweep").Inc()
			continue
		}
		rep.Deleted++
		orphansSwept.Inc()
	}
	s.log.Info("media sweep finished",
		zap.Int("scanned", rep.Scanned), zap.Int("orphans", len(orphans)),
		zap.Int("deleted", rep.Deleted), zap.Int("failed", rep.Failed))
	return rep, nil
}
