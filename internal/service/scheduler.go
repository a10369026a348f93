package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"tg-automod/internal/crash"
	"tg-automod/internal/logger"
	"tg-automod/internal/metrics"
	"tg-automod/internal/models"
)

const (
	reasonMuteExpired  = "Timed mute expired"
	reasonMuteRestored = "Timed mute restored after rejoin"
)

// MuteScheduler tracks timed mutes and lifts them once they expire. The store holds the
// durable copy; expiries are mirrored in memory so sweeps never hit the store for reads.
type MuteScheduler struct {
	store       MuteStore
	membership  Membership
	interval    time.Duration
	rejoinDelay time.Duration
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	mirror map[models.MemberKey]models.MuteRecord

	cancel context.CancelFunc
	wg     conc.WaitGroup
}

func NewMuteScheduler(store MuteStore, membership Membership, interval, rejoinDelay time.Duration) *MuteScheduler {
	return &MuteScheduler{
		store:       store,
		membership:  membership,
		interval:    interval,
		rejoinDelay: rejoinDelay,
		now:         time.Now,
		sleep:       sleepContext,
		mirror:      make(map[models.MemberKey]models.MuteRecord),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Load replaces the mirror with the records currently in the store.
func (s *MuteScheduler) Load(ctx context.Context) error {
	records, err := s.store.All(ctx)
	if err != nil {
		return fmt.Errorf("load mute records: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirror = make(map[models.MemberKey]models.MuteRecord, len(records))
	for _, r := range records {
		s.mirror[r.Key()] = r
	}
	metrics.ActiveTimedMutes.Set(float64(len(s.mirror)))
	logger.Infof("Loaded %d timed mutes", len(records))
	return nil
}

// Register records that key stays muted until expiry, replacing any earlier expiry.
func (s *MuteScheduler) Register(ctx context.Context, key models.MemberKey, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := models.MuteRecord{CommunityID: key.CommunityID, UserID: key.UserID, UnmuteAt: expiry}
	if err := s.store.Upsert(ctx, record); err != nil {
		return fmt.Errorf("register mute of %s: %w", key, err)
	}
	s.mirror[key] = record
	metrics.ActiveTimedMutes.Set(float64(len(s.mirror)))
	return nil
}

// Unregister drops the record of key. Missing records are ignored.
func (s *MuteScheduler) Unregister(ctx context.Context, key models.MemberKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mirror[key]; !ok {
		return nil
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("unregister mute of %s: %w", key, err)
	}
	delete(s.mirror, key)
	metrics.ActiveTimedMutes.Set(float64(len(s.mirror)))
	return nil
}

func (s *MuteScheduler) Get(key models.MemberKey) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.mirror[key]
	return record.UnmuteAt, ok
}

// List returns the timed mutes of a community ordered by expiry.
func (s *MuteScheduler) List(communityID int64) []models.MuteRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]models.MuteRecord, 0)
	for key, record := range s.mirror {
		if key.CommunityID != communityID {
			continue
		}
		records = append(records, record)
	}
	slices.SortFunc(records, func(a, b models.MuteRecord) int {
		if c := a.UnmuteAt.Compare(b.UnmuteAt); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return records
}

func (s *MuteScheduler) expired(now time.Time) []models.MemberKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []models.MemberKey
	for key, record := range s.mirror {
		if record.IsExpired(now) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Sweep lifts every mute whose expiry has passed and returns how many records it removed.
// Revocation is best effort; the records are dropped with a single store write either way.
func (s *MuteScheduler) Sweep(ctx context.Context) int {
	now := s.now()
	keys := s.expired(now)
	if len(keys) == 0 {
		return 0
	}

	for _, key := range keys {
		muted, err := s.membership.HasMuteRole(ctx, key)
		if err != nil {
			metrics.CollaboratorFailures.WithLabelValues("has_mute_role").Inc()
			logger.Debugf("Could not check mute of %s, dropping record: %v", key, err)
			continue
		}
		if !muted {
			continue
		}
		if err := s.membership.RevokeMuteRole(ctx, key, reasonMuteExpired); err != nil {
			metrics.CollaboratorFailures.WithLabelValues("revoke_mute_role").Inc()
			logger.Warningf("Failed to lift expired mute of %s: %v", key, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// a member may have been muted again while the revocations were in flight
	keys = slices.DeleteFunc(keys, func(key models.MemberKey) bool {
		record, ok := s.mirror[key]
		return !ok || !record.IsExpired(now)
	})
	if len(keys) == 0 {
		return 0
	}
	if err := s.store.DeleteMany(ctx, keys); err != nil {
		logger.Errorf("Failed to remove %d expired mute records: %v", len(keys), err)
		return 0
	}
	for _, key := range keys {
		delete(s.mirror, key)
	}
	metrics.MutesLifted.WithLabelValues("expired").Add(float64(len(keys)))
	metrics.ActiveTimedMutes.Set(float64(len(s.mirror)))
	return len(keys)
}

// RestoreOnRejoin re-applies an active timed mute to a member who left and came back.
// Records found expired are dropped instead.
func (s *MuteScheduler) RestoreOnRejoin(ctx context.Context, key models.MemberKey) error {
	s.mu.Lock()
	record, ok := s.mirror[key]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if record.IsExpired(s.now()) {
		return s.Unregister(ctx, key)
	}

	if _, err := s.membership.EnsureMuteRole(ctx, key.CommunityID); err != nil {
		metrics.CollaboratorFailures.WithLabelValues("ensure_mute_role").Inc()
		logger.Warningf("Cannot restore mute of %s: %v", key, err)
		return nil
	}

	// give the platform a moment to settle the new membership
	if err := s.sleep(ctx, s.rejoinDelay); err != nil {
		return err
	}

	if err := s.membership.GrantMuteRole(ctx, key, reasonMuteRestored); err != nil {
		metrics.CollaboratorFailures.WithLabelValues("grant_mute_role").Inc()
		logger.Warningf("Failed to restore mute of %s: %v", key, err)
		return nil
	}
	metrics.MutesGranted.WithLabelValues("rejoin").Inc()
	logger.Infof("Restored timed mute of %s until %s", key, record.UnmuteAt.Format(time.RFC3339))
	return nil
}

// Start runs Sweep every interval until Stop is called or ctx is done.
func (s *MuteScheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Go(func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		logger.Infof("Mute sweep started with interval %s", s.interval)
		for {
			select {
			case <-ctx.Done():
				logger.Infof("Mute sweep stopped")
				return
			case <-ticker.C:
				s.sweepOnce(ctx)
			}
		}
	})
}

func (s *MuteScheduler) sweepOnce(ctx context.Context) {
	defer crash.RecoverWithStack("mute-sweep")
	if n := s.Sweep(ctx); n > 0 {
		logger.Infof("Lifted %d expired mutes", n)
	}
}

// Stop cancels the sweep loop and waits for it to exit.
func (s *MuteScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
