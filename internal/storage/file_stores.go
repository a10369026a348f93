package storage

import (
	"context"
	"math"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"tg-automod/internal/logger"
	"tg-automod/internal/models"
)

// WarningFile stores warning counters in warnings.json.
type WarningFile struct {
	file jsonFile[nested[int]]

	mu   sync.Mutex
	data nested[int]
}

// NewWarningFile loads dir/warnings.json eagerly.
func NewWarningFile(dir string) *WarningFile {
	f := jsonFile[nested[int]]{path: filepath.Join(dir, WarningsFileName)}
	data := f.load()
	if data == nil {
		data = make(nested[int])
	}
	return &WarningFile{file: f, data: data}
}

func (s *WarningFile) Get(_ context.Context, key models.MemberKey) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _ := s.data.get(key.CommunityID, key.UserID)
	return n, nil
}

func (s *WarningFile) Increment(_ context.Context, key models.MemberKey) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, _ := s.data.get(key.CommunityID, key.UserID)
	n++
	s.data.set(key.CommunityID, key.UserID, n)
	if err := s.file.flush(s.data); err != nil {
		return n, err
	}
	return n, nil
}

func (s *WarningFile) Delete(_ context.Context, key models.MemberKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.data.remove(key.CommunityID, key.UserID) {
		return nil
	}
	return s.file.flush(s.data)
}

// MuteFile stores timed mutes in mutes.json as epoch seconds.
type MuteFile struct {
	file jsonFile[nested[float64]]

	mu   sync.Mutex
	data nested[float64]
}

// NewMuteFile loads dir/mutes.json eagerly.
func NewMuteFile(dir string) *MuteFile {
	f := jsonFile[nested[float64]]{path: filepath.Join(dir, MutesFileName)}
	data := f.load()
	if data == nil {
		data = make(nested[float64])
	}
	return &MuteFile{file: f, data: data}
}

func (s *MuteFile) All(_ context.Context) ([]models.MuteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []models.MuteRecord
	for c, users := range s.data {
		community, err := models.ParseID(c)
		if err != nil {
			logger.Warningf("Skipping malformed community id %q in %s", c, MutesFileName)
			continue
		}
		for u, epoch := range users {
			user, err := models.ParseID(u)
			if err != nil {
				logger.Warningf("Skipping malformed user id %q in %s", u, MutesFileName)
				continue
			}
			records = append(records, models.MuteRecord{
				CommunityID: community,
				UserID:      user,
				UnmuteAt:    fromEpoch(epoch),
			})
		}
	}
	slices.SortFunc(records, func(a, b models.MuteRecord) int {
		return a.UnmuteAt.Compare(b.UnmuteAt)
	})
	return records, nil
}

func (s *MuteFile) Upsert(_ context.Context, record models.MuteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.set(record.CommunityID, record.UserID, toEpoch(record.UnmuteAt))
	return s.file.flush(s.data)
}

func (s *MuteFile) Delete(ctx context.Context, key models.MemberKey) error {
	return s.DeleteMany(ctx, []models.MemberKey{key})
}

// DeleteMany removes every given record and rewrites the file once.
func (s *MuteFile) DeleteMany(_ context.Context, keys []models.MemberKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, key := range keys {
		if s.data.remove(key.CommunityID, key.UserID) {
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.file.flush(s.data)
}

func toEpoch(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

func fromEpoch(epoch float64) time.Time {
	sec, frac := math.Modf(epoch)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

type settingsEntry struct {
	LogChannelID   *int64   `json:"log_channel_id"`
	AllowedDomains []string `json:"allowed_domains"`
	BlockedDomains []string `json:"blocked_domains"`
}

// SettingsFile stores community settings in moderation_config.json.
// Entries missing a list come back with a nil slice so the caller can default it.
type SettingsFile struct {
	file jsonFile[map[string]settingsEntry]

	mu   sync.Mutex
	data map[string]settingsEntry
}

// NewSettingsFile loads dir/moderation_config.json eagerly.
func NewSettingsFile(dir string) *SettingsFile {
	f := jsonFile[map[string]settingsEntry]{path: filepath.Join(dir, SettingsFileName)}
	data := f.load()
	if data == nil {
		data = make(map[string]settingsEntry)
	}
	return &SettingsFile{file: f, data: data}
}

func (s *SettingsFile) Get(_ context.Context, communityID int64) (*models.CommunitySettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data[models.FormatID(communityID)]
	if !ok {
		return nil, nil
	}
	settings := &models.CommunitySettings{
		CommunityID:    communityID,
		LogChannelID:   entry.LogChannelID,
		AllowedDomains: entry.AllowedDomains,
		BlockedDomains: entry.BlockedDomains,
	}
	return settings.Clone(), nil
}

func (s *SettingsFile) Save(_ context.Context, settings *models.CommunitySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := settings.Clone()
	s.data[models.FormatID(settings.CommunityID)] = settingsEntry{
		LogChannelID:   c.LogChannelID,
		AllowedDomains: nonNil(c.AllowedDomains),
		BlockedDomains: nonNil(c.BlockedDomains),
	}
	return s.file.flush(s.data)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
