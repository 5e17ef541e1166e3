package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"empdesk/internal/domain"
	"empdesk/internal/models"
	"empdesk/internal/outbox"
	"empdesk/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MoodService records one mood check-in per calendar date. Checking in
// again on the same date overwrites the earlier entry under the same ID.
type MoodService struct {
	moods  store.Collection[models.MoodEntry]
	store  *store.Store
	queue  *outbox.Queue
	remote domain.RemoteClient
	online func() bool
	userID string
	logger *zerolog.Logger
}

func NewMoodService(s *store.Store, queue *outbox.Queue, registry *outbox.Registry, remote domain.RemoteClient, online func() bool, userID string, logger *zerolog.Logger) *MoodService {
	svc := &MoodService{
		moods:  store.Moods(s),
		store:  s,
		queue:  queue,
		remote: remote,
		online: online,
		userID: userID,
		logger: logger,
	}
	registry.Register(models.ActionMood, svc.deliver)
	return svc
}

func (s *MoodService) deliver(ctx context.Context, payload json.RawMessage) error {
	var entry models.MoodEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return fmt.Errorf("decode mood payload: %w", err)
	}
	if err := s.remote.SubmitMood(ctx, entry); err != nil {
		return err
	}

	current, err := s.moods.Get(ctx, entry.ID)
	if err != nil {
		current = entry
	}
	current.Synced = true
	return s.moods.Put(ctx, current)
}

// CheckIn records today's mood. A second check-in for the same date keeps
// the original entry ID so the remote side sees an update, not a duplicate.
func (s *MoodService) CheckIn(ctx context.Context, mood models.MoodType, note string) (*models.MoodEntry, error) {
	if !validMood(mood) {
		return nil, ErrInvalidMood
	}

	date := time.Now().Format("2006-01-02")
	entry := models.MoodEntry{
		ID:     uuid.NewString(),
		UserID: s.userID,
		Mood:   mood,
		Note:   note,
		Date:   date,
	}
	if existing, ok := s.entryForDate(ctx, date); ok {
		entry.ID = existing.ID
	}

	if err := s.moods.Put(ctx, entry); err != nil {
		return nil, err
	}
	if _, err := s.queue.Enqueue(ctx, models.ActionMood, entry); err != nil {
		return nil, err
	}

	s.logger.Info().Str("mood_id", entry.ID).Str("mood", string(entry.Mood)).Msg("Mood check-in recorded locally")
	s.drainIfOnline(ctx)

	return &entry, nil
}

// History returns check-ins newest date first, repairing orphaned
// unsynced entries along the way.
func (s *MoodService) History(ctx context.Context) ([]models.MoodEntry, error) {
	entries, err := s.moods.All(ctx)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if !entries[i].Synced {
			s.repair(ctx, entries[i])
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date > entries[j].Date
	})
	return entries, nil
}

// Today returns the current date's check-in, if one exists.
func (s *MoodService) Today(ctx context.Context) (*models.MoodEntry, bool) {
	entry, ok := s.entryForDate(ctx, time.Now().Format("2006-01-02"))
	if !ok {
		return nil, false
	}
	return &entry, true
}

func (s *MoodService) entryForDate(ctx context.Context, date string) (models.MoodEntry, bool) {
	entries, err := s.moods.All(ctx)
	if err != nil {
		return models.MoodEntry{}, false
	}
	for _, entry := range entries {
		if entry.Date == date && entry.UserID == s.userID {
			return entry, true
		}
	}
	return models.MoodEntry{}, false
}

func (s *MoodService) repair(ctx context.Context, entry models.MoodEntry) {
	queued, err := s.store.HasActionForPayloadID(ctx, models.ActionMood, "id", entry.ID)
	if err != nil || queued {
		return
	}
	if _, err := s.queue.Enqueue(ctx, models.ActionMood, entry); err != nil {
		s.logger.Warn().Err(err).Str("mood_id", entry.ID).Msg("Failed to re-enqueue orphaned mood entry")
		return
	}
	s.logger.Warn().Str("mood_id", entry.ID).Msg("Re-enqueued unsynced mood entry without pending action")
}

func (s *MoodService) drainIfOnline(ctx context.Context) {
	if s.online != nil && s.online() {
		_ = s.queue.Drain(ctx)
	}
}

func validMood(m models.MoodType) bool {
	switch m {
	case models.MoodVeryHappy, models.MoodHappy, models.MoodNeutral, models.MoodSad, models.MoodVerySad:
		return true
	}
	return false
}
