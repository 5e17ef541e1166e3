package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"empdesk/internal/config"
	"empdesk/internal/domain"
	"empdesk/internal/models"
	"empdesk/internal/outbox"
	"empdesk/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PunchInput is the capture handed to the core by the camera/geolocation
// boundary.
type PunchInput struct {
	Photo    string
	Location models.GeoLocation
	Type     models.PunchType
}

// AttendanceService records punches optimistically and reads attendance
// projections from the local store.
type AttendanceService struct {
	punches     store.Collection[models.PunchRecord]
	days        store.Collection[models.AttendanceDay]
	store       *store.Store
	queue       *outbox.Queue
	remote      domain.RemoteClient
	online      func() bool
	userID      string
	maxAccuracy float64
	logger      *zerolog.Logger
}

func NewAttendanceService(s *store.Store, queue *outbox.Queue, registry *outbox.Registry, remote domain.RemoteClient, online func() bool, userID string, cfg config.AttendanceConfig, logger *zerolog.Logger) *AttendanceService {
	svc := &AttendanceService{
		punches:     store.Punches(s),
		days:        store.AttendanceDays(s),
		store:       s,
		queue:       queue,
		remote:      remote,
		online:      online,
		userID:      userID,
		maxAccuracy: cfg.MaxAccuracyMeters,
		logger:      logger,
	}
	registry.Register(models.ActionPunch, svc.deliver)
	return svc
}

// deliver pushes one queued punch to the backend and marks the local
// record synced. On any failure the local store is left untouched.
func (s *AttendanceService) deliver(ctx context.Context, payload json.RawMessage) error {
	var punch models.PunchRecord
	if err := json.Unmarshal(payload, &punch); err != nil {
		return fmt.Errorf("decode punch payload: %w", err)
	}
	if err := s.remote.SubmitPunch(ctx, punch); err != nil {
		return err
	}
	punch.Synced = true
	return s.punches.Put(ctx, punch)
}

// SubmitPunch validates the capture, stores the punch with synced=false
// and enqueues a copy for delivery. It succeeds once the local write is
// durable; remote reachability never fails it.
func (s *AttendanceService) SubmitPunch(ctx context.Context, input PunchInput) (*models.PunchRecord, error) {
	if input.Photo == "" {
		return nil, ErrPhotoRequired
	}
	if input.Type != models.PunchIn && input.Type != models.PunchOut {
		return nil, ErrInvalidPunchType
	}
	if s.maxAccuracy > 0 && input.Location.Accuracy > s.maxAccuracy {
		return nil, ErrAccuracyTooLow
	}

	now := time.Now()
	punch := models.PunchRecord{
		ID:        uuid.NewString(),
		UserID:    s.userID,
		Type:      input.Type,
		Timestamp: now,
		Location:  input.Location,
		Photo:     input.Photo,
		Hash:      punchFingerprint(input.Photo, input.Location, now),
	}

	if err := s.punches.Put(ctx, punch); err != nil {
		return nil, err
	}
	if _, err := s.queue.Enqueue(ctx, models.ActionPunch, punch); err != nil {
		return nil, err
	}

	s.logger.Info().Str("punch_id", punch.ID).Str("type", string(punch.Type)).Msg("Punch recorded locally")
	s.drainIfOnline(ctx)

	return &punch, nil
}

// History returns punches newest first. Unsynced punches that lost their
// pending action are re-enqueued here (repair path for the write/enqueue
// weaker bound).
func (s *AttendanceService) History(ctx context.Context) ([]models.PunchRecord, error) {
	records, err := s.punches.All(ctx)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if !records[i].Synced {
			s.repair(ctx, records[i])
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records, nil
}

// Days returns the attendance-day cache newest first.
func (s *AttendanceService) Days(ctx context.Context) ([]models.AttendanceDay, error) {
	days, err := s.days.All(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date > days[j].Date
	})
	return days, nil
}

// Timeline derives in/out entries from punch history.
func (s *AttendanceService) Timeline(ctx context.Context) ([]models.InOutEntry, error) {
	punches, err := s.History(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]models.InOutEntry, 0, len(punches))
	for _, punch := range punches {
		entries = append(entries, models.InOutEntry{
			ID:        punch.ID,
			Date:      punch.Timestamp.Format("2006-01-02"),
			Type:      punch.Type,
			Timestamp: punch.Timestamp,
			Location:  punch.Location,
		})
	}
	return entries, nil
}

func (s *AttendanceService) repair(ctx context.Context, punch models.PunchRecord) {
	queued, err := s.store.HasActionForPayloadID(ctx, models.ActionPunch, "id", punch.ID)
	if err != nil || queued {
		return
	}
	if _, err := s.queue.Enqueue(ctx, models.ActionPunch, punch); err != nil {
		s.logger.Warn().Err(err).Str("punch_id", punch.ID).Msg("Failed to re-enqueue orphaned punch")
		return
	}
	s.logger.Warn().Str("punch_id", punch.ID).Msg("Re-enqueued unsynced punch without pending action")
}

func (s *AttendanceService) drainIfOnline(ctx context.Context) {
	if s.online != nil && s.online() {
		// Best effort; drain outcomes never surface to the submitter.
		_ = s.queue.Drain(ctx)
	}
}

func punchFingerprint(photo string, location models.GeoLocation, at time.Time) string {
	prefix := photo
	if len(prefix) > 64 {
		prefix = prefix[:64]
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s-%f-%f-%d", prefix, location.Latitude, location.Longitude, at.UnixMilli()))
	return hex.EncodeToString(sum[:])
}
