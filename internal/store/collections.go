package store

import (
	"context"
	"encoding/json"
	"fmt"

	"empdesk/internal/models"
)

// Collection is typed access to one named table. The key func is the
// collection's declared primary key extractor.
type Collection[T any] struct {
	store *Store
	table string
	key   func(T) string
}

func (c Collection[T]) Put(ctx context.Context, record T) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", c.table, err)
	}
	return c.store.put(ctx, c.table, c.key(record), data)
}

func (c Collection[T]) Get(ctx context.Context, key string) (T, error) {
	var record T
	data, err := c.store.get(ctx, c.table, key)
	if err != nil {
		return record, err
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("failed to decode %s record: %w", c.table, err)
	}
	return record, nil
}

// All returns every record in the collection in no particular order;
// callers sort explicitly.
func (c Collection[T]) All(ctx context.Context) ([]T, error) {
	raws, err := c.store.all(ctx, c.table)
	if err != nil {
		return nil, err
	}
	records := make([]T, 0, len(raws))
	for _, raw := range raws {
		var record T
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("failed to decode %s record: %w", c.table, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (c Collection[T]) Delete(ctx context.Context, key string) error {
	return c.store.delete(ctx, c.table, key)
}

// Clear removes every record. Maintenance use only.
func (c Collection[T]) Clear(ctx context.Context) error {
	return c.store.clear(ctx, c.table)
}

func Punches(s *Store) Collection[models.PunchRecord] {
	return Collection[models.PunchRecord]{store: s, table: "punches", key: func(r models.PunchRecord) string { return r.ID }}
}

func Leaves(s *Store) Collection[models.LeaveRequest] {
	return Collection[models.LeaveRequest]{store: s, table: "leaves", key: func(r models.LeaveRequest) string { return r.LeaveID }}
}

func Moods(s *Store) Collection[models.MoodEntry] {
	return Collection[models.MoodEntry]{store: s, table: "moods", key: func(r models.MoodEntry) string { return r.ID }}
}

func Tickets(s *Store) Collection[models.Ticket] {
	return Collection[models.Ticket]{store: s, table: "tickets", key: func(r models.Ticket) string { return r.TicketID }}
}

func AttendanceDays(s *Store) Collection[models.AttendanceDay] {
	return Collection[models.AttendanceDay]{store: s, table: "attendance", key: func(r models.AttendanceDay) string { return r.Date }}
}

func Payslips(s *Store) Collection[models.Payslip] {
	return Collection[models.Payslip]{store: s, table: "payslips", key: func(r models.Payslip) string { return r.ID }}
}
