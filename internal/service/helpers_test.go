package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"empdesk/internal/models"
	"empdesk/internal/outbox"
	"empdesk/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeRemote records every submission and can be flipped into a failing
// state to simulate an unreachable backend.
type fakeRemote struct {
	mu       sync.Mutex
	fail     bool
	punches  []models.PunchRecord
	leaves   []models.LeaveRequest
	moods    []models.MoodEntry
	tickets  []models.Ticket
	payslips map[string]*models.Payslip
}

var errRemoteDown = errors.New("remote unreachable")

func (f *fakeRemote) SubmitPunch(_ context.Context, punch models.PunchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errRemoteDown
	}
	f.punches = append(f.punches, punch)
	return nil
}

func (f *fakeRemote) SubmitLeave(_ context.Context, leave models.LeaveRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errRemoteDown
	}
	f.leaves = append(f.leaves, leave)
	return nil
}

func (f *fakeRemote) SubmitMood(_ context.Context, entry models.MoodEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errRemoteDown
	}
	f.moods = append(f.moods, entry)
	return nil
}

func (f *fakeRemote) SubmitTicket(_ context.Context, ticket models.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errRemoteDown
	}
	f.tickets = append(f.tickets, ticket)
	return nil
}

func (f *fakeRemote) FetchPayslip(_ context.Context, year, month int) (*models.Payslip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errRemoteDown
	}
	payslip, ok := f.payslips[payslipKey(year, month)]
	if !ok {
		return nil, errors.New("payslip not found")
	}
	copied := *payslip
	return &copied, nil
}

func (f *fakeRemote) Ping(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errRemoteDown
	}
	return nil
}

func (f *fakeRemote) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

type testEnv struct {
	store    *store.Store
	queue    *outbox.Queue
	registry *outbox.Registry
	remote   *fakeRemote
	online   bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	s, err := store.Open(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	registry := outbox.NewRegistry()
	env := &testEnv{
		store:    s,
		registry: registry,
		remote:   &fakeRemote{payslips: map[string]*models.Payslip{}},
	}
	env.queue = outbox.NewQueue(s, registry, nil, 0, &logger)
	return env
}

func (e *testEnv) isOnline() bool { return e.online }

func (e *testEnv) depth(t *testing.T) int {
	t.Helper()
	depth, err := e.queue.Depth(context.Background())
	require.NoError(t, err)
	return depth
}

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}
