package service

import (
	"context"
	"fmt"
	"sort"

	"empdesk/internal/domain"
	"empdesk/internal/models"
	"empdesk/internal/store"

	"github.com/rs/zerolog"
)

// PayslipService is a read-side cache over remote payslips. Payslips are
// never mutated locally and never enqueued; offline reads serve whatever
// was cached by an earlier refresh.
type PayslipService struct {
	payslips store.Collection[models.Payslip]
	remote   domain.RemoteClient
	userID   string
	logger   *zerolog.Logger
}

func NewPayslipService(s *store.Store, remote domain.RemoteClient, userID string, logger *zerolog.Logger) *PayslipService {
	return &PayslipService{
		payslips: store.Payslips(s),
		remote:   remote,
		userID:   userID,
		logger:   logger,
	}
}

// Refresh fetches one month's payslip from the backend and caches it.
func (s *PayslipService) Refresh(ctx context.Context, year, month int) (*models.Payslip, error) {
	payslip, err := s.remote.FetchPayslip(ctx, year, month)
	if err != nil {
		return nil, err
	}
	if payslip.ID == "" {
		payslip.ID = payslipKey(year, month)
	}
	payslip.UserID = s.userID

	if err := s.payslips.Put(ctx, *payslip); err != nil {
		return nil, err
	}
	s.logger.Info().Int("year", year).Int("month", month).Msg("Payslip cached")
	return payslip, nil
}

// Get returns the cached payslip for a month, or store.ErrNotFound.
func (s *PayslipService) Get(ctx context.Context, year, month int) (*models.Payslip, error) {
	payslip, err := s.payslips.Get(ctx, payslipKey(year, month))
	if err == nil {
		return &payslip, nil
	}

	// The cache may hold payslips keyed by a server-assigned ID from an
	// earlier refresh; fall back to a scan.
	all, allErr := s.payslips.All(ctx)
	if allErr != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Year == year && all[i].Month == month {
			return &all[i], nil
		}
	}
	return nil, err
}

// List returns cached payslips newest month first.
func (s *PayslipService) List(ctx context.Context) ([]models.Payslip, error) {
	payslips, err := s.payslips.All(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(payslips, func(i, j int) bool {
		if payslips[i].Year != payslips[j].Year {
			return payslips[i].Year > payslips[j].Year
		}
		return payslips[i].Month > payslips[j].Month
	})
	return payslips, nil
}

// Latest returns the most recent cached payslip, or store.ErrNotFound
// when nothing has been cached yet.
func (s *PayslipService) Latest(ctx context.Context) (*models.Payslip, error) {
	payslips, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(payslips) == 0 {
		return nil, store.ErrNotFound
	}
	return &payslips[0], nil
}

func payslipKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
