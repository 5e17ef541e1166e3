package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"empdesk/internal/config"
	"empdesk/internal/export"
	"empdesk/internal/metrics"
	"empdesk/internal/outbox"
	"empdesk/internal/service"
	"empdesk/internal/store"

	"github.com/rs/zerolog"
)

// Server exposes read-only projections of the local store over HTTP for
// host surfaces (widgets, desktop shells). All mutations go through the
// domain services; nothing here writes.
type Server struct {
	cfg        config.APIConfig
	attendance *service.AttendanceService
	leave      *service.LeaveService
	mood       *service.MoodService
	ticket     *service.TicketService
	payslip    *service.PayslipService
	queue      *outbox.Queue
	exporter   *export.AttendanceExporter
	server     *http.Server
	logger     *zerolog.Logger
}

func NewServer(cfg config.APIConfig, attendance *service.AttendanceService, leave *service.LeaveService, mood *service.MoodService, ticket *service.TicketService, payslip *service.PayslipService, queue *outbox.Queue, exporter *export.AttendanceExporter, logger *zerolog.Logger) *Server {
	srv := &Server{
		cfg:        cfg,
		attendance: attendance,
		leave:      leave,
		mood:       mood,
		ticket:     ticket,
		payslip:    payslip,
		queue:      queue,
		exporter:   exporter,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/punches", srv.handlePunches)
	mux.HandleFunc("/api/v1/leaves", srv.handleLeaves)
	mux.HandleFunc("/api/v1/balances", srv.handleBalances)
	mux.HandleFunc("/api/v1/moods", srv.handleMoods)
	mux.HandleFunc("/api/v1/tickets", srv.handleTickets)
	mux.HandleFunc("/api/v1/tickets/", srv.handleTicket)
	mux.HandleFunc("/api/v1/attendance", srv.handleAttendance)
	mux.HandleFunc("/api/v1/payslips", srv.handlePayslips)
	mux.HandleFunc("/api/v1/queue/stats", srv.handleQueueStats)
	mux.HandleFunc("/api/v1/exports/attendance", srv.handleExportAttendance)

	auth := NewAuth(cfg)
	handler := srv.loggingMiddleware(auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Read API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the configured root handler. Test hook.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handlePunches(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	punches, err := s.attendance.History(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read punches")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"punches": punches})
}

func (s *Server) handleLeaves(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	leaves, err := s.leave.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read leaves")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaves": leaves})
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	balances, err := s.leave.Balances(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read balances")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"balances": balances})
}

func (s *Server) handleMoods(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	moods, err := s.mood.History(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read moods")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"moods": moods})
}

func (s *Server) handleTickets(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	tickets, err := s.ticket.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read tickets")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tickets": tickets})
}

func (s *Server) handleTicket(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	ticketID := strings.TrimPrefix(r.URL.Path, "/api/v1/tickets/")
	if ticketID == "" || strings.Contains(ticketID, "/") {
		writeError(w, http.StatusBadRequest, "ticket id is required")
		return
	}

	ticket, err := s.ticket.Get(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			writeError(w, http.StatusNotFound, "ticket not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to read ticket")
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	days, err := s.attendance.Days(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read attendance")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

func (s *Server) handlePayslips(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	yearStr := strings.TrimSpace(r.URL.Query().Get("year"))
	monthStr := strings.TrimSpace(r.URL.Query().Get("month"))
	if yearStr != "" && monthStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		month, err := strconv.Atoi(monthStr)
		if err != nil || month < 1 || month > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		payslip, err := s.payslip.Get(r.Context(), year, month)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "payslip not cached")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to read payslip")
			return
		}
		writeJSON(w, http.StatusOK, payslip)
		return
	}

	payslips, err := s.payslip.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read payslips")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payslips": payslips})
}

func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	depth, err := s.queue.Depth(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read queue depth")
		return
	}
	stalled, err := s.queue.Stalled(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read stalled count")
		return
	}
	writeJSON(w, http.StatusOK, queueStats{Depth: depth, Stalled: stalled})
}

type queueStats struct {
	Depth   int `json:"depth"`
	Stalled int `json:"stalled"`
}

// handleExportAttendance writes an xlsx workbook for the requested period
// and returns its path. The file lands in the configured export directory;
// serving the bytes is left to the host surface.
func (s *Server) handleExportAttendance(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}

	from, err := time.Parse("2006-01-02", strings.TrimSpace(r.URL.Query().Get("from")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", strings.TrimSpace(r.URL.Query().Get("to")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
		return
	}

	path, err := s.exporter.Export(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file": path})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
