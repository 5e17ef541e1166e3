package export

import (
	"context"
	"os"
	"testing"
	"time"

	"empdesk/internal/config"
	"empdesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubReader struct {
	punches []models.PunchRecord
	days    []models.AttendanceDay
}

func (s *stubReader) History(context.Context) ([]models.PunchRecord, error) {
	return s.punches, nil
}

func (s *stubReader) Days(context.Context) ([]models.AttendanceDay, error) {
	return s.days, nil
}

func TestExportWritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.Nop()

	reader := &stubReader{
		punches: []models.PunchRecord{
			{
				ID:        "p-1",
				Type:      models.PunchIn,
				Timestamp: time.Date(2026, 8, 10, 9, 15, 0, 0, time.UTC),
				Location:  models.GeoLocation{Latitude: 12.97, Longitude: 77.59},
				Synced:    true,
			},
		},
		days: []models.AttendanceDay{
			{Date: "2026-08-10", Status: models.AttendancePresent, InTime: "09:15", OutTime: "18:02"},
		},
	}

	exporter := NewAttendanceExporter(reader, config.ExportConfig{Path: dir}, &logger)

	path, err := exporter.Export(context.Background(),
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	punchType, err := f.GetCellValue("Punches", "C3")
	require.NoError(t, err)
	assert.Equal(t, "IN", punchType)

	dayStatus, err := f.GetCellValue("Days", "B2")
	require.NoError(t, err)
	assert.Equal(t, "present", dayStatus)
}

func TestExportRejectsInvertedRange(t *testing.T) {
	logger := zerolog.Nop()
	exporter := NewAttendanceExporter(&stubReader{}, config.ExportConfig{Path: t.TempDir()}, &logger)

	_, err := exporter.Export(context.Background(),
		time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestExportSkipsPunchesOutsideRange(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.Nop()

	reader := &stubReader{
		punches: []models.PunchRecord{
			{ID: "old", Type: models.PunchIn, Timestamp: time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)},
			{ID: "in-range", Type: models.PunchOut, Timestamp: time.Date(2026, 8, 5, 18, 0, 0, 0, time.UTC)},
		},
	}
	exporter := NewAttendanceExporter(reader, config.ExportConfig{Path: dir}, &logger)

	path, err := exporter.Export(context.Background(),
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	first, err := f.GetCellValue("Punches", "C3")
	require.NoError(t, err)
	assert.Equal(t, "OUT", first)

	second, err := f.GetCellValue("Punches", "C4")
	require.NoError(t, err)
	assert.Empty(t, second)
}
