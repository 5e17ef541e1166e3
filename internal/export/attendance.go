package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"empdesk/internal/config"
	"empdesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// AttendanceReader is the read surface the exporter needs.
type AttendanceReader interface {
	History(ctx context.Context) ([]models.PunchRecord, error)
	Days(ctx context.Context) ([]models.AttendanceDay, error)
}

// AttendanceExporter writes punch history and the attendance-day cache
// into an xlsx workbook under the configured export directory.
type AttendanceExporter struct {
	attendance AttendanceReader
	cfg        config.ExportConfig
	logger     *zerolog.Logger
}

func NewAttendanceExporter(attendance AttendanceReader, cfg config.ExportConfig, logger *zerolog.Logger) *AttendanceExporter {
	return &AttendanceExporter{attendance: attendance, cfg: cfg, logger: logger}
}

// Export writes punches within [startDate, endDate] plus the full
// attendance-day sheet and returns the file path.
func (e *AttendanceExporter) Export(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if endDate.Before(startDate) {
		return "", fmt.Errorf("end date %s before start date %s", endDate.Format("2006-01-02"), startDate.Format("2006-01-02"))
	}
	if err := os.MkdirAll(e.cfg.Path, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	punches, err := e.attendance.History(ctx)
	if err != nil {
		return "", fmt.Errorf("read punch history: %w", err)
	}
	days, err := e.attendance.Days(ctx)
	if err != nil {
		return "", fmt.Errorf("read attendance days: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := e.writePunchSheet(f, punches, startDate, endDate); err != nil {
		return "", err
	}
	if err := e.writeDaysSheet(f, days); err != nil {
		return "", err
	}
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("attendance_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.cfg.Path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("punches", len(punches)).Msg("Attendance export written")
	return filePath, nil
}

func (e *AttendanceExporter) writePunchSheet(f *excelize.File, punches []models.PunchRecord, startDate, endDate time.Time) error {
	const sheet = "Punches"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Period: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))
	_ = f.MergeCell(sheet, "A1", "F1")

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheet, "A1", "A1", style)

	headers := []string{"Date", "Time", "Type", "Latitude", "Longitude", "Synced"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 3
	// History is newest first; rows go oldest first for readability.
	for i := len(punches) - 1; i >= 0; i-- {
		p := punches[i]
		if p.Timestamp.Before(startDate) || p.Timestamp.After(endDate.Add(24*time.Hour)) {
			continue
		}
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), p.Timestamp.Format("2006-01-02"))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), p.Timestamp.Format("15:04:05"))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), string(p.Type))
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), p.Location.Latitude)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), p.Location.Longitude)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), p.Synced)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "B", 14)
	_ = f.SetColWidth(sheet, "C", "F", 12)
	return nil
}

func (e *AttendanceExporter) writeDaysSheet(f *excelize.File, days []models.AttendanceDay) error {
	const sheet = "Days"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headers := []string{"Date", "Status", "In", "Out", "Notes"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, day := range days {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), day.Date)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), string(day.Status))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), day.InTime)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), day.OutTime)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), day.Notes)
	}

	_ = f.SetColWidth(sheet, "A", "E", 16)
	return nil
}
