package service

import (
	"context"
	"fmt"
	"io"

	"beachrent/internal/domain"
	"beachrent/internal/models"

	"github.com/xuri/excelize/v2"
)

const reportsSheet = "Reports"

var reportHeaders = []string{
	"ID", "Date", "Beach rentals", "Hotel beds", "Rentals earnings",
	"Extra beds", "Extra beds earnings", "Total earnings", "Generated at",
}

// ExportReports writes every stored report as an xlsx workbook to w.
func (s *ReportService) ExportReports(ctx context.Context, actor models.Actor, w io.Writer) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}

	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return observe(s.logger, "export_reports", 0, "", err)
	}

	f, err := s.buildWorkbook(reports)
	if err != nil {
		return fmt.Errorf("error building workbook: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func (s *ReportService) buildWorkbook(reports []models.DailyReport) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(reportsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(reportsSheet, cell, h)
		_ = f.SetCellStyle(reportsSheet, cell, cell, headerStyle)
	}

	for i, r := range reports {
		row := i + 2
		values := []interface{}{
			r.ID,
			r.ReportDate,
			r.TotalRentedBeach,
			r.TotalRentedHotel,
			r.RentalsEarnings.InexactFloat64(),
			r.ExtraBedsRented,
			r.ExtraBedsEarnings.InexactFloat64(),
			r.TotalEarnings.InexactFloat64(),
			r.GeneratedAt.In(s.clock.Location()).Format("2006-01-02 15:04:05"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(reportsSheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("error writing row %d: %w", row, err)
		}
	}

	_ = f.SetColWidth(reportsSheet, "A", "A", 8)
	_ = f.SetColWidth(reportsSheet, "B", "H", 18)
	_ = f.SetColWidth(reportsSheet, "I", "I", 22)
	return f, nil
}
