package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"beachrent/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var errRowNotFound = errors.New("report row not found")

var reportHeaders = []interface{}{
	"ID", "Date", "Beach rentals", "Hotel beds", "Rentals earnings",
	"Extra beds", "Extra beds earnings", "Total earnings", "Generated at",
}

// ReportsSheet mirrors daily reports into one sheet of a spreadsheet, one row per report keyed by ID in column A.
type ReportsSheet struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string

	rowCache map[int64]int
	cacheMu  sync.RWMutex
}

// NewReportsSheet authenticates with a service account credentials file.
func NewReportsSheet(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*ReportsSheet, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return newReportsSheet(srv, spreadsheetID, sheetName), nil
}

func newReportsSheet(srv *sheets.Service, spreadsheetID, sheetName string) *ReportsSheet {
	return &ReportsSheet{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		rowCache:      make(map[int64]int),
	}
}

// EnsureHeader writes the header row into row 1.
func (s *ReportsSheet) EnsureHeader(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, s.rangeOf("A1:I1"), &sheets.ValueRange{
		Values: [][]interface{}{reportHeaders},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// AppendReport writes the report row, updating it in place when the report is already present.
func (s *ReportsSheet) AppendReport(ctx context.Context, report *models.DailyReport) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	values := &sheets.ValueRange{Values: [][]interface{}{reportRowValues(report)}}

	rowIdx, err := s.findReportRow(ctx, report.ID)
	switch {
	case err == nil:
		_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, s.rowRange(rowIdx), values).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return err
	case errors.Is(err, errRowNotFound):
		_, err = s.service.Spreadsheets.Values.Append(s.spreadsheetID, s.rangeOf("A:A"), values).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		return err
	default:
		return err
	}
}

// DeleteReport clears the row of reportID. A report that is not in the sheet is ignored.
func (s *ReportsSheet) DeleteReport(ctx context.Context, reportID int64) error {
	rowIdx, err := s.findReportRow(ctx, reportID)
	if errors.Is(err, errRowNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.service.Spreadsheets.Values.Clear(s.spreadsheetID, s.rowRange(rowIdx), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err == nil {
		s.deleteCachedRow(reportID)
	}
	return err
}

// findReportRow returns the 1-based sheet row holding reportID.
func (s *ReportsSheet) findReportRow(ctx context.Context, reportID int64) (int, error) {
	if reportID == 0 {
		return 0, fmt.Errorf("report id is required")
	}
	if row, ok := s.getCachedRow(reportID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeOf("A:A")).Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)
	for i, row := range resp.Values {
		if id := cellID(row); id > 0 {
			s.rowCache[id] = i + 1
		}
	}
	if row, ok := s.rowCache[reportID]; ok {
		return row, nil
	}
	return 0, errRowNotFound
}

func cellID(row []interface{}) int64 {
	if len(row) == 0 {
		return 0
	}
	switch v := row[0].(type) {
	case float64:
		return int64(v)
	case string:
		id, _ := strconv.ParseInt(v, 10, 64)
		return id
	}
	return 0
}

func (s *ReportsSheet) getCachedRow(id int64) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *ReportsSheet) deleteCachedRow(id int64) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	delete(s.rowCache, id)
}

func (s *ReportsSheet) rangeOf(cells string) string {
	return s.sheetName + "!" + cells
}

func (s *ReportsSheet) rowRange(row int) string {
	return s.rangeOf(fmt.Sprintf("A%d:I%d", row, row))
}

func reportRowValues(r *models.DailyReport) []interface{} {
	return []interface{}{
		r.ID,
		r.ReportDate,
		r.TotalRentedBeach,
		r.TotalRentedHotel,
		r.RentalsEarnings.String(),
		r.ExtraBedsRented,
		r.ExtraBedsEarnings.String(),
		r.TotalEarnings.String(),
		r.GeneratedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}
