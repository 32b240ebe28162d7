package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"beachrent/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func setupMockServer(t *testing.T) (*http.ServeMux, *ReportsSheet) {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	srv, err := sheets.NewService(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	return mux, newReportsSheet(srv, "sheet_id", "Reports")
}

func testReport(id int64) *models.DailyReport {
	return &models.DailyReport{
		ID:                id,
		ReportDate:        "2024-07-01",
		TotalRentedBeach:  4,
		TotalRentedHotel:  76,
		RentalsEarnings:   decimal.NewFromInt(200),
		ExtraBedsRented:   1,
		ExtraBedsEarnings: decimal.NewFromInt(50),
		TotalEarnings:     decimal.NewFromInt(250),
		GeneratedAt:       time.Date(2024, 7, 1, 21, 0, 0, 0, time.UTC),
	}
}

func TestReportsSheet_AppendNewReport(t *testing.T) {
	mux, s := setupMockServer(t)
	ctx := context.Background()

	mux.HandleFunc("/v4/spreadsheets/sheet_id/values/Reports!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}, {"1"}}})
	})
	var appended sheets.ValueRange
	mux.HandleFunc("/v4/spreadsheets/sheet_id/values/Reports!A:A:append", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "RAW", r.URL.Query().Get("valueInputOption"))
		_ = json.NewDecoder(r.Body).Decode(&appended)
		_ = json.NewEncoder(w).Encode(sheets.AppendValuesResponse{})
	})

	require.NoError(t, s.AppendReport(ctx, testReport(2)))
	require.Len(t, appended.Values, 1)
	assert.Equal(t, "2024-07-01", appended.Values[0][1])
	assert.Equal(t, "250", appended.Values[0][7])
}

func TestReportsSheet_AppendExistingReportUpdates(t *testing.T) {
	mux, s := setupMockServer(t)
	ctx := context.Background()

	mux.HandleFunc("/v4/spreadsheets/sheet_id/values/Reports!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}, {"1"}, {float64(2)}}})
	})
	var updated atomic.Bool
	mux.HandleFunc("/v4/spreadsheets/sheet_id/values/Reports!A3:I3", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		updated.Store(true)
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	require.NoError(t, s.AppendReport(ctx, testReport(2)))
	assert.True(t, updated.Load())
}

func TestReportsSheet_DeleteReport(t *testing.T) {
	mux, s := setupMockServer(t)
	ctx := context.Background()

	var lookups atomic.Int32
	mux.HandleFunc("/v4/spreadsheets/sheet_id/values/Reports!A:A", func(w http.ResponseWriter, r *http.Request) {
		lookups.Add(1)
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}, {"5"}}})
	})
	var cleared atomic.Bool
	mux.HandleFunc("/v4/spreadsheets/sheet_id/values/Reports!A2:I2:clear", func(w http.ResponseWriter, r *http.Request) {
		cleared.Store(true)
		_ = json.NewEncoder(w).Encode(sheets.ClearValuesResponse{})
	})

	require.NoError(t, s.DeleteReport(ctx, 5))
	assert.True(t, cleared.Load())

	// absent rows are ignored
	require.NoError(t, s.DeleteReport(ctx, 42))
	assert.Equal(t, int32(2), lookups.Load())
}

func TestReportsSheet_EnsureHeader(t *testing.T) {
	mux, s := setupMockServer(t)
	var body sheets.ValueRange
	mux.HandleFunc("/v4/spreadsheets/sheet_id/values/Reports!A1:I1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	require.NoError(t, s.EnsureHeader(context.Background()))
	require.Len(t, body.Values, 1)
	assert.Equal(t, "ID", body.Values[0][0])
}

func TestReportsSheet_ServerError(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/sheet_id/values/Reports!A:A", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500,"message":"boom"}}`, http.StatusInternalServerError)
	})

	assert.Error(t, s.AppendReport(context.Background(), testReport(1)))
	assert.Error(t, s.DeleteReport(context.Background(), 1))
}
