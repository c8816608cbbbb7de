package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "stockstats/internal/errors"
	"stockstats/internal/services"
	"stockstats/internal/shared/testutil"
	"stockstats/pkg/contracts/domain"
)

// MockStockService is a mock implementation of StockServiceInterface
type MockStockService struct {
	mock.Mock
}

func (m *MockStockService) ListSymbols(ctx context.Context) (*domain.SymbolCatalog, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SymbolCatalog), args.Error(1)
}

func (m *MockStockService) MonthAverages(ctx context.Context, q domain.Query) (*domain.SymbolResults[domain.MonthlyAverages], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SymbolResults[domain.MonthlyAverages]), args.Error(1)
}

func (m *MockStockService) TopVarianceDays(ctx context.Context, q domain.Query) (*domain.SymbolResults[domain.VarianceDay], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SymbolResults[domain.VarianceDay]), args.Error(1)
}

func (m *MockStockService) BusyDays(ctx context.Context, q domain.Query) (*domain.SymbolResults[domain.BusyDays], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SymbolResults[domain.BusyDays]), args.Error(1)
}

func (m *MockStockService) BiggestLoser(ctx context.Context, q domain.Query) (domain.BiggestLoser, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(domain.BiggestLoser), args.Error(1)
}

var _ StockServiceInterface = (*services.StockService)(nil)

func newTestRouter(t *testing.T, svc StockServiceInterface) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewStockHandler(svc, logger, apierrors.NewErrorHandler(logger, false))
	r := chi.NewRouter()
	r.Mount("/api/v1", h.Routes())
	return r
}

func firstHalf2017() domain.Query {
	return domain.Query{
		Symbols: []string{"COF", "GOOGL"},
		Range: domain.DateRange{
			Start: domain.NewDate(2017, time.January, 1),
			End:   domain.NewDate(2017, time.June, 30),
		},
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestStockHandler_ListSymbols(t *testing.T) {
	svc := new(MockStockService)
	catalog := domain.NewSymbolCatalog()
	catalog.Add("ZTS", "Zoetis Inc")
	catalog.Add("AAPL", "Apple Inc")
	svc.On("ListSymbols", mock.Anything).Return(catalog, nil)

	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/symbols", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"ZTS":"Zoetis Inc","AAPL":"Apple Inc"}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestStockHandler_Stats(t *testing.T) {
	variance := domain.NewSymbolResults[domain.VarianceDay]()
	variance.Set("COF", domain.VarianceDay{Date: domain.NewDate(2017, time.June, 9), Variance: 3.5})
	variance.Set("GOOGL", domain.VarianceDay{Date: domain.NewDate(2017, time.June, 9), Variance: 52.13})

	averages := domain.NewSymbolResults[domain.MonthlyAverages]()
	averages.Set("COF", domain.MonthlyAverages{
		domain.MonthKey{Year: 2017, Month: time.January}: {AverageOpen: 88.5, AverageClose: 88.25},
	})
	averages.Set("GOOGL", domain.MonthlyAverages{})

	busy := domain.NewSymbolResults[domain.BusyDays]()
	busy.Set("COF", domain.BusyDays{AverageVolume: 100, Days: map[domain.Date]float64{domain.NewDate(2017, time.March, 1): 200}})
	busy.Set("GOOGL", domain.BusyDays{AverageVolume: 50, Days: map[domain.Date]float64{}})

	tests := []struct {
		name   string
		kind   string
		method string
		result interface{}
		want   string
	}{
		{
			name:   "top variance days",
			kind:   "top-variance-days",
			method: "TopVarianceDays",
			result: variance,
			want:   `{"COF":{"date":"2017-06-09","variance":3.5},"GOOGL":{"date":"2017-06-09","variance":52.13}}`,
		},
		{
			name:   "best days alias",
			kind:   "best-days",
			method: "TopVarianceDays",
			result: variance,
			want:   `{"COF":{"date":"2017-06-09","variance":3.5},"GOOGL":{"date":"2017-06-09","variance":52.13}}`,
		},
		{
			name:   "month averages",
			kind:   "month-averages",
			method: "MonthAverages",
			result: averages,
			want:   `{"COF":{"2017-01":{"average_open":88.5,"average_close":88.25}},"GOOGL":{}}`,
		},
		{
			name:   "busy days",
			kind:   "busy-days",
			method: "BusyDays",
			result: busy,
			want:   `{"COF":{"average_volume":100,"busy_days":{"2017-03-01":200}},"GOOGL":{"average_volume":50,"busy_days":{}}}`,
		},
		{
			name:   "biggest loser",
			kind:   "biggest-loser",
			method: "BiggestLoser",
			result: domain.BiggestLoser{Symbols: []string{"COF"}, Days: 4},
			want:   `{"symbols":["COF"],"days":4}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockStockService)
			svc.On(tt.method, mock.Anything, firstHalf2017()).Return(tt.result, nil)

			url := fmt.Sprintf("/api/v1/stats/%s?start=2017-01&end=2017-06&symbols=cof,%%20GOOGL", tt.kind)
			rec := httptest.NewRecorder()
			newTestRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.JSONEq(t, tt.want, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestStockHandler_AdjustedFlag(t *testing.T) {
	svc := new(MockStockService)
	q := firstHalf2017()
	q.Adjusted = true
	svc.On("BiggestLoser", mock.Anything, q).Return(domain.BiggestLoser{Symbols: []string{}}, nil)

	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/stats/biggest-loser?start=2017-01&end=2017-06&symbols=COF,GOOGL&adjusted=true", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestStockHandler_InvalidRequests(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantType   string
	}{
		{
			name:       "missing parameters",
			url:        "/api/v1/stats/busy-days?start=2017-01",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "malformed month",
			url:        "/api/v1/stats/busy-days?start=2017-13&end=2017-06&symbols=COF",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "malformed adjusted flag",
			url:        "/api/v1/stats/busy-days?start=2017-01&end=2017-06&symbols=COF&adjusted=maybe",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "unknown statistic",
			url:        "/api/v1/stats/best-months?start=2017-01&end=2017-06&symbols=COF",
			wantStatus: http.StatusNotFound,
			wantType:   apierrors.TypeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockStockService)

			rec := httptest.NewRecorder()
			newTestRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			svc.AssertNotCalled(t, "BusyDays", mock.Anything, mock.Anything)
		})
	}
}

func TestStockHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "provider unreachable",
			err:        apierrors.NewNetworkError(fmt.Errorf("connection refused")),
			wantStatus: http.StatusBadGateway,
			wantType:   apierrors.TypeUpstream,
		},
		{
			name:       "broken archive",
			err:        apierrors.NewArchiveError(apierrors.MsgMultiFileArchive, nil),
			wantStatus: http.StatusBadGateway,
			wantType:   apierrors.TypeDataCorrupted,
		},
		{
			name:       "empty series",
			err:        apierrors.NewDataError(apierrors.MsgEmptyTimeSeries).WithContext("symbol", "COF"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   apierrors.TypeDataNotFound,
		},
		{
			name:       "validation",
			err:        apierrors.NewValidationError(apierrors.MsgInvalidDateRange),
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "deadline exceeded",
			err:        apierrors.NewNetworkError(context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   apierrors.TypeTimeout,
		},
		{
			name:       "unexpected",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   apierrors.TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockStockService)
			svc.On("BusyDays", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := httptest.NewRecorder()
			newTestRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
				"/api/v1/stats/busy-days?start=2017-01&end=2017-06&symbols=COF", nil))

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/api/v1/stats/busy-days", body["instance"])
		})
	}
}

func TestStockHandler_ErrorCarriesSymbol(t *testing.T) {
	svc := new(MockStockService)
	svc.On("ListSymbols", mock.Anything).Return(nil,
		apierrors.NewParsingError(apierrors.MsgCSVParsing, nil).WithContext("symbol", "WIKI-PRICES"))

	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/symbols", nil))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "WIKI-PRICES", body["symbol"])
	assert.Equal(t, "PARSING", body["error_type"])
}
