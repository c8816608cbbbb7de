package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"stockstats/internal/dataprocessing"
	stockerrors "stockstats/internal/errors"
	"stockstats/internal/files"
	"stockstats/internal/shared/testutil"
	"stockstats/internal/transport/httpclient"
	"stockstats/pkg/contracts/domain"
)

const testBaseURL = "http://provider.test/api"

// MockTransport implements Transport for stock service testing
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, http.Header, error) {
	args := m.Called(ctx, rawURL, params)
	var body []byte
	if b := args.Get(0); b != nil {
		body = b.([]byte)
	}
	var header http.Header
	if h := args.Get(1); h != nil {
		header = h.(http.Header)
	}
	return body, header, args.Error(2)
}

func (m *MockTransport) Download(ctx context.Context, rawURL string, params url.Values) (string, http.Header, error) {
	args := m.Called(ctx, rawURL, params)
	var header http.Header
	if h := args.Get(1); h != nil {
		header = h.(http.Header)
	}
	return args.String(0), header, args.Error(2)
}

// StockServiceTestSuite exercises the service against a mocked transport
type StockServiceTestSuite struct {
	suite.Suite
	transport *MockTransport
	files     *files.Manager
	logs      *testutil.BufferedSlogHandler
	service   *StockService
}

func (s *StockServiceTestSuite) SetupTest() {
	logger, logs := testutil.NewTestLogger(s.T())
	s.logs = logs
	s.transport = new(MockTransport)
	s.files = files.NewManager(s.T().TempDir(), logger)
	s.service = NewStockService(s.transport, s.files, StockServiceConfig{
		BaseURL:  testBaseURL + "/",
		APIKey:   "KEY",
		Analyzer: dataprocessing.DefaultAnalyzerConfig(),
	}, nil, logger)
}

func (s *StockServiceTestSuite) TearDownTest() {
	s.transport.AssertExpectations(s.T())
}

// download writes content to a tracked temp file, as the real client does
func (s *StockServiceTestSuite) download(content []byte) string {
	f, err := s.files.CreateTemp("provider-*.download")
	s.Require().NoError(err)
	_, err = f.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(f.Close())
	return f.Name()
}

func (s *StockServiceTestSuite) query(symbols ...string) domain.Query {
	return domain.Query{
		Symbols: symbols,
		Range:   domain.MonthRange(domain.MonthKey{Year: 2017, Month: time.January}, domain.MonthKey{Year: 2017, Month: time.June}),
	}
}

func (s *StockServiceTestSuite) expectSeries(symbol string, rows ...[]interface{}) {
	if rows == nil {
		rows = [][]interface{}{}
	}
	params := url.Values{"api_key": {"KEY"}, "start_date": {"2017-01-01"}, "end_date": {"2017-06-30"}}
	s.transport.On("Get", mock.Anything, testBaseURL+"/v3/datasets/WIKI/"+symbol+"/data.json", params).
		Return(testutil.DatasetJSON(s.T(), testutil.WikiColumns, rows), http.Header{}, nil).Once()
}

func (s *StockServiceTestSuite) TestEndpoints() {
	s.Equal(testBaseURL+"/v3/databases/WIKI/codes", s.service.SymbolsURL())
	s.Equal(testBaseURL+"/v3/datasets/WIKI/BRK.B/data.json", s.service.DailyDataURL("BRK.B"))
}

func (s *StockServiceTestSuite) TestListSymbols() {
	tests := []struct {
		name    string
		content func() []byte
		header  http.Header
	}{
		{
			name:    "plain csv",
			content: func() []byte { return []byte(testutil.SampleCatalogCSV) },
			header:  http.Header{"Content-Type": {"text/csv"}},
		},
		{
			name: "zip archive",
			content: func() []byte {
				data, err := os.ReadFile(testutil.WriteZip(s.T(), testutil.ZipEntry{Name: "WIKI-datasets-codes.csv", Content: testutil.SampleCatalogCSV}))
				s.Require().NoError(err)
				return data
			},
			header: http.Header{"Content-Type": {"application/zip"}},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.transport = new(MockTransport)
			s.service.transport = s.transport

			path := s.download(tt.content())
			s.transport.On("Download", mock.Anything, testBaseURL+"/v3/databases/WIKI/codes", url.Values{"api_key": {"KEY"}}).
				Return(path, tt.header, nil).Once()

			catalog, err := s.service.ListSymbols(context.Background())
			s.Require().NoError(err)
			s.Equal([]string{"AAPL", "GOOGL", "MSFT"}, catalog.Symbols())
			desc, ok := catalog.Description("GOOGL")
			s.True(ok)
			s.Equal("Alphabet Inc, Class A (GOOGL) Prices", desc)

			s.NoFileExists(path)
			s.Empty(s.files.Tracked())
			testutil.AssertNoErrors(s.T(), s.logs)
		})
	}
}

func (s *StockServiceTestSuite) TestListSymbols_RemovesDownloadOnDecodeFailure() {
	path := s.download([]byte("not a zip archive"))
	s.transport.On("Download", mock.Anything, mock.Anything, mock.Anything).
		Return(path, http.Header{"Content-Type": {"application/zip"}}, nil).Once()

	_, err := s.service.ListSymbols(context.Background())
	s.Require().Error(err)
	s.True(stockerrors.IsType(err, stockerrors.ErrTypeArchive))
	s.NoFileExists(path)
	s.Empty(s.files.Tracked())
}

func (s *StockServiceTestSuite) TestListSymbols_MalformedCatalog() {
	path := s.download([]byte("AAPL,Apple Inc\r\n"))
	s.transport.On("Download", mock.Anything, mock.Anything, mock.Anything).
		Return(path, http.Header{"Content-Type": {"text/csv"}}, nil).Once()

	_, err := s.service.ListSymbols(context.Background())
	s.Require().Error(err)
	s.True(stockerrors.IsType(err, stockerrors.ErrTypeParsing))
	s.NoFileExists(path)
}

func (s *StockServiceTestSuite) TestListSymbols_TransportFailure() {
	cause := &httpclient.TransportError{Op: "download", URL: testBaseURL, StatusCode: http.StatusForbidden}
	s.transport.On("Download", mock.Anything, mock.Anything, mock.Anything).
		Return("", nil, cause).Once()

	_, err := s.service.ListSymbols(context.Background())
	s.Require().Error(err)
	s.True(stockerrors.IsType(err, stockerrors.ErrTypeNetwork))
	s.Contains(err.Error(), stockerrors.MsgNetwork)

	var te *httpclient.TransportError
	s.Require().True(errors.As(err, &te))
	s.Equal(http.StatusForbidden, te.StatusCode)
}

func (s *StockServiceTestSuite) TestTimeSeries() {
	s.expectSeries("GOOGL",
		testutil.WikiRow("2017-06-30", 943.99, 945.0, 929.61, 929.68, 2287662),
		testutil.WikiRow("2017-06-29", 951.35, 951.66, 929.6, 937.82, 3206674),
	)

	rng := s.query().Range
	ts, err := s.service.TimeSeries(context.Background(), "GOOGL", rng)
	s.Require().NoError(err)
	s.Equal("GOOGL", ts.Symbol)
	s.Equal(2, ts.Len())
	s.Equal("2017-06-30", ts.Records[0].Date.String())
	s.InDelta(943.99, ts.Records[0].Value(domain.FieldOpen), 1e-9)
	s.True(ts.IsReverseChronological())
}

func (s *StockServiceTestSuite) TestTimeSeries_EncodingError() {
	s.transport.On("Get", mock.Anything, mock.Anything, mock.Anything).
		Return([]byte(`{"dataset_data":`), http.Header{}, nil).Once()

	_, err := s.service.TimeSeries(context.Background(), "GOOGL", s.query().Range)
	s.Require().Error(err)
	s.True(stockerrors.IsType(err, stockerrors.ErrTypeParsing))

	var se *stockerrors.StockError
	s.Require().True(stockerrors.As(err, &se))
	s.Equal("GOOGL", se.Context["symbol"])
}

func (s *StockServiceTestSuite) TestMonthAverages_SymbolOrder() {
	s.expectSeries("MSFT", testutil.WikiRow("2017-02-01", 10, 12, 9, 11, 100))
	s.expectSeries("AAPL",
		testutil.WikiRow("2017-02-02", 30, 31, 29, 34, 100),
		testutil.WikiRow("2017-01-03", 20, 21, 19, 22, 100),
	)

	res, err := s.service.MonthAverages(context.Background(), s.query("MSFT", "AAPL"))
	s.Require().NoError(err)
	s.Equal([]string{"MSFT", "AAPL"}, res.Symbols())

	aapl, ok := res.Get("AAPL")
	s.Require().True(ok)
	s.Len(aapl, 2)
	s.Equal(domain.MonthlyAverage{AverageOpen: 30, AverageClose: 34}, aapl[domain.MonthKey{Year: 2017, Month: time.February}])
	s.Equal(domain.MonthlyAverage{AverageOpen: 20, AverageClose: 22}, aapl[domain.MonthKey{Year: 2017, Month: time.January}])

	s.transport.AssertNumberOfCalls(s.T(), "Get", 2)
	s.True(s.logs.ContainsMessage("Running analysis"))
}

func (s *StockServiceTestSuite) TestTopVarianceDays() {
	s.expectSeries("GOOGL",
		testutil.WikiRow("2017-06-09", 1002.23, 1005.0, 952.87, 960.0, 100),
		testutil.WikiRow("2017-06-08", 982.35, 984.57, 977.2, 983.41, 100),
	)

	res, err := s.service.TopVarianceDays(context.Background(), s.query("GOOGL"))
	s.Require().NoError(err)
	day, ok := res.Get("GOOGL")
	s.Require().True(ok)
	s.Equal("2017-06-09", day.Date.String())
	s.InDelta(52.13, day.Variance, 1e-9)
}

func (s *StockServiceTestSuite) TestBusyDays_EmptySeries() {
	s.expectSeries("GOOGL")

	_, err := s.service.BusyDays(context.Background(), s.query("GOOGL"))
	s.Require().Error(err)
	s.True(stockerrors.IsType(err, stockerrors.ErrTypeData))
}

func (s *StockServiceTestSuite) TestBiggestLoser_Ties() {
	losing := testutil.WikiRow("2017-01-03", 10, 11, 8, 9, 100)
	winning := testutil.WikiRow("2017-01-04", 10, 11, 8, 10.5, 100)

	s.expectSeries("AAA", losing, losing, losing)
	s.expectSeries("BBB", losing, losing, losing, losing, losing)
	s.expectSeries("CCC", losing, winning, losing, losing, losing, losing)

	res, err := s.service.BiggestLoser(context.Background(), s.query("AAA", "BBB", "CCC"))
	s.Require().NoError(err)
	s.Equal(domain.BiggestLoser{Symbols: []string{"BBB", "CCC"}, Days: 5}, res)
}

func (s *StockServiceTestSuite) TestFailureAbortsQuery() {
	s.expectSeries("AAPL", testutil.WikiRow("2017-01-03", 10, 11, 8, 9, 100))
	s.transport.On("Get", mock.Anything, testBaseURL+"/v3/datasets/WIKI/MSFT/data.json", mock.Anything).
		Return(nil, nil, &httpclient.TransportError{Op: "get", URL: testBaseURL, Err: context.DeadlineExceeded}).Once()

	res, err := s.service.LosingDays(context.Background(), s.query("AAPL", "MSFT", "GOOGL"))
	s.Require().Error(err)
	s.Nil(res)
	s.True(stockerrors.IsType(err, stockerrors.ErrTypeNetwork))
	s.ErrorIs(err, context.DeadlineExceeded)
	s.transport.AssertNumberOfCalls(s.T(), "Get", 2)
}

func (s *StockServiceTestSuite) TestValidationBeforeRequest() {
	tests := []struct {
		name  string
		query domain.Query
	}{
		{"no symbols", s.query()},
		{"bad symbol", s.query("WIKI/GOOGL")},
		{
			name: "inverted range",
			query: domain.Query{
				Symbols: []string{"GOOGL"},
				Range:   domain.DateRange{Start: domain.NewDate(2017, time.June, 1), End: domain.NewDate(2017, time.January, 31)},
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.BusyDays(context.Background(), tt.query)
			s.Require().Error(err)
			s.True(stockerrors.IsType(err, stockerrors.ErrTypeValidation))
		})
	}
	s.transport.AssertNotCalled(s.T(), "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestStockServiceTestSuite(t *testing.T) {
	suite.Run(t, new(StockServiceTestSuite))
}

// TestStockService_ProviderURL runs the real client against a fake provider
// and checks the exact request line.
func TestStockService_ProviderURL(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(testutil.DatasetJSON(t, testutil.WikiColumns, [][]interface{}{
			testutil.WikiRow("2017-06-30", 943.99, 945.0, 929.61, 929.68, 2287662),
		}))
	}))
	defer server.Close()

	logger, _ := testutil.NewTestLogger(t)
	fm := files.NewManager(t.TempDir(), logger)
	client := httpclient.New(5*time.Second, fm, logger)
	svc := NewStockService(client, fm, StockServiceConfig{
		BaseURL:  server.URL + "/api",
		APIKey:   "KEY",
		Analyzer: dataprocessing.DefaultAnalyzerConfig(),
	}, nil, logger)

	rng := domain.MonthRange(domain.MonthKey{Year: 2017, Month: time.January}, domain.MonthKey{Year: 2017, Month: time.June})
	ts, err := svc.TimeSeries(context.Background(), "GOOGL", rng)
	require.NoError(t, err)
	assert.Equal(t, 1, ts.Len())
	assert.Equal(t, "/api/v3/datasets/WIKI/GOOGL/data.json?api_key=KEY&end_date=2017-06-30&start_date=2017-01-01", got)
}

func TestHealthService(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tests := []struct {
		name       string
		keyPresent bool
		wantStatus string
	}{
		{"key configured", true, "ok"},
		{"key missing", false, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService("1.2.3", ProviderInfo{BaseURL: testBaseURL, Dataset: "WIKI", KeyPresent: tt.keyPresent}, logger)

			status := hs.HealthCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, "1.2.3", status.Version)
			require.NotNil(t, status.Provider)
			assert.Equal(t, "WIKI", status.Provider.Dataset)
		})
	}

	hs := NewHealthService("1.2.3", ProviderInfo{}, nil)
	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "go_version")
	assert.Equal(t, "1.2.3", hs.Version().Version)
}
