package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
	"github.com/sean-rowe/weather-history-service/internal/core/ports"
)

func newTestRouter() (*mux.Router, *MockRequestService, *MockEnrichmentService) {
	requests := new(MockRequestService)
	enrichment := new(MockEnrichmentService)
	logger := zap.NewNop()

	router := mux.NewRouter()
	RegisterRoutes(router, NewRequestHandler(requests, logger), NewExtrasHandler(enrichment, logger))

	return router, requests, enrichment
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request

	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	return rr
}

func date(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func parisRequest() *domain.WeatherRequest {
	stamp := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	return &domain.WeatherRequest{
		ID:           1,
		RawQuery:     "Paris",
		ResolvedName: "Paris",
		Country:      "FR",
		Latitude:     48.85,
		Longitude:    2.35,
		StartDate:    date("2023-01-01"),
		EndDate:      date("2023-01-03"),
		CreatedAt:    stamp,
		UpdatedAt:    stamp,
		Days: []domain.DailyWeather{
			{ID: 1, Date: date("2023-01-01"), MinTemperature: 1, MaxTemperature: 8, MeanTemperature: 4.5},
			{ID: 2, Date: date("2023-01-02"), MinTemperature: 2, MaxTemperature: 9, MeanTemperature: 5.5},
			{ID: 3, Date: date("2023-01-03"), MinTemperature: 3, MaxTemperature: 10, MeanTemperature: 6.5},
		},
	}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	return resp
}

// TestRequestHandler_Create tests the create endpoint across body and service outcomes.
func TestRequestHandler_Create(t *testing.T) {
	validInput := ports.CreateInput{RawQuery: "Paris", StartDate: date("2023-01-01"), EndDate: date("2023-01-03")}

	tests := []struct {
		name           string
		body           string
		mockResult     *domain.WeatherRequest
		mockError      error
		expectCall     bool
		expectedStatus int
		expectedBody   ErrorResponse
	}{
		{
			name:           "created",
			body:           `{"raw_query":"Paris","start_date":"2023-01-01","end_date":"2023-01-03"}`,
			mockResult:     parisRequest(),
			expectCall:     true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformed json",
			body:           `{"raw_query":`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrorResponse{Error: "Invalid JSON body", Code: domain.CodeInvalidRequestBody},
		},
		{
			name:           "empty body",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrorResponse{Error: "Request body is required", Code: domain.CodeInvalidRequestBody},
		},
		{
			name:           "blank raw query",
			body:           `{"raw_query":"  ","start_date":"2023-01-01","end_date":"2023-01-03"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrorResponse{Error: "raw_query is required", Code: domain.CodeInvalidRequestBody},
		},
		{
			name:           "bad date format",
			body:           `{"raw_query":"Paris","start_date":"01/01/2023","end_date":"2023-01-03"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrorResponse{Error: "start_date must be a date in YYYY-MM-DD format", Code: domain.CodeInvalidRequestBody},
		},
		{
			name:           "missing end date",
			body:           `{"raw_query":"Paris","start_date":"2023-01-01"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrorResponse{Error: "end_date is required", Code: domain.CodeInvalidRequestBody},
		},
		{
			name:           "invalid date range",
			body:           `{"raw_query":"Paris","start_date":"2023-01-01","end_date":"2023-01-03"}`,
			mockError:      &domain.WeatherError{Code: domain.CodeInvalidDateRange, Message: "Start date must be before end date."},
			expectCall:     true,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrorResponse{Error: "Start date must be before end date.", Code: domain.CodeInvalidDateRange},
		},
		{
			name:           "location not found",
			body:           `{"raw_query":"Paris","start_date":"2023-01-01","end_date":"2023-01-03"}`,
			mockError:      &domain.WeatherError{Code: domain.CodeLocationNotFound, Message: "Location not found"},
			expectCall:     true,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrorResponse{Error: "Location not found", Code: domain.CodeLocationNotFound},
		},
		{
			name: "upstream failure hides cause",
			body: `{"raw_query":"Paris","start_date":"2023-01-01","end_date":"2023-01-03"}`,
			mockError: &domain.WeatherError{
				Code:    domain.CodeUpstreamFailure,
				Message: "Failed to retrieve weather data",
				Cause:   errors.New("dial tcp: connection refused"),
			},
			expectCall:     true,
			expectedStatus: http.StatusBadGateway,
			expectedBody:   ErrorResponse{Error: "Weather data provider is temporarily unavailable", Code: domain.CodeUpstreamFailure},
		},
		{
			name:           "persistence failure",
			body:           `{"raw_query":"Paris","start_date":"2023-01-01","end_date":"2023-01-03"}`,
			mockError:      &domain.WeatherError{Code: domain.CodePersistenceFailure, Message: "Failed to save", Cause: errors.New("disk full")},
			expectCall:     true,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   ErrorResponse{Error: "An unexpected error occurred", Code: domain.CodePersistenceFailure},
		},
		{
			name:           "unexpected error",
			body:           `{"raw_query":"Paris","start_date":"2023-01-01","end_date":"2023-01-03"}`,
			mockError:      errors.New("boom"),
			expectCall:     true,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   ErrorResponse{Error: "An unexpected error occurred", Code: "INTERNAL_ERROR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, svc, _ := newTestRouter()

			if tt.expectCall {
				svc.On("Create", mock.Anything, validInput).Return(tt.mockResult, tt.mockError)
			}

			rr := serve(router, http.MethodPost, "/api/requests", tt.body)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			if tt.expectedStatus == http.StatusCreated {
				var resp RequestResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, "Paris", resp.ResolvedName)
				assert.Equal(t, "2023-01-01", resp.StartDate)
				assert.Equal(t, "2025-03-10T09:30:00Z", resp.CreatedAt)
				require.Len(t, resp.Days, 3)
				assert.Equal(t, DayResponse{ID: 2, Date: "2023-01-02", TMin: 2, TMax: 9, TAvg: 5.5}, resp.Days[1])
			} else {
				assert.Equal(t, tt.expectedBody, decodeError(t, rr))
			}

			if !tt.expectCall {
				svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
			svc.AssertExpectations(t)
		})
	}
}

// TestRequestHandler_CreateJSONFieldNames tests the wire names of the aggregate.
func TestRequestHandler_CreateJSONFieldNames(t *testing.T) {
	router, svc, _ := newTestRouter()
	svc.On("Create", mock.Anything, mock.Anything).Return(parisRequest(), nil)

	rr := serve(router, http.MethodPost, "/api/requests",
		`{"raw_query":"Paris","start_date":"2023-01-01","end_date":"2023-01-03"}`)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))

	for _, key := range []string{"id", "raw_query", "resolved_name", "country", "lat", "lon",
		"start_date", "end_date", "created_at", "updated_at", "days"} {
		assert.Contains(t, raw, key)
	}

	day := raw["days"].([]interface{})[0].(map[string]interface{})
	for _, key := range []string{"id", "date", "tmin", "tmax", "tavg"} {
		assert.Contains(t, day, key)
	}
}

// TestRequestHandler_List tests listing and the empty list encoding.
func TestRequestHandler_List(t *testing.T) {
	router, svc, _ := newTestRouter()
	svc.On("List", mock.Anything).Return([]domain.WeatherRequest{}, nil).Once()
	svc.On("List", mock.Anything).Return([]domain.WeatherRequest{*parisRequest()}, nil).Once()

	rr := serve(router, http.MethodGet, "/api/requests", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = serve(router, http.MethodGet, "/api/requests", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp []RequestResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
}

// TestRequestHandler_GetAndDelete tests id routing and not found mapping.
func TestRequestHandler_GetAndDelete(t *testing.T) {
	notFound := &domain.WeatherError{Code: domain.CodeRequestNotFound, Message: "Request not found"}

	tests := []struct {
		name           string
		method         string
		target         string
		setup          func(svc *MockRequestService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "get existing",
			method: http.MethodGet,
			target: "/api/requests/1",
			setup: func(svc *MockRequestService) {
				svc.On("Get", mock.Anything, int64(1)).Return(parisRequest(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "get missing",
			method: http.MethodGet,
			target: "/api/requests/99",
			setup: func(svc *MockRequestService) {
				svc.On("Get", mock.Anything, int64(99)).Return(nil, notFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"Request not found","code":"REQUEST_NOT_FOUND"}`,
		},
		{
			name:           "non numeric id does not match",
			method:         http.MethodGet,
			target:         "/api/requests/abc",
			setup:          func(svc *MockRequestService) {},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "id overflow",
			method:         http.MethodGet,
			target:         "/api/requests/99999999999999999999",
			setup:          func(svc *MockRequestService) {},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"Request not found","code":"REQUEST_NOT_FOUND"}`,
		},
		{
			name:   "delete existing",
			method: http.MethodDelete,
			target: "/api/requests/1",
			setup: func(svc *MockRequestService) {
				svc.On("Delete", mock.Anything, int64(1)).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"message":"Deleted successfully"}`,
		},
		{
			name:   "delete missing",
			method: http.MethodDelete,
			target: "/api/requests/2",
			setup: func(svc *MockRequestService) {
				svc.On("Delete", mock.Anything, int64(2)).Return(notFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"Request not found","code":"REQUEST_NOT_FOUND"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, svc, _ := newTestRouter()
			tt.setup(svc)

			rr := serve(router, tt.method, tt.target, "")

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}

// TestRequestHandler_Update tests partial bodies and error mapping.
func TestRequestHandler_Update(t *testing.T) {
	start := date("2023-02-01")
	london := "London"

	tests := []struct {
		name           string
		body           string
		expectedInput  *ports.UpdateInput
		mockError      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "dates only",
			body:           `{"start_date":"2023-02-01"}`,
			expectedInput:  &ports.UpdateInput{StartDate: &start},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "location only",
			body:           `{"raw_query":"London"}`,
			expectedInput:  &ports.UpdateInput{RawQuery: &london},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "empty body is a no-op update",
			expectedInput:  &ports.UpdateInput{},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad end date",
			body:           `{"end_date":"2023-13-40"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"end_date must be a date in YYYY-MM-DD format","code":"INVALID_REQUEST_BODY"}`,
		},
		{
			name:           "wrong type",
			body:           `{"raw_query":42}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid JSON body","code":"INVALID_REQUEST_BODY"}`,
		},
		{
			name:           "missing request",
			body:           `{"raw_query":"London"}`,
			expectedInput:  &ports.UpdateInput{RawQuery: &london},
			mockError:      &domain.WeatherError{Code: domain.CodeRequestNotFound, Message: "Request not found"},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "upstream failure",
			body:           `{"raw_query":"London"}`,
			expectedInput:  &ports.UpdateInput{RawQuery: &london},
			mockError:      &domain.WeatherError{Code: domain.CodeUpstreamFailure, Message: "Failed to retrieve weather data"},
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, svc, _ := newTestRouter()

			if tt.expectedInput != nil {
				var result *domain.WeatherRequest
				if tt.mockError == nil {
					result = parisRequest()
				}
				svc.On("Update", mock.Anything, int64(1), *tt.expectedInput).Return(result, tt.mockError)
			}

			rr := serve(router, http.MethodPut, "/api/requests/1", tt.body)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}

// TestRequestHandler_Export tests download headers and format errors.
func TestRequestHandler_Export(t *testing.T) {
	router, svc, _ := newTestRouter()

	svc.On("Export", mock.Anything, "csv").Return(&domain.Export{
		Filename:    "weather_data.csv",
		ContentType: "text/csv",
		Body:        []byte("id,raw_query\n"),
	}, nil)
	svc.On("Export", mock.Anything, "xml").Return(nil, &domain.WeatherError{
		Code:    domain.CodeInvalidExport,
		Message: "Unsupported export format",
	})

	rr := serve(router, http.MethodGet, "/api/requests/export?format=csv", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="weather_data.csv"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "id,raw_query\n", rr.Body.String())

	rr = serve(router, http.MethodGet, "/api/requests/export?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, domain.CodeInvalidExport, decodeError(t, rr).Code)
}

// TestRequestHandler_Create_PaddedQuery tests that the service receives the query exactly as sent.
func TestRequestHandler_Create_PaddedQuery(t *testing.T) {
	router, svc, _ := newTestRouter()

	stored := parisRequest()
	stored.RawQuery = "  Paris  "

	svc.On("Create", mock.Anything, ports.CreateInput{
		RawQuery:  "  Paris  ",
		StartDate: date("2023-01-01"),
		EndDate:   date("2023-01-03"),
	}).Return(stored, nil)

	rr := serve(router, http.MethodPost, "/api/requests",
		`{"raw_query":"  Paris  ","start_date":"2023-01-01","end_date":"2023-01-03"}`)

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp RequestResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "  Paris  ", resp.RawQuery)
	svc.AssertExpectations(t)
}

// TestRequestHandler_Update_PaddedQuery tests that update passes the query through untrimmed.
func TestRequestHandler_Update_PaddedQuery(t *testing.T) {
	router, svc, _ := newTestRouter()

	svc.On("Update", mock.Anything, int64(1), mock.MatchedBy(func(in ports.UpdateInput) bool {
		return in.RawQuery != nil && *in.RawQuery == "Paris " && in.StartDate == nil && in.EndDate == nil
	})).Return(parisRequest(), nil)

	rr := serve(router, http.MethodPut, "/api/requests/1", `{"raw_query":"Paris "}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

// TestParseDateField tests that parse failures name the offending field.
func TestParseDateField(t *testing.T) {
	got, err := parseDateField("start_date", "2023-01-01")
	require.NoError(t, err)
	assert.Equal(t, date("2023-01-01"), got)

	_, err = parseDateField("end_date", "2023-02-30")
	assert.EqualError(t, err, "end_date must be a date in YYYY-MM-DD format")
}
