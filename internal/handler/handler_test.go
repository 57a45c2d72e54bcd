package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/kwlin/studylog/internal/auth"
	"github.com/kwlin/studylog/internal/handler"
	"github.com/kwlin/studylog/internal/model"
	"github.com/kwlin/studylog/internal/repository/sqlite"
	"github.com/kwlin/studylog/internal/service"
)

// =========================================================================
// TEST HARNESS
// =========================================================================
//
// End-to-end through the real stack: chi router, auth middleware, handlers,
// services, and an in-memory sqlite database. Only the network listener is
// replaced, by httptest.

type testAPI struct {
	router *chi.Mux
	db     *sqlite.DB
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier := auth.NewVerifier("", logger)

	recordHandler := handler.NewRecordHandler(service.NewRecordService(db, db, logger), logger)
	userHandler := handler.NewUserHandler(service.NewSummaryService(db, db, logger), logger)

	router := chi.NewRouter()
	router.Route("/users", func(r chi.Router) {
		r.Use(auth.RequireAuth(verifier))
		r.Post("/{userId}/records", recordHandler.HandleCreate)
		r.Get("/{userId}/summary", userHandler.HandleSummary)
	})

	return &testAPI{router: router, db: db}
}

func (api *testAPI) seedUser(t *testing.T, userID, username string) *model.User {
	t.Helper()
	user := &model.User{UserID: userID, Username: username}
	if err := api.db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// do issues a request through the router and returns the recorded response.
func (api *testAPI) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	return rec
}

// tokenFor mints a valid token for the given subject. The verifier runs
// without a secret in these tests, so any signing key works.
func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return token
}

func recordBody(wordCount, studyTime int, timestamp int64) string {
	return fmt.Sprintf(`{"word_count": %d, "study_time": %d, "timestamp": %d}`, wordCount, studyTime, timestamp)
}

// =========================================================================
// RECORD INGESTION
// =========================================================================

func TestCreateRecord_Endpoint(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "u1", "alice")
	token := tokenFor(t, "u1")

	rec := api.do(t, http.MethodPost, "/users/u1/records", token, recordBody(100, 3600, 1640995200))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

// Posting the same record twice: the second call is a duplicate and must
// conflict, leaving exactly one stored record.
func TestCreateRecord_EndpointIdempotent(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "u1", "alice")
	token := tokenFor(t, "u1")
	body := recordBody(100, 3600, 1640995200)

	first := api.do(t, http.MethodPost, "/users/u1/records", token, body)
	assert.Equal(t, http.StatusCreated, first.Code)

	second := api.do(t, http.MethodPost, "/users/u1/records", token, body)
	assert.Equal(t, http.StatusConflict, second.Code)

	var resp struct {
		Message string `json:"message"`
	}
	assert.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Message)
}

func TestCreateRecord_EndpointUnknownUser(t *testing.T) {
	api := newTestAPI(t)
	token := tokenFor(t, "ghost")

	rec := api.do(t, http.MethodPost, "/users/ghost/records", token, recordBody(100, 3600, 1640995200))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRecord_EndpointMissingField(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "u1", "alice")
	token := tokenFor(t, "u1")

	rec := api.do(t, http.MethodPost, "/users/u1/records", token, `{"study_time": 3600}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"msg": "Field 'word_count' is required"}`, rec.Body.String())
}

func TestCreateRecord_EndpointMalformedBody(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "u1", "alice")
	token := tokenFor(t, "u1")

	rec := api.do(t, http.MethodPost, "/users/u1/records", token, `{not json`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateRecord_EndpointNoAuth(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "u1", "alice")

	rec := api.do(t, http.MethodPost, "/users/u1/records", "", recordBody(100, 3600, 1640995200))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp struct {
		Message string `json:"message"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Message)
}

func TestCreateRecord_EndpointExpiredToken(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "u1", "alice")

	claims := jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(-time.Hour).Unix()}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	assert.NoError(t, err)

	rec := api.do(t, http.MethodPost, "/users/u1/records", expired, recordBody(100, 3600, 1640995200))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =========================================================================
// SUMMARY
// =========================================================================

// summaryJSON mirrors the response shape with SMA fields as raw pointers so
// JSON null round-trips to nil.
type summaryJSON struct {
	Summary []struct {
		Date         string   `json:"date"`
		WordCount    int      `json:"word_count"`
		StudyTime    int      `json:"study_time"`
		WordCountSMA *float64 `json:"word_count_sma"`
		StudyTimeSMA *float64 `json:"study_time_sma"`
	} `json:"summary"`
	Total int `json:"total"`
}

func postRecords(t *testing.T, api *testAPI, token string, records ...[3]int64) {
	t.Helper()
	for _, r := range records {
		rec := api.do(t, http.MethodPost, "/users/u1/records", token,
			recordBody(int(r[0]), int(r[1]), r[2]))
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
}

func TestSummary_Endpoint(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "u1", "alice")
	token := tokenFor(t, "u1")

	// Two records on Jan 1 2022, one on Jan 2.
	postRecords(t, api, token,
		[3]int64{100, 3600, 1641031200}, // 2022-01-01 10:00
		[3]int64{50, 1800, 1641049200},  // 2022-01-01 15:00
		[3]int64{200, 7200, 1641114000}, // 2022-01-02 09:00
	)

	rec := api.do(t, http.MethodGet,
		"/users/u1/summary?start=1640995200&end=1643673600&granularity=day", token, "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp summaryJSON
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	if assert.Len(t, resp.Summary, 2) {
		assert.Equal(t, "2022-01-01T00:00:00Z", resp.Summary[0].Date)
		assert.Equal(t, 150, resp.Summary[0].WordCount)
		assert.Equal(t, 5400, resp.Summary[0].StudyTime)
		assert.Nil(t, resp.Summary[0].WordCountSMA)

		assert.Equal(t, "2022-01-02T00:00:00Z", resp.Summary[1].Date)
		assert.Equal(t, 200, resp.Summary[1].WordCount)
	}
}

func TestSummary_EndpointEmpty(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "u1", "alice")
	token := tokenFor(t, "u1")

	rec := api.do(t, http.MethodGet,
		"/users/u1/summary?start=0&end=100&granularity=day", token, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"summary": [], "total": 0}`, rec.Body.String())
}

// Three daily records with n=2: the first bucket has null averages, the
// later ones carry trailing means.
func TestSummary_EndpointMovingAverage(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "u1", "alice")
	token := tokenFor(t, "u1")

	postRecords(t, api, token,
		[3]int64{100, 1000, 1641031200}, // Jan 1
		[3]int64{150, 1500, 1641117600}, // Jan 2
		[3]int64{200, 2000, 1641204000}, // Jan 3
	)

	rec := api.do(t, http.MethodGet,
		"/users/u1/summary?start=1640995200&end=1643673600&granularity=day&n=2", token, "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp summaryJSON
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	if assert.Len(t, resp.Summary, 3) {
		assert.Nil(t, resp.Summary[0].WordCountSMA)
		assert.Nil(t, resp.Summary[0].StudyTimeSMA)

		if assert.NotNil(t, resp.Summary[1].WordCountSMA) {
			assert.Equal(t, 125.0, *resp.Summary[1].WordCountSMA)
		}
		if assert.NotNil(t, resp.Summary[2].WordCountSMA) {
			assert.Equal(t, 175.0, *resp.Summary[2].WordCountSMA)
		}
		if assert.NotNil(t, resp.Summary[2].StudyTimeSMA) {
			assert.Equal(t, 1750.0, *resp.Summary[2].StudyTimeSMA)
		}
	}
}

func TestSummary_EndpointUnknownUser(t *testing.T) {
	api := newTestAPI(t)
	token := tokenFor(t, "ghost")

	rec := api.do(t, http.MethodGet,
		"/users/ghost/summary?start=0&end=100&granularity=day", token, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummary_EndpointInvalidGranularity(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "u1", "alice")
	token := tokenFor(t, "u1")

	rec := api.do(t, http.MethodGet,
		"/users/u1/summary?start=0&end=100&granularity=year", token, "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"msg": "Field 'granularity' must be one of hour, day, week, month"}`, rec.Body.String())
}

func TestSummary_EndpointMissingRangeParams(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "u1", "alice")
	token := tokenFor(t, "u1")

	for _, target := range []string{
		"/users/u1/summary?end=100&granularity=day",
		"/users/u1/summary?start=0&granularity=day",
		"/users/u1/summary?start=abc&end=100&granularity=day",
	} {
		rec := api.do(t, http.MethodGet, target, token, "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "target: %s", target)
	}
}

func TestSummary_EndpointNonPositiveWindow(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "u1", "alice")
	token := tokenFor(t, "u1")

	rec := api.do(t, http.MethodGet,
		"/users/u1/summary?start=0&end=100&granularity=day&n=0", token, "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"msg": "Field 'n' must be a positive integer"}`, rec.Body.String())
}
