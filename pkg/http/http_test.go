package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	applogger "ShotTrace/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	RoundID string `json:"round_id" validate:"required,max=8"`
	Lie     string `json:"lie" default:"fairway" validate:"oneof=tee fairway green"`
	Items   []int  `json:"items" validate:"min=1"`
}

func bindCtx(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReadAndValidateRequest(t *testing.T) {
	c, _ := bindCtx(`{"round_id":"r1","items":[1]}`)
	var req sampleRequest
	assert.Nil(t, ReadAndValidateRequest(c, &req))
	assert.Equal(t, "fairway", req.Lie)

	c, _ = bindCtx(`{"lie":"water","items":[]}`)
	errs, ok := ReadAndValidateRequest(c, &sampleRequest{}).([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 3)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "ERR_REQUIRED", byField["round_id"].Code)
	assert.Equal(t, "ERR_ONEOF", byField["lie"].Code)
	assert.Equal(t, "items must contain at least 1 items", byField["items"].Message)

	c, _ = bindCtx(`{"round_id":`)
	errs, ok = ReadAndValidateRequest(c, &sampleRequest{}).([]ValidationError)
	require.True(t, ok)
	assert.Equal(t, "ERR_UNKNOWN", errs[0].Code)
}

func TestAppErrorResponse(t *testing.T) {
	c, rec := bindCtx("")
	err := fmt.Errorf("lookup: %w", NotFoundErrorf("round %s not found", "r9"))
	require.NoError(t, AppErrorResponse(c, err))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_NOT_FOUND")

	c, rec = bindCtx("")
	require.NoError(t, AppErrorResponse(c, errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestClientSendAndParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "3", r.URL.Query().Get("hole"))
			_, _ = w.Write([]byte(`{"value":42}`))
		case "/busy":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("bad"))
		}
	}))
	defer srv.Close()

	c := NewClient()
	var out struct {
		Value int `json:"value"`
	}
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodPost,
		URL:         srv.URL + "/ok",
		QueryParams: map[string][]string{"hole": {"3"}},
		Body:        map[string]int{"x": 1},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 42, out.Value)

	var se *StatusError
	err = c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL + "/nope"}, nil)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "bad", se.Body)
	assert.False(t, se.Retryable())

	err = c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL + "/busy"}, nil)
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Retryable())
}

func TestClientBaseURLAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/windows", r.URL.Path)
		assert.Equal(t, "shottrace-test", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get(HeaderRequestID))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL+"/"), WithHeader("User-Agent", "shottrace-test"), WithTimeout(time.Second))
	assert.Equal(t, srv.URL, c.BaseURL())
	require.NoError(t, c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: "/v1/windows"}, nil))
}

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
}

func TestServerRoutes(t *testing.T) {
	s := NewServer(pingHandler{}, WithMetrics("", nil, nil))
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"message":"OK","data":"pong"}`, rec.Body.String())
}

func TestServerSlowThreshold(t *testing.T) {
	for _, tt := range []struct {
		name      string
		threshold time.Duration
		wantWarn  bool
	}{
		{"slow", time.Nanosecond, true},
		{"fast", time.Minute, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			s := NewServer(pingHandler{},
				WithMetrics("", prometheus.NewRegistry(), nil),
				WithSlowThreshold(tt.threshold),
				WithLogger(applogger.NewWithWriter(&buf, zerolog.WarnLevel)),
			)
			rec := httptest.NewRecorder()
			s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantWarn, strings.Contains(buf.String(), "http request slow"))
		})
	}
}

func TestAppErrorKeepsCause(t *testing.T) {
	cause := errors.New("round not found")
	err := NotFoundErrorf("round %s not found", "r9").WithError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusNotFound, err.Status)
}
