package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"ShotTrace/internal/domain/models"
	domrepo "ShotTrace/internal/domain/repository"
	apimetrics "ShotTrace/internal/service/metrics"
	"ShotTrace/internal/service/ratelimit"
	"ShotTrace/internal/usecase"
	xhttp "ShotTrace/pkg/http"
	xlogger "ShotTrace/pkg/logger"

	"github.com/labstack/echo/v4"
)

type roundProcessor interface {
	Process(ctx context.Context, in models.RoundInput) (*models.RoundAnalysis, error)
}

type roundQuery interface {
	GetRound(ctx context.Context, roundID string) (*models.RoundAnalysis, error)
}

type expectedStrokes interface {
	ExpectedStrokes(distance float64, lie models.Lie, isPutt bool) float64
}

// RoundsEchoHandler serves round analysis and the expected-strokes lookup.
type RoundsEchoHandler struct {
	logger    *xlogger.Logger
	processor roundProcessor
	query     roundQuery
	model     expectedStrokes
	limiter   *ratelimit.Limiter
}

// NewRoundsEchoHandler builds the handler. A nil limiter disables rate
// limiting of the analyze endpoint.
func NewRoundsEchoHandler(
	logger *xlogger.Logger,
	processor roundProcessor,
	query roundQuery,
	model expectedStrokes,
	limiter *ratelimit.Limiter,
) *RoundsEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &RoundsEchoHandler{logger: logger, processor: processor, query: query, model: model, limiter: limiter}
}

func (h *RoundsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/rounds/analyze", h.Analyze)
	g.GET("/rounds/:id", h.GetRound)
	g.GET("/expected-strokes", h.ExpectedStrokes)
}

func (h *RoundsEchoHandler) Analyze(c echo.Context) error {
	const endpoint = "analyze"
	defer observe(endpoint, time.Now())

	if h.limiter != nil && !h.limiter.Allow(xhttp.ClientKey(c)) {
		apimetrics.RateLimited.Inc()
		apiError(endpoint, http.StatusTooManyRequests)
		return xhttp.TooManyRequestsResponse(c)
	}

	req := &models.AnalyzeRoundRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		apiError(endpoint, http.StatusBadRequest)
		return xhttp.BadRequestResponse(c, verr)
	}

	analysis, err := h.processor.Process(c.Request().Context(), req.Input())
	switch {
	case errors.Is(err, usecase.ErrRoundInProgress):
		apiError(endpoint, http.StatusConflict)
		return xhttp.AppErrorResponse(c, xhttp.ConflictError("round is already being analysed").
			WithParam("round_id", req.RoundID))
	case err != nil && analysis != nil:
		// analysed and cached but the backend write failed
		h.logger.Error("round backend write failed", xlogger.String("round_id", req.RoundID), xlogger.Error(err))
		apiError(endpoint, http.StatusAccepted)
		return xhttp.DataResponse(c, http.StatusAccepted, analysis)
	case err != nil:
		h.logger.Error("round analysis failed", xlogger.String("round_id", req.RoundID), xlogger.Error(err))
		apiError(endpoint, http.StatusInternalServerError)
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, analysis)
}

func (h *RoundsEchoHandler) GetRound(c echo.Context) error {
	const endpoint = "get_round"
	defer observe(endpoint, time.Now())

	req := &models.RoundRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		apiError(endpoint, http.StatusBadRequest)
		return xhttp.BadRequestResponse(c, verr)
	}

	analysis, err := h.query.GetRound(c.Request().Context(), req.RoundID)
	if errors.Is(err, domrepo.ErrRoundNotFound) {
		apiError(endpoint, http.StatusNotFound)
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("round %s not found", req.RoundID).WithError(err))
	}
	if err != nil {
		h.logger.Error("round lookup failed", xlogger.String("round_id", req.RoundID), xlogger.Error(err))
		apiError(endpoint, http.StatusInternalServerError)
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, analysis)
}

func (h *RoundsEchoHandler) ExpectedStrokes(c echo.Context) error {
	const endpoint = "expected_strokes"
	defer observe(endpoint, time.Now())

	req := &models.ExpectedStrokesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		apiError(endpoint, http.StatusBadRequest)
		return xhttp.BadRequestResponse(c, verr)
	}

	lie := models.Lie(req.Lie)
	unit := models.UnitYards
	if req.Putt || lie == models.LieGreen {
		unit = models.UnitFeet
	}
	return xhttp.SuccessResponse(c, models.ExpectedStrokesResponse{
		Distance:        req.Distance,
		Unit:            unit,
		Lie:             lie,
		ExpectedStrokes: h.model.ExpectedStrokes(req.Distance, lie, req.Putt),
	})
}

func observe(endpoint string, start time.Time) {
	apimetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func apiError(endpoint string, code int) {
	apimetrics.APIErrors.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}
