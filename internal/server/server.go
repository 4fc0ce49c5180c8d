package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/iwvelando/tender-optimizer/internal/metrics"
	"github.com/iwvelando/tender-optimizer/internal/optimizer"
	"github.com/iwvelando/tender-optimizer/internal/service"
	"github.com/iwvelando/tender-optimizer/internal/store"
	"github.com/iwvelando/tender-optimizer/pkg/constants"
	"github.com/iwvelando/tender-optimizer/pkg/output"
	"github.com/iwvelando/tender-optimizer/pkg/records"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type handler struct {
	svc           *service.Service
	logger        *zap.Logger
	validate      *validator.Validate
	limiter       *rate.Limiter
	defaults      optimizer.Strategy
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the optimization API.
// defaults supplies the strategy and weights used when a request omits them.
func NewHandler(svc *service.Service, logger *zap.Logger, cfg *Config, defaults optimizer.Strategy, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = defaultConfig()
	}
	if defaults.Kind == "" {
		defaults.Kind = optimizer.StrategyOptimized
	}

	maxUploadSize := cfg.UploadSizeBytes()
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		svc:           svc,
		logger:        logger,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		defaults:      defaults,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
	}
	if cfg.RateLimit > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	metrics.Register()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.instrument)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.throttle)
			r.Post("/optimize", h.handleOptimize)
			r.Post("/optimize/upload", h.handleOptimizeUpload)
			r.Post("/compare", h.handleCompare)
		})
		r.Get("/runs", h.handleListRuns)
		r.Get("/runs/{id}", h.handleGetRun)
		r.Get("/version", h.handleVersion)
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

type optimizeRequest struct {
	Shipments         []optimizer.Shipment `json:"shipments" validate:"dive"`
	Strategy          string               `json:"strategy"`
	CostWeight        *float64             `json:"costWeight" validate:"omitempty,gte=0"`
	PerformanceWeight *float64             `json:"performanceWeight" validate:"omitempty,gte=0"`
}

type runsResponse struct {
	Runs []*store.Run `json:"runs"`
}

func (h *handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimize"

	req, ok := h.decodeRequest(w, r, op)
	if !ok {
		return
	}
	strategy, err := h.strategy(req.Strategy, req.CostWeight, req.PerformanceWeight)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.run(w, r, req.Shipments, strategy, op)
}

func (h *handler) handleOptimizeUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimizeUpload"

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing shipment file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	shipments, err := records.ReadCSV(file)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, fmt.Sprintf("error reading shipment data, %v", err), op)
		return
	}

	query := r.URL.Query()
	costWeight, err := queryFloat(query.Get("costWeight"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid costWeight: %v", err), op)
		return
	}
	performanceWeight, err := queryFloat(query.Get("performanceWeight"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid performanceWeight: %v", err), op)
		return
	}
	strategy, err := h.strategy(query.Get("strategy"), costWeight, performanceWeight)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	if query.Get("format") == constants.OutputFormatCSV {
		run, err := h.svc.Run(r.Context(), service.Request{Shipments: shipments, Strategy: strategy})
		if err != nil {
			h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("X-Run-ID", run.ID.String())
		w.WriteHeader(http.StatusOK)
		if err := output.CSV(w, run.Solution); err != nil {
			h.logger.Error("failed to write csv response",
				zap.String("op", op),
				zap.Error(err),
			)
		}
		return
	}

	h.run(w, r, shipments, strategy, op)
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"

	req, ok := h.decodeRequest(w, r, op)
	if !ok {
		return
	}
	weights := h.weights(req.CostWeight, req.PerformanceWeight)

	cmp, err := h.svc.Compare(r.Context(), req.Shipments, weights)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, cmp)
}

func (h *handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListRuns"

	limit := constants.DefaultRunListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw), op)
			return
		}
		limit = parsed
	}

	runs, err := h.svc.ListRuns(r.Context(), limit)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	h.writeJSON(w, http.StatusOK, runsResponse{Runs: runs})
}

func (h *handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetRun"

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusNotFound, store.ErrNotFound.Error(), op)
		return
	}

	run, err := h.svc.GetRun(r.Context(), id)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
		"backend": h.svc.Backend(),
	})
}

func (h *handler) run(w http.ResponseWriter, r *http.Request, shipments []optimizer.Shipment, strategy optimizer.Strategy, op string) {
	run, err := h.svc.Run(r.Context(), service.Request{Shipments: shipments, Strategy: strategy})
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

func (h *handler) decodeRequest(w http.ResponseWriter, r *http.Request, op string) (*optimizeRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var req optimizeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return nil, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return nil, false
	}

	if err := h.validate.Struct(req); err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, validationMessage(err), op)
		return nil, false
	}
	return &req, true
}

// strategy resolves a strategy name and optional weights. A missing weight
// falls back to the configured default for that criterion.
func (h *handler) strategy(name string, costWeight, performanceWeight *float64) (optimizer.Strategy, error) {
	kind := h.defaults.Kind
	if strings.TrimSpace(name) != "" {
		parsed, err := optimizer.ParseStrategyKind(name)
		if err != nil {
			return optimizer.Strategy{}, err
		}
		kind = parsed
	}
	if kind != optimizer.StrategyOptimized {
		return optimizer.Strategy{Kind: kind}, nil
	}
	return optimizer.Optimized(h.weights(costWeight, performanceWeight)), nil
}

// weights overlays request weights on the configured pair.
func (h *handler) weights(costWeight, performanceWeight *float64) optimizer.Weights {
	w := h.defaults.Weights
	if costWeight != nil {
		w.Cost = *costWeight
	}
	if performanceWeight != nil {
		w.Performance = *performanceWeight
	}
	return w
}

func queryFloat(raw string) (*float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, optimizer.ErrDataIncomplete),
		errors.Is(err, optimizer.ErrInvalidShipment),
		errors.Is(err, optimizer.ErrInvalidWeights):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			h.respondErrorWithOp(w, http.StatusTooManyRequests, "rate limit exceeded", "server.throttle")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// instrument records request counts and latency by route pattern so that
// run IDs do not explode label cardinality.
func (h *handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		h.logger.Debug("request served",
			zap.String("op", "server.instrument"),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
		)
	})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("api request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}
