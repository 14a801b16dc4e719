// Package console exposes the three surface forms over HTTP: reads return
// the derived view state, posts mutate form input or run a submission.
package console

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dbconsole/native/borrow"
	"dbconsole/native/earn"
	"dbconsole/native/swap"
	"dbconsole/observability"
)

const requestBodyLimit = 1 << 20 // 1 MiB

// Refresh re-reads a surface's snapshot; Allow gates refreshes triggered by
// reads so a polling client cannot hammer the RPC endpoint.
type Refresh struct {
	Borrow func(context.Context) error
	Swap   func(context.Context) error
	Earn   func(context.Context) error
	Allow  func(surface string) bool
}

// Server routes console requests to the three forms.
type Server struct {
	borrowForm *borrow.Form
	swapForm   *swap.Form
	earnForm   *earn.Form
	refresh    Refresh
	metrics    *observability.ConsoleMetrics
	logger     *slog.Logger
}

// NewServer wires the forms behind the HTTP surface.
func NewServer(borrowForm *borrow.Form, swapForm *swap.Form, earnForm *earn.Form, refresh Refresh, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		borrowForm: borrowForm,
		swapForm:   swapForm,
		earnForm:   earnForm,
		refresh:    refresh,
		metrics:    observability.Console(),
		logger:     logger,
	}
}

// Router builds the chi router for the console API.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/borrow", func(r chi.Router) {
			r.Get("/", s.getBorrow)
			r.Post("/amount", s.postBorrowAmount)
			r.Post("/mode", s.postBorrowMode)
			r.Post("/max", s.postBorrowMax)
			r.Post("/asset", s.postBorrowAsset)
			r.Post("/submit", s.postBorrowSubmit)
		})
		r.Route("/swap", func(r chi.Router) {
			r.Get("/", s.getSwap)
			r.Post("/direction", s.postSwapDirection)
			r.Post("/amount", s.postSwapAmount)
			r.Post("/max", s.postSwapMax)
			r.Post("/submit", s.postSwapSubmit)
		})
		r.Route("/earn", func(r chi.Router) {
			r.Get("/", s.getEarn)
			r.Post("/mode", s.postEarnMode)
			r.Post("/amount", s.postEarnAmount)
			r.Post("/max", s.postEarnMax)
			r.Post("/submit", s.postEarnSubmit)
		})
	})
	return r
}

// maybeRefresh re-reads a surface's snapshot if a hook is installed and the
// limiter allows it. Refresh failures degrade to the previous snapshot.
func (s *Server) maybeRefresh(ctx context.Context, surface string, fn func(context.Context) error) {
	if fn == nil {
		return
	}
	if s.refresh.Allow != nil && !s.refresh.Allow(surface) {
		return
	}
	if err := fn(ctx); err != nil {
		s.logger.Warn("snapshot refresh failed", "surface", surface, "error", err)
	}
}

func (s *Server) getBorrow(w http.ResponseWriter, r *http.Request) {
	s.maybeRefresh(r.Context(), "borrow", s.refresh.Borrow)
	writeJSON(w, http.StatusOK, s.borrowForm.View())
}

type borrowAmountRequest struct {
	Mode   string `json:"mode"`
	Amount string `json:"amount"`
}

func (s *Server) postBorrowAmount(w http.ResponseWriter, r *http.Request) {
	var req borrowAmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode := borrow.Mode(req.Mode)
	if !mode.Valid() {
		writeError(w, http.StatusBadRequest, "unknown mode")
		return
	}
	s.borrowForm.SetAmount(mode, req.Amount)
	writeJSON(w, http.StatusOK, s.borrowForm.View())
}

type borrowModeRequest struct {
	Mode string `json:"mode"`
}

// postBorrowMode only clears the status message; each mode keeps its own
// pending amount, so switching is otherwise free.
func (s *Server) postBorrowMode(w http.ResponseWriter, r *http.Request) {
	var req borrowModeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode := borrow.Mode(req.Mode)
	if !mode.Valid() {
		writeError(w, http.StatusBadRequest, "unknown mode")
		return
	}
	s.borrowForm.ClearStatus()
	writeJSON(w, http.StatusOK, s.borrowForm.View())
}

func (s *Server) postBorrowMax(w http.ResponseWriter, r *http.Request) {
	var req borrowModeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode := borrow.Mode(req.Mode)
	if !mode.Valid() {
		writeError(w, http.StatusBadRequest, "unknown mode")
		return
	}
	s.borrowForm.SetMax(mode)
	writeJSON(w, http.StatusOK, s.borrowForm.View())
}

type borrowAssetRequest struct {
	Asset string `json:"asset"`
}

func (s *Server) postBorrowAsset(w http.ResponseWriter, r *http.Request) {
	var req borrowAssetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	asset := borrow.DepositAsset(req.Asset)
	if asset != borrow.AssetWrapped && asset != borrow.AssetNative {
		writeError(w, http.StatusBadRequest, "unknown asset")
		return
	}
	s.borrowForm.SetDepositAsset(asset)
	writeJSON(w, http.StatusOK, s.borrowForm.View())
}

func (s *Server) postBorrowSubmit(w http.ResponseWriter, r *http.Request) {
	var req borrowModeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode := borrow.Mode(req.Mode)
	if !mode.Valid() {
		writeError(w, http.StatusBadRequest, "unknown mode")
		return
	}
	status := s.borrowForm.Submit(r.Context(), mode)
	s.metrics.RecordSubmission("borrow", string(mode), completed(status))
	writeJSON(w, http.StatusOK, submitResponse{Status: status, View: s.borrowForm.View()})
}

func (s *Server) getSwap(w http.ResponseWriter, r *http.Request) {
	s.maybeRefresh(r.Context(), "swap", s.refresh.Swap)
	writeJSON(w, http.StatusOK, s.swapForm.View())
}

func (s *Server) postSwapDirection(w http.ResponseWriter, r *http.Request) {
	s.swapForm.ToggleDirection()
	writeJSON(w, http.StatusOK, s.swapForm.View())
}

type amountRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) postSwapAmount(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.swapForm.SetAmount(r.Context(), req.Amount)
	writeJSON(w, http.StatusOK, s.swapForm.View())
}

func (s *Server) postSwapMax(w http.ResponseWriter, r *http.Request) {
	s.swapForm.SetMax(r.Context())
	writeJSON(w, http.StatusOK, s.swapForm.View())
}

func (s *Server) postSwapSubmit(w http.ResponseWriter, r *http.Request) {
	status := s.swapForm.Submit(r.Context())
	s.metrics.RecordSubmission("swap", "swap", completed(status))
	writeJSON(w, http.StatusOK, submitResponse{Status: status, View: s.swapForm.View()})
}

func (s *Server) getEarn(w http.ResponseWriter, r *http.Request) {
	s.maybeRefresh(r.Context(), "earn", s.refresh.Earn)
	writeJSON(w, http.StatusOK, s.earnForm.View())
}

type earnModeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) postEarnMode(w http.ResponseWriter, r *http.Request) {
	var req earnModeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode := earn.Mode(req.Mode)
	if !mode.Valid() {
		writeError(w, http.StatusBadRequest, "unknown mode")
		return
	}
	s.earnForm.SetMode(mode)
	writeJSON(w, http.StatusOK, s.earnForm.View())
}

func (s *Server) postEarnAmount(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.earnForm.SetAmount(r.Context(), req.Amount)
	writeJSON(w, http.StatusOK, s.earnForm.View())
}

func (s *Server) postEarnMax(w http.ResponseWriter, r *http.Request) {
	s.earnForm.SetMax(r.Context())
	writeJSON(w, http.StatusOK, s.earnForm.View())
}

func (s *Server) postEarnSubmit(w http.ResponseWriter, r *http.Request) {
	mode := s.earnForm.View().Mode
	status := s.earnForm.Submit(r.Context())
	s.metrics.RecordSubmission("earn", mode, completed(status))
	writeJSON(w, http.StatusOK, submitResponse{Status: status, View: s.earnForm.View()})
}

type submitResponse struct {
	Status string      `json:"status"`
	View   interface{} `json:"view"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// completed reports whether a submission status is one of the success
// messages rather than a rejection or chain failure.
func completed(status string) bool {
	return strings.HasSuffix(status, "completed successfully.")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, requestBodyLimit)
	defer func() { _ = body.Close() }()
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
