package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
	"github.com/punchamoorthee/ledgerbook/internal/ledger"
	"github.com/punchamoorthee/ledgerbook/internal/marketdata"
	"github.com/punchamoorthee/ledgerbook/internal/service"
)

// Metrics
var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "endpoint"})
)

type Handler struct {
	ledger  *ledger.Ledger
	service *service.TransferService
	feed    *marketdata.Feed
	logger  *zap.Logger
	now     func() time.Time
}

// NewHandler wires the HTTP surface. feed may be nil when market data is
// disabled.
func NewHandler(l *ledger.Ledger, svc *service.TransferService, feed *marketdata.Feed, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{ledger: l, service: svc, feed: feed, logger: logger, now: time.Now}
}

// Router returns the full route table, including /health and /metrics.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument)
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	apiV1.HandleFunc("/accounts", h.ListAccounts).Methods("GET")
	apiV1.HandleFunc("/accounts/{id}", h.GetAccount).Methods("GET")
	apiV1.HandleFunc("/accounts/{id}/entries", h.GetAccountEntries).Methods("GET")
	apiV1.HandleFunc("/entries", h.CreateEntry).Methods("POST")
	apiV1.HandleFunc("/entries", h.ListEntries).Methods("GET")
	apiV1.HandleFunc("/entries/{seq}", h.GetEntry).Methods("GET")
	apiV1.HandleFunc("/ledger/verify", h.Verify).Methods("GET")
	apiV1.HandleFunc("/orders", h.PlaceOrder).Methods("POST")
	apiV1.HandleFunc("/marketdata/{symbol}", h.LatestTick).Methods("GET")

	return r
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}
		timer := prometheus.NewTimer(httpLatency.WithLabelValues(r.Method, endpoint))
		defer timer.ObserveDuration()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/accounts")
		return
	}

	acc, err := h.ledger.AddAccount(req.ID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrDuplicateAccount):
			h.respondError(w, http.StatusConflict, err.Error(), "POST", "/accounts")
		case errors.Is(err, ledger.ErrInvalidAccount):
			h.respondError(w, http.StatusUnprocessableEntity, err.Error(), "POST", "/accounts")
		default:
			h.internalError(w, err, "POST", "/accounts")
		}
		return
	}

	h.logger.Info("account created", zap.String("account_id", acc.ID))
	w.Header().Set("Location", "/api/v1/accounts/"+acc.ID)
	h.respondJSON(w, http.StatusCreated, acc, "POST", "/accounts")
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.ledger.ListAccounts(), "GET", "/accounts")
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	acc, err := h.ledger.GetAccount(id)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			h.respondError(w, http.StatusNotFound, err.Error(), "GET", "/accounts/{id}")
			return
		}
		h.internalError(w, err, "GET", "/accounts/{id}")
		return
	}
	h.respondJSON(w, http.StatusOK, acc, "GET", "/accounts/{id}")
}

func (h *Handler) GetAccountEntries(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	entries, err := h.ledger.EntriesFor(id)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			h.respondError(w, http.StatusNotFound, err.Error(), "GET", "/accounts/{id}/entries")
			return
		}
		h.internalError(w, err, "GET", "/accounts/{id}/entries")
		return
	}
	h.respondJSON(w, http.StatusOK, entries, "GET", "/accounts/{id}/entries")
}

// Helpers
func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload interface{}, method, endpoint string) {
	httpReqTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func (h *Handler) respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	h.respondJSON(w, code, domain.ErrorResponse{Error: msg}, method, endpoint)
}

func (h *Handler) internalError(w http.ResponseWriter, err error, method, endpoint string) {
	h.logger.Error("request failed", zap.String("method", method), zap.String("endpoint", endpoint), zap.Error(err))
	h.respondError(w, http.StatusInternalServerError, "Internal Server Error", method, endpoint)
}
