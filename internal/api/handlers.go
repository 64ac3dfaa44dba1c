package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
	"github.com/punchamoorthee/ledgerbook/internal/ledger"
	"github.com/punchamoorthee/ledgerbook/internal/orders"
	"github.com/punchamoorthee/ledgerbook/internal/service"
)

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey == "" {
		h.respondError(w, http.StatusBadRequest, "Missing Idempotency-Key", "POST", "/entries")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Stream read error", "POST", "/entries")
		return
	}
	hash := sha256.Sum256(body)
	reqHash := hex.EncodeToString(hash[:])

	var req domain.PostEntryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/entries")
		return
	}

	entry, replayed, err := h.service.ProcessTransfer(r.Context(), req, idemKey, reqHash)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIdempotencyConflict):
			h.respondError(w, http.StatusConflict, "Request in progress", "POST", "/entries")
		case errors.Is(err, service.ErrIdempotencyMismatch):
			h.respondError(w, http.StatusUnprocessableEntity, "Key reuse with mismatched payload", "POST", "/entries")
		case errors.Is(err, ledger.ErrAccountNotFound):
			h.respondError(w, http.StatusNotFound, err.Error(), "POST", "/entries")
		case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidTransfer):
			h.respondError(w, http.StatusUnprocessableEntity, err.Error(), "POST", "/entries")
		default:
			h.internalError(w, err, "POST", "/entries")
		}
		return
	}

	resp := entryResponse(entry)
	if replayed {
		resp.Replayed = true
		h.respondJSON(w, http.StatusOK, resp, "POST", "/entries")
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/entries/%d", entry.Seq))
	h.respondJSON(w, http.StatusCreated, resp, "POST", "/entries")
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.ledger.ListEntries(), "GET", "/entries")
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseUint(mux.Vars(r)["seq"], 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid entry sequence", "GET", "/entries/{seq}")
		return
	}

	entry, err := h.ledger.Entry(seq)
	if err != nil {
		h.respondError(w, http.StatusNotFound, err.Error(), "GET", "/entries/{seq}")
		return
	}
	h.respondJSON(w, http.StatusOK, entryResponse(entry), "GET", "/entries/{seq}")
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	resp := domain.VerifyResponse{
		Status:   "balanced",
		Accounts: len(h.ledger.ListAccounts()),
		Entries:  h.ledger.Len(),
		Total:    h.ledger.Total(),
	}
	if err := h.ledger.Verify(); err != nil {
		h.logger.Error("ledger verification failed", zap.Error(err))
		resp.Status = "inconsistent"
		resp.Error = err.Error()
		h.respondJSON(w, http.StatusInternalServerError, resp, "GET", "/ledger/verify")
		return
	}
	h.respondJSON(w, http.StatusOK, resp, "GET", "/ledger/verify")
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/orders")
		return
	}

	resp := orders.Place(req, h.now().UTC())
	if resp.Status == orders.Rejected {
		h.respondJSON(w, http.StatusUnprocessableEntity, resp, "POST", "/orders")
		return
	}
	h.respondJSON(w, http.StatusCreated, resp, "POST", "/orders")
}

func (h *Handler) LatestTick(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if h.feed == nil {
		h.respondError(w, http.StatusNotFound, "Market data disabled", "GET", "/marketdata/{symbol}")
		return
	}

	ticker, ok := h.feed.Ticker(symbol)
	if !ok {
		h.respondError(w, http.StatusNotFound, "Unknown symbol", "GET", "/marketdata/{symbol}")
		return
	}
	tick, ok := ticker.Last()
	if !ok {
		h.respondError(w, http.StatusNotFound, "No ticks yet", "GET", "/marketdata/{symbol}")
		return
	}
	h.respondJSON(w, http.StatusOK, tick, "GET", "/marketdata/{symbol}")
}

func entryResponse(e ledger.Entry) domain.EntryResponse {
	return domain.EntryResponse{
		Seq:             e.Seq,
		Ref:             e.Ref,
		DebitAccountID:  e.DebitAccountID,
		CreditAccountID: e.CreditAccountID,
		Amount:          e.Amount,
		Timestamp:       e.Timestamp,
	}
}
