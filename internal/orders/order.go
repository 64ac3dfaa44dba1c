// Package orders validates incoming trade requests and issues accept or
// reject decisions. It never touches ledger state.
package orders

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type Type string

const (
	Limit  Type = "LIMIT"
	Market Type = "MARKET"
)

type Status string

const (
	Accepted Status = "ACCEPTED"
	Rejected Status = "REJECTED"
)

// RejectedOrderID is reported for orders that fail validation.
const RejectedOrderID = "N/A"

const defaultClientID = "ledgerbook"

type Request struct {
	Symbol   string  `json:"symbol"`
	Side     Side    `json:"side"`
	Type     Type    `json:"type"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price,omitempty"`
	ClientID string  `json:"client_id"`
}

type Response struct {
	OrderID    string    `json:"order_id"`
	Status     Status    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// NewLimit builds a LIMIT order. An empty clientID gets the default.
func NewLimit(symbol string, side Side, price, quantity float64, clientID string) Request {
	if clientID == "" {
		clientID = defaultClientID
	}
	return Request{
		Symbol:   symbol,
		Side:     side,
		Type:     Limit,
		Price:    price,
		Quantity: quantity,
		ClientID: clientID,
	}
}

// Validate returns every constraint req violates, in a fixed order.
func Validate(req Request) []string {
	var errs []string
	if req.Symbol == "" {
		errs = append(errs, "symbol is required")
	}
	if req.Side != Buy && req.Side != Sell {
		errs = append(errs, "side must be BUY or SELL")
	}
	if req.Type != Limit && req.Type != Market {
		errs = append(errs, "type must be LIMIT or MARKET")
	}
	if !positive(req.Quantity) {
		errs = append(errs, "quantity must be > 0")
	}
	if req.Type == Limit && !positive(req.Price) {
		errs = append(errs, "price must be > 0 for LIMIT")
	}
	return errs
}

// Place validates req and stamps the decision with receivedAt.
func Place(req Request, receivedAt time.Time) Response {
	if errs := Validate(req); len(errs) > 0 {
		return Response{
			OrderID:    RejectedOrderID,
			Status:     Rejected,
			Reason:     strings.Join(errs, "; "),
			ReceivedAt: receivedAt,
		}
	}
	return Response{
		OrderID:    newOrderID(),
		Status:     Accepted,
		ReceivedAt: receivedAt,
	}
}

// newOrderID returns 32 lowercase hex characters.
func newOrderID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}

func positive(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f > 0
}
