package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
	"github.com/punchamoorthee/ledgerbook/internal/logging"
)

const (
	EquityAccountID = "equity"
	AccountPrefix   = "acct-"
)

var (
	targetURL      string
	totalAccounts  int
	initialBalance string
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&totalAccounts, "accounts", 1000, "Number of accounts to create")
	flag.StringVar(&initialBalance, "balance", "100.00", "Opening balance per account, funded from equity")
}

func main() {
	flag.Parse()

	logger, err := logging.New("development", "info")
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	opening, err := decimal.NewFromString(initialBalance)
	if err != nil || !opening.IsPositive() {
		logger.Fatal("opening balance must be a positive decimal", zap.String("balance", initialBalance))
	}

	client := &http.Client{Timeout: 5 * time.Second}
	logger.Info("seeding ledger", zap.String("url", targetURL), zap.Int("accounts", totalAccounts))

	// 1. Equity is the contra account for all opening balances
	if _, err := createAccount(client, EquityAccountID, "Owner's Equity"); err != nil {
		logger.Fatal("equity account", zap.Error(err))
	}

	// 2. Accounts and opening entries. Re-running is safe: existing accounts
	// are skipped and opening entries replay on their idempotency keys.
	created, funded := 0, 0
	for i := 1; i <= totalAccounts; i++ {
		id := fmt.Sprintf("%s%04d", AccountPrefix, i)
		isNew, err := createAccount(client, id, fmt.Sprintf("Account %d", i))
		if err != nil {
			logger.Fatal("create account", zap.String("account_id", id), zap.Error(err))
		}
		if isNew {
			created++
		}

		status, err := postEntry(client, "seed-open-"+id, domain.PostEntryRequest{
			Ref:             "OPEN-" + id,
			DebitAccountID:  id,
			CreditAccountID: EquityAccountID,
			Amount:          opening,
		})
		if err != nil {
			logger.Fatal("opening entry", zap.String("account_id", id), zap.Error(err))
		}
		if status == http.StatusCreated {
			funded++
		}
	}

	logger.Info("seeding complete", zap.Int("accounts_created", created), zap.Int("entries_posted", funded))
}

// createAccount reports false when the account already existed.
func createAccount(client *http.Client, id, name string) (bool, error) {
	status, err := send(client, targetURL+"/api/v1/accounts", "", domain.CreateAccountRequest{ID: id, Name: name})
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusCreated:
		return true, nil
	case http.StatusConflict:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status %d", status)
	}
}

func postEntry(client *http.Client, key string, req domain.PostEntryRequest) (int, error) {
	status, err := send(client, targetURL+"/api/v1/entries", key, req)
	if err != nil {
		return 0, err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return status, fmt.Errorf("unexpected status %d", status)
	}
	return status, nil
}

func send(client *http.Client, url, idemKey string, payload interface{}) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
