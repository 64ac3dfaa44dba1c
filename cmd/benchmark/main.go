package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
	"github.com/punchamoorthee/ledgerbook/internal/logging"
)

var (
	targetURL     string
	concurrency   int
	duration      time.Duration
	workload      string
	totalAccounts int
)

// Metrics
var (
	totalRequests uint64
	success201    uint64 // Created
	success200    uint64 // Idempotent replays
	rejected      uint64 // 404/422 from the ledger
	fail409       uint64 // Key in flight
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "uniform", "Workload type: uniform | hotspot")
	flag.IntVar(&totalAccounts, "accounts", 1000, "Number of seeded accounts (acct-0001..)")
}

func main() {
	flag.Parse()

	logger, err := logging.New("development", "info")
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	logger.Info("starting benchmark",
		zap.String("workload", workload),
		zap.Int("workers", concurrency),
		zap.Duration("duration", duration),
	)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start, int64(i))
	}

	wg.Wait()
	elapsed := time.Since(start)

	verify, err := fetchVerify()
	if err != nil {
		logger.Error("ledger verification request failed", zap.Error(err))
	}
	printResults(elapsed, verify)
}

func worker(wg *sync.WaitGroup, start time.Time, id int64) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}
	rng := rand.New(rand.NewSource(start.UnixNano() + id))

	for n := 0; time.Since(start) < duration; n++ {
		from, to := generateAccounts(rng)
		payload := domain.PostEntryRequest{
			Ref:             fmt.Sprintf("bench-%d-%d", id, n),
			DebitAccountID:  to,
			CreditAccountID: from,
			Amount:          decimal.NewFromInt(1),
		}

		body, _ := json.Marshal(payload)
		req, _ := http.NewRequest("POST", targetURL+"/api/v1/entries", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", fmt.Sprintf("bench-%d-%d-%d", id, n, time.Now().UnixNano()))

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case 201:
			atomic.AddUint64(&success201, 1)
		case 200:
			atomic.AddUint64(&success200, 1)
		case 404, 422:
			atomic.AddUint64(&rejected, 1)
		case 409:
			atomic.AddUint64(&fail409, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

func generateAccounts(rng *rand.Rand) (string, string) {
	if workload == "hotspot" {
		// Hotspot: 90% of traffic goes to the first two accounts
		if rng.Float32() < 0.90 {
			if rng.Float32() < 0.5 {
				return accountID(1), accountID(2)
			}
			return accountID(2), accountID(1)
		}
	}

	a := rng.Intn(totalAccounts) + 1
	b := rng.Intn(totalAccounts) + 1
	for a == b && totalAccounts > 1 {
		b = rng.Intn(totalAccounts) + 1
	}
	return accountID(a), accountID(b)
}

func accountID(n int) string { return fmt.Sprintf("acct-%04d", n) }

func fetchVerify() (*domain.VerifyResponse, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(targetURL + "/api/v1/ledger/verify")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var v domain.VerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

func printResults(d time.Duration, verify *domain.VerifyResponse) {
	total := atomic.LoadUint64(&totalRequests)
	s201 := atomic.LoadUint64(&success201)
	s200 := atomic.LoadUint64(&success200)
	rej := atomic.LoadUint64(&rejected)
	f409 := atomic.LoadUint64(&fail409)
	fErr := atomic.LoadUint64(&failOther)

	tps := float64(total) / d.Seconds()
	var rejectRate float64
	if total > 0 {
		rejectRate = float64(rej) / float64(total) * 100
	}

	results := map[string]interface{}{
		"workload":        workload,
		"duration_sec":    d.Seconds(),
		"total_requests":  total,
		"throughput_tps":  tps,
		"success_created": s201,
		"success_replay":  s200,
		"rejected":        rej,
		"reject_rate_pct": rejectRate,
		"conflicts":       f409,
		"errors":          fErr,
	}
	if verify != nil {
		results["ledger_status"] = verify.Status
		results["ledger_entries"] = verify.Entries
		results["ledger_total"] = verify.Total.String()
	}

	// Print JSON for the python plotter to consume
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	filename := fmt.Sprintf("results_%s.json", workload)
	file, err := os.Create(filename)
	if err != nil {
		return
	}
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
