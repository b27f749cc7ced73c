package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/rallyrate/internal/domain/types"
	"github.com/okian/rallyrate/pkg/logger"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, u string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// decodeResponse reads, closes and decodes a JSON response body.
func decodeResponse(resp *http.Response, v any) error {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// submission outcomes.
const (
	outcomeAccepted  = "accepted"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
)

// submitMatches submits matches concurrently and returns the ids the
// service accepted.
func submitMatches(ctx context.Context, cfg *Config, matches []Match, stats *Stats) []string {
	log := logger.Get().Named("loadgen")
	log.Info(ctx, "submitting matches", logger.Int("matches", len(matches)), logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.Timeout)
	endpoint := cfg.BaseURL + "/matches"

	var accepted, duplicate, rejected, failed atomic.Int64
	var mu sync.Mutex
	ids := make([]string, 0, len(matches))

	jobs := make(chan Match, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				id, outcome := submitSingleMatch(ctx, client, endpoint, m)
				switch outcome {
				case outcomeAccepted:
					accepted.Add(1)
					mu.Lock()
					ids = append(ids, id)
					mu.Unlock()
				case outcomeDuplicate:
					duplicate.Add(1)
				case outcomeRejected:
					rejected.Add(1)
				default:
					failed.Add(1)
				}
				if cfg.Verbose {
					log.Debug(ctx, "match submitted", logger.String("matchID", id), logger.String("outcome", outcome))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, m := range matches {
			select {
			case <-ctx.Done():
				return
			case jobs <- m:
			}
		}
	}()
	wg.Wait()

	stats.MatchesAccepted = int(accepted.Load())
	stats.MatchesDuplicate = int(duplicate.Load())
	stats.MatchesRejected = int(rejected.Load())
	stats.MatchesFailed = int(failed.Load())

	log.Info(ctx, "match submission completed",
		logger.Int("accepted", stats.MatchesAccepted),
		logger.Int("duplicate", stats.MatchesDuplicate),
		logger.Int("rejected", stats.MatchesRejected),
		logger.Int("failed", stats.MatchesFailed))
	return ids
}

// submitSingleMatch posts one match and classifies the answer.
func submitSingleMatch(ctx context.Context, client *HTTPClient, endpoint string, m Match) (string, string) { //nolint:gocritic // hugeParam
	resp, err := client.Post(ctx, endpoint, m)
	if err != nil {
		return m.MatchID, outcomeFailed
	}
	var ack types.SubmitMatchResponse
	decodeErr := decodeResponse(resp, &ack)
	switch resp.StatusCode {
	case http.StatusAccepted:
		if decodeErr == nil && ack.MatchID != "" {
			return ack.MatchID, outcomeAccepted
		}
		return m.MatchID, outcomeAccepted
	case http.StatusOK:
		return m.MatchID, outcomeDuplicate
	case http.StatusTooManyRequests, http.StatusBadRequest:
		return m.MatchID, outcomeRejected
	default:
		return m.MatchID, outcomeFailed
	}
}

// pollResults waits until every id leaves the pending state or the poll
// timeout expires. Ids that never finish are missing from the result.
func pollResults(ctx context.Context, cfg *Config, ids []string) map[string]types.MatchStatus {
	client := newHTTPClient(cfg.Timeout)
	ctx, cancel := context.WithTimeout(ctx, cfg.PollTimeout)
	defer cancel()

	var mu sync.Mutex
	out := make(map[string]types.MatchStatus, len(ids))

	jobs := make(chan string, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if st, ok := pollOne(ctx, client, cfg, id); ok {
					mu.Lock()
					out[id] = st
					mu.Unlock()
				}
			}
		}()
	}
	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
	return out
}

func pollOne(ctx context.Context, client *HTTPClient, cfg *Config, id string) (types.MatchStatus, bool) {
	endpoint := cfg.BaseURL + "/matches/" + url.PathEscape(id)
	for {
		resp, err := client.Get(ctx, endpoint)
		if err == nil {
			var st types.MatchStatus
			if decodeResponse(resp, &st) == nil && resp.StatusCode == http.StatusOK && st.Status != types.StatusPending {
				return st, true
			}
		}
		select {
		case <-ctx.Done():
			return types.MatchStatus{}, false
		case <-time.After(cfg.PollInterval):
		}
	}
}
