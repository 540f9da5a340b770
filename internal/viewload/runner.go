package viewload

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/bulletin/pkg/logger"
)

var collections = []string{"announcements", "events"}

// Run submits cfg.NumViews views and, when a token is set, fetches both
// top lists once the service had cfg.Settle to apply them.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("viewload")
	client := &http.Client{Timeout: cfg.Timeout}
	stats := &Stats{TopResults: map[string][]Record{}}
	start := time.Now()

	log.Info(ctx, "submitting views",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("views", cfg.NumViews),
		logger.Int("workers", cfg.Workers),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i := 0; i < cfg.NumViews; i++ {
		v := generateView(i, cfg.Entities)
		g.Go(func() error {
			submit(gctx, client, cfg.BaseURL+"/api/views", v, stats)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	stats.Duration = time.Since(start)

	log.Info(ctx, "submission finished",
		logger.Int64("submitted", stats.Submitted),
		logger.Int64("accepted", stats.Accepted),
		logger.Int64("duplicate", stats.Duplicate),
		logger.Int64("rejected", stats.Rejected),
		logger.Int64("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
	)

	if cfg.Token == "" {
		return stats, nil
	}

	select {
	case <-ctx.Done():
		return stats, ctx.Err()
	case <-time.After(cfg.Settle):
	}

	for _, c := range collections {
		rows, err := fetchTop(ctx, client, cfg.BaseURL+"/api/analytics/top-"+c, cfg.Token)
		if err != nil {
			return stats, fmt.Errorf("fetch top %s: %w", c, err)
		}
		stats.TopResults[c] = rows
		log.Info(ctx, "top records", logger.String("collection", c), logger.Any("records", rows))
	}
	return stats, nil
}

// generateView spreads views so lower entity IDs are viewed more often.
func generateView(i, entities int) viewRequest {
	if entities < 1 {
		entities = 1
	}
	a := randInt(entities)
	b := randInt(entities)
	return viewRequest{
		EventID:    uuid.NewString(),
		Collection: collections[i%len(collections)],
		EntityID:   int64(min(a, b) + 1),
		TS:         time.Now().UTC().Format(time.RFC3339),
	}
}

func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

func submit(ctx context.Context, client *http.Client, url string, v viewRequest, stats *Stats) {
	atomic.AddInt64(&stats.Submitted, 1)

	body, err := json.Marshal(v)
	if err != nil {
		atomic.AddInt64(&stats.Failed, 1)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		atomic.AddInt64(&stats.Failed, 1)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		atomic.AddInt64(&stats.Failed, 1)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusAccepted:
		var ack ackResponse
		if json.NewDecoder(resp.Body).Decode(&ack) == nil && ack.Duplicate {
			atomic.AddInt64(&stats.Duplicate, 1)
			return
		}
		atomic.AddInt64(&stats.Accepted, 1)
	case http.StatusTooManyRequests:
		atomic.AddInt64(&stats.Rejected, 1)
	default:
		atomic.AddInt64(&stats.Failed, 1)
	}
}

func fetchTop(ctx context.Context, client *http.Client, url, token string) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var body struct {
		Data []Record `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return body.Data, nil
}
