package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/godilite/activation-insights/internal/repository/models"
)

var (
	ErrUpstreamStatus    = errors.New("upstream returned non-2xx status")
	ErrMalformedSnapshot = errors.New("malformed snapshot body")
)

const maxSnapshotBytes = 64 << 20

// SnapshotRepository loads the full table snapshot from the upstream data API.
type SnapshotRepository struct {
	url    string
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*SnapshotRepository)

// WithHTTPClient replaces the default client. Its Timeout is left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(r *SnapshotRepository) {
		if c != nil {
			r.client = c
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *SnapshotRepository) {
		if now != nil {
			r.now = now
		}
	}
}

func NewSnapshotRepository(url string, timeout time.Duration, logger *zap.Logger, opts ...Option) *SnapshotRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &SnapshotRepository{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.Named("snapshot_repository"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchSnapshot issues one GET against the upstream and normalises every table.
// It never retries.
func (r *SnapshotRepository) FetchSnapshot(ctx context.Context) (*models.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build snapshot request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := r.now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("read snapshot body: %w", err)
	}

	snap, err := parseSnapshot(body, r.logger)
	if err != nil {
		return nil, err
	}
	snap.ID = uuid.NewString()
	snap.FetchedAt = r.now()

	r.logger.Info("fetched snapshot",
		zap.String("snapshot_id", snap.ID),
		zap.Int("bytes", len(body)),
		zap.Int("checkins", len(snap.Checkins)),
		zap.Int("surveys", len(snap.Surveys)),
		zap.Duration("took", snap.FetchedAt.Sub(start)))

	return snap, nil
}
