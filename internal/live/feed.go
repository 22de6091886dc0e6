package live

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-viewgen/pkg/dashboard"
	"github.com/goliatone/go-viewgen/pkg/format"
	"github.com/goliatone/go-viewgen/pkg/poll"
)

// MessageCost is the message type carrying cost snapshots.
const MessageCost = "cost"

// Broadcaster publishes a typed message to live clients.
type Broadcaster interface {
	Broadcast(msgType string, data any) error
}

// CostMessage is the formatted snapshot pushed to browsers, matching the
// live-cost widget fields.
type CostMessage struct {
	Total   string `json:"total"`
	PerHour string `json:"perHour"`
	AsOf    string `json:"asOf"`
}

// NewCostMessage formats snap the way the live-cost widget renders it.
func NewCostMessage(f *format.Formatter, snap dashboard.CostSnapshot) CostMessage {
	if f == nil {
		f = format.Default()
	}
	return CostMessage{
		Total:   f.Currency(snap.Total, snap.Currency),
		PerHour: f.Currency(snap.PerHour, snap.Currency),
		AsOf:    f.DateTime(snap.AsOf),
	}
}

// FeedOption configures a CostFeed.
type FeedOption func(*CostFeed)

// WithHTTPClient overrides the client used to fetch snapshots.
func WithHTTPClient(client *http.Client) FeedOption {
	return func(f *CostFeed) {
		if client != nil {
			f.client = client
		}
	}
}

// WithBroadcaster publishes every fresh snapshot.
func WithBroadcaster(b Broadcaster) FeedOption {
	return func(f *CostFeed) {
		f.broadcaster = b
	}
}

// WithFeedLogger sets the feed logger.
func WithFeedLogger(logger *zap.Logger) FeedOption {
	return func(f *CostFeed) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithFormatter sets the formatter used for broadcast messages.
func WithFormatter(formatter *format.Formatter) FeedOption {
	return func(f *CostFeed) {
		if formatter != nil {
			f.formatter = formatter
		}
	}
}

// WithClock injects the time source stamping snapshots without asOf.
func WithClock(now func() time.Time) FeedOption {
	return func(f *CostFeed) {
		if now != nil {
			f.now = now
		}
	}
}

// CostFeed polls a JSON endpoint for cost snapshots and keeps the latest one.
// It satisfies dashboard.CostSource.
type CostFeed struct {
	url         string
	client      *http.Client
	broadcaster Broadcaster
	logger      *zap.Logger
	formatter   *format.Formatter
	now         func() time.Time
	poller      *poll.Poller[dashboard.CostSnapshot]

	mu     sync.RWMutex
	latest dashboard.CostSnapshot
}

var _ dashboard.CostSource = (*CostFeed)(nil)

// NewCostFeed polls url every interval. Each tick cancels the previous
// request if it is still running.
func NewCostFeed(url string, interval time.Duration, options ...FeedOption) (*CostFeed, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("live: feed url is required")
	}
	f := &CostFeed{
		url:       url,
		client:    &http.Client{},
		logger:    zap.NewNop(),
		formatter: format.Default(),
		now:       time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}

	poller, err := poll.New(f.fetch, f.handle,
		poll.WithInterval(interval),
		poll.WithTimeout(interval),
		poll.WithImmediate(),
	)
	if err != nil {
		return nil, fmt.Errorf("live: %w", err)
	}
	f.poller = poller
	return f, nil
}

// Start begins polling until ctx is cancelled or Stop is called.
func (f *CostFeed) Start(ctx context.Context) error {
	return f.poller.Start(ctx)
}

// Stop halts polling and aborts any request in flight.
func (f *CostFeed) Stop() {
	f.poller.Stop()
}

// Latest returns the newest snapshot; AsOf is zero until the first success.
func (f *CostFeed) Latest(ctx context.Context) (dashboard.CostSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return dashboard.CostSnapshot{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest, nil
}

func (f *CostFeed) fetch(ctx context.Context) (dashboard.CostSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return dashboard.CostSnapshot{}, fmt.Errorf("live: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return dashboard.CostSnapshot{}, fmt.Errorf("live: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return dashboard.CostSnapshot{}, fmt.Errorf("live: fetch: unexpected status %d", resp.StatusCode)
	}
	var snap dashboard.CostSnapshot
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&snap); err != nil {
		return dashboard.CostSnapshot{}, fmt.Errorf("live: decode snapshot: %w", err)
	}
	if snap.AsOf.IsZero() {
		snap.AsOf = f.now()
	}
	return snap, nil
}

func (f *CostFeed) handle(snap dashboard.CostSnapshot, err error) {
	if err != nil {
		f.logger.Warn("live cost fetch failed", zap.String("url", f.url), zap.Error(err))
		return
	}

	f.mu.Lock()
	f.latest = snap
	f.mu.Unlock()

	if f.broadcaster == nil {
		return
	}
	if err := f.broadcaster.Broadcast(MessageCost, NewCostMessage(f.formatter, snap)); err != nil {
		f.logger.Debug("live cost broadcast skipped", zap.Error(err))
	}
}
