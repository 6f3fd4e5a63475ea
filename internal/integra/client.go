package integra

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/integra-bridge/internal/logging"
	"github.com/muurk/integra-bridge/internal/protocol"
)

const (
	// DefaultPollInterval is the zone states polling period
	DefaultPollInterval = time.Second

	// DefaultResponseTimeout bounds one attempt from connect to last byte
	DefaultResponseTimeout = 5 * time.Second
)

// ErrClientStopped is returned for commands submitted after Run returned.
var ErrClientStopped = errors.New("integra client stopped")

// Config holds the executor settings
type Config struct {
	Dialer          Dialer        // How to reach the controller (required)
	PollInterval    time.Duration // Zone polling period (default 1s)
	ResponseTimeout time.Duration // Per-attempt bound (default 5s)
}

// Stats is a point-in-time view of executor activity
type Stats struct {
	Executed    uint64    `json:"executed"`
	Failed      uint64    `json:"failed"`
	Pending     int       `json:"pending"`
	Subscribers int       `json:"subscribers"`

	// LastSuccess moves on every successful command, LastZonePoll only
	// when a zone snapshot is published.
	LastSuccess  time.Time `json:"last_success"`
	LastZonePoll time.Time `json:"last_zone_poll"`

	// LastError is the most recent failure, cleared by the next success.
	LastError string `json:"last_error,omitempty"`
}

// Client executes commands against one Integra controller, strictly one
// at a time and in submission order. Construct it once and share the
// pointer with every consumer.
type Client struct {
	dialer          Dialer
	pollInterval    time.Duration
	responseTimeout time.Duration

	queue  *jobQueue
	broker *broker

	infoMu sync.RWMutex
	info   *protocol.SystemInfo

	running  atomic.Bool
	pollOnce sync.Once

	executed    atomic.Uint64
	failed      atomic.Uint64
	lastSuccess atomic.Int64
	lastErr     atomic.Pointer[string]
}

// New creates a Client. Nothing is sent until Run is started.
func New(cfg Config) *Client {
	c := &Client{
		dialer:          cfg.Dialer,
		pollInterval:    cfg.PollInterval,
		responseTimeout: cfg.ResponseTimeout,
		queue:           newJobQueue(),
		broker:          newBroker(),
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.responseTimeout <= 0 {
		c.responseTimeout = DefaultResponseTimeout
	}
	return c
}

// Addr returns the controller address this client talks to
func (c *Client) Addr() string {
	return c.dialer.Addr()
}

// Run services the command queue until ctx is cancelled. Cancelling aborts
// the in-flight execution, fails every queued one-shot request, and closes
// all subscriptions.
func (c *Client) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("integra client already running")
	}

	logging.Info("Integra executor started",
		zap.String("addr", c.dialer.Addr()),
		zap.Duration("response_timeout", c.responseTimeout),
	)

	defer c.shutdown(ctx)

	for {
		j, err := c.queue.pop(ctx)
		if err != nil {
			return nil
		}
		c.process(ctx, j)
	}
}

func (c *Client) shutdown(ctx context.Context) {
	for _, j := range c.queue.close() {
		if j.done != nil {
			j.done.resolve(result{err: classifyError(j.cmd, context.Cause(ctx), nil)})
		}
	}
	c.broker.closeAll()
	logging.Info("Integra executor stopped", zap.String("addr", c.dialer.Addr()))
}

// process executes one job and delivers its result.
func (c *Client) process(ctx context.Context, j *job) {
	res := c.execute(ctx, j.cmd)
	c.executed.Add(1)

	if res.err != nil {
		c.failed.Add(1)
		msg := res.err.Error()
		c.lastErr.Store(&msg)
	} else {
		c.lastSuccess.Store(time.Now().UnixNano())
		c.lastErr.Store(nil)
		switch j.cmd.(type) {
		case protocol.ZoneStatesCommand:
			c.broker.publish(res.zones)
		case protocol.SystemInfoCommand:
			info := res.info
			c.infoMu.Lock()
			c.info = &info
			c.infoMu.Unlock()
		}
	}

	if j.done != nil {
		j.done.resolve(res)
	}
}

// submit enqueues cmd. The returned future is nil for fire-and-forget jobs.
func (c *Client) submit(cmd protocol.Command, wait bool) *future {
	j := &job{cmd: cmd}
	if wait {
		j.done = newFuture()
	}
	if !c.queue.push(j) && j.done != nil {
		j.done.resolve(result{err: ErrClientStopped})
	}
	return j.done
}

// RequestInfo enqueues a one-shot system info query and returns a future
// resolved once the query completes or fails.
func (c *Client) RequestInfo() *InfoFuture {
	return &InfoFuture{f: c.submit(protocol.SystemInfoCommand{}, true)}
}

// ReadInfo enqueues a system info query and waits for its result.
func (c *Client) ReadInfo(ctx context.Context) (protocol.SystemInfo, error) {
	return c.RequestInfo().Wait(ctx)
}

// ReadZones enqueues a single zone states poll and waits for its result.
// A successful result is also published to subscribers.
func (c *Client) ReadZones(ctx context.Context) (protocol.ZoneStates, error) {
	res, err := c.submit(protocol.ZoneStatesCommand{}, true).wait(ctx)
	if err != nil {
		return nil, err
	}
	return res.zones, res.err
}

// PollZones enqueues a zone states poll without waiting for it.
func (c *Client) PollZones() {
	c.submit(protocol.ZoneStatesCommand{}, false)
}

// StartReadingZones polls zone states immediately and then every poll
// interval until ctx is done. Only the first call starts a poller.
func (c *Client) StartReadingZones(ctx context.Context) {
	c.pollOnce.Do(func() {
		logging.Info("Zone polling started", zap.Duration("interval", c.pollInterval))
		go func() {
			ticker := time.NewTicker(c.pollInterval)
			defer ticker.Stop()

			c.PollZones()
			for {
				select {
				case <-ticker.C:
					c.PollZones()
				case <-ctx.Done():
					return
				}
			}
		}()
	})
}

// Subscribe returns a channel of violated zone snapshots and a function
// that ends the subscription. Only snapshots published after the call are
// delivered; a slow reader sees the newest one.
func (c *Client) Subscribe() (<-chan protocol.ZoneStates, func()) {
	return c.broker.subscribe()
}

// Latest returns the last successfully polled snapshot. ok is false until
// the first poll succeeds. Failed polls leave it unchanged.
func (c *Client) Latest() (protocol.ZoneStates, bool) {
	return c.broker.snapshot()
}

// Info returns the last system info read, if any.
func (c *Client) Info() (protocol.SystemInfo, bool) {
	c.infoMu.RLock()
	defer c.infoMu.RUnlock()
	if c.info == nil {
		return protocol.SystemInfo{}, false
	}
	return *c.info, true
}

// Stats returns executor counters
func (c *Client) Stats() Stats {
	s := Stats{
		Executed:    c.executed.Load(),
		Failed:      c.failed.Load(),
		Pending:     c.queue.len(),
		Subscribers: c.broker.count(),
	}
	if ns := c.lastSuccess.Load(); ns != 0 {
		s.LastSuccess = time.Unix(0, ns)
	}
	s.LastZonePoll = c.broker.lastPublish()
	if msg := c.lastErr.Load(); msg != nil {
		s.LastError = *msg
	}
	return s
}

// future is resolved exactly once by the executor.
type future struct {
	ch  chan struct{}
	res result
}

func newFuture() *future {
	return &future{ch: make(chan struct{})}
}

func (f *future) resolve(r result) {
	f.res = r
	close(f.ch)
}

func (f *future) wait(ctx context.Context) (result, error) {
	select {
	case <-f.ch:
		return f.res, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

// InfoFuture is the pending result of a system info query.
type InfoFuture struct {
	f *future
}

// Done is closed once the result is available
func (i *InfoFuture) Done() <-chan struct{} {
	return i.f.ch
}

// Wait blocks until the query completes or ctx is done. It may be called
// any number of times and always returns the same result.
func (i *InfoFuture) Wait(ctx context.Context) (protocol.SystemInfo, error) {
	res, err := i.f.wait(ctx)
	if err != nil {
		return protocol.SystemInfo{}, err
	}
	return res.info, res.err
}
