package sheets

import (
	"context"
	"sync"
	"time"

	"github.com/yukikurage/qa-tracker-api/internal/constants"
	"github.com/yukikurage/qa-tracker-api/internal/logger"
	"github.com/yukikurage/qa-tracker-api/internal/models"
)

const queueSize = 256

// Job is one upsert of tester rows. Retries counts failed attempts so far.
// Seq orders jobs so a retry never writes a row older than one already queued.
type Job struct {
	Label   string
	Rows    [][]interface{}
	Retries int
	Seq     uint64
}

// ExhaustedFunc is called once a job has failed MaxAttempts times.
type ExhaustedFunc func(ctx context.Context, job Job, err error)

// Backoff returns min(base * 2^retries, max).
func Backoff(retries int, base, max time.Duration) time.Duration {
	d := base
	for i := 0; i < retries; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// Syncer mirrors testers to the spreadsheet from a single background worker.
// Failed jobs are re-queued after a backoff until they run out of attempts.
type Syncer struct {
	store       Store
	queue       chan Job
	baseDelay   time.Duration
	maxDelay    time.Duration
	maxAttempts int
	onExhausted ExhaustedFunc

	mu      sync.Mutex
	timers  map[*time.Timer]struct{}
	stopped bool
	seq     uint64
	latest  map[string]uint64

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithBackoff overrides the retry delays.
func WithBackoff(base, max time.Duration) Option {
	return func(s *Syncer) {
		s.baseDelay = base
		s.maxDelay = max
	}
}

// WithMaxAttempts overrides how many times a job runs before it is dropped.
func WithMaxAttempts(n int) Option {
	return func(s *Syncer) {
		s.maxAttempts = n
	}
}

// OnExhausted registers the callback for dropped jobs.
func OnExhausted(fn ExhaustedFunc) Option {
	return func(s *Syncer) {
		s.onExhausted = fn
	}
}

func NewSyncer(store Store, opts ...Option) *Syncer {
	s := &Syncer{
		store:       store,
		queue:       make(chan Job, queueSize),
		baseDelay:   constants.SheetSyncBaseDelay,
		maxDelay:    constants.SheetSyncMaxDelay,
		maxAttempts: constants.SheetSyncMaxAttempts,
		timers:      make(map[*time.Timer]struct{}),
		latest:      make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the worker. It stops when ctx is cancelled or Stop is called.
func (s *Syncer) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-s.queue:
				s.run(ctx, job)
			}
		}
	}()
}

// Stop cancels pending retries and waits for the worker to exit.
func (s *Syncer) Stop() {
	s.mu.Lock()
	s.stopped = true
	for t := range s.timers {
		t.Stop()
	}
	s.timers = map[*time.Timer]struct{}{}
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// SyncTesters queues an upsert of the given testers.
func (s *Syncer) SyncTesters(label string, testers ...models.Tester) {
	if len(testers) == 0 {
		return
	}
	rows := make([][]interface{}, len(testers))
	for i, t := range testers {
		rows[i] = TesterRow(t)
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	for _, row := range rows {
		s.latest[rowID(row)] = seq
	}
	s.mu.Unlock()

	s.enqueue(Job{Label: label, Rows: rows, Seq: seq})
}

// current drops rows that a later job has superseded.
func (s *Syncer) current(rows [][]interface{}, seq uint64) [][]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept [][]interface{}
	for _, row := range rows {
		if s.latest[rowID(row)] == seq {
			kept = append(kept, row)
		}
	}
	return kept
}

func (s *Syncer) enqueue(job Job) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return
	}

	select {
	case s.queue <- job:
	default:
		logger.Warning("Sheets sync queue full, dropping %s", job.Label)
	}
}

func (s *Syncer) run(ctx context.Context, job Job) {
	job.Rows = s.current(job.Rows, job.Seq)
	if len(job.Rows) == 0 {
		logger.Debug("Sheets sync %s superseded", job.Label)
		return
	}

	err := Upsert(ctx, s.store, job.Rows)
	if err == nil {
		logger.Debug("Sheets sync %s done", job.Label)
		return
	}

	job.Retries++
	if job.Retries >= s.maxAttempts {
		logger.Error("Sheets sync %s failed after %d attempts: %v", job.Label, job.Retries, err)
		if s.onExhausted != nil {
			s.onExhausted(ctx, job, err)
		}
		return
	}

	delay := Backoff(job.Retries-1, s.baseDelay, s.maxDelay)
	logger.Warning("Sheets sync %s failed (attempt %d), retrying in %s: %v", job.Label, job.Retries, delay, err)
	s.schedule(job, delay)
}

func (s *Syncer) schedule(job Job, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, t)
		s.mu.Unlock()
		s.enqueue(job)
	})
	s.timers[t] = struct{}{}
}
