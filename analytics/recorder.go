package analytics

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RecorderConfig tunes a Recorder. Zero values select the defaults.
type RecorderConfig struct {
	// Skipper excludes requests from tracking.
	Skipper func(c echo.Context) bool
	// OwnHost is the site's host; referrers from it count as direct.
	OwnHost string
	// Retention is how long visits are kept (default 365 days).
	Retention time.Duration
	// CleanupInterval is how often old visits are pruned (default 24h).
	CleanupInterval time.Duration
	// QueueSize bounds the visits waiting to be written (default 256).
	QueueSize int
}

type record struct {
	visit *Visit
	bot   *BotVisit
}

// Recorder turns successful page responses into visits and writes them on a
// single background goroutine, so requests never wait on the database.
// Visits arriving while the queue is full are dropped and counted.
type Recorder struct {
	store  *Store
	hasher Hasher
	cfg    RecorderConfig
	logger *zap.Logger

	queue   chan record
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Int64
}

// NewRecorder loads the hashing salt and starts the writer goroutine.
func NewRecorder(ctx context.Context, store *Store, logger *zap.Logger, cfg RecorderConfig) (*Recorder, error) {
	salt, err := store.Salt(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 365 * 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 24 * time.Hour
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	r := &Recorder{
		store:  store,
		hasher: NewHasher(salt),
		cfg:    cfg,
		logger: logger,
		queue:  make(chan record, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	r.wg.Add(1)
	go r.run()
	return r, nil
}

// Middleware records GET requests answered with 200 once the handler has
// finished.
func (r *Recorder) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil || c.Request().Method != http.MethodGet || c.Response().Status != http.StatusOK {
				return err
			}
			if r.cfg.Skipper != nil && r.cfg.Skipper(c) {
				return nil
			}
			r.enqueue(r.classify(c.Request(), c.RealIP(), time.Now()))
			return nil
		}
	}
}

func (r *Recorder) classify(req *http.Request, ip string, now time.Time) record {
	ua := req.UserAgent()
	path := req.URL.Path
	if name := BotName(ua); name != "" {
		return record{bot: &BotVisit{BotName: name, Path: path, Timestamp: now}}
	}
	browser, os, device := ParseUserAgent(ua)
	return record{visit: &Visit{
		VisitorID: r.hasher.VisitorID(ip, ua),
		Browser:   browser,
		OS:        os,
		Device:    device,
		Path:      path,
		Referrer:  CleanReferrer(req.Referer(), r.cfg.OwnHost),
		Timestamp: now,
	}}
}

func (r *Recorder) enqueue(rec record) {
	select {
	case <-r.done:
		return
	default:
	}
	select {
	case r.queue <- rec:
	default:
		r.dropped.Add(1)
	}
}

// Dropped reports how many visits were discarded because the queue was full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case rec := <-r.queue:
			r.write(rec)
		case <-ticker.C:
			r.cleanup()
		case <-r.done:
			for {
				select {
				case rec := <-r.queue:
					r.write(rec)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(rec record) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var err error
	if rec.bot != nil {
		err = r.store.SaveBotVisit(ctx, *rec.bot)
	} else {
		err = r.store.SaveVisit(ctx, *rec.visit)
	}
	if err != nil {
		r.logger.Warn("save visit", zap.Error(err))
	}
}

func (r *Recorder) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := r.store.DeleteBefore(ctx, time.Now().Add(-r.cfg.Retention))
	if err != nil {
		r.logger.Warn("analytics cleanup", zap.Error(err))
		return
	}
	if n > 0 {
		r.logger.Info("analytics cleanup", zap.Int64("deleted", n))
	}
}

// Close stops accepting visits and waits until the queued ones are written.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
}
