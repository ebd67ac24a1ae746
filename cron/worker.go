package cron

import (
	"context"
	"fmt"
	"time"

	"servicely/services/geoindex"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeGeoSweep flushes the live provider index to Mongo.
const TypeGeoSweep = "geo:sweep"

// Sweeper is satisfied by *geoindex.Sweeper.
type Sweeper interface {
	Sweep(ctx context.Context) (geoindex.SweepResult, error)
}

// GeoSweepWorker schedules the periodic sweep and runs it off the queue, so only
// one replica sweeps per tick.
type GeoSweepWorker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	interval  time.Duration
	logger    *zap.Logger
}

func NewGeoSweepWorker(redisOpt asynq.RedisClientOpt, sweeper Sweeper, interval time.Duration, logger *zap.Logger) *GeoSweepWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	sugar := logger.Sugar()

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: sugar,
		},
	)
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   sugar,
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeGeoSweep, HandleGeoSweep(sweeper, logger))

	return &GeoSweepWorker{
		server:    srv,
		scheduler: scheduler,
		mux:       mux,
		interval:  interval,
		logger:    logger,
	}
}

// NewGeoSweepTask builds the task enqueued on every tick. A tick that finds the
// previous one still queued is dropped.
func NewGeoSweepTask(interval time.Duration) *asynq.Task {
	return asynq.NewTask(TypeGeoSweep, nil,
		asynq.MaxRetry(0),
		asynq.Unique(interval),
		asynq.Timeout(interval),
	)
}

// Start registers the schedule and starts the queue server. It retries the server
// start with backoff before giving up.
func (w *GeoSweepWorker) Start() error {
	spec := fmt.Sprintf("@every %s", w.interval)
	if _, err := w.scheduler.Register(spec, NewGeoSweepTask(w.interval)); err != nil {
		return fmt.Errorf("register geo sweep: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	const maxAttempts = 5
	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = w.server.Start(w.mux); err == nil {
			w.logger.Info("geo sweep worker started", zap.Duration("interval", w.interval))
			return nil
		}
		w.logger.Warn("failed to start sweep worker",
			zap.Int("attempt", attempts),
			zap.Int("maxAttempts", maxAttempts),
			zap.Error(err),
		)
		time.Sleep(time.Duration(attempts*2) * time.Second)
	}
	w.scheduler.Shutdown()
	return fmt.Errorf("start sweep worker: %w", err)
}

func (w *GeoSweepWorker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
	w.logger.Info("geo sweep worker stopped")
}

// HandleGeoSweep runs one sweep. Errors are returned so the queue records them.
func HandleGeoSweep(sweeper Sweeper, logger *zap.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, task *asynq.Task) error {
		start := time.Now()
		res, err := sweeper.Sweep(ctx)
		if err != nil {
			logger.Error("geo sweep failed", zap.String("task", task.Type()), zap.Error(err))
			return err
		}
		logger.Debug("geo sweep finished",
			zap.Int("keys", res.Keys),
			zap.Int("positions", res.Positions),
			zap.Int64("persisted", res.Persisted),
			zap.Duration("took", time.Since(start)),
		)
		return nil
	}
}
