package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/miderror/dev-mentor/internal/config"
	"github.com/miderror/dev-mentor/internal/core/ports/primary"
	"github.com/miderror/dev-mentor/internal/core/ports/secondary"
	"github.com/miderror/dev-mentor/internal/core/services/check"
	"github.com/miderror/dev-mentor/internal/core/services/worker"
	"github.com/miderror/dev-mentor/internal/domain"
	"github.com/miderror/dev-mentor/internal/static/errs"
)

// Version is reported in the worker registry; overridden at build time.
var Version = "dev"

const (
	intakeBackoff   = time.Second
	requeueTimeout  = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Dispatcher feeds queued checks to a fixed pool of grading goroutines.
// Each goroutine grades one check at a time, synchronously.
type Dispatcher struct {
	cfg      *config.DispatcherCfg
	queue    secondary.CheckQueue
	checks   check.ICheckService
	registry worker.IWorkerRegistrationService
	metrics  secondary.MetricsRecorder
	logger   primary.Logger

	workerID string
	busy     atomic.Int64
	jobCh    chan *domain.QueueMessage
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewDispatcher(
	cfg *config.DispatcherCfg,
	queue secondary.CheckQueue,
	checks check.ICheckService,
	registry worker.IWorkerRegistrationService,
	metrics secondary.MetricsRecorder,
	logger primary.Logger,
) *Dispatcher {
	workerID := uuid.NewString()
	return &Dispatcher{
		cfg:      cfg,
		queue:    queue,
		checks:   checks,
		registry: registry,
		metrics:  metrics,
		logger:   logger.With("workerId", workerID),
		workerID: workerID,
	}
}

func (d *Dispatcher) WorkerID() string {
	return d.workerID
}

// Start registers the worker and launches the intake, pool and heartbeat goroutines
func (d *Dispatcher) Start(ctx context.Context) error {
	info := &domain.WorkerInfo{
		ID:       d.workerID,
		Type:     d.cfg.WorkerType,
		Capacity: d.cfg.PoolSize,
		Hostname: d.cfg.Hostname,
		Version:  Version,
	}
	if err := d.registry.RegisterWorker(ctx, info); err != nil {
		return fmt.Errorf("failed to register dispatcher: %w", err)
	}

	ctx, d.cancel = context.WithCancel(ctx)
	d.jobCh = make(chan *domain.QueueMessage, d.cfg.QueueCapacity)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(d.jobCh)
		d.intake(ctx)
	}()

	var pool sync.WaitGroup
	pool.Add(d.cfg.PoolSize)
	for i := 0; i < d.cfg.PoolSize; i++ {
		go func() {
			defer pool.Done()
			for msg := range d.jobCh {
				if ctx.Err() != nil {
					d.requeue(msg, msg.Attempt)
					continue
				}
				d.handle(ctx, msg)
			}
		}()
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		pool.Wait()
	}()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.heartbeat(ctx)
	}()

	d.logger.Info("Dispatcher started", "poolSize", d.cfg.PoolSize, "type", d.cfg.WorkerType)
	return nil
}

// Stop cancels in-flight grading, returns undelivered checks to the queue and deregisters the worker
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		if d.cancel == nil {
			return
		}
		d.logger.Info("Stopping dispatcher")
		d.cancel()
		d.wg.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := d.registry.DeregisterWorker(ctx, d.workerID); err != nil {
			d.logger.Warn("Failed to deregister worker", "error", err)
		}
		d.logger.Info("Dispatcher stopped")
	})
}

func (d *Dispatcher) intake(ctx context.Context) {
	for ctx.Err() == nil {
		msg, err := d.queue.Dequeue(ctx, d.cfg.PollTimeout)
		if err != nil {
			if errors.Is(err, errs.ErrQueueEmpty) || ctx.Err() != nil {
				continue
			}
			d.logger.Error("Failed to dequeue check", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(intakeBackoff):
			}
			continue
		}

		select {
		case d.jobCh <- msg:
		case <-ctx.Done():
			d.requeue(msg, msg.Attempt)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, msg *domain.QueueMessage) {
	d.busy.Add(1)
	d.metrics.IncBusyWorkers()
	defer func() {
		d.busy.Add(-1)
		d.metrics.DecBusyWorkers()
	}()

	log := d.logger.With("checkId", msg.CheckID, "attempt", msg.Attempt)
	err := d.checks.Process(ctx, msg.CheckID)
	if err == nil {
		return
	}

	if ctx.Err() != nil {
		log.Info("Grading interrupted by shutdown, returning check to queue")
		d.requeue(msg, msg.Attempt)
		return
	}
	if errors.Is(err, errs.ErrCheckNotFound) {
		log.Warn("Dropping message for unknown check")
		return
	}

	var infra *domain.InfrastructureError
	if errors.As(err, &infra) && msg.Attempt < d.cfg.RetryLimit {
		log.Warn("Sandbox fault, retrying check", "error", err)
		d.requeue(msg, msg.Attempt+1)
		return
	}

	log.Error("Check could not be graded", "error", err)
	if err := d.checks.FailCheck(ctx, msg.CheckID, err.Error()); err != nil {
		log.Error("Failed to close check", "error", err)
	}
}

// requeue runs detached from the dispatcher context, which may already be cancelled.
func (d *Dispatcher) requeue(msg *domain.QueueMessage, attempt int) {
	ctx, cancel := context.WithTimeout(context.Background(), requeueTimeout)
	defer cancel()

	next := &domain.QueueMessage{CheckID: msg.CheckID, Attempt: attempt, EnqueuedAt: time.Now()}
	if err := d.queue.Enqueue(ctx, next); err != nil {
		d.logger.Error("Failed to requeue check", "checkId", msg.CheckID, "error", err)
	}
}

func (d *Dispatcher) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.registry.Heartbeat(ctx, d.workerID, int(d.busy.Load())); err != nil {
				d.logger.Error("Failed to send heartbeat", "error", err)
			}
			if err := d.registry.CleanupInactiveWorkers(ctx); err != nil {
				d.logger.Error("Failed to clean up workers", "error", err)
			}
			if depth, err := d.queue.Len(ctx); err == nil {
				d.metrics.SetQueueDepth(depth)
			}
		}
	}
}
