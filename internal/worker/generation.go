package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"e-learning-system/certification-backend/internal/certificates"
)

// PendingGenerator is the part of the certificate service the worker drives
type PendingGenerator interface {
	ListPendingGeneration(ctx context.Context, limit int) ([]certificates.CertificateRecord, error)
	GenerateCertificate(ctx context.Context, id uuid.UUID) (*certificates.Artifact, error)
}

// Config configures the generation worker
type Config struct {
	Schedule      string
	BatchSize     int
	MaxConcurrent int
	JobTimeout    time.Duration
}

// BatchResult summarizes one pass over pending certificates
type BatchResult struct {
	Listed    int
	Generated int
	Failed    int
}

// GenerationWorker renders certificates that were issued without a
// document, on a cron schedule
type GenerationWorker struct {
	service PendingGenerator
	config  Config
	logger  *zap.Logger
	cron    *cron.Cron

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	initial sync.WaitGroup
}

func NewGenerationWorker(service PendingGenerator, config Config, logger *zap.Logger) *GenerationWorker {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 1
	}
	if config.BatchSize < 1 {
		config.BatchSize = 10
	}
	cl := cronLogger{logger.Sugar()}
	return &GenerationWorker{
		service: service,
		config:  config,
		logger:  logger,
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
	}
}

// Start schedules batches and runs the first one immediately
func (w *GenerationWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("generation worker already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if _, err := w.cron.AddFunc(w.config.Schedule, func() { w.RunOnce(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid worker schedule %q: %w", w.config.Schedule, err)
	}

	w.logger.Info("Starting certificate generation worker",
		zap.String("schedule", w.config.Schedule),
		zap.Int("batch_size", w.config.BatchSize),
		zap.Int("max_concurrent", w.config.MaxConcurrent))

	w.cancel = cancel
	w.running = true
	w.cron.Start()
	w.initial.Add(1)
	go func() {
		defer w.initial.Done()
		w.RunOnce(runCtx)
	}()
	return nil
}

// Stop cancels in-flight jobs and waits for the running batch to return
func (w *GenerationWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}

	w.logger.Info("Stopping certificate generation worker")
	w.cancel()
	<-w.cron.Stop().Done()
	w.initial.Wait()
	w.running = false
}

// RunOnce generates up to BatchSize pending certificates with at most
// MaxConcurrent in flight. Failures are logged and left for the next batch.
func (w *GenerationWorker) RunOnce(ctx context.Context) BatchResult {
	var result BatchResult

	pending, err := w.service.ListPendingGeneration(ctx, w.config.BatchSize)
	if err != nil {
		w.logger.Error("Failed to list pending certificates", zap.Error(err))
		return result
	}
	result.Listed = len(pending)
	if len(pending) == 0 {
		return result
	}

	w.logger.Info("Processing pending certificates", zap.Int("count", len(pending)))

	sem := semaphore.NewWeighted(int64(w.config.MaxConcurrent))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, rec := range pending {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(rec certificates.CertificateRecord) {
			defer wg.Done()
			defer sem.Release(1)

			err := w.generate(ctx, rec)

			mu.Lock()
			if err != nil {
				result.Failed++
			} else {
				result.Generated++
			}
			mu.Unlock()
		}(rec)
	}
	wg.Wait()

	w.logger.Info("Certificate batch finished",
		zap.Int("generated", result.Generated),
		zap.Int("failed", result.Failed))
	return result
}

func (w *GenerationWorker) generate(ctx context.Context, rec certificates.CertificateRecord) error {
	jobCtx := ctx
	if w.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.config.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	artifact, err := w.service.GenerateCertificate(jobCtx, rec.ID)
	if err != nil {
		w.logger.Error("Certificate generation failed",
			zap.String("certificate_id", rec.ID.String()),
			zap.String("certificate_number", rec.CertificateNumber),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return err
	}

	w.logger.Info("Certificate generation completed",
		zap.String("certificate_id", rec.ID.String()),
		zap.String("url", artifact.URL),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
