package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/repositories"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(evalID uuid.UUID)
}

type worker struct {
	evalRepo         repositories.EvaluationRepository
	evaluatorService EvaluatorService
	jobQueue         chan uuid.UUID
	concurrency      int
	pollInterval     time.Duration
	wg               sync.WaitGroup
	stopChan         chan struct{}
	stopOnce         sync.Once
	log              *zap.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewWorker(
	evalRepo repositories.EvaluationRepository,
	evaluatorService EvaluatorService,
	concurrency int,
	pollInterval time.Duration,
	log *zap.Logger,
) Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &worker{
		evalRepo:         evalRepo,
		evaluatorService: evaluatorService,
		jobQueue:         make(chan uuid.UUID, 100),
		concurrency:      concurrency,
		pollInterval:     pollInterval,
		stopChan:         make(chan struct{}),
		log:              logger.OrNop(log),
		inFlight:         make(map[uuid.UUID]struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.Info("starting worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	if w.pollInterval > 0 {
		w.wg.Add(1)
		go w.pollPendingJobs(ctx)
	}
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("stopping worker")
		close(w.stopChan)
		w.wg.Wait()
		w.log.Info("worker stopped")
	})
}

// EnqueueJob implements Worker. Jobs already queued or running are ignored.
func (w *worker) EnqueueJob(evalID uuid.UUID) {
	w.mu.Lock()
	if _, ok := w.inFlight[evalID]; ok {
		w.mu.Unlock()
		return
	}
	w.inFlight[evalID] = struct{}{}
	w.mu.Unlock()

	select {
	case w.jobQueue <- evalID:
		w.log.Debug("job enqueued", zap.String("evaluation_id", evalID.String()))
	case <-w.stopChan:
		w.release(evalID)
		w.log.Warn("worker stopped, cannot enqueue job", zap.String("evaluation_id", evalID.String()))
	}
}

func (w *worker) release(evalID uuid.UUID) {
	w.mu.Lock()
	delete(w.inFlight, evalID)
	w.mu.Unlock()
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.log.With(zap.Int("worker", workerID))

	for {
		select {
		case <-w.stopChan:
			log.Debug("worker routine stopped")
			return
		case <-ctx.Done():
			return
		case evalID := <-w.jobQueue:
			log.Info("processing job", zap.String("evaluation_id", evalID.String()))
			if err := w.evaluatorService.ProcessEvaluation(ctx, evalID); err != nil {
				log.Error("job failed", zap.String("evaluation_id", evalID.String()), zap.Error(err))
			} else {
				log.Info("job completed", zap.String("evaluation_id", evalID.String()))
			}
			w.release(evalID)
		}
	}
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pendingJobs, err := w.evalRepo.FindPendingJobs(10)
			if err != nil {
				w.log.Warn("failed to fetch pending jobs", zap.Error(err))
				continue
			}

			if len(pendingJobs) > 0 {
				w.log.Info("found pending jobs", zap.Int("count", len(pendingJobs)))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
