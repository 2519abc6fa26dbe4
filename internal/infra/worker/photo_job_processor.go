package worker

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pet-hero-backend/internal/domain"
	"pet-hero-backend/internal/domain/model"
	"pet-hero-backend/internal/domain/ports/adapter"
	"pet-hero-backend/internal/domain/ports/repository"
	"pet-hero-backend/internal/infra/imaging"
	"pet-hero-backend/internal/infra/logging"
	"pet-hero-backend/internal/infra/metrics"
	"pet-hero-backend/internal/usecase"
)

// imageSource abstracts the download-and-resize step so tests can feed the
// processor without a network round trip.
type imageSource interface {
	FetchAndNormalize(ctx context.Context, url string) (*imaging.NormalizedImage, error)
}

// PhotoJobProcessor drains the photo job queue: it claims one job at a time
// and runs the full pipeline (fetch, analyze, render, settle, notify).
type PhotoJobProcessor struct {
	jobs     repository.PhotoJobRepository
	images   imageSource
	analysis usecase.AnalysisUseCase
	hero     usecase.HeroImageUseCase
	ledger   usecase.LedgerUseCase
	notify   usecase.NotifyUseCase
	poll     time.Duration
	log      *zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewPhotoJobProcessor(
	jobs repository.PhotoJobRepository,
	images imageSource,
	analysis usecase.AnalysisUseCase,
	hero usecase.HeroImageUseCase,
	ledger usecase.LedgerUseCase,
	notify usecase.NotifyUseCase,
	poll time.Duration,
	logger *zerolog.Logger,
) *PhotoJobProcessor {
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	return &PhotoJobProcessor{
		jobs:     jobs,
		images:   images,
		analysis: analysis,
		hero:     hero,
		ledger:   ledger,
		notify:   notify,
		poll:     poll,
		log:      logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start runs a loop to fetch and process jobs.
// This should be run in a goroutine.
func (p *PhotoJobProcessor) Start(ctx context.Context, pool *Pool) {
	p.log.Info().Msg("photo job processor started")
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("photo job processor stopping")
			return
		case <-ticker.C:
			_ = pool.Submit(func(ctx context.Context) error {
				p.ProcessOne(ctx)
				return nil
			})
		}
	}
}

// ProcessOne claims and runs a single job. It returns false when the queue
// was empty.
func (p *PhotoJobProcessor) ProcessOne(ctx context.Context) bool {
	job, err := p.jobs.FetchAndMarkPicked(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			p.log.Error().Err(err).Msg("failed to claim photo job")
		}
		return false
	}

	ctx = logging.WithJobID(ctx, job.ID)
	ctx = logging.WithUserID(ctx, job.UserID)
	log := logging.With(ctx, p.log)
	log.Info().Str("original_url", job.OriginalURL).Msg("processing photo job")
	start := time.Now()

	err = p.handleJob(ctx, job)
	latency := time.Since(start)

	if err != nil {
		log.Error().Err(err).Msg("photo job failed")
		metrics.IncJob(string(model.PhotoJobStatusError))
		// Terminal write and notification on a detached context so
		// cancellation of the claim context cannot leave the job stuck in
		// processing or swallow the failure push during shutdown.
		detached := context.Background()
		if markErr := p.jobs.MarkError(detached, job.ID, err.Error(), time.Now()); markErr != nil {
			log.Error().Err(markErr).Msg("failed to record job failure")
		}
		p.notify.NotifyFailure(detached, job.UserID, job.ID)
	} else {
		metrics.IncJob(string(model.PhotoJobStatusDone))
		p.notify.NotifySuccess(ctx, job.UserID, job.ID)
	}

	log.Info().Dur("duration_ms", latency).Bool("success", err == nil).Msg("photo job finished")
	return true
}

// handleJob contains the core pipeline for a single job. Any error it
// returns sends the job to the error state; the AI stages never fail, so in
// practice that means a bad download or a ledger write that could not land
// even on the fallback path.
func (p *PhotoJobProcessor) handleJob(ctx context.Context, job *model.PhotoJob) error {
	stageStart := time.Now()
	img, err := p.images.FetchAndNormalize(logging.WithStage(ctx, "fetch"), job.OriginalURL)
	if err != nil {
		return err
	}
	metrics.ObserveStage("fetch", float64(time.Since(stageStart)/time.Millisecond))

	theme := p.pickTheme()
	blob := &adapter.Blob{MIMEType: img.MIMEType, Data: img.Data}

	stageStart = time.Now()
	analysis := p.analysis.Describe(logging.WithStage(ctx, "analysis"), blob, theme)
	metrics.ObserveStage("analysis", float64(time.Since(stageStart)/time.Millisecond))

	stageStart = time.Now()
	resultURL := p.hero.Generate(logging.WithStage(ctx, "generate"), job.OriginalURL, blob, theme)
	metrics.ObserveStage("generate", float64(time.Since(stageStart)/time.Millisecond))

	stageStart = time.Now()
	if err := p.ledger.Complete(logging.WithStage(ctx, "ledger"), job.ID, resultURL, theme, analysis); err != nil {
		return err
	}
	metrics.ObserveStage("ledger", float64(time.Since(stageStart)/time.Millisecond))
	return nil
}

func (p *PhotoJobProcessor) pickTheme() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return model.RandomTheme(p.rng)
}
