package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
)

const defaultSweepBatch = 100

type releaseCandidateLister interface {
	ListAutoReleaseCandidates(ctx context.Context, limit int) ([]models.Payment, error)
}

type autoReleaser interface {
	CheckAndAutoRelease(ctx context.Context, paymentID uuid.UUID) (bool, error)
}

// EscrowReleaseJobParams configure the escrow sweep.
type EscrowReleaseJobParams struct {
	Logger     *logger.Logger
	Candidates releaseCandidateLister
	Escrow     autoReleaser
	BatchSize  int
}

// NewEscrowReleaseJob builds the cron job that walks held payments and
// releases the ones whose condition has been met. Each payment is evaluated
// independently under its own row lock, so a failure on one never blocks the
// rest of the batch.
func NewEscrowReleaseJob(params EscrowReleaseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Candidates == nil {
		return nil, fmt.Errorf("candidate lister required")
	}
	if params.Escrow == nil {
		return nil, fmt.Errorf("escrow service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &escrowReleaseJob{
		logg:       params.Logger,
		candidates: params.Candidates,
		escrow:     params.Escrow,
		batch:      batch,
	}, nil
}

type escrowReleaseJob struct {
	logg       *logger.Logger
	candidates releaseCandidateLister
	escrow     autoReleaser
	batch      int
}

func (j *escrowReleaseJob) Name() string { return "escrow-release" }

func (j *escrowReleaseJob) Run(ctx context.Context) error {
	candidates, err := j.candidates.ListAutoReleaseCandidates(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list release candidates: %w", err)
	}

	released := 0
	var errs []error
	for _, payment := range candidates {
		done, err := j.escrow.CheckAndAutoRelease(ctx, payment.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("auto release %s: %w", payment.ID, err))
			continue
		}
		if done {
			released++
		}
	}

	logCtx := j.logg.WithField(ctx, "candidates", len(candidates))
	logCtx = j.logg.WithField(logCtx, "released", released)
	j.logg.Info(logCtx, "escrow sweep complete")
	return multierr.Combine(errs...)
}
