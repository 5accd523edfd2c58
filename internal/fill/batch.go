package fill

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dsillex/formfill/internal/models"
)

// maxBatchWorkers caps parallel batch execution regardless of the requested
// level; document fills are IO and allocation heavy.
const maxBatchWorkers = 8

// RunBatch executes every job and aggregates the outcomes. Jobs are
// independent: one failure never stops the rest. parallel values below 2 run
// the batch sequentially in submission order.
func (e *Engine) RunBatch(ctx context.Context, jobs []models.BatchJob, parallel int) *models.BatchSummary {
	summary := &models.BatchSummary{
		Total:   len(jobs),
		Results: make([]models.BatchJobResult, len(jobs)),
	}
	if len(jobs) == 0 {
		return summary
	}

	if parallel > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(batchWorkers(parallel, len(jobs)))
		for i := range jobs {
			i := i
			g.Go(func() error {
				summary.Results[i] = e.runJob(gctx, i, &jobs[i])
				// Job failures live in the result; returning an error here
				// would cancel the siblings.
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range jobs {
			summary.Results[i] = e.runJob(ctx, i, &jobs[i])
		}
	}

	for i := range summary.Results {
		if summary.Results[i].Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	e.logger.Info("batch finished",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))
	return summary
}

func (e *Engine) runJob(ctx context.Context, index int, job *models.BatchJob) models.BatchJobResult {
	result := e.Fill(ctx, job)
	jr := models.BatchJobResult{
		Index:    index,
		Success:  result.Success,
		Warnings: result.Warnings,
		Error:    result.Error,
	}
	if result.Success {
		jr.OutputPath = result.OutputPath
	}
	return jr
}

func batchWorkers(requested, jobs int) int {
	if requested > maxBatchWorkers {
		requested = maxBatchWorkers
	}
	if requested > jobs {
		requested = jobs
	}
	return requested
}
