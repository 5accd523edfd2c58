// Package fill orchestrates document fills: it routes each request to the
// right format adapter, runs batches of independent jobs, and hands outcomes
// to an optional recorder for auditing.
package fill

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/dsillex/formfill/internal/document"
	"github.com/dsillex/formfill/internal/models"
	"github.com/dsillex/formfill/pkg/utils"
)

// Recorder receives the outcome of every completed fill. Recording failures
// are logged and never affect the fill result.
type Recorder interface {
	RecordFill(ctx context.Context, docType models.DocumentType, result *models.FillResult) error
}

// Engine ties the adapter factory, the recorder, and batch execution
// together. A single fill is a batch job of one.
type Engine struct {
	factory  *document.Factory
	logger   *zap.Logger
	recorder Recorder
}

func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		factory: document.NewFactory(logger),
		logger:  logger,
	}
}

// SetRecorder attaches a fill recorder. Passing nil disables recording.
func (e *Engine) SetRecorder(r Recorder) {
	e.recorder = r
}

// Analyze reads the document at path and extracts its fillable fields. An
// empty docType means detection from content and extension.
func (e *Engine) Analyze(ctx context.Context, path string, docType models.DocumentType, opts *models.AnalyzeOptions) (*models.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	adapter, err := e.adapterFor(docType, content, path)
	if err != nil {
		return nil, err
	}
	result, err := adapter.AnalyzeDocument(content, opts)
	if err != nil {
		return nil, err
	}
	e.logger.Info("document analyzed",
		zap.String("path", utils.Truncate(path, 120)),
		zap.String("type", string(adapter.Type())),
		zap.Int("fields", len(result.Fields)))
	return result, nil
}

// Fill executes one fill job. All problems short of an unwritable or
// unparsable document are reported as warnings on a successful result.
func (e *Engine) Fill(ctx context.Context, job *models.BatchJob) *models.FillResult {
	result := e.fill(ctx, job)
	e.record(ctx, job.DocumentType, result)
	return result
}

func (e *Engine) fill(ctx context.Context, job *models.BatchJob) *models.FillResult {
	if err := ctx.Err(); err != nil {
		return &models.FillResult{Success: false, Error: err.Error()}
	}
	if err := validateJob(job); err != nil {
		return &models.FillResult{Success: false, Error: err.Error()}
	}
	content, err := os.ReadFile(job.FilePath)
	if err != nil {
		return &models.FillResult{Success: false, Error: fmt.Sprintf("read document: %v", err)}
	}
	adapter, err := e.adapterFor(job.DocumentType, content, job.FilePath)
	if err != nil {
		return &models.FillResult{Success: false, Error: err.Error()}
	}

	result := adapter.FillDocument(content, job.Mappings, &job.Data, job.OutputPath, job.SheetOptions)
	if result.Success {
		e.logger.Info("document filled",
			zap.String("output", utils.Truncate(result.OutputPath, 120)),
			zap.Int("warnings", len(result.Warnings)))
	} else {
		e.logger.Warn("document fill failed",
			zap.String("path", utils.Truncate(job.FilePath, 120)),
			zap.String("error", result.Error))
	}
	return result
}

func (e *Engine) adapterFor(docType models.DocumentType, content []byte, path string) (document.DocumentAdapter, error) {
	if docType != "" {
		return e.factory.ForType(docType)
	}
	return e.factory.Detect(content, path)
}

func (e *Engine) record(ctx context.Context, docType models.DocumentType, result *models.FillResult) {
	if e.recorder == nil {
		return
	}
	if docType == "" {
		docType = document.TypeForPath(result.OutputPath)
	}
	if err := e.recorder.RecordFill(ctx, docType, result); err != nil {
		e.logger.Warn("recording fill outcome failed", zap.Error(err))
	}
}

func validateJob(job *models.BatchJob) error {
	var problems []string
	if job.FilePath == "" {
		problems = append(problems, "file path is required")
	}
	if job.OutputPath == "" {
		problems = append(problems, "output path is required")
	}
	hasColumnBindings := job.SheetOptions != nil && len(job.SheetOptions.Columns) > 0
	if len(job.Mappings) == 0 && !hasColumnBindings {
		problems = append(problems, "job has no mappings or column bindings")
	}
	if job.DocumentType != "" && !job.DocumentType.Valid() {
		problems = append(problems, fmt.Sprintf("invalid document type %q", job.DocumentType))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid fill job: %s", strings.Join(problems, "; "))
	}
	return nil
}
