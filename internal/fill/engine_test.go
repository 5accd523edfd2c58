package fill

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dsillex/formfill/internal/models"
)

// writeRoster writes a workbook with a header row to a temp file and returns
// its path.
func writeRoster(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "First Name"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Last Name"))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func rosterJob(t *testing.T, out string) models.BatchJob {
	return models.BatchJob{
		FilePath:     writeRoster(t),
		DocumentType: models.DocumentExcel,
		Mappings: []models.FieldMapping{
			{
				DocumentFieldID: "Sheet1!A",
				SourceType:      models.SourceProvider,
				SourcePath:      "firstName",
			},
			{
				DocumentFieldID: "Sheet1!B",
				SourceType:      models.SourceProvider,
				SourcePath:      "lastName",
			},
		},
		Data: models.DataContext{Providers: []models.Record{
			{"firstName": "Ann", "lastName": "Lee"},
			{"firstName": "Bob", "lastName": "Ray"},
		}},
		OutputPath: out,
	}
}

func TestEngine_Analyze(t *testing.T) {
	e := NewEngine(nil)
	result, err := e.Analyze(context.Background(), writeRoster(t), "", nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Fields)
	assert.Equal(t, "First Name", result.Fields[0].Name)
}

func TestEngine_Analyze_missingFile(t *testing.T) {
	e := NewEngine(nil)
	_, err := e.Analyze(context.Background(), filepath.Join(t.TempDir(), "gone.xlsx"), "", nil)
	assert.Error(t, err)
}

func TestEngine_Fill(t *testing.T) {
	e := NewEngine(nil)
	out := filepath.Join(t.TempDir(), "out.xlsx")
	result := e.Fill(context.Background(), ptr(rosterJob(t, out)))
	require.True(t, result.Success, "error: %s warnings: %v", result.Error, result.Warnings)
	assert.Equal(t, out, result.OutputPath)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetCellValue("Sheet1", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Ray", got)
}

func TestEngine_Fill_validation(t *testing.T) {
	e := NewEngine(nil)
	tests := []struct {
		name string
		mut  func(*models.BatchJob)
		want string
	}{
		{"missing file path", func(j *models.BatchJob) { j.FilePath = "" }, "file path is required"},
		{"missing output path", func(j *models.BatchJob) { j.OutputPath = "" }, "output path is required"},
		{"no mappings", func(j *models.BatchJob) { j.Mappings = nil }, "no mappings or column bindings"},
		{"bad type", func(j *models.BatchJob) { j.DocumentType = "rtf" }, `invalid document type "rtf"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := rosterJob(t, filepath.Join(t.TempDir(), "out.xlsx"))
			tt.mut(&job)
			result := e.Fill(context.Background(), &job)
			assert.False(t, result.Success)
			assert.Contains(t, result.Error, tt.want)
		})
	}
}

func TestEngine_Fill_columnBindingsOnly(t *testing.T) {
	e := NewEngine(nil)
	out := filepath.Join(t.TempDir(), "out.xlsx")
	job := rosterJob(t, out)
	job.Mappings = nil
	job.SheetOptions = &models.SheetFillOptions{
		Columns: []models.ColumnBinding{{Column: "A", FieldPath: "firstName"}},
	}
	result := e.Fill(context.Background(), &job)
	require.True(t, result.Success, "error: %s", result.Error)
}

func TestEngine_Fill_cancelledContext(t *testing.T) {
	e := NewEngine(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := e.Fill(ctx, ptr(rosterJob(t, filepath.Join(t.TempDir(), "out.xlsx"))))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "context canceled")
}

type captureRecorder struct {
	mu      sync.Mutex
	results []*models.FillResult
}

func (r *captureRecorder) RecordFill(_ context.Context, _ models.DocumentType, result *models.FillResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return nil
}

func TestEngine_Fill_recordsOutcome(t *testing.T) {
	e := NewEngine(nil)
	rec := &captureRecorder{}
	e.SetRecorder(rec)

	e.Fill(context.Background(), ptr(rosterJob(t, filepath.Join(t.TempDir(), "out.xlsx"))))
	bad := rosterJob(t, filepath.Join(t.TempDir(), "bad.xlsx"))
	bad.FilePath = filepath.Join(t.TempDir(), "gone.xlsx")
	e.Fill(context.Background(), &bad)

	require.Len(t, rec.results, 2)
	assert.True(t, rec.results[0].Success)
	assert.False(t, rec.results[1].Success)
}

func TestEngine_RunBatch(t *testing.T) {
	e := NewEngine(nil)
	dir := t.TempDir()
	jobs := []models.BatchJob{
		rosterJob(t, filepath.Join(dir, "a.xlsx")),
		rosterJob(t, filepath.Join(dir, "b.xlsx")),
		rosterJob(t, filepath.Join(dir, "c.xlsx")),
	}
	jobs[1].FilePath = filepath.Join(dir, "missing.xlsx") // fails alone

	summary := e.RunBatch(context.Background(), jobs, 1)
	require.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	require.Len(t, summary.Results, 3)
	assert.True(t, summary.Results[0].Success)
	assert.Equal(t, 0, summary.Results[0].Index)
	assert.False(t, summary.Results[1].Success)
	assert.NotEmpty(t, summary.Results[1].Error)
	assert.True(t, summary.Results[2].Success)

	// Sibling outputs are unaffected by the failure.
	_, err := os.Stat(filepath.Join(dir, "a.xlsx"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "c.xlsx"))
	assert.NoError(t, err)
}

func TestEngine_RunBatch_parallel(t *testing.T) {
	e := NewEngine(nil)
	dir := t.TempDir()
	var jobs []models.BatchJob
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		jobs = append(jobs, rosterJob(t, filepath.Join(dir, name+".xlsx")))
	}

	summary := e.RunBatch(context.Background(), jobs, 4)
	assert.Equal(t, 5, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	for i, r := range summary.Results {
		assert.Equal(t, i, r.Index)
		assert.True(t, r.Success)
	}
}

func TestEngine_RunBatch_empty(t *testing.T) {
	e := NewEngine(nil)
	summary := e.RunBatch(context.Background(), nil, 4)
	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.Results)
}

func TestBatchWorkers(t *testing.T) {
	assert.Equal(t, 4, batchWorkers(4, 10))
	assert.Equal(t, maxBatchWorkers, batchWorkers(100, 100))
	assert.Equal(t, 2, batchWorkers(8, 2))
}

func ptr(j models.BatchJob) *models.BatchJob { return &j }
