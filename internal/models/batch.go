package models

// BatchJob is one independent fill job within a batch: a source document, a
// mapping set, a data context, and an output destination. DocumentType may be
// left empty to infer from the file extension.
type BatchJob struct {
	FilePath     string            `json:"filePath"`
	DocumentType DocumentType      `json:"documentType,omitempty"`
	Mappings     []FieldMapping    `json:"mappings"`
	Data         DataContext       `json:"data"`
	OutputPath   string            `json:"outputPath"`
	SheetOptions *SheetFillOptions `json:"sheetOptions,omitempty"`
}

// BatchJobResult is the per-job outcome; Index is the job's position in the
// submitted list.
type BatchJobResult struct {
	Index      int      `json:"index"`
	OutputPath string   `json:"outputPath,omitempty"`
	Success    bool     `json:"success"`
	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// BatchSummary aggregates a batch run. A failed job never affects its
// siblings, so Succeeded+Failed always equals Total.
type BatchSummary struct {
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []BatchJobResult `json:"results"`
}
