package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.TemplatesPath == "" {
		cfg.Storage.TemplatesPath = "/usr/local/var/formfill/data/templates"
	}
	if cfg.Storage.HistoryPath == "" {
		cfg.Storage.HistoryPath = "/usr/local/var/formfill/data/db/history.db"
	}
	if cfg.Storage.OutputPath == "" {
		cfg.Storage.OutputPath = "/usr/local/var/formfill/data/output"
	}
	if cfg.Spreadsheet.MaxColumns == 0 {
		cfg.Spreadsheet.MaxColumns = 10
	}
	if cfg.Spreadsheet.DataStartRow == 0 {
		cfg.Spreadsheet.DataStartRow = 2
	}
	if cfg.Batch.Parallel == 0 {
		cfg.Batch.Parallel = 1
	}
}
