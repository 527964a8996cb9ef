package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/ronbun/data/db/papers.db"
	}
	if cfg.Storage.IndexDir == "" {
		cfg.Storage.IndexDir = "/usr/local/var/ronbun/data/indices/vector"
	}
	if cfg.Storage.KeywordIndexPath == "" {
		cfg.Storage.KeywordIndexPath = "/usr/local/var/ronbun/data/indices/bleve"
	}
	if cfg.Storage.PDFDir == "" {
		cfg.Storage.PDFDir = "/usr/local/var/ronbun/data/pdfs"
	}
	if len(cfg.Arxiv.Categories) == 0 {
		cfg.Arxiv.Categories = []string{"cs.LG", "cs.CL", "cs.IR"}
	}
	if cfg.Arxiv.MaxResults == 0 {
		cfg.Arxiv.MaxResults = 100
	}
	if cfg.Arxiv.DaysBack == 0 {
		cfg.Arxiv.DaysBack = 7
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/ronbun/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Index.Variant == "" {
		cfg.Index.Variant = "flat"
	}
	if cfg.Index.NList == 0 {
		cfg.Index.NList = 100
	}
	if cfg.Index.NProbe == 0 {
		cfg.Index.NProbe = 8
	}
	if cfg.Index.BatchSize == 0 {
		cfg.Index.BatchSize = 50
	}
	if cfg.Index.TrainSample == 0 {
		cfg.Index.TrainSample = 100
	}
	if cfg.PDF.MaxPages == 0 {
		cfg.PDF.MaxPages = 2
	}
	if cfg.PDF.TimeoutSeconds == 0 {
		cfg.PDF.TimeoutSeconds = 30
	}
}
