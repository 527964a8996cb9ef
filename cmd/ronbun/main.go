// Package main is the Ronbun CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/ronbun/internal/arxiv"
	"github.com/hyperjump/ronbun/internal/arxivid"
	"github.com/hyperjump/ronbun/internal/cli"
	"github.com/hyperjump/ronbun/internal/config"
	"github.com/hyperjump/ronbun/internal/embedding"
	"github.com/hyperjump/ronbun/internal/export"
	"github.com/hyperjump/ronbun/internal/index"
	"github.com/hyperjump/ronbun/internal/keyword"
	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/internal/papertext"
	"github.com/hyperjump/ronbun/internal/search"
	"github.com/hyperjump/ronbun/internal/server"
	"github.com/hyperjump/ronbun/internal/storage"
	"github.com/hyperjump/ronbun/internal/vector"
	"github.com/hyperjump/ronbun/internal/watcher"
	"github.com/hyperjump/ronbun/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/ronbun/config.yaml"

// loadConfig reads the config at path and reports which file was actually
// used. When asked for the compiled-in default it prefers a config.yaml in
// the working directory, so running from a checkout picks up the project
// config (including its debug flag).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if local, err := filepath.Abs("config.yaml"); err == nil {
			if _, err := os.Stat(local); err == nil {
				path = local
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// fatalf prints a message to stderr and exits. Subcommand error handling
// funnels through here.
func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "fetch":
		runFetch()
	case "download":
		runDownload()
	case "update-index":
		runUpdateIndex()
	case "search":
		runSearch()
	case "semantic":
		runSemantic()
	case "similar":
		runSimilar()
	case "export":
		runExport()
	case "status":
		runStatus()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("ronbun version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (fetch progress, watcher events, index checkpoints)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	watchSvc, err := startPDFWatcher(watchCtx, cfg, components.Storage, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}

	srv := server.NewServer(components.Engine, components.Manager, components.Storage, cfg, version, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchSvc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
	// components.Close writes the final index snapshot.
}

// startPDFWatcher begins watching the PDF directory, linking dropped files to
// their papers and clearing the link when a file disappears. It also
// reconciles files already present.
func startPDFWatcher(ctx context.Context, cfg *config.Config, store storage.Storage, logger *zap.Logger, debug bool) (*watcher.Watcher, error) {
	opts := []watcher.WatcherOption{}
	if debug {
		opts = append(opts, watcher.WithLogger(logger))
	}
	w := watcher.NewWatcher(
		cfg.Storage.PDFDir,
		func(arxivID, path string) {
			if err := store.SetLocalPDF(context.Background(), arxivID, path); err != nil {
				logger.Warn("link dropped pdf failed", zap.String("arxiv_id", arxivID), zap.Error(err))
			}
		},
		func(arxivID string) {
			if err := store.SetLocalPDF(context.Background(), arxivID, ""); err != nil {
				logger.Warn("unlink removed pdf failed", zap.String("arxiv_id", arxivID), zap.Error(err))
			}
		},
		opts...,
	)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	w.SyncExisting()
	return w, nil
}

// printSearchUsage prints search subcommand usage and hints.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: ronbun search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Keyword search covers titles, abstracts, and categories.
  • Use --fuzzy for typo tolerance. Without it, a query with no exact hits is
    retried fuzzily and "did you mean" suggestions are shown.
  • Use "ronbun semantic" to search by meaning instead of keywords.

Examples:
  ronbun search sparse attention
  ronbun search "sparse attention"        # same as above
  ronbun search --fuzzy difussion         # typo-tolerant search
  ronbun search --output json attention   # structured JSON for other apps
`)
}

// buildSearchQuery joins the positional arguments into one query string, so
// quoting multi-word queries on the shell is optional.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves flags found after the first positional argument to
// the front, where flag.Parse will see them. The flag package stops parsing
// at the first non-flag token, which would silently drop the -limit in
// "ronbun search query -limit 5".
func searchArgsReorder(args []string) []string {
	split := -1
	for i, a := range args {
		if strings.HasPrefix(a, "-") {
			split = i
			break
		}
	}
	if split <= 0 {
		return args
	}
	out := make([]string, 0, len(args))
	out = append(out, args[split:]...)
	return append(out, args[:split]...)
}

// parseOutputFormat maps the --output flag value to a cli format.
func parseOutputFormat(s string) (cli.OutputFormat, error) {
	switch s {
	case "text":
		return cli.OutputText, nil
	case "compact":
		return cli.OutputCompact, nil
	case "json":
		return cli.OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open storage directly when no server is running)")
	limit := fs.Int("limit", 10, "number of results")
	fuzzy := fs.Bool("fuzzy", false, "enable fuzzy matching for typo tolerance")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	var response models.SearchResponse
	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids the bleve index lock).
		params := url.Values{}
		params.Set("q", queryStr)
		params.Set("limit", strconv.Itoa(*limit))
		if *fuzzy {
			params.Set("fuzzy", "true")
		}
		if err := fetchJSON(*serverURL+"/api/v1/search?"+params.Encode(), &response); err != nil {
			fatalf("Search failed: %v", err)
		}
	} else {
		components, _, logger := mustComponents(*configPath)
		defer components.Close()
		defer logger.Sync()
		resp, err := components.Engine.Search(context.Background(), &models.SearchQuery{
			Query: queryStr,
			Limit: *limit,
			Fuzzy: *fuzzy,
		})
		if err != nil {
			fatalf("Search failed: %v", err)
		}
		response = *resp
	}
	if err := cli.WriteSearchResults(os.Stdout, &response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runSemantic() {
	args := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("semantic", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open storage directly when no server is running)")
	k := fs.Int("k", 10, "number of results")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fatalf("Usage: ronbun semantic [flags] <query>")
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		fatalf("Usage: ronbun semantic [flags] <query>")
	}
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	var response models.SimilarResponse
	if *serverURL != "" {
		params := url.Values{}
		params.Set("q", queryStr)
		params.Set("k", strconv.Itoa(*k))
		if err := fetchJSON(*serverURL+"/api/v1/semantic-search?"+params.Encode(), &response); err != nil {
			fatalf("Semantic search failed: %v", err)
		}
	} else {
		components, _, logger := mustComponents(*configPath)
		defer components.Close()
		defer logger.Sync()
		resp, err := components.Engine.Semantic(context.Background(), queryStr, *k)
		if err != nil {
			fatalf("Semantic search failed: %v", err)
		}
		response = *resp
	}
	if err := cli.WriteSimilarResults(os.Stdout, &response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runSimilar() {
	args := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("similar", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open storage directly when no server is running)")
	k := fs.Int("k", 10, "number of results")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fatalf("Usage: ronbun similar [flags] <arxiv-id>")
	}
	id, _ := arxivid.Normalize(arxivid.FromPathParam(fs.Arg(0)))
	if id == "" {
		fatalf("Not an arXiv id: %s", fs.Arg(0))
	}
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	var response models.SimilarResponse
	if *serverURL != "" {
		requestURL := fmt.Sprintf("%s/api/v1/similar/%s?k=%d", *serverURL, arxivid.PathParam(id), *k)
		if err := fetchJSON(requestURL, &response); err != nil {
			fatalf("Similar lookup failed: %v", err)
		}
	} else {
		components, _, logger := mustComponents(*configPath)
		defer components.Close()
		defer logger.Sync()
		resp, err := components.Engine.Similar(context.Background(), id, *k)
		if err != nil {
			fatalf("Similar lookup failed: %v", err)
		}
		response = *resp
	}
	if err := cli.WriteSimilarResults(os.Stdout, &response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// requestJSON sends a bodyless request to the running server and decodes the
// JSON response into out. Non-200 responses become errors carrying the body.
func requestJSON(method, requestURL string, out interface{}) error {
	req, err := http.NewRequest(method, requestURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func fetchJSON(requestURL string, out interface{}) error {
	return requestJSON(http.MethodGet, requestURL, out)
}

func postJSON(requestURL string, out interface{}) error {
	return requestJSON(http.MethodPost, requestURL, out)
}

func runFetch() {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	components, cfg, logger := mustComponents(*configPath)
	defer components.Close()
	defer logger.Sync()

	client := arxiv.NewClient(arxiv.WithLogger(logger))
	fetcher := arxiv.NewFetcher(client, components.Storage, components.Keyword, &cfg.Arxiv,
		arxiv.WithFetcherLogger(logger))
	stats, err := fetcher.Fetch(context.Background())
	if err != nil {
		fatalf("Fetch failed: %v", err)
	}
	fmt.Printf("Fetched %d papers: %d new, %d updated, %d unchanged, %d failed\n",
		stats.Fetched, stats.New, stats.Updated, stats.Unchanged, stats.Failed)
}

func runDownload() {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "maximum number of PDFs to download")
	_ = fs.Parse(os.Args[2:])

	components, _, logger := mustComponents(*configPath)
	defer components.Close()
	defer logger.Sync()

	n, err := components.Texts.DownloadMissing(context.Background(), *limit)
	if err != nil {
		fatalf("Download failed: %v", err)
	}
	fmt.Printf("Downloaded %d PDFs\n", n)
}

func runUpdateIndex() {
	fs := flag.NewFlagSet("update-index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open storage directly; only safe when no server is running)")
	batch := fs.Int("batch", 0, "papers per run (0 = config default)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		// Route through the server by default: two processes must not write
		// the snapshot files concurrently.
		var out struct {
			Added   int `json:"added"`
			Indexed int `json:"indexed"`
		}
		requestURL := *serverURL + "/api/v1/index/update"
		if *batch > 0 {
			requestURL += "?batch=" + strconv.Itoa(*batch)
		}
		if err := postJSON(requestURL, &out); err != nil {
			fatalf("Index update failed: %v", err)
		}
		fmt.Printf("Indexed %d papers (%d vectors total)\n", out.Added, out.Indexed)
		return
	}

	components, _, logger := mustComponents(*configPath)
	defer components.Close()
	defer logger.Sync()

	added, err := components.Manager.UpdateIndex(context.Background(), *batch)
	if err != nil {
		fatalf("Index update failed: %v", err)
	}
	fmt.Printf("Indexed %d papers (%d vectors total)\n", added, components.Manager.Count())
}

func runExport() {
	args := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	favorites := fs.Bool("favorites", false, "export only library favorites")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fatalf("Usage: ronbun export [flags] <output.xlsx>")
	}
	outPath := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Only the metadata store is needed; leaving the indexes closed means
	// export works while the server is running.
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer store.Close()

	exporter := export.NewExporter(store, export.WithLogger(logger))
	n, err := exporter.WriteXLSX(context.Background(), outPath, *favorites)
	if err != nil {
		fatalf("Export failed: %v", err)
	}
	fmt.Printf("Wrote %d papers to %s\n", n, outPath)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open storage directly when no server is running)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	var status models.Status
	if *serverURL != "" {
		if err := fetchJSON(*serverURL+"/api/v1/status", &status); err != nil {
			fatalf("Status failed: %v", err)
		}
	} else {
		components, cfg, logger := mustComponents(*configPath)
		defer components.Close()
		defer logger.Sync()
		s, err := components.Engine.Status(context.Background(), version,
			cfg.Storage.DatabasePath, cfg.Storage.KeywordIndexPath, cfg.Storage.IndexDir)
		if err != nil {
			fatalf("Status failed: %v", err)
		}
		status = *s
	}
	if err := cli.WriteStatus(os.Stdout, &status, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "where to write the starter config")
	force := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(os.Args[2:])

	if _, err := os.Stat(*configPath); err == nil && !*force {
		fatalf("Config already exists at %s (use --force to overwrite)", *configPath)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	if err := os.MkdirAll(filepath.Dir(*configPath), 0755); err != nil {
		fatalf("Failed to create config directory: %v", err)
	}
	if err := config.Save(*configPath, cfg); err != nil {
		fatalf("Failed to write config: %v", err)
	}
	fmt.Printf("Wrote starter config to %s\n", *configPath)
}

// mustComponents loads config and wires every component, exiting the process
// on failure. Shared by the subcommands that open storage directly.
func mustComponents(configPath string) (*Components, *config.Config, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return components, cfg, logger
}

// Components holds the initialized services shared by the subcommands.
type Components struct {
	Storage  storage.Storage
	Keyword  *keyword.BleveIndex
	Spell    *keyword.SpellChecker
	Embedder embedding.Embedder
	Texts    *papertext.Source
	Manager  *index.Manager
	Engine   *search.Engine
}

// Close releases everything in reverse construction order. The manager
// writes a final snapshot on close.
func (c *Components) Close() {
	if c.Manager != nil {
		_ = c.Manager.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Keyword != nil {
		_ = c.Keyword.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.KeywordIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	spell := keyword.NewSpellChecker(keywordIndex)

	embedder := newEmbedder(cfg, logger)

	textOpts := []papertext.Option{}
	if debug {
		textOpts = append(textOpts, papertext.WithLogger(logger))
	}
	texts := papertext.NewSource(store, cfg.Storage.PDFDir, cfg.PDF, textOpts...)

	idx, err := vector.NewIndex(cfg.Index.Variant, embedder.Dimensions(), cfg.Index.NList, cfg.Index.NProbe)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	manager := index.NewManager(store, texts, embedder, idx, cfg.Storage.IndexDir, &cfg.Index,
		index.WithLogger(logger))
	if err := manager.Load(); err != nil {
		return nil, fmt.Errorf("failed to load vector index: %w", err)
	}
	logger.Info("vector index ready",
		zap.String("variant", manager.Variant()),
		zap.Bool("trained", manager.Trained()),
		zap.Int("vectors", manager.Count()))

	engineOpts := []search.Option{}
	if debug {
		engineOpts = append(engineOpts, search.WithLogger(logger))
	}
	engine := search.NewEngine(store, keywordIndex, spell, manager, engineOpts...)

	return &Components{
		Storage:  store,
		Keyword:  keywordIndex,
		Spell:    spell,
		Embedder: embedder,
		Texts:    texts,
		Manager:  manager,
		Engine:   engine,
	}, nil
}

// newEmbedder prefers the configured ONNX model and falls back to the
// deterministic mock when the runtime or model file is unavailable. Either
// way the embedder is wrapped in an LRU cache.
func newEmbedder(cfg *config.Config, logger *zap.Logger) embedding.Embedder {
	var inner embedding.Embedder
	inner, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
	)
	if err != nil {
		logger.Warn("ONNX model unavailable, using mock embeddings",
			zap.String("model_path", cfg.Embedding.ModelPath),
			zap.Error(err))
		inner = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}
	return embedding.NewCachedEmbedder(inner, cfg.Embedding.CacheSize)
}

func printUsage() {
	fmt.Println(`ronbun - local arXiv paper search

Usage:
  ronbun server [flags]            Start the HTTP API server
  ronbun fetch [flags]             Fetch recent papers for the configured categories
  ronbun download [flags]          Download PDFs for papers without a local copy
  ronbun update-index [flags]      Embed and index papers pending semantic indexing
  ronbun search [flags] <query>    Keyword search over titles and abstracts
  ronbun semantic [flags] <query>  Semantic search by meaning
  ronbun similar [flags] <id>      Papers similar to the given arXiv id
  ronbun export [flags] <file>     Export the paper list to an xlsx workbook
  ronbun status [flags]            Show store and index status
  ronbun init [flags]              Write a starter config file
  ronbun version                   Show version
  ronbun help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/ronbun/config.yaml)
  --debug            Enable debug logging (fetch progress, watcher events, index checkpoints)

Search Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" to open storage directly when no server is running.
  --limit int        Number of results (default: 10)
  --fuzzy            Enable typo-tolerant matching. An exact search with no hits retries fuzzily on its own.
  --output string    Output format: text, compact, or json (default: text)

Semantic / Similar Flags:
  --server string    Server URL (same convention as search)
  --k int            Number of results (default: 10)
  --output string    Output format: text, compact, or json

Update-index Flags:
  --server string    Server URL. Use --server "" only when no server is running; two writers would race on the snapshot files.
  --batch int        Papers per run (0 = config default)

Export Flags:
  --favorites        Export only library favorites

Examples:
  ronbun init
  ronbun fetch
  ronbun update-index
  ronbun search sparse attention
  ronbun search --fuzzy difussion
  ronbun semantic "how do transformers generalize"
  ronbun similar 2401.12345
  ronbun export papers.xlsx
  ronbun status --output json`)
}
