package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/config"
	"github.com/hyperjump/ronbun/internal/embedding"
	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/internal/storage"
	"github.com/hyperjump/ronbun/internal/vector"
)

var (
	// ErrPaperNotFound is returned when a similarity lookup names an unknown paper.
	ErrPaperNotFound = errors.New("paper not found")
	// ErrNoText is returned when a paper has no text to embed.
	ErrNoText = errors.New("paper has no text")
	// ErrEmptyQuery is returned for empty or whitespace-only query text.
	ErrEmptyQuery = errors.New("empty query")
)

// Snapshot filenames inside the index directory. The index snapshot is
// written first, the id map second, so a crash between the two leaves the
// map at most one step behind and Load can prune the difference.
const (
	indexSnapshotFile = "index.bin"
	idMapSnapshotFile = "idmap.bin"

	checkpointEvery = 10
)

// MetadataStore is the slice of paper storage the manager needs: resolving
// papers for similarity lookups, finding un-embedded papers for batch
// updates, and recording index membership. A missing paper is reported with
// an error satisfying errors.Is(err, storage.ErrNotFound).
type MetadataStore interface {
	GetPaper(ctx context.Context, arxivID string) (*models.Paper, error)
	ListUnindexed(ctx context.Context, limit int) ([]*models.Paper, error)
	MarkIndexed(ctx context.Context, arxivID string, indexed bool) error
}

// TextSource yields the text a paper is embedded from (abstract, or extracted
// PDF text when full-text indexing is enabled).
type TextSource interface {
	PaperText(ctx context.Context, paper *models.Paper) (string, error)
}

// Match is a single similarity hit mapped back to an arXiv id.
// Distance is L2 (smaller = closer).
type Match struct {
	ArxivID  string  `json:"arxiv_id"`
	Distance float64 `json:"distance"`
}

// Manager owns the vector index and the id mapping, and is their single
// concurrent entry point: searches share a read lock, mutation and
// persistence take the write lock.
type Manager struct {
	store    MetadataStore
	texts    TextSource
	embedder embedding.Embedder
	cfg      *config.IndexConfig

	indexPath string
	idMapPath string

	mu  sync.RWMutex
	idx vector.Index
	ids *IDMap

	logger *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for update and persistence events.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager around idx, persisting snapshots under dir.
func NewManager(store MetadataStore, texts TextSource, embedder embedding.Embedder,
	idx vector.Index, dir string, cfg *config.IndexConfig, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		texts:     texts,
		embedder:  embedder,
		cfg:       cfg,
		indexPath: filepath.Join(dir, indexSnapshotFile),
		idMapPath: filepath.Join(dir, idMapSnapshotFile),
		idx:       idx,
		ids:       NewIDMap(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddPaper embeds text and stores it under arxivID. A paper already in the
// index is replaced under a fresh internal id. The vector index is only
// mutated after the embedding succeeded, and every mutation is rolled back if
// the metadata store cannot be told about it.
func (m *Manager) AddPaper(ctx context.Context, arxivID, text string) error {
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed paper %s: %w", arxivID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(ctx, arxivID, vec)
}

func (m *Manager) addLocked(ctx context.Context, arxivID string, vec []float32) error {
	var (
		replaced bool
		oldID    int64
		oldVec   []float32
	)
	if id, ok := m.ids.IDForKey(arxivID); ok {
		if old, ok := m.idx.Reconstruct(id); ok {
			replaced, oldID, oldVec = true, id, old
		}
		m.idx.Remove(id)
		m.ids.DeleteID(id)
	}

	restore := func() {
		if replaced {
			if err := m.idx.Add(oldID, oldVec); err == nil {
				m.ids.Put(oldID, arxivID)
			}
		}
	}

	newID := m.ids.Allocate()
	if err := m.idx.Add(newID, vec); err != nil {
		restore()
		return fmt.Errorf("add vector for %s: %w", arxivID, err)
	}
	m.ids.Put(newID, arxivID)

	if err := m.store.MarkIndexed(ctx, arxivID, true); err != nil {
		m.idx.Remove(newID)
		m.ids.DeleteID(newID)
		restore()
		return fmt.Errorf("mark %s indexed: %w", arxivID, err)
	}
	return nil
}

// RemovePaper drops arxivID from the index. Removing an unknown paper is a
// no-op. If the metadata store cannot be told, the entry is restored so index
// and store stay consistent; a store that no longer knows the paper at all
// counts as success.
func (m *Manager) RemovePaper(ctx context.Context, arxivID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.ids.IDForKey(arxivID)
	if !ok {
		return nil
	}
	vec, _ := m.idx.Reconstruct(id)
	m.idx.Remove(id)
	m.ids.DeleteID(id)

	if err := m.store.MarkIndexed(ctx, arxivID, false); err != nil && !errors.Is(err, storage.ErrNotFound) {
		if vec != nil {
			if e := m.idx.Add(id, vec); e == nil {
				m.ids.Put(id, arxivID)
			}
		}
		return fmt.Errorf("mark %s unindexed: %w", arxivID, err)
	}
	return nil
}

// SimilarByVector returns up to k papers nearest to vec.
func (m *Manager) SimilarByVector(ctx context.Context, vec []float32, k int) ([]Match, error) {
	return m.searchVector(vec, models.ClampK(k))
}

// SimilarByText embeds the query text and returns up to k nearest papers.
func (m *Manager) SimilarByText(ctx context.Context, text string, k int) ([]Match, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return m.searchVector(vec, models.ClampK(k))
}

// SimilarByID returns up to k papers most similar to the given paper, never
// including the paper itself. The paper's own text is re-embedded rather than
// looked up, so the result reflects the current embedder even for papers
// indexed long ago.
func (m *Manager) SimilarByID(ctx context.Context, arxivID string, k int) ([]Match, error) {
	k = models.ClampK(k)

	paper, err := m.store.GetPaper(ctx, arxivID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPaperNotFound, arxivID)
		}
		return nil, fmt.Errorf("load paper %s: %w", arxivID, err)
	}

	text, err := m.texts.PaperText(ctx, paper)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoText, arxivID, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoText, arxivID)
	}

	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, embedding.ErrEmptyInput) {
			return nil, fmt.Errorf("%w: %s", ErrNoText, arxivID)
		}
		return nil, fmt.Errorf("embed paper %s: %w", arxivID, err)
	}

	// Fetch one extra hit: the paper itself is usually its own nearest
	// neighbor and is filtered out.
	matches, err := m.searchVector(vec, k+1)
	if err != nil {
		return nil, err
	}
	filtered := make([]Match, 0, len(matches))
	for _, match := range matches {
		if match.ArxivID == arxivID {
			continue
		}
		filtered = append(filtered, match)
		if len(filtered) == k {
			break
		}
	}
	return filtered, nil
}

func (m *Manager) searchVector(vec []float32, k int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits, err := m.idx.Search(vec, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	matches := make([]Match, 0, len(hits))
	for _, hit := range hits {
		key, ok := m.ids.KeyForID(hit.ID)
		if !ok {
			continue
		}
		matches = append(matches, Match{ArxivID: key, Distance: hit.Distance})
	}
	return matches, nil
}

// UpdateIndex embeds and indexes up to batchSize un-embedded papers
// (batchSize <= 0 uses the configured default). An untrained clustered index
// is trained first on up to train_sample of the batch. Snapshots are written
// every few successful adds and once at the end; per-paper failures are
// logged and skipped, only snapshot failures and context cancellation
// surface in the returned error. Returns the number of papers added.
func (m *Manager) UpdateIndex(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = m.cfg.BatchSize
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	runID := uuid.New().String()[:8]
	start := time.Now()

	pending, err := m.store.ListUnindexed(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("list unindexed papers: %w", err)
	}
	if len(pending) == 0 {
		m.logger.Debug("index update: nothing to do", zap.String("run", runID))
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("index update started",
		zap.String("run", runID),
		zap.Int("pending", len(pending)),
		zap.String("variant", string(m.idx.Variant())))

	// Vectors embedded for training are kept so the add loop below does not
	// pay for them twice.
	vecs := make(map[string][]float32)
	trainedNow := false
	if !m.idx.Trained() {
		sampleN := len(pending)
		if m.cfg.TrainSample > 0 && sampleN > m.cfg.TrainSample {
			sampleN = m.cfg.TrainSample
		}
		sample := make([][]float32, 0, sampleN)
		for _, paper := range pending[:sampleN] {
			vec, err := m.embedPaper(ctx, paper)
			if err != nil {
				m.logger.Warn("skipping paper in training sample",
					zap.String("run", runID),
					zap.String("arxiv_id", paper.ArxivID),
					zap.Error(err))
				continue
			}
			vecs[paper.ArxivID] = vec
			sample = append(sample, vec)
		}
		if err := m.trainLocked(runID, sample); err != nil {
			return 0, err
		}
		trainedNow = true
	}

	var (
		added   int
		failed  int
		saveErr error
	)
	for _, paper := range pending {
		if ctx.Err() != nil {
			break
		}
		vec, ok := vecs[paper.ArxivID]
		if !ok {
			var err error
			vec, err = m.embedPaper(ctx, paper)
			if err != nil {
				m.logger.Warn("skipping paper",
					zap.String("run", runID),
					zap.String("arxiv_id", paper.ArxivID),
					zap.Error(err))
				failed++
				continue
			}
		}
		if err := m.addLocked(ctx, paper.ArxivID, vec); err != nil {
			m.logger.Warn("failed to index paper",
				zap.String("run", runID),
				zap.String("arxiv_id", paper.ArxivID),
				zap.Error(err))
			failed++
			continue
		}
		added++
		if added%checkpointEvery == 0 {
			if err := m.saveLocked(); err != nil {
				if saveErr == nil {
					saveErr = err
				}
				m.logger.Warn("checkpoint save failed", zap.String("run", runID), zap.Error(err))
			}
		}
	}

	if added > 0 || trainedNow {
		if err := m.saveLocked(); err != nil {
			if saveErr == nil {
				saveErr = err
			}
			m.logger.Warn("final save failed", zap.String("run", runID), zap.Error(err))
		}
	}

	m.logger.Info("index update finished",
		zap.String("run", runID),
		zap.Int("added", added),
		zap.Int("failed", failed),
		zap.Int("indexed_total", m.idx.Count()),
		zap.Duration("took", time.Since(start)))

	if err := ctx.Err(); err != nil {
		return added, err
	}
	return added, saveErr
}

func (m *Manager) embedPaper(ctx context.Context, paper *models.Paper) ([]float32, error) {
	text, err := m.texts.PaperText(ctx, paper)
	if err != nil {
		return nil, fmt.Errorf("paper text: %w", err)
	}
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return vec, nil
}

func (m *Manager) trainLocked(runID string, sample [][]float32) error {
	err := m.idx.Train(sample)
	if err == nil {
		m.logger.Info("vector index trained",
			zap.String("run", runID),
			zap.Int("sample", len(sample)))
		return nil
	}
	if !errors.Is(err, vector.ErrInsufficientTrainingData) || !m.cfg.DegradedTrainingAllowed() {
		return fmt.Errorf("train index: %w", err)
	}
	iv, ok := m.idx.(*vector.IVFIndex)
	if !ok {
		return fmt.Errorf("train index: %w", err)
	}
	clusters, err := iv.TrainClamped(sample)
	if err != nil {
		return fmt.Errorf("train index: %w", err)
	}
	m.logger.Warn("trained with reduced cluster count",
		zap.String("run", runID),
		zap.Int("clusters", clusters),
		zap.Int("configured", m.cfg.NList),
		zap.Int("sample", len(sample)))
	return nil
}

// Save writes the index snapshot and then the id map snapshot.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	if err := vector.WriteIndexFile(m.idx, m.indexPath, m.cfg.CompressSnapshotsEnabled()); err != nil {
		return fmt.Errorf("write index snapshot: %w", err)
	}
	if err := m.ids.WriteFile(m.idMapPath); err != nil {
		return fmt.Errorf("write id map snapshot: %w", err)
	}
	return nil
}

// Load replaces in-memory state with the on-disk snapshots. Vector ids with
// no key in the id map are pruned (the index snapshot may be one step ahead
// of the map after a crash), as are keys pointing at absent vectors. A
// missing snapshot means a fresh start; an unreadable one is degraded to a
// fresh start unless strict loading is configured.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	loaded, err := vector.ReadIndexFile(m.indexPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.logger.Info("no index snapshot, starting empty", zap.String("path", m.indexPath))
			return nil
		}
		if m.cfg.StrictLoad {
			return fmt.Errorf("load index snapshot: %w", err)
		}
		m.logger.Warn("index snapshot unreadable, starting empty",
			zap.String("path", m.indexPath), zap.Error(err))
		return nil
	}

	if loaded.Dim() != m.idx.Dim() {
		err := fmt.Errorf("index snapshot dimension %d does not match embedder dimension %d",
			loaded.Dim(), m.idx.Dim())
		if m.cfg.StrictLoad {
			return err
		}
		m.logger.Warn("discarding incompatible index snapshot", zap.Error(err))
		return nil
	}
	if loaded.Variant() != m.idx.Variant() {
		m.logger.Warn("index snapshot variant differs from configuration; serving the snapshot",
			zap.String("snapshot", string(loaded.Variant())),
			zap.String("configured", string(m.idx.Variant())))
	}

	ids, err := ReadIDMapFile(m.idMapPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			ids = NewIDMap()
		} else if m.cfg.StrictLoad {
			return fmt.Errorf("load id map snapshot: %w", err)
		} else {
			m.logger.Warn("id map snapshot unreadable, discarding stored vectors",
				zap.String("path", m.idMapPath), zap.Error(err))
			ids = NewIDMap()
		}
	}

	orphans := 0
	for _, id := range loaded.IDs() {
		if _, ok := ids.KeyForID(id); !ok {
			loaded.Remove(id)
			orphans++
		}
	}
	dangling := 0
	for _, key := range ids.Keys() {
		id, _ := ids.IDForKey(key)
		if _, ok := loaded.Reconstruct(id); !ok {
			ids.DeleteID(id)
			dangling++
		}
	}

	m.idx = loaded
	m.ids = ids
	if orphans > 0 || dangling > 0 {
		m.logger.Warn("reconciled index snapshots",
			zap.Int("orphans_pruned", orphans),
			zap.Int("dangling_keys_dropped", dangling))
	}
	m.logger.Info("index loaded",
		zap.Int("vectors", m.idx.Count()),
		zap.String("variant", string(m.idx.Variant())),
		zap.Bool("trained", m.idx.Trained()))
	return nil
}

// Count returns the number of indexed papers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idx.Count()
}

// Trained reports whether the index accepts vectors.
func (m *Manager) Trained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idx.Trained()
}

// Variant returns the active index variant.
func (m *Manager) Variant() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return string(m.idx.Variant())
}

// Keys returns the arXiv ids currently in the index, in insertion order of
// their internal ids.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ids.Keys()
}

// Close persists a final snapshot.
func (m *Manager) Close() error {
	if err := m.Save(); err != nil {
		m.logger.Error("final index save failed", zap.Error(err))
		return err
	}
	return nil
}
