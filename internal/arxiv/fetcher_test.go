package arxiv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyperjump/ronbun/internal/config"
	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/internal/storage"
)

type fakePaperStore struct {
	papers    map[string]*models.Paper
	upsertErr error
}

func newFakePaperStore() *fakePaperStore {
	return &fakePaperStore{papers: make(map[string]*models.Paper)}
}

func (s *fakePaperStore) UpsertPaper(_ context.Context, paper *models.Paper) (storage.UpsertOutcome, error) {
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}
	existing, ok := s.papers[paper.ArxivID]
	if !ok {
		cp := *paper
		s.papers[paper.ArxivID] = &cp
		return storage.OutcomeCreated, nil
	}
	if paper.Version > existing.Version {
		cp := *paper
		s.papers[paper.ArxivID] = &cp
		return storage.OutcomeUpdated, nil
	}
	return storage.OutcomeUnchanged, nil
}

type fakeKeyword struct {
	indexed []string
}

func (k *fakeKeyword) IndexPaper(_ context.Context, paper *models.Paper) error {
	k.indexed = append(k.indexed, paper.ArxivID)
	return nil
}

// feedWithEntries builds an Atom feed whose entries carry the given ids and
// updated timestamps.
func feedWithEntries(entries ...[2]string) string {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <id>http://arxiv.org/api/test</id>
  <updated>2024-01-16T00:00:00Z</updated>`
	for _, e := range entries {
		feed += fmt.Sprintf(`
  <entry>
    <id>http://arxiv.org/abs/%s</id>
    <updated>%s</updated>
    <published>%s</published>
    <title>Paper %s</title>
    <summary>Abstract for %s.</summary>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>`, e[0], e[1], e[1], e[0], e[0])
	}
	return feed + "\n</feed>"
}

// categoryServer answers each category query with the configured feed body;
// a category mapped to the empty string gets a 500.
func categoryServer(t *testing.T, feeds map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		category := r.URL.Query().Get("search_query")
		body, ok := feeds[category]
		if !ok || body == "" {
			http.Error(w, "no such category", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	srv := categoryServer(t, map[string]string{
		"cat:cs.LG": feedWithEntries(
			[2]string{"2401.00001v1", now},
			[2]string{"2401.00002v1", now},
		),
		"cat:cs.CL": "",
	})

	store := newFakePaperStore()
	kw := &fakeKeyword{}
	cfg := &config.ArxivConfig{Categories: []string{"cs.LG", "cs.CL"}, MaxResults: 10, DaysBack: 7}
	f := NewFetcher(testClient(srv), store, kw, cfg)

	stats, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Fetched != 2 || stats.New != 2 {
		t.Errorf("stats: got %+v, want 2 fetched / 2 new", stats)
	}
	if stats.Failed != 1 {
		t.Errorf("failing category should count as one failure, got %d", stats.Failed)
	}
	if len(store.papers) != 2 {
		t.Errorf("store: got %d papers", len(store.papers))
	}
	if len(kw.indexed) != 2 {
		t.Errorf("keyword index should see both new papers, got %v", kw.indexed)
	}
}

func TestFetch_SecondRunUnchanged(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	srv := categoryServer(t, map[string]string{
		"cat:cs.LG": feedWithEntries([2]string{"2401.00001v1", now}),
	})

	store := newFakePaperStore()
	kw := &fakeKeyword{}
	cfg := &config.ArxivConfig{Categories: []string{"cs.LG"}, MaxResults: 10}
	f := NewFetcher(testClient(srv), store, kw, cfg)
	ctx := context.Background()

	if _, err := f.Fetch(ctx); err != nil {
		t.Fatal(err)
	}
	stats, err := f.Fetch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Unchanged != 1 || stats.New != 0 {
		t.Errorf("stats: got %+v, want 1 unchanged", stats)
	}
	if len(kw.indexed) != 1 {
		t.Errorf("unchanged papers must not be re-fed to the keyword index, got %v", kw.indexed)
	}
}

func TestFetch_VersionBumpUpdates(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	srv := categoryServer(t, map[string]string{
		"cat:cs.LG": feedWithEntries([2]string{"2401.00001v2", now}),
	})

	store := newFakePaperStore()
	store.papers["2401.00001"] = &models.Paper{ArxivID: "2401.00001", Version: 1}
	kw := &fakeKeyword{}
	cfg := &config.ArxivConfig{Categories: []string{"cs.LG"}, MaxResults: 10}
	f := NewFetcher(testClient(srv), store, kw, cfg)

	stats, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Updated != 1 {
		t.Errorf("stats: got %+v, want 1 updated", stats)
	}
	if len(kw.indexed) != 1 {
		t.Errorf("updated paper should be re-fed to the keyword index, got %v", kw.indexed)
	}
}

func TestFetch_CutoffSkipsOldPapers(t *testing.T) {
	now := time.Now().UTC()
	srv := categoryServer(t, map[string]string{
		"cat:cs.LG": feedWithEntries(
			[2]string{"2401.00001v1", now.Format(time.RFC3339)},
			[2]string{"2005.00002v1", now.AddDate(0, 0, -30).Format(time.RFC3339)},
		),
	})

	store := newFakePaperStore()
	cfg := &config.ArxivConfig{Categories: []string{"cs.LG"}, MaxResults: 10, DaysBack: 7}
	f := NewFetcher(testClient(srv), store, nil, cfg)

	stats, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Fetched != 1 || stats.New != 1 {
		t.Errorf("stats: got %+v, want only the recent paper", stats)
	}
	if _, ok := store.papers["2005.00002"]; ok {
		t.Error("paper outside the window must not be stored")
	}
}

func TestFetch_UpsertFailure(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	srv := categoryServer(t, map[string]string{
		"cat:cs.LG": feedWithEntries([2]string{"2401.00001v1", now}),
	})

	store := newFakePaperStore()
	store.upsertErr = errors.New("database locked")
	cfg := &config.ArxivConfig{Categories: []string{"cs.LG"}, MaxResults: 10}
	f := NewFetcher(testClient(srv), store, nil, cfg)

	stats, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed != 1 || stats.New != 0 {
		t.Errorf("stats: got %+v, want 1 failed", stats)
	}
}
