package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"mini-qna/internal/indexer"
)

type fakeIndexer struct {
	mu       sync.Mutex
	forced   []bool
	release  chan struct{}
	stats    *indexer.CoverageStats
	statsErr error
	indexErr error
}

func (f *fakeIndexer) IndexAll(ctx context.Context, force bool) (indexer.Summary, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.forced = append(f.forced, force)
	f.mu.Unlock()
	if f.indexErr != nil {
		return indexer.Summary{Failed: 1}, f.indexErr
	}
	return indexer.Summary{Indexed: 2, Chunks: 7}, nil
}

func (f *fakeIndexer) CoverageStats(ctx context.Context, embeddingModelName string) (*indexer.CoverageStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeIndexer) calls() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.forced...)
}

func TestIndexHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		target    string
		indexErr  error
		wantCode  int
		wantForce []bool
	}{
		{name: "incremental", method: http.MethodPost, target: "/api/index", wantCode: http.StatusAccepted, wantForce: []bool{false}},
		{name: "forced", method: http.MethodPost, target: "/api/index?force=true", wantCode: http.StatusAccepted, wantForce: []bool{true}},
		{name: "failed run still accepted", method: http.MethodPost, target: "/api/index", indexErr: errors.New("embedding failed"), wantCode: http.StatusAccepted, wantForce: []bool{false}},
		{name: "method not allowed", method: http.MethodGet, target: "/api/index", wantCode: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := &fakeIndexer{indexErr: tt.indexErr}
			handler := NewIndexHandler(idx, "test-model")

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			handler.Wait()

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			got := idx.calls()
			if len(got) != len(tt.wantForce) {
				t.Fatalf("IndexAll calls = %v, want %v", got, tt.wantForce)
			}
			for i := range got {
				if got[i] != tt.wantForce[i] {
					t.Errorf("call %d force = %v, want %v", i, got[i], tt.wantForce[i])
				}
			}
			if tt.wantCode == http.StatusAccepted {
				var resp IndexResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Status != "accepted" {
					t.Errorf("status field = %q, want accepted", resp.Status)
				}
			}
		})
	}
}

func TestIndexHandler_RejectsConcurrentRun(t *testing.T) {
	idx := &fakeIndexer{release: make(chan struct{})}
	handler := NewIndexHandler(idx, "test-model")

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/index", nil))
	if first.Code != http.StatusAccepted {
		t.Fatalf("first status = %d, want %d", first.Code, http.StatusAccepted)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/index", nil))
	if second.Code != http.StatusConflict {
		t.Errorf("second status = %d, want %d", second.Code, http.StatusConflict)
	}

	close(idx.release)
	handler.Wait()

	third := httptest.NewRecorder()
	handler.ServeHTTP(third, httptest.NewRequest(http.MethodPost, "/api/index", nil))
	handler.Wait()
	if third.Code != http.StatusAccepted {
		t.Errorf("third status = %d, want %d", third.Code, http.StatusAccepted)
	}
}

func TestIndexHandler_Stats(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		idx := &fakeIndexer{stats: &indexer.CoverageStats{SourcesInCatalog: 3, SourcesIndexed: 2, ChunkerVersion: indexer.ChunkerVersion}}
		handler := NewIndexHandler(idx, "test-model")

		rec := httptest.NewRecorder()
		handler.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/index/stats", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var stats indexer.CoverageStats
		if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
			t.Fatalf("failed to decode stats: %v", err)
		}
		if stats.SourcesInCatalog != 3 || stats.SourcesIndexed != 2 {
			t.Errorf("stats = %+v", stats)
		}
	})

	t.Run("error", func(t *testing.T) {
		handler := NewIndexHandler(&fakeIndexer{statsErr: errors.New("db closed")}, "test-model")

		rec := httptest.NewRecorder()
		handler.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/index/stats", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
		}
	})
}
