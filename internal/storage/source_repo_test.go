package storage

import (
	"context"
	"errors"
	"testing"
)

func TestSourceRepo_GetMissing(t *testing.T) {
	repo := NewSourceRepo(newTestDB(t))

	_, err := repo.Get(context.Background(), "src99")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSourceRepo_Upsert(t *testing.T) {
	repo := NewSourceRepo(newTestDB(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, &SourceRecord{SourceID: "src01", FileName: "src01.pdf", Hash: "aaa", ChunkCount: 4}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := repo.Upsert(ctx, &SourceRecord{SourceID: "src01", FileName: "src01.md", Hash: "bbb", ChunkCount: 7}); err != nil {
		t.Fatalf("Upsert() second error = %v", err)
	}

	got, err := repo.Get(ctx, "src01")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Hash != "bbb" || got.ChunkCount != 7 || got.FileName != "src01.md" {
		t.Errorf("Get() = %+v, want updated record", got)
	}
	if got.IngestedAt.IsZero() {
		t.Error("IngestedAt not set")
	}
}

func TestSourceRepo_List(t *testing.T) {
	repo := NewSourceRepo(newTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"src02", "src01"} {
		if err := repo.Upsert(ctx, &SourceRecord{SourceID: id, FileName: id + ".txt", Hash: id}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	recs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(recs) != 2 || recs[0].SourceID != "src01" || recs[1].SourceID != "src02" {
		t.Errorf("List() = %+v", recs)
	}
}

func TestSourceRepo_Delete(t *testing.T) {
	repo := NewSourceRepo(newTestDB(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, &SourceRecord{SourceID: "src01", FileName: "src01.txt", Hash: "aaa"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := repo.Delete(ctx, "src01"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, "src01"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "src01"); err != nil {
		t.Errorf("Delete() of missing record error = %v", err)
	}
}
