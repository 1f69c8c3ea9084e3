package settings_test

import (
	"context"
	"errors"
	"testing"

	"github.com/HerbHall/netscope/internal/settings"
	"github.com/HerbHall/netscope/internal/testutil"
)

func newRepo(t *testing.T) settings.Repository {
	t.Helper()
	repo, err := settings.NewSQLiteRepository(context.Background(), testutil.NewStore(t))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	return repo
}

func TestSQLiteRepository_SetAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Set(ctx, "k", "v2"); err != nil {
		t.Fatal(err)
	}
	s, err := repo.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if s.Value != "v2" {
		t.Errorf("Value = %q, want v2", s.Value)
	}
	if s.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestSQLiteRepository_NotFound(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, settings.ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, settings.ErrNotFound) {
		t.Errorf("Delete error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_GetAllAndDelete(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	for _, k := range []string{"b", "a", "c"} {
		if err := repo.Set(ctx, k, k); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.Delete(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Key != "a" || all[1].Key != "c" {
		t.Errorf("GetAll = %+v", all)
	}
}

func TestNewSQLiteRepository_Idempotent(t *testing.T) {
	store := testutil.NewStore(t)
	for i := 0; i < 2; i++ {
		if _, err := settings.NewSQLiteRepository(context.Background(), store); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
}
