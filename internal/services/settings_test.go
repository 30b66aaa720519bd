package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/HerbHall/minerwatch/internal/services"
	"github.com/HerbHall/minerwatch/internal/store"
	"github.com/HerbHall/minerwatch/internal/testutil"
)

const fallbackRange = "192.168.1.0/24"

func newSettingsRepo(t *testing.T, db *store.SQLiteStore) services.SettingsRepository {
	t.Helper()
	repo, err := services.NewSQLiteSettingsRepository(context.Background(), db)
	if err != nil {
		t.Fatalf("NewSQLiteSettingsRepository: %v", err)
	}
	return repo
}

func effectiveRange(t *testing.T, repo services.SettingsRepository) string {
	t.Helper()
	got, err := services.StringSetting(context.Background(), repo, services.SettingScanRange, fallbackRange)
	if err != nil {
		t.Fatalf("StringSetting: %v", err)
	}
	return got
}

func TestSettingsRepository_ScanRangeLifecycle(t *testing.T) {
	repo := newSettingsRepo(t, testutil.NewStore(t))
	ctx := context.Background()

	steps := []struct {
		name   string
		action func() error
		want   string
	}{
		{"unset uses fallback", nil, fallbackRange},
		{"stored range wins", func() error { return repo.Set(ctx, services.SettingScanRange, "10.0.0.0/8") }, "10.0.0.0/8"},
		{"overwrite replaces", func() error { return repo.Set(ctx, services.SettingScanRange, "172.16.0.0/12") }, "172.16.0.0/12"},
		{"delete restores fallback", func() error { return repo.Delete(ctx, services.SettingScanRange) }, fallbackRange},
	}
	for _, step := range steps {
		if step.action != nil {
			if err := step.action(); err != nil {
				t.Fatalf("%s: %v", step.name, err)
			}
		}
		if got := effectiveRange(t, repo); got != step.want {
			t.Errorf("%s: effective range = %q, want %q", step.name, got, step.want)
		}
	}

	if err := repo.Delete(ctx, services.SettingScanRange); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
	if _, err := repo.Get(ctx, services.SettingScanRange); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
}

func TestSettingsRepository_GetStampsUpdate(t *testing.T) {
	repo := newSettingsRepo(t, testutil.NewStore(t))
	ctx := context.Background()

	if err := repo.Set(ctx, services.SettingScanRange, "10.1.0.0/16"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s, err := repo.Get(ctx, services.SettingScanRange)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.Key != services.SettingScanRange || s.Value != "10.1.0.0/16" {
		t.Errorf("setting = %s=%s, want scan_range=10.1.0.0/16", s.Key, s.Value)
	}
	if s.UpdatedAt.IsZero() {
		t.Error("UpdatedAt is zero")
	}
}

func TestSettingsRepository_SurvivesReopenBesideScanJournal(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()

	first := newSettingsRepo(t, db)
	if err := first.Set(ctx, services.SettingScanRange, "10.20.0.0/16"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := services.NewSQLiteScanRepository(ctx, db); err != nil {
		t.Fatalf("NewSQLiteScanRepository on shared store: %v", err)
	}

	// Re-running the settings migrations must not touch stored rows.
	reopened := newSettingsRepo(t, db)
	if got := effectiveRange(t, reopened); got != "10.20.0.0/16" {
		t.Errorf("range after reopen = %q, want 10.20.0.0/16", got)
	}
}

func TestSettingsRepository_GetAllOrderedByKey(t *testing.T) {
	repo := newSettingsRepo(t, testutil.NewStore(t))
	ctx := context.Background()

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll empty: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("GetAll empty = %v, want empty non-nil slice", all)
	}

	for _, kv := range [][2]string{
		{services.SettingScanRange, "192.168.0.0/16"},
		{"locate_method", "gps"},
		{"device_kind", "miner"},
	} {
		if err := repo.Set(ctx, kv[0], kv[1]); err != nil {
			t.Fatalf("Set %s: %v", kv[0], err)
		}
	}

	all, err = repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	want := []string{"device_kind", "locate_method", services.SettingScanRange}
	if len(all) != len(want) {
		t.Fatalf("GetAll = %d items, want %d", len(all), len(want))
	}
	for i, k := range want {
		if all[i].Key != k {
			t.Errorf("GetAll[%d].Key = %q, want %q", i, all[i].Key, k)
		}
	}
}

func TestStringSetting_StoreErrorKeepsFallback(t *testing.T) {
	db := testutil.NewStore(t)
	repo := newSettingsRepo(t, db)
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := services.StringSetting(context.Background(), repo, services.SettingScanRange, fallbackRange)
	if err == nil || errors.Is(err, services.ErrNotFound) {
		t.Errorf("StringSetting on closed store err = %v, want a storage error", err)
	}
	if got != fallbackRange {
		t.Errorf("StringSetting on closed store = %q, want fallback", got)
	}
}
