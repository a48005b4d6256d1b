package seed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/plannio/plannio/internal/storage"
	"github.com/plannio/plannio/internal/storage/sqlite"
)

func runSeed(t *testing.T) (Result, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		DBPath:     filepath.Join(dir, "plannio.db"),
		EventsPath: filepath.Join(dir, "events.db"),
	}
	result, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	return result, cfg.DBPath
}

func TestRunLoadsDemoData(t *testing.T) {
	t.Parallel()

	result, dbPath := runSeed(t)

	want := Result{
		Sectors:      3,
		Businesses:   3,
		Staff:        6,
		Services:     6,
		Calendars:    6,
		Appointments: 15,
		Prospects:    18,
	}
	if result != want {
		t.Fatalf("result = %+v, want %+v", result, want)
	}

	db, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen database: %v", err)
	}
	defer db.Close()

	page, err := db.ListBusinesses(context.Background(), storage.BusinessFilter{}, 10, "")
	if err != nil {
		t.Fatalf("list businesses: %v", err)
	}
	if len(page.Businesses) != 3 {
		t.Fatalf("businesses = %d, want 3", len(page.Businesses))
	}
}

func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()

	_, firstPath := runSeed(t)
	_, secondPath := runSeed(t)

	first, err := sqlite.Open(firstPath)
	if err != nil {
		t.Fatalf("reopen first database: %v", err)
	}
	defer first.Close()
	second, err := sqlite.Open(secondPath)
	if err != nil {
		t.Fatalf("reopen second database: %v", err)
	}
	defer second.Close()

	firstPage, err := first.ListBusinesses(context.Background(), storage.BusinessFilter{}, 10, "")
	if err != nil {
		t.Fatalf("list first businesses: %v", err)
	}
	secondPage, err := second.ListBusinesses(context.Background(), storage.BusinessFilter{}, 10, "")
	if err != nil {
		t.Fatalf("list second businesses: %v", err)
	}
	if len(firstPage.Businesses) != len(secondPage.Businesses) {
		t.Fatalf("business counts differ: %d vs %d", len(firstPage.Businesses), len(secondPage.Businesses))
	}
	for i := range firstPage.Businesses {
		if firstPage.Businesses[i].ID != secondPage.Businesses[i].ID {
			t.Fatalf("business %d ID differs: %s vs %s", i, firstPage.Businesses[i].ID, secondPage.Businesses[i].ID)
		}
	}
}
