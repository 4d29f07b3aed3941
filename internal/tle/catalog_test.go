package tle

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

const starlinkRecord = `STARLINK-1007
1 43017U 17073A   20357.73427318  .00000042  00000-0  00000-0 0  9991
2 43017  53.0537 241.3127 0002602  55.2717 304.8218 15.06330636235398`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func issRecord() string {
	return issName + "\n" + issLine1 + "\n" + issLine2
}

func TestParseCatalog(t *testing.T) {
	input := issRecord() + "\n" + starlinkRecord + "\n"

	cat, err := ParseCatalog(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}

	if len(cat.Sets) != 2 {
		t.Fatalf("got %d sets, want 2", len(cat.Sets))
	}
	if len(cat.Skipped) != 0 {
		t.Errorf("got %d skips, want 0: %v", len(cat.Skipped), cat.Skipped)
	}

	names := cat.Names()
	want := []string{issName, "STARLINK-1007"}
	if len(names) != 2 || names[0] != want[0] || names[1] != want[1] {
		t.Errorf("Names() = %v, want %v (input order)", names, want)
	}

	if cat.LoadedAt.IsZero() {
		t.Error("LoadedAt not set")
	}
}

func TestParseCatalogSkipsBadRecord(t *testing.T) {
	// Middle record has a corrupted checksum; the batch must survive it.
	bad := strings.Replace(issLine1, "23040", "23041", 1)
	input := strings.Join([]string{
		"BROKEN SAT", bad, issLine2,
		starlinkRecord,
	}, "\n")

	cat, err := ParseCatalog(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}

	if len(cat.Sets) != 1 {
		t.Fatalf("got %d sets, want 1", len(cat.Sets))
	}
	if _, ok := cat.Sets["STARLINK-1007"]; !ok {
		t.Error("good record after bad one was not parsed")
	}
	if len(cat.Skipped) != 1 {
		t.Fatalf("got %d skips, want 1", len(cat.Skipped))
	}
	if cat.Skipped[0].Name != "BROKEN SAT" {
		t.Errorf("skip name = %q, want BROKEN SAT", cat.Skipped[0].Name)
	}
}

func TestParseCatalogResync(t *testing.T) {
	// A stray title line between records misaligns the triplet scan; the
	// parser should slide forward and recover the next record.
	input := strings.Join([]string{
		"ORPHAN TITLE LINE",
		issName, issLine1, issLine2,
	}, "\n")

	cat, err := ParseCatalog(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if _, ok := cat.Sets[issName]; !ok {
		t.Errorf("record after stray line not recovered; sets=%v skips=%v", cat.Names(), cat.Skipped)
	}
}

func TestParseCatalogDuplicateName(t *testing.T) {
	input := issRecord() + "\n" + issRecord()

	cat, err := ParseCatalog(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if len(cat.Sets) != 1 {
		t.Errorf("got %d sets, want 1", len(cat.Sets))
	}
	if len(cat.Skipped) != 1 {
		t.Errorf("got %d skips, want 1", len(cat.Skipped))
	}
}

func TestParseCatalogEmptyInput(t *testing.T) {
	cat, err := ParseCatalog(strings.NewReader("just one line\n"), testLogger())
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if len(cat.Sets) != 0 {
		t.Errorf("got %d sets, want 0", len(cat.Sets))
	}
}

func TestStoreFreshness(t *testing.T) {
	s := NewStore(time.Hour)

	if s.Get() != nil {
		t.Error("empty store returned a catalog")
	}
	if s.Fresh() {
		t.Error("empty store reports fresh")
	}
	if s.AgeSeconds() != -1 {
		t.Errorf("AgeSeconds = %v, want -1", s.AgeSeconds())
	}

	cat := &Catalog{Sets: map[string]*Set{}, LoadedAt: time.Now().UTC()}
	s.Set(cat)

	if s.Get() != cat {
		t.Error("Get did not return the stored catalog")
	}
	if !s.Fresh() {
		t.Error("just-loaded catalog reports stale")
	}
	if age := s.AgeSeconds(); age < 0 || age > 5 {
		t.Errorf("AgeSeconds = %v, want small positive", age)
	}

	stale := &Catalog{Sets: map[string]*Set{}, LoadedAt: time.Now().Add(-2 * time.Hour)}
	s.Set(stale)
	if s.Fresh() {
		t.Error("expired catalog reports fresh")
	}

	// Zero TTL disables expiry.
	forever := NewStore(0)
	forever.Set(stale)
	if !forever.Fresh() {
		t.Error("zero-TTL store reports stale")
	}
}
