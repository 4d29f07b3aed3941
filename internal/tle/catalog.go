package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Skip records one rejected record from a catalog parse. Skips are returned
// to the caller, not just logged, so a service layer can report them.
type Skip struct {
	LineIndex int    // index of the record's first line in the input
	Name      string // title line, if any
	Reason    string
}

// Catalog holds a batch of parsed element sets keyed by satellite name,
// along with every record that failed to parse.
type Catalog struct {
	Sets     map[string]*Set
	Skipped  []Skip
	LoadedAt time.Time

	order []string // input order, for stable listings
}

// Names returns the catalog's satellite names in input order. Catalogs built
// by hand (tests) fall back to sorted map keys.
func (c *Catalog) Names() []string {
	if len(c.order) == len(c.Sets) {
		return append([]string(nil), c.order...)
	}
	names := make([]string, 0, len(c.Sets))
	for name := range c.Sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseCatalog reads three-line records (name, line 1, line 2) from r.
// Malformed records are skipped with a warning log and a Skip entry; one bad
// record never aborts the batch. Input with fewer than three lines yields an
// empty catalog and no error.
func ParseCatalog(r io.Reader, logger *slog.Logger) (*Catalog, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	cat := &Catalog{
		Sets:     make(map[string]*Set),
		LoadedAt: time.Now().UTC(),
	}

	for i := 0; i+2 < len(lines); {
		name := lines[i]
		line1 := lines[i+1]
		line2 := lines[i+2]

		// Resync on a misaligned record: advance one line and retry.
		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			cat.skip(logger, i, name, "lines do not form a name/1/2 triplet")
			i++
			continue
		}

		set, err := ParseSet(line1, line2, name)
		if err != nil {
			cat.skip(logger, i, name, err.Error())
			i += 3
			continue
		}

		key := set.Name()
		if key == "" {
			key = fmt.Sprintf("NORAD %d", set.NoradID())
		}
		if _, exists := cat.Sets[key]; exists {
			cat.skip(logger, i, name, "duplicate satellite name")
			i += 3
			continue
		}

		cat.Sets[key] = set
		cat.order = append(cat.order, key)
		i += 3
	}

	return cat, nil
}

func (c *Catalog) skip(logger *slog.Logger, index int, name, reason string) {
	c.Skipped = append(c.Skipped, Skip{LineIndex: index, Name: strings.TrimSpace(name), Reason: reason})
	logger.Warn("skipping malformed TLE record",
		"line_index", index,
		"name", strings.TrimSpace(name),
		"reason", reason,
	)
}
