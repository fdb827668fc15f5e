package content

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadCollections reads the collections file at path. A missing file yields
// empty collections so a fresh site renders without one.
func LoadCollections(path string) (Collections, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Collections{}, nil
		}
		return Collections{}, fmt.Errorf("open collections: %w", err)
	}
	defer f.Close()
	return DecodeCollections(f)
}

// DecodeCollections parses YAML collections from r, fills derived fields,
// validates every entry and sorts each collection newest first.
func DecodeCollections(r io.Reader) (Collections, error) {
	var c Collections
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Collections{}, fmt.Errorf("parse collections: %w", err)
	}
	var errs []error
	for _, col := range []struct {
		name    string
		entries []Entry
	}{
		{"experiences", c.Experiences},
		{"projects", c.Projects},
		{"certificates", c.Certificates},
	} {
		if err := prepareEntries(col.name, col.entries); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Collections{}, err
	}
	return c, nil
}

func prepareEntries(collection string, entries []Entry) error {
	var errs []error
	seen := make(map[string]struct{}, len(entries))
	for i := range entries {
		e := &entries[i]
		e.Title = strings.TrimSpace(e.Title)
		if e.Title == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: title is required", collection, i))
			continue
		}
		if e.Slug == "" {
			e.Slug = Slugify(e.Title)
		}
		if _, dup := seen[e.Slug]; dup {
			errs = append(errs, fmt.Errorf("%s[%d]: duplicate slug %q", collection, i, e.Slug))
		}
		seen[e.Slug] = struct{}{}
		if e.Start != "" && !validEntryDate(e.Start) {
			errs = append(errs, fmt.Errorf("%s %q: invalid start %q (want YYYY-MM or YYYY-MM-DD)", collection, e.Slug, e.Start))
		}
		if e.End != "" && !validEntryDate(e.End) {
			errs = append(errs, fmt.Errorf("%s %q: invalid end %q (want YYYY-MM or YYYY-MM-DD)", collection, e.Slug, e.End))
		}
		if e.Start != "" && e.End != "" && endsBeforeStart(e.Start, e.End) {
			errs = append(errs, fmt.Errorf("%s %q: end %s before start %s", collection, e.Slug, e.End, e.Start))
		}
		e.Tags = SplitTags(strings.Join(e.Tags, ","))
	}
	// Entries without a start date sort last.
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Start, entries[j].Start
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a > b
	})
	return errors.Join(errs...)
}

func validEntryDate(s string) bool {
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return true
	}
	_, err := time.Parse("2006-01", s)
	return err == nil
}

// endsBeforeStart compares two entry dates at the coarser of their
// precisions, so 2023-05 does not end before 2023-05-10.
func endsBeforeStart(start, end string) bool {
	n := min(len(start), len(end))
	return end[:n] < start[:n]
}

// Search returns projects matching every term of query.
func (c Collections) Search(query string) []Entry {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}
	var out []Entry
	for _, e := range c.Projects {
		hay := strings.ToLower(strings.Join([]string{e.Title, e.Subtitle, e.Summary, strings.Join(e.Tags, " ")}, " "))
		if containsAll(hay, terms) {
			out = append(out, e)
		}
	}
	return out
}

func containsAll(hay string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(hay, t) {
			return false
		}
	}
	return true
}

// MatchesPost reports whether every term of query appears in the post's
// title, summary, tags or body, ignoring case.
func MatchesPost(p BlogPost, query string) bool {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return false
	}
	hay := strings.ToLower(strings.Join([]string{p.Title, p.Summary, strings.Join(p.Tags, " "), p.Content}, " "))
	return containsAll(hay, terms)
}
