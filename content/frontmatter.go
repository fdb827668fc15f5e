package content

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type postFrontMatter struct {
	Title       string   `yaml:"title"`
	Slug        string   `yaml:"slug"`
	Date        string   `yaml:"date"`
	Tags        []string `yaml:"tags"`
	Summary     string   `yaml:"summary"`
	Description string   `yaml:"description"`
	Draft       bool     `yaml:"draft"`
}

// ParseMarkdownPost reads a markdown document with a YAML front matter block
// and returns the post it describes. name is the source file name and only
// feeds the title fallback.
func ParseMarkdownPost(name string, r io.Reader) (BlogPost, error) {
	var fm postFrontMatter
	body, err := frontmatter.Parse(r, &fm)
	if err != nil {
		return BlogPost{}, fmt.Errorf("%s: front matter: %w", name, err)
	}

	title := strings.TrimSpace(fm.Title)
	if title == "" {
		base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		title = cases.Title(language.English).String(strings.NewReplacer("-", " ", "_", " ").Replace(base))
	}
	slug := Slugify(fm.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return BlogPost{}, fmt.Errorf("%s: cannot derive slug", name)
	}

	date := strings.TrimSpace(fm.Date)
	if date == "" {
		return BlogPost{}, fmt.Errorf("%s: date is required", name)
	}
	if len(date) > len("2006-01-02") {
		// Accept full timestamps, keep the day.
		if t, err := time.Parse(time.RFC3339, date); err == nil {
			date = t.Format("2006-01-02")
		}
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return BlogPost{}, fmt.Errorf("%s: invalid date %q: %w", name, fm.Date, err)
	}

	summary := fm.Summary
	if summary == "" {
		summary = fm.Description
	}

	return BlogPost{
		Slug:      slug,
		Title:     title,
		Date:      date,
		Tags:      SplitTags(strings.Join(fm.Tags, ",")),
		Summary:   strings.TrimSpace(summary),
		Content:   string(bytes.TrimSpace(body)),
		Link:      "/blog/" + slug,
		Published: !fm.Draft,
	}, nil
}
