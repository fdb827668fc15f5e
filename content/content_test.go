package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Go 1.22: What's New?  ", "go-1-22-what-s-new"},
		{"---", ""},
		{"Already-slugged", "already-slugged"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.input); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{",", nil},
		{",go,", []string{"go"}},
		{",go,web,", []string{"go", "web"}},
		{",go, web ,rust,", []string{"go", "web", "rust"}},
	}
	for _, tt := range tests {
		got := ParseTags(tt.input)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("ParseTags(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSplitTags(t *testing.T) {
	got := SplitTags(" go, web,, ,rust ")
	if strings.Join(got, "|") != "go|web|rust" {
		t.Errorf("SplitTags = %v", got)
	}
}

func TestFilterRelatedPosts(t *testing.T) {
	current := BlogPost{Slug: "a", Tags: []string{"Go"}}
	posts := []BlogPost{
		current,
		{Slug: "b", Tags: []string{"go", "web"}},
		{Slug: "c", Tags: []string{"rust"}},
	}
	got := FilterRelatedPosts(current, posts)
	if len(got) != 1 || got[0].Slug != "b" {
		t.Fatalf("FilterRelatedPosts = %v, want [b]", got)
	}
}

const collectionsYAML = `
experiences:
  - title: Backend Engineer
    subtitle: Acme
    start: "2021-03"
    end: "2023-06"
  - title: Senior Engineer
    subtitle: Globex
    start: "2023-07"
projects:
  - title: Portfolio Site
    summary: The site you are reading.
    tags: [go, htmx]
    repo: https://github.com/gloanda/folio
  - title: Old Thing
    start: "2019-01-01"
certificates:
  - title: Cloud Practitioner
    subtitle: AWS
    start: "2022-11"
`

func TestDecodeCollections(t *testing.T) {
	c, err := DecodeCollections(strings.NewReader(collectionsYAML))
	if err != nil {
		t.Fatalf("DecodeCollections: %v", err)
	}
	if len(c.Experiences) != 2 || c.Experiences[0].Title != "Senior Engineer" {
		t.Fatalf("experiences not sorted newest first: %+v", c.Experiences)
	}
	if c.Experiences[1].Slug != "backend-engineer" {
		t.Errorf("derived slug = %q", c.Experiences[1].Slug)
	}
	if len(c.Projects) != 2 || c.Projects[0].Title != "Old Thing" {
		t.Errorf("dated project should sort before undated one: %+v", c.Projects)
	}
	if len(c.Certificates) != 1 || c.Certificates[0].Subtitle != "AWS" {
		t.Errorf("certificates = %+v", c.Certificates)
	}
}

func TestDecodeCollectionsErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing title", "projects:\n  - summary: x\n", "title is required"},
		{"bad date", "projects:\n  - title: X\n    start: March\n", "invalid start"},
		{"end before start", "experiences:\n  - title: X\n    start: \"2022-01\"\n    end: \"2021-01\"\n", "before start"},
		{"day end before month start", "experiences:\n  - title: X\n    start: \"2023-05\"\n    end: \"2023-04-30\"\n", "before start"},
		{"month end before day start", "experiences:\n  - title: X\n    start: \"2023-05-10\"\n    end: \"2023-04\"\n", "before start"},
		{"duplicate slug", "projects:\n  - title: X\n  - title: x\n", "duplicate slug"},
		{"unknown field", "projects:\n  - title: X\n    colour: red\n", "colour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCollections(strings.NewReader(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestDecodeCollectionsMixedPrecisionDates(t *testing.T) {
	tests := []struct{ start, end string }{
		{"2023-05-10", "2023-05"},
		{"2023-05", "2023-05-01"},
		{"2023-05-10", "2023-05-10"},
		{"2023-05-10", "2024-01"},
	}
	for _, tt := range tests {
		src := "experiences:\n  - title: X\n    start: \"" + tt.start + "\"\n    end: \"" + tt.end + "\"\n"
		if _, err := DecodeCollections(strings.NewReader(src)); err != nil {
			t.Errorf("start %s end %s: %v", tt.start, tt.end, err)
		}
	}
}

func TestLoadCollectionsMissingFile(t *testing.T) {
	c, err := LoadCollections(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadCollections: %v", err)
	}
	if len(c.Experiences)+len(c.Projects)+len(c.Certificates) != 0 {
		t.Fatalf("expected empty collections, got %+v", c)
	}
}

func TestLoadCollectionsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collections.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCollections(path); err != nil {
		t.Fatalf("LoadCollections(empty) = %v", err)
	}
}

func TestCollectionsSearch(t *testing.T) {
	c, err := DecodeCollections(strings.NewReader(collectionsYAML))
	if err != nil {
		t.Fatal(err)
	}
	got := c.Search("HTMX portfolio")
	if len(got) != 1 || got[0].Slug != "portfolio-site" {
		t.Fatalf("Search = %+v", got)
	}
	if got := c.Search("   "); got != nil {
		t.Errorf("blank query should match nothing, got %+v", got)
	}
}

func TestMatchesPost(t *testing.T) {
	p := BlogPost{Title: "Writing a Cache", Summary: "TTL and locks", Tags: []string{"go"}, Content: "sync.RWMutex"}
	if !MatchesPost(p, "cache rwmutex") {
		t.Error("expected match across title and body")
	}
	if MatchesPost(p, "cache rust") {
		t.Error("every term must match")
	}
}

func TestParseMarkdownPost(t *testing.T) {
	src := `---
title: "Hello, World"
date: "2024-02-03"
tags: [Go, Web]
description: First post.
---

# Hello

Body text.
`
	p, err := ParseMarkdownPost("hello.md", strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseMarkdownPost: %v", err)
	}
	if p.Slug != "hello-world" || p.Title != "Hello, World" {
		t.Errorf("slug/title = %q/%q", p.Slug, p.Title)
	}
	if p.Date != "2024-02-03" {
		t.Errorf("Date = %q", p.Date)
	}
	if p.Summary != "First post." {
		t.Errorf("Summary = %q, want description fallback", p.Summary)
	}
	if !p.Published {
		t.Error("post without draft flag should be published")
	}
	if !strings.HasPrefix(p.Content, "# Hello") {
		t.Errorf("Content = %q", p.Content)
	}
	if p.Link != "/blog/hello-world" {
		t.Errorf("Link = %q", p.Link)
	}
}

func TestParseMarkdownPostTitleFallback(t *testing.T) {
	src := "---\ndate: \"2024-02-03\"\ndraft: true\n---\nbody\n"
	p, err := ParseMarkdownPost("posts/my-first_post.md", strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseMarkdownPost: %v", err)
	}
	if p.Title != "My First Post" {
		t.Errorf("Title = %q, want %q", p.Title, "My First Post")
	}
	if p.Published {
		t.Error("draft should not be published")
	}
}

func TestParseMarkdownPostTimestampDate(t *testing.T) {
	src := "---\ntitle: T\ndate: \"2024-02-03T10:00:00Z\"\n---\nbody\n"
	p, err := ParseMarkdownPost("t.md", strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseMarkdownPost: %v", err)
	}
	if p.Date != "2024-02-03" {
		t.Errorf("Date = %q", p.Date)
	}
}

func TestParseMarkdownPostRequiresDate(t *testing.T) {
	src := "---\ntitle: T\n---\nbody\n"
	if _, err := ParseMarkdownPost("t.md", strings.NewReader(src)); err == nil {
		t.Fatal("expected error for missing date")
	}
}

func TestParseMarkdownPostSlugifiesFrontMatterSlug(t *testing.T) {
	src := "---\ntitle: T\nslug: My Post/../x\ndate: \"2024-02-03\"\n---\nbody\n"
	p, err := ParseMarkdownPost("t.md", strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseMarkdownPost: %v", err)
	}
	if p.Slug != "my-post-x" {
		t.Errorf("Slug = %q, want %q", p.Slug, "my-post-x")
	}
	if p.Link != "/blog/my-post-x" {
		t.Errorf("Link = %q", p.Link)
	}
}
