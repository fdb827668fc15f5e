package folio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/gloanda/folio/content"
)

// ErrNotFound is returned when a requested post or image does not exist.
var ErrNotFound = sql.ErrNoRows

// Store wraps a SQLite database holding blog posts and image metadata.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	// Pragmas in the DSN apply to every pooled connection. WAL lets readers
	// run while the admin writes; busy_timeout makes the writer wait instead
	// of failing with SQLITE_BUSY.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS posts (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    tags TEXT NOT NULL,
    summary TEXT NOT NULL,
    content TEXT NOT NULL,
    published INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS posts_published_date ON posts (published, date DESC);
CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

const postColumns = `slug, title, date, tags, summary, content, published`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (content.BlogPost, error) {
	var slug, title, date, tags, summary, body string
	var published int
	if err := row.Scan(&slug, &title, &date, &tags, &summary, &body, &published); err != nil {
		return content.BlogPost{}, err
	}
	return content.BlogPost{
		Slug:      slug,
		Title:     title,
		Date:      date,
		Tags:      content.ParseTags(tags),
		Summary:   summary,
		Content:   body,
		Link:      "/blog/" + slug,
		Published: published == 1,
	}, nil
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]content.BlogPost, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []content.BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListPosts returns published posts, newest first. A non-empty tag filters
// to posts carrying it, ignoring case.
func (s *Store) ListPosts(ctx context.Context, tag string) ([]content.BlogPost, error) {
	if tag == "" {
		return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts WHERE published = 1 ORDER BY date DESC, slug`)
	}
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts WHERE published = 1 AND instr(tags, ',' || ? || ',') > 0 ORDER BY date DESC, slug`,
		content.NormalizeTag(tag))
}

// ListAllPosts returns every post, drafts included, newest first.
func (s *Store) ListAllPosts(ctx context.Context) ([]content.BlogPost, error) {
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts ORDER BY date DESC, slug`)
}

// ListTags returns the sorted, deduplicated tags of published posts.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM posts WHERE published = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range content.ParseTags(tags) {
			set[content.NormalizeTag(t)] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// GetPost returns a published post by slug.
func (s *Store) GetPost(ctx context.Context, slug string) (content.BlogPost, error) {
	return scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ? AND published = 1`, slug))
}

// GetPostAny returns a post by slug regardless of its published flag.
func (s *Store) GetPostAny(ctx context.Context, slug string) (content.BlogPost, error) {
	return scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug))
}

// SavePost upserts a post. Tags are stored lower-cased between commas so
// tag lookups can use instr.
func (s *Store) SavePost(ctx context.Context, p content.BlogPost) error {
	if p.Slug == "" {
		return errors.New("save post: empty slug")
	}
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		if t = content.NormalizeTag(t); t != "" {
			tags = append(tags, t)
		}
	}
	tagString := "," + strings.Join(tags, ",") + ","
	published := 0
	if p.Published {
		published = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(slug) DO UPDATE SET title = excluded.title, date = excluded.date, tags = excluded.tags,
    summary = excluded.summary, content = excluded.content, published = excluded.published`,
		p.Slug, p.Title, p.Date, tagString, p.Summary, p.Content, published)
	return err
}

// DeletePost removes a post by slug. Deleting a missing post is not an error.
func (s *Store) DeletePost(ctx context.Context, slug string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, slug)
	return err
}

// ListImages returns uploaded images, newest first.
func (s *Store) ListImages(ctx context.Context) ([]content.Image, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename, original_name, width, height, size, uploaded_at FROM images ORDER BY uploaded_at DESC, filename`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []content.Image
	for rows.Next() {
		var img content.Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UploadedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// ImageExists reports whether filename is already recorded.
func (s *Store) ImageExists(ctx context.Context, filename string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images WHERE filename = ?`, filename).Scan(&n)
	return n > 0, err
}

// SaveImage records image metadata.
func (s *Store) SaveImage(ctx context.Context, img content.Image) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO images (filename, original_name, width, height, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UploadedAt)
	return err
}

// DeleteImage removes image metadata by filename.
func (s *Store) DeleteImage(ctx context.Context, filename string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE filename = ?`, filename)
	return err
}
