package folio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"go.uber.org/zap/zaptest"

	"github.com/gloanda/folio/content"
)

const testCollections = `
experiences:
  - title: Backend Engineer
    subtitle: Acme Corp
    start: 2023-07
    summary: Built payment APIs.
projects:
  - title: Folio
    subtitle: Go, Echo, SQLite
    start: 2024-01
    summary: This very website.
    repo: https://github.com/gloanda/folio
certificates:
  - title: Cloud Practitioner
    subtitle: AWS
    start: 2022-05
`

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	dir := t.TempDir()
	collections := filepath.Join(dir, "collections.yaml")
	if err := os.WriteFile(collections, []byte(testCollections), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := SiteConfig{
		URL:             "https://example.com",
		DatabasePath:    filepath.Join(dir, "blog.db"),
		AnalyticsPath:   filepath.Join(dir, "analytics.db"),
		CollectionsPath: collections,
		StaticDir:       filepath.Join(dir, "public"),
		AdminPassword:   "correct horse",
		SessionSecret:   strings.Repeat("s", 32),
	}
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	a := New(cfg, opts...)
	if err := a.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func doRequest(a *App, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func savePost(t *testing.T, a *App, p content.BlogPost) {
	t.Helper()
	if err := a.Store.SavePost(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	a.Cache.Invalidate()
}

func TestHomeRendersNavigationInOrder(t *testing.T) {
	a := newTestApp(t)
	rec := doRequest(a, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<title>Gloanda</title>") {
		t.Error("home title is not the site title")
	}
	last := -1
	for _, href := range []string{`href="/"`, `href="/experiences"`, `href="/blog"`, `href="/projects"`, `href="/certificates"`} {
		i := strings.Index(body, href)
		if i < 0 {
			t.Fatalf("nav link %s missing", href)
		}
		if i < last {
			t.Errorf("nav link %s out of order", href)
		}
		last = i
	}
	if !strings.Contains(body, `href="mailto:gloanda.dev@gmail.com"`) {
		t.Error("email social link missing from footer")
	}
	if !strings.Contains(body, "Folio") {
		t.Error("recent project missing from home page")
	}
}

func TestNavLinksRedirectToSlashRoutes(t *testing.T) {
	a := newTestApp(t)
	for _, path := range []string{"/experiences", "/blog", "/projects", "/certificates"} {
		rec := doRequest(a, http.MethodGet, path)
		if rec.Code != http.StatusMovedPermanently {
			t.Errorf("GET %s = %d, want 301", path, rec.Code)
			continue
		}
		if loc := rec.Header().Get("Location"); loc != path+"/" {
			t.Errorf("GET %s Location = %q", path, loc)
		}
	}
}

func TestPagesUseTheirTitles(t *testing.T) {
	a := newTestApp(t)
	tests := []struct {
		path, title, contains string
	}{
		{"/experiences/", "Experiences | Gloanda", "Acme Corp"},
		{"/blog/", "Blog | Gloanda", "Writing on topics I am passionate about."},
		{"/projects/", "Projects | Gloanda", "https://github.com/gloanda/folio"},
		{"/certificates/", "Certificates | Gloanda", "Cloud Practitioner"},
		{"/search/", "Search | Gloanda", "Search posts and projects."},
	}
	for _, tt := range tests {
		rec := doRequest(a, http.MethodGet, tt.path)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", tt.path, rec.Code)
			continue
		}
		body := rec.Body.String()
		if !strings.Contains(body, "<title>"+tt.title+"</title>") {
			t.Errorf("GET %s: title %q missing", tt.path, tt.title)
		}
		if !strings.Contains(body, tt.contains) {
			t.Errorf("GET %s: %q missing", tt.path, tt.contains)
		}
		if !strings.Contains(body, `aria-current="page"`) && tt.path != "/search/" {
			t.Errorf("GET %s: no active nav link", tt.path)
		}
	}
}

func TestBlogPostAndDrafts(t *testing.T) {
	a := newTestApp(t)
	savePost(t, a, content.BlogPost{Slug: "hello", Title: "Hello <World>", Date: "2024-05-01", Tags: []string{"go"}, Content: "Some **bold** text.", Published: true})
	savePost(t, a, content.BlogPost{Slug: "secret", Title: "Secret", Date: "2024-05-02"})

	rec := doRequest(a, http.MethodGet, "/blog/hello/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET post = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Hello &lt;World&gt;") {
		t.Error("title not escaped")
	}
	if !strings.Contains(body, "<strong>bold</strong>") {
		t.Error("markdown not rendered")
	}

	if rec := doRequest(a, http.MethodGet, "/blog/secret/"); rec.Code != http.StatusNotFound {
		t.Errorf("draft = %d, want 404", rec.Code)
	}
	if rec := doRequest(a, http.MethodGet, "/blog/missing/"); rec.Code != http.StatusNotFound {
		t.Errorf("missing post = %d, want 404", rec.Code)
	}

	rec = doRequest(a, http.MethodGet, "/blog/?tag=go")
	if !strings.Contains(rec.Body.String(), "/blog/hello/") || strings.Contains(rec.Body.String(), "/blog/secret/") {
		t.Error("tag listing wrong")
	}
}

func TestBlogListPartial(t *testing.T) {
	a := newTestApp(t)
	savePost(t, a, content.BlogPost{Slug: "p", Title: "P", Date: "2024-05-01", Tags: []string{"go"}, Published: true})

	req := httptest.NewRequest(http.MethodGet, "/blog/?partial=list&tag=go", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("partial = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<html") {
		t.Error("partial rendered the full layout")
	}
	if !strings.Contains(rec.Header().Get("Vary"), "HX-Request") {
		t.Error("Vary: HX-Request missing")
	}
}

func TestSearch(t *testing.T) {
	a := newTestApp(t)
	savePost(t, a, content.BlogPost{Slug: "echo", Title: "Echo middleware", Date: "2024-05-01", Published: true})

	rec := doRequest(a, http.MethodGet, "/search/?q=echo")
	if rec.Code != http.StatusOK {
		t.Fatalf("search = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "/blog/echo/") {
		t.Error("matching post missing")
	}
	if !strings.Contains(body, `content="noindex, nofollow"`) {
		t.Error("result pages should not be indexed")
	}

	rec = doRequest(a, http.MethodGet, "/search/?q=folio")
	if !strings.Contains(rec.Body.String(), "This very website.") {
		t.Error("matching project missing")
	}
}

func TestSearchTruncatesLongQueryOnRuneBoundary(t *testing.T) {
	a := newTestApp(t)
	q := strings.Repeat("a", maxQueryLen-1) + "é"
	rec := doRequest(a, http.MethodGet, "/search/?q="+url.QueryEscape(q))
	if rec.Code != http.StatusOK {
		t.Fatalf("search = %d", rec.Code)
	}
	body := rec.Body.String()
	if !utf8.ValidString(body) {
		t.Error("response is not valid UTF-8")
	}
	if !strings.Contains(body, `value="`+strings.Repeat("a", maxQueryLen-1)+`"`) {
		t.Error("query should be cut before the split rune")
	}
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"aé", 2, "a"},
		{"aé", 3, "aé"},
		{"日本", 4, "日"},
		{"é", 1, ""},
	}
	for _, tt := range tests {
		if got := truncateUTF8(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateUTF8(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestSitemapListsNavLinksAndPosts(t *testing.T) {
	a := newTestApp(t)
	savePost(t, a, content.BlogPost{Slug: "hello", Title: "Hello", Date: "2024-05-01", Published: true})

	rec := doRequest(a, http.MethodGet, "/sitemap.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("sitemap = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, loc := range []string{
		"<loc>https://example.com/</loc>",
		"<loc>https://example.com/experiences/</loc>",
		"<loc>https://example.com/blog/</loc>",
		"<loc>https://example.com/projects/</loc>",
		"<loc>https://example.com/certificates/</loc>",
		"<loc>https://example.com/blog/hello/</loc>",
	} {
		if !strings.Contains(body, loc) {
			t.Errorf("sitemap missing %s", loc)
		}
	}
	if !strings.Contains(body, "<lastmod>2024-05-01</lastmod>") {
		t.Error("post lastmod missing")
	}
}

func TestFeed(t *testing.T) {
	a := newTestApp(t)
	savePost(t, a, content.BlogPost{Slug: "hello", Title: "Hello", Date: "2024-05-01", Summary: "First post", Tags: []string{"go"}, Published: true})

	rec := doRequest(a, http.MethodGet, "/feed.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("feed = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<title>Gloanda</title>",
		"<description>Welcome to my portfolio and blog website.</description>",
		"<copyright>Loanda Gunawan</copyright>",
		"<link>https://example.com/blog/hello/</link>",
		"<category>go</category>",
		`href="https://example.com/feed.xml"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("feed missing %s", want)
		}
	}
}

func TestRobotsAndAssets(t *testing.T) {
	a := newTestApp(t)

	rec := doRequest(a, http.MethodGet, "/robots.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("robots = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Disallow: /admin/") || !strings.Contains(body, "Sitemap: https://example.com/sitemap.xml") {
		t.Errorf("robots.txt = %q", body)
	}

	rec = doRequest(a, http.MethodGet, "/public/site.css")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/css") {
		t.Errorf("site.css = %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "immutable") {
		t.Errorf("site.css Cache-Control = %q", cc)
	}

	rec = doRequest(a, http.MethodGet, "/favicon.svg")
	if rec.Code != http.StatusOK {
		t.Errorf("favicon = %d", rec.Code)
	}
}

func TestNotFoundPage(t *testing.T) {
	a := newTestApp(t)
	rec := doRequest(a, http.MethodGet, "/nope/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /nope/ = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<title>Not found | Gloanda</title>") {
		t.Error("404 page not rendered")
	}
}

func TestSecurityHeaders(t *testing.T) {
	a := newTestApp(t)
	rec := doRequest(a, http.MethodGet, "/")
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("X-Frame-Options missing")
	}
	if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "default-src 'self'") {
		t.Error("CSP missing")
	}
}

func csrfCookie(t *testing.T, a *App) *http.Cookie {
	t.Helper()
	rec := doRequest(a, http.MethodGet, "/admin/")
	for _, c := range rec.Result().Cookies() {
		if c.Name == "_csrf" {
			return c
		}
	}
	t.Fatal("no _csrf cookie issued")
	return nil
}

func postLogin(a *App, csrf *http.Cookie, password string) *httptest.ResponseRecorder {
	form := url.Values{"password": {password}, "_csrf": {csrf.Value}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(csrf)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func TestAdminLogin(t *testing.T) {
	a := newTestApp(t)
	csrf := csrfCookie(t, a)

	rec := postLogin(a, csrf, "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Incorrect password.") {
		t.Error("error message missing")
	}

	rec = postLogin(a, csrf, "correct horse")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("right password = %d, want 303", rec.Code)
	}
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName {
			session = c
		}
	}
	if session == nil {
		t.Fatal("no session cookie after login")
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/analytics/", nil)
	req.AddCookie(session)
	out := httptest.NewRecorder()
	a.Echo.ServeHTTP(out, req)
	if out.Code != http.StatusOK || !strings.Contains(out.Body.String(), "Analytics") {
		t.Errorf("analytics page = %d", out.Code)
	}
}

func TestAdminLoginRateLimited(t *testing.T) {
	a := newTestApp(t)
	csrf := csrfCookie(t, a)
	for i := 0; i < a.Config.LoginAttempts; i++ {
		postLogin(a, csrf, "wrong")
	}
	if rec := postLogin(a, csrf, "correct horse"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("after %d failures = %d, want 429", a.Config.LoginAttempts, rec.Code)
	}
}

func TestAdminRoutesRequireLogin(t *testing.T) {
	a := newTestApp(t)
	for _, path := range []string{"/admin/images/", "/admin/analytics/", "/admin/post/x/"} {
		rec := doRequest(a, http.MethodGet, path)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/" {
			t.Errorf("GET %s = %d %q", path, rec.Code, rec.Header().Get("Location"))
		}
	}
}

func TestPostWithoutCSRFIsForbidden(t *testing.T) {
	a := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader("password=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("POST without token = %d, want 403", rec.Code)
	}
}

func TestPageViewsAreRecorded(t *testing.T) {
	a := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/projects/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Firefox/121.0")
	a.Echo.ServeHTTP(httptest.NewRecorder(), req)
	doRequest(a, http.MethodGet, "/robots.txt")

	a.recorder.Close()
	now := time.Now()
	st, err := a.Analytics.Stats(context.Background(), now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalViews != 1 || len(st.TopPages) != 1 || st.TopPages[0].Path != "/projects/" {
		t.Errorf("stats = %+v", st)
	}
}
