package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"
)

const (
	chromeMac    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	safariIPhone = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	edgeWindows  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36 Edg/120.0"
	googlebot    = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "analytics.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		ua                  string
		browser, os, device string
	}{
		{chromeMac, "Chrome", "macOS", "Desktop"},
		{safariIPhone, "Safari", "iOS", "Mobile"},
		{edgeWindows, "Edge", "Windows", "Desktop"},
		{"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0", "Firefox", "Linux", "Desktop"},
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) Mobile Safari", "Safari", "iOS", "Tablet"},
		{"curl/8.0", "Other", "Other", "Desktop"},
	}
	for _, tt := range tests {
		b, o, d := ParseUserAgent(tt.ua)
		if b != tt.browser || o != tt.os || d != tt.device {
			t.Errorf("ParseUserAgent(%q) = %s/%s/%s, want %s/%s/%s", tt.ua, b, o, d, tt.browser, tt.os, tt.device)
		}
	}
}

func TestBotName(t *testing.T) {
	tests := map[string]string{
		googlebot:       "Googlebot",
		"AhrefsBot/7.0": "Ahrefs",
		"SomeSpider 1.0": "Generic Spider",
		"mybot":         "Other Bot",
		"":              "Unknown",
		chromeMac:       "",
	}
	for ua, want := range tests {
		if got := BotName(ua); got != want {
			t.Errorf("BotName(%q) = %q, want %q", ua, got, want)
		}
	}
}

func TestCleanReferrer(t *testing.T) {
	tests := []struct {
		ref, host, want string
	}{
		{"", "example.com", "Direct"},
		{"https://www.google.com/search?q=go", "example.com", "Google"},
		{"https://github.com/gloanda", "example.com", "GitHub"},
		{"https://news.ycombinator.com/item?id=1", "example.com", "news.ycombinator.com"},
		{"https://www.example.com/blog/", "example.com", "Direct"},
		{"not a url", "example.com", "Other"},
	}
	for _, tt := range tests {
		if got := CleanReferrer(tt.ref, tt.host); got != tt.want {
			t.Errorf("CleanReferrer(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestHasherIsStableAndSalted(t *testing.T) {
	a := NewHasher("salt-a")
	b := NewHasher("salt-b")
	id := a.VisitorID("203.0.113.7", chromeMac)
	if len(id) != 16 {
		t.Fatalf("len(id) = %d, want 16", len(id))
	}
	if id != a.VisitorID("203.0.113.7", chromeMac) {
		t.Error("same input produced different ids")
	}
	if id == b.VisitorID("203.0.113.7", chromeMac) {
		t.Error("different salts produced the same id")
	}
}

func TestStoreSaltPersists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	first, err := s.Salt(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Salt(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first == "" || first != second {
		t.Fatalf("salt not persisted: %q then %q", first, second)
	}
}

func TestStoreStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	visits := []Visit{
		{VisitorID: "a", Browser: "Chrome", OS: "macOS", Device: "Desktop", Path: "/", Referrer: "Direct", Timestamp: day},
		{VisitorID: "a", Browser: "Chrome", OS: "macOS", Device: "Desktop", Path: "/blog/", Referrer: "Direct", Timestamp: day.Add(time.Minute)},
		{VisitorID: "b", Browser: "Safari", OS: "iOS", Device: "Mobile", Path: "/blog/", Referrer: "Google", Timestamp: day.Add(24 * time.Hour)},
		{VisitorID: "c", Browser: "Firefox", OS: "Linux", Device: "Desktop", Path: "/", Referrer: "Direct", Timestamp: day.AddDate(0, 1, 0)},
	}
	for _, v := range visits {
		if err := s.SaveVisit(ctx, v); err != nil {
			t.Fatalf("SaveVisit: %v", err)
		}
	}
	if err := s.SaveBotVisit(ctx, BotVisit{BotName: "Googlebot", Path: "/", Timestamp: day}); err != nil {
		t.Fatalf("SaveBotVisit: %v", err)
	}

	st, err := s.Stats(ctx, day.Add(-time.Hour), day.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalViews != 3 || st.UniqueVisitors != 2 || st.BotVisits != 1 {
		t.Fatalf("totals = %d views / %d visitors / %d bots", st.TotalViews, st.UniqueVisitors, st.BotVisits)
	}
	if len(st.TopPages) != 2 || st.TopPages[0].Path != "/blog/" || st.TopPages[0].Views != 2 {
		t.Errorf("TopPages = %+v", st.TopPages)
	}
	if len(st.DailyViews) != 2 || st.DailyViews[0].Date != "2024-05-10" || st.DailyViews[0].Views != 2 {
		t.Errorf("DailyViews = %+v", st.DailyViews)
	}
	if len(st.TopBots) != 1 || st.TopBots[0].Name != "Googlebot" {
		t.Errorf("TopBots = %+v", st.TopBots)
	}
	if len(st.Referrers) != 2 || st.Referrers[0].Name != "Direct" {
		t.Errorf("Referrers = %+v", st.Referrers)
	}
}

func TestStoreStatsEmpty(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	st, err := s.Stats(context.Background(), now.Add(-time.Hour), now)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalViews != 0 || st.TopPages == nil || st.DailyViews == nil {
		t.Errorf("empty stats = %+v", st)
	}
}

func TestDeleteBefore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	old := time.Now().AddDate(-2, 0, 0)
	if err := s.SaveVisit(ctx, Visit{VisitorID: "a", Browser: "x", OS: "x", Device: "x", Path: "/", Timestamp: old}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveBotVisit(ctx, BotVisit{BotName: "b", Path: "/", Timestamp: old}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveVisit(ctx, Visit{VisitorID: "a", Browser: "x", OS: "x", Device: "x", Path: "/", Timestamp: time.Now()}); err != nil {
		t.Fatal(err)
	}
	n, err := s.DeleteBefore(ctx, time.Now().AddDate(-1, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("deleted %d rows, want 2", n)
	}
}

func TestRecorderMiddleware(t *testing.T) {
	s := newTestStore(t)
	rec, err := NewRecorder(context.Background(), s, zaptest.NewLogger(t), RecorderConfig{
		OwnHost: "example.com",
		Skipper: func(c echo.Context) bool { return strings.HasPrefix(c.Request().URL.Path, "/admin") },
	})
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	e := echo.New()
	e.Use(rec.Middleware())
	e.GET("/*", func(c echo.Context) error {
		if c.Request().URL.Path == "/missing/" {
			return echo.ErrNotFound
		}
		return c.String(http.StatusOK, "ok")
	})
	e.POST("/form/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	do := func(method, path, ua string) {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("User-Agent", ua)
		e.ServeHTTP(httptest.NewRecorder(), req)
	}
	do(http.MethodGet, "/", chromeMac)
	do(http.MethodGet, "/blog/", safariIPhone)
	do(http.MethodGet, "/", googlebot)
	do(http.MethodGet, "/admin/", chromeMac)
	do(http.MethodGet, "/missing/", chromeMac)
	do(http.MethodPost, "/form/", chromeMac)

	rec.Close()

	now := time.Now()
	st, err := s.Stats(context.Background(), now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalViews != 2 {
		t.Errorf("TotalViews = %d, want 2", st.TotalViews)
	}
	if st.BotVisits != 1 {
		t.Errorf("BotVisits = %d, want 1", st.BotVisits)
	}
	if rec.Dropped() != 0 {
		t.Errorf("Dropped = %d", rec.Dropped())
	}
}
