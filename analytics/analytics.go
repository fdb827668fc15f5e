// Package analytics records cookieless page views server-side and
// aggregates them for the admin dashboard.
//
// IP addresses never reach the database: visitors are identified by a salted
// hash of their address and user agent, and the salt is generated once per
// installation and kept in the analytics database.
package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// Visit is a single human page view.
type Visit struct {
	VisitorID string
	Browser   string
	OS        string
	Device    string
	Path      string
	Referrer  string
	Timestamp time.Time
}

// BotVisit is a single crawler page view.
type BotVisit struct {
	BotName   string
	Path      string
	Timestamp time.Time
}

// Stats aggregates the visits of a period.
type Stats struct {
	From           time.Time
	To             time.Time
	UniqueVisitors int
	TotalViews     int
	BotVisits      int
	TopPages       []PageStat
	Browsers       []DimensionStat
	OSes           []DimensionStat
	Devices        []DimensionStat
	Referrers      []DimensionStat
	TopBots        []DimensionStat
	DailyViews     []DailyView
}

// PageStat is the view count of one path.
type PageStat struct {
	Path  string
	Views int
}

// DimensionStat is the count of one browser, OS, device, referrer or bot.
type DimensionStat struct {
	Name  string
	Count int
}

// DailyView is the view count of one UTC day (YYYY-MM-DD).
type DailyView struct {
	Date  string
	Views int
}

// Hasher derives anonymous visitor identifiers.
type Hasher struct {
	salt string
}

// NewHasher returns a Hasher using salt.
func NewHasher(salt string) Hasher {
	return Hasher{salt: salt}
}

// VisitorID hashes ip and userAgent into a 16-character identifier.
func (h Hasher) VisitorID(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(h.salt + ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])[:16]
}

// ParseUserAgent extracts browser, OS and device class from a User-Agent.
func ParseUserAgent(ua string) (browser, os, device string) {
	ua = strings.ToLower(ua)

	// Edge and Opera also announce Chrome, Chrome also announces Safari.
	switch {
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr/"):
		browser = "Opera"
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	default:
		browser = "Other"
	}

	switch {
	case strings.Contains(ua, "windows"):
		os = "Windows"
	case strings.Contains(ua, "android"):
		os = "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		os = "iOS"
	case strings.Contains(ua, "macintosh") || strings.Contains(ua, "mac os"):
		os = "macOS"
	case strings.Contains(ua, "linux"):
		os = "Linux"
	default:
		os = "Other"
	}

	switch {
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		device = "Tablet"
	case strings.Contains(ua, "mobile"):
		device = "Mobile"
	default:
		device = "Desktop"
	}
	return browser, os, device
}

// Checked in order; the generic patterns come last.
var botPatterns = []struct {
	pattern string
	name    string
}{
	{"googlebot", "Googlebot"},
	{"bingbot", "Bingbot"},
	{"yandex", "Yandex"},
	{"baidu", "Baidu"},
	{"duckduckbot", "DuckDuckBot"},
	{"facebookexternalhit", "Facebook"},
	{"twitterbot", "Twitterbot"},
	{"linkedinbot", "LinkedIn"},
	{"ahrefsbot", "Ahrefs"},
	{"semrushbot", "SEMrush"},
	{"mj12bot", "Majestic"},
	{"dotbot", "Moz"},
	{"slurp", "Yahoo Slurp"},
	{"crawler", "Generic Crawler"},
	{"crawl", "Generic Crawler"},
	{"spider", "Generic Spider"},
	{"scrape", "Scraper"},
	{"bot", "Other Bot"},
}

// BotName returns the crawler name for ua, or "" for a human browser. An
// empty User-Agent is treated as a bot.
func BotName(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return "Unknown"
	}
	ua = strings.ToLower(ua)
	for _, b := range botPatterns {
		if strings.Contains(ua, b.pattern) {
			return b.name
		}
	}
	return ""
}

var referrerDomain = regexp.MustCompile(`^https?://(?:www\.)?([^/:?#]+)`)

var searchEngines = []struct {
	fragment string
	name     string
}{
	{"google.", "Google"},
	{"bing.", "Bing"},
	{"duckduckgo.", "DuckDuckGo"},
	{"yahoo.", "Yahoo"},
	{"github.", "GitHub"},
	{"linkedin.", "LinkedIn"},
}

// CleanReferrer reduces a Referer header to a source name. Links from
// ownHost count as direct traffic.
func CleanReferrer(ref, ownHost string) string {
	if ref == "" {
		return "Direct"
	}
	m := referrerDomain.FindStringSubmatch(strings.ToLower(ref))
	if m == nil {
		return "Other"
	}
	host := m[1]
	if ownHost != "" && strings.TrimPrefix(strings.ToLower(ownHost), "www.") == host {
		return "Direct"
	}
	for _, se := range searchEngines {
		if strings.Contains(host, se.fragment) {
			return se.name
		}
	}
	return host
}
