package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/gloanda/folio/analytics"
	"github.com/gloanda/folio/consts"
	"github.com/gloanda/folio/content"
)

// BuildURL joins path segments onto a base URL, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// PathEscape wraps url.PathEscape for building links to slugs and files.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

func sameTag(a, b string) bool {
	return content.NormalizeTag(a) == content.NormalizeTag(b)
}

// TagClass returns CSS classes for a tag pill, with active variant.
func TagClass(active bool) string {
	if active {
		return "tag tag-active"
	}
	return "tag"
}

// JoinTags formats a tag slice as a comma-separated string for form fields.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// FormatDate renders YYYY-MM-DD as "Jan 2, 2006" and YYYY-MM as "Jan 2006".
// Anything else is returned unchanged.
func FormatDate(s string) string {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("Jan 2, 2006")
	}
	if t, err := time.Parse("2006-01", s); err == nil {
		return t.Format("Jan 2006")
	}
	return s
}

// DateRange renders an entry's period; an empty end means ongoing.
func DateRange(e content.Entry) string {
	switch {
	case e.Start == "" && e.End == "":
		return ""
	case e.Start == "":
		return FormatDate(e.End)
	case e.End == "":
		return FormatDate(e.Start) + " – Present"
	case e.Start == e.End:
		return FormatDate(e.Start)
	}
	return FormatDate(e.Start) + " – " + FormatDate(e.End)
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block for the site.
func WebsiteJsonLD(siteURL string) string {
	s := consts.Global()
	author := map[string]interface{}{
		"@type": "Person",
		"name":  s.Author,
	}
	var sameAs []string
	for _, so := range consts.Socials() {
		if so.Icon != consts.IconEmail {
			sameAs = append(sameAs, so.Href)
		}
	}
	if len(sameAs) > 0 {
		author["sameAs"] = sameAs
	}
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        s.Title,
		"url":         BuildURL(siteURL),
		"description": s.Description,
		"author":      author,
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(siteURL string, post content.BlogPost) string {
	s := consts.Global()
	postURL := BuildURL(siteURL, "blog", post.Slug)
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Summary,
		"datePublished": post.Date,
		"url":           postURL,
		"author": map[string]string{
			"@type": "Person",
			"name":  s.Author,
		},
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  s.Title,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// jsonLDScript embeds a JSON-LD block. json.Marshal escapes <, > and &, so
// the data cannot close the script element early.
func jsonLDScript(data string) templ.Component {
	return templ.Raw(`<script type="application/ld+json">` + data + `</script>`)
}

func isExternal(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}

func isActive(path string, l consts.Link) bool {
	active, ok := consts.LinkFor(path)
	return ok && active.Href == l.Href
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func relatedPosts(post content.BlogPost, posts []content.BlogPost) []content.BlogPost {
	related := content.FilterRelatedPosts(post, posts)
	if len(related) > 3 {
		related = related[:3]
	}
	return related
}

func resultLabel(n int) string {
	if n == 1 {
		return "1 result for"
	}
	return strconv.Itoa(n) + " results for"
}

func postAdminPath(slug string) string {
	return "/admin/post/" + PathEscape(slug) + "/"
}

func imageAdminPath(filename string) string {
	return "/admin/images/" + PathEscape(filename) + "/"
}

func uploadSrc(img content.Image) string {
	return "/public/uploads/" + PathEscape(img.Filename)
}

func imageMarkdown(img content.Image) string {
	return "![" + img.OriginalName + "](" + uploadSrc(img) + ")"
}

// csrfHeader is the hx-headers value carrying the CSRF token on HTMX
// requests that have no form body.
func csrfHeader(token string) string {
	b, _ := json.Marshal(map[string]string{"X-CSRF-Token": token})
	return string(b)
}

var statsWindows = []int{7, 30, 90, 365}

type statTotal struct {
	label string
	n     int
}

func statTotals(s *analytics.Stats) []statTotal {
	return []statTotal{
		{"Views", s.TotalViews},
		{"Visitors", s.UniqueVisitors},
		{"Bot visits", s.BotVisits},
	}
}
