package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/gloanda/folio/consts"
	"github.com/gloanda/folio/content"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestNavRendersLinksInOrder(t *testing.T) {
	got := renderString(t, Nav("/projects/"))
	last := -1
	for _, l := range consts.Links() {
		i := strings.Index(got, `href="`+l.Href+`"`)
		if i < 0 {
			t.Fatalf("nav missing %q: %s", l.Href, got)
		}
		if i < last {
			t.Errorf("link %q rendered out of order", l.Text)
		}
		last = i
	}
	if !strings.Contains(got, `href="/projects" class="active" aria-current="page">Projects`) {
		t.Errorf("projects link should be active: %s", got)
	}
	if strings.Count(got, `aria-current="page"`) != 1 {
		t.Errorf("exactly one link should be active: %s", got)
	}
}

func TestNavHomeActiveOnlyAtRoot(t *testing.T) {
	if got := renderString(t, Nav("/")); !strings.Contains(got, `href="/" class="active"`) {
		t.Errorf("home should be active at /: %s", got)
	}
	if got := renderString(t, Nav("/blog/post/")); strings.Contains(got, `href="/" class="active"`) {
		t.Errorf("home should not be active below /blog: %s", got)
	}
}

func TestFooterRendersSocials(t *testing.T) {
	got := renderString(t, Footer())
	for _, s := range consts.Socials() {
		if !strings.Contains(got, `href="`+s.Href+`"`) {
			t.Errorf("footer missing %s href", s.Name)
		}
		if !strings.Contains(got, `icon-`+string(s.Icon)) {
			t.Errorf("footer missing %s icon", s.Icon)
		}
	}
	if !strings.Contains(got, consts.Global().Author) {
		t.Error("footer missing author")
	}
	if strings.Contains(got, `href="mailto:gloanda.dev@gmail.com" aria-label="Email" title="Email" target="_blank"`) {
		t.Error("mailto link should not open a new tab")
	}
}

func TestLayoutHead(t *testing.T) {
	got := renderString(t, Collection("https://example.com", "experiences", consts.Experiences(), nil))
	site := consts.Global()
	for _, want := range []string{
		"<title>Experiences | " + site.Title + "</title>",
		`<meta name="description" content="` + consts.Experiences().Description + `">`,
		`<meta name="author" content="` + site.Author + `">`,
		`<link rel="canonical" href="https://example.com/experiences/">`,
		"Nothing here yet.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestHomeUsesSiteIdentity(t *testing.T) {
	got := renderString(t, Home("https://example.com", nil, nil))
	site := consts.Global()
	if !strings.Contains(got, "<title>"+site.Title+"</title>") {
		t.Error("home title should be the site title alone")
	}
	if !strings.Contains(got, site.Description) {
		t.Error("home should show the site description")
	}
	if !strings.Contains(got, `"@type":"WebSite"`) {
		t.Error("home should carry WebSite JSON-LD")
	}
}

func TestPostEscapesAndRendersMarkdown(t *testing.T) {
	post := content.BlogPost{
		Slug:    "x",
		Title:   "<b>Bold</b> claims",
		Date:    "2024-03-05",
		Tags:    []string{"go"},
		Content: "## Section\n\nText.",
	}
	got := renderString(t, Post("https://example.com", post, []content.BlogPost{post, {Slug: "y", Title: "Other", Tags: []string{"go"}}}))
	if strings.Contains(got, "<b>Bold</b>") {
		t.Error("title should be escaped")
	}
	if !strings.Contains(got, `<h2 id="section">Section</h2>`) {
		t.Error("content should be rendered as markdown")
	}
	if !strings.Contains(got, "Mar 5, 2024") {
		t.Error("date should be formatted")
	}
	if !strings.Contains(got, "Related posts") || !strings.Contains(got, `href="/blog/y/"`) {
		t.Error("related posts missing")
	}
	if !strings.Contains(got, `<meta property="og:type" content="article">`) {
		t.Error("post should be an article")
	}
}

func TestBlogListActiveTag(t *testing.T) {
	got := renderString(t, BlogList(nil, "Go", []string{"go", "web"}))
	if !strings.Contains(got, `href="/blog/?tag=go" hx-get="/blog/?tag=go&amp;partial=list" hx-push-url="/blog/?tag=go" class="tag tag-active"`) {
		t.Errorf("go tag should be active: %s", got)
	}
	if !strings.Contains(got, "No posts found.") {
		t.Error("empty state missing")
	}
}

func TestSearchResults(t *testing.T) {
	posts := []content.BlogPost{{Slug: "a", Title: "Alpha", Date: "2024-01-01"}}
	got := renderString(t, Search("https://example.com", `"quoted"`, posts, nil))
	if !strings.Contains(got, "1 result for “&#34;quoted&#34;”") && !strings.Contains(got, "1 result for “&quot;quoted&quot;”") {
		t.Errorf("result count missing or query unescaped: %s", got)
	}
	if !strings.Contains(got, `<meta name="robots" content="noindex, nofollow">`) {
		t.Error("search results should not be indexed")
	}
}

func TestDateHelpers(t *testing.T) {
	tests := []struct {
		entry content.Entry
		want  string
	}{
		{content.Entry{Start: "2023-07"}, "Jul 2023 – Present"},
		{content.Entry{Start: "2021-03", End: "2023-06"}, "Mar 2021 – Jun 2023"},
		{content.Entry{Start: "2022-11-02", End: "2022-11-02"}, "Nov 2, 2022"},
		{content.Entry{}, ""},
	}
	for _, tt := range tests {
		if got := DateRange(tt.entry); got != tt.want {
			t.Errorf("DateRange(%+v) = %q, want %q", tt.entry, got, tt.want)
		}
	}
	if got := FormatDate("soon"); got != "soon" {
		t.Errorf("FormatDate(soon) = %q", got)
	}
}

func TestAdminFormEscapesContent(t *testing.T) {
	got := renderString(t, AdminFormPartial(content.BlogPost{Content: "</textarea><script>", Published: true}, "tok"))
	if strings.Contains(got, "</textarea><script>") {
		t.Error("content should be escaped inside textarea")
	}
	if !strings.Contains(got, `name="_csrf" value="tok"`) {
		t.Error("csrf token missing")
	}
	if !strings.Contains(got, "checked") {
		t.Error("published checkbox should be checked")
	}
}

func TestAdminDashboardWorksWithoutScript(t *testing.T) {
	posts := []content.BlogPost{{Slug: "hello", Title: "Hello", Date: "2024-03-05", Published: true}}
	got := renderString(t, AdminDashboard(posts, "", "tok"))
	for _, want := range []string{
		`<a href="/admin/post/hello/" hx-get="/admin/post/hello/"`,
		`<form method="post" action="/admin/post/hello/delete/" hx-delete="/admin/post/hello/"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q", want)
		}
	}
	if strings.Count(got, `name="_csrf" value="tok"`) < 3 {
		t.Error("logout, delete and editor forms should each carry the csrf token")
	}

	got = renderString(t, AdminEdit(posts, content.BlogPost{Slug: "hello", Title: "Hello"}, "tok"))
	if !strings.Contains(got, `<input name="slug" value="hello">`) {
		t.Error("edit page should load the post into the editor")
	}
	if !strings.Contains(got, "<title>Dashboard | ") {
		t.Error("edit page should be a full document")
	}
}

func TestAdminImagesDeleteFallsBackToForm(t *testing.T) {
	images := []content.Image{{Filename: "my-photo.jpg", OriginalName: "my-photo.png", Width: 800, Height: 200}}
	got := renderString(t, AdminImages(images, "tok"))
	if !strings.Contains(got, `action="/admin/images/my-photo.jpg/delete/"`) {
		t.Error("image delete form missing")
	}
	if !strings.Contains(got, `width="800" height="200"`) {
		t.Error("image dimensions missing")
	}
}
