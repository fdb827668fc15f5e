package views

import (
	"github.com/gloanda/folio/consts"
	"github.com/gloanda/folio/content"
)

// Meta carries per-page OpenGraph and SEO metadata into the <head>.
type Meta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	JSONLD      string
	NoIndex     bool
}

// HomeMeta describes the landing page, titled with the site name alone.
func HomeMeta(siteURL string) Meta {
	s := consts.Global()
	return Meta{
		Title:       s.Title,
		Description: s.Description,
		URL:         BuildURL(siteURL),
		OGType:      "website",
		JSONLD:      WebsiteJsonLD(siteURL),
	}
}

// PageMeta describes a page backed by one of the consts page records.
func PageMeta(siteURL string, page consts.Page, segments ...string) Meta {
	return Meta{
		Title:       pageTitle(page.Title),
		Description: page.Description,
		URL:         BuildURL(siteURL, segments...),
		OGType:      "website",
	}
}

func pageTitle(title string) string {
	site := consts.Global().Title
	if title == "" || title == site {
		return site
	}
	return title + " | " + site
}

func blogMeta(siteURL, activeTag string) Meta {
	m := PageMeta(siteURL, consts.Blog(), "blog")
	m.NoIndex = activeTag != ""
	return m
}

func postMeta(siteURL string, post content.BlogPost) Meta {
	return Meta{
		Title:       pageTitle(post.Title),
		Description: post.Summary,
		URL:         BuildURL(siteURL, "blog", post.Slug),
		OGType:      "article",
		JSONLD:      BlogPostingJsonLD(siteURL, post),
	}
}

func searchMeta(siteURL, query string) Meta {
	m := PageMeta(siteURL, consts.Search(), "search")
	m.NoIndex = query != ""
	return m
}

func notFoundMeta() Meta {
	return Meta{Title: pageTitle("Not found"), Description: "The page you were looking for does not exist.", NoIndex: true}
}

func serverErrorMeta() Meta {
	return Meta{Title: pageTitle("Error"), Description: "Something went wrong on our side.", NoIndex: true}
}

func adminMeta(title string) Meta {
	return Meta{Title: pageTitle(title), Description: "Site administration.", NoIndex: true}
}
