package folio

import (
	"encoding/xml"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gloanda/folio/consts"
	"github.com/gloanda/folio/content"
	"github.com/gloanda/folio/views"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// buildSitemap lists every site-relative navigation link followed by every
// published post.
func buildSitemap(base string, posts []content.BlogPost) sitemapURLSet {
	var urls []sitemapURL
	for _, l := range consts.Links() {
		if !strings.HasPrefix(l.Href, "/") {
			continue
		}
		loc := views.BuildURL(base)
		if seg := strings.Trim(l.Href, "/"); seg != "" {
			loc = views.BuildURL(base, seg)
		}
		urls = append(urls, sitemapURL{Loc: loc})
	}
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:     views.BuildURL(base, "blog", p.Slug),
			LastMod: p.Date,
		})
	}
	return sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
}

func (a *App) renderSitemap(c echo.Context, posts []content.BlogPost) error {
	return writeXML(c, "application/xml; charset=utf-8", buildSitemap(a.Config.URL, posts))
}
