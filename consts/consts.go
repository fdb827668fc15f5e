// Package consts declares the site's fixed content: identity, per-page
// metadata, the navigation menu and the social links shown in the footer.
//
// Values are read through accessor functions. Slice accessors return a copy,
// so the declared order is what every caller sees and nothing can mutate it.
package consts

import "strings"

// Site is the global identity shown across every page.
type Site struct {
	Title       string
	Description string
	Author      string
}

// Page is the title/description pair for one route.
type Page struct {
	Title       string
	Description string
}

// Link is one entry of the navigation menu.
type Link struct {
	Text string
	Href string
}

// Social is a contact or profile link rendered with an icon.
type Social struct {
	Name string
	Icon Icon
	Text string
	Href string
}

var site = Site{
	Title:       "Gloanda",
	Description: "Welcome to my portfolio and blog website.",
	Author:      "Loanda Gunawan",
}

var (
	experiences = Page{
		Title:       "Experiences",
		Description: "My past experiences in the field.",
	}
	blog = Page{
		Title:       "Blog",
		Description: "Writing on topics I am passionate about.",
	}
	projects = Page{
		Title:       "Projects",
		Description: "Recent projects I have worked on.",
	}
	certificates = Page{
		Title:       "Certificates",
		Description: "Collection of my certifications.",
	}
	search = Page{
		Title:       "Search",
		Description: "Search posts and projects.",
	}
)

var links = []Link{
	{Text: "Home", Href: "/"},
	{Text: "Experiences", Href: "/experiences"},
	{Text: "Blog", Href: "/blog"},
	{Text: "Projects", Href: "/projects"},
	{Text: "Certificates", Href: "/certificates"},
}

var socials = []Social{
	{
		Name: "Email",
		Icon: IconEmail,
		Text: "gloanda.dev@gmail.com",
		Href: "mailto:gloanda.dev@gmail.com",
	},
	{
		Name: "Github",
		Icon: IconGithub,
		Text: "gloanda",
		Href: "https://github.com/gloanda",
	},
	{
		Name: "LinkedIn",
		Icon: IconLinkedIn,
		Text: "Loanda Gunawan",
		Href: "https://www.linkedin.com/in/loanda-gunawan-859a481b7",
	},
}

// Global returns the site identity.
func Global() Site { return site }

// Experiences returns the metadata of the experiences page.
func Experiences() Page { return experiences }

// Blog returns the metadata of the blog index.
func Blog() Page { return blog }

// Projects returns the metadata of the projects page.
func Projects() Page { return projects }

// Certificates returns the metadata of the certificates page.
func Certificates() Page { return certificates }

// Search returns the metadata of the search page.
func Search() Page { return search }

// Pages returns every page record keyed by its route.
func Pages() map[string]Page {
	return map[string]Page{
		"/experiences":  experiences,
		"/blog":         blog,
		"/projects":     projects,
		"/certificates": certificates,
		"/search":       search,
	}
}

// Links returns the navigation menu in display order.
func Links() []Link {
	out := make([]Link, len(links))
	copy(out, links)
	return out
}

// Socials returns the social links in display order.
func Socials() []Social {
	out := make([]Social, len(socials))
	copy(out, socials)
	return out
}

// LinkFor returns the navigation link that owns path. A link owns its own
// path and everything below it, so /blog/some-post/ maps to the Blog link.
// The root link only owns "/".
func LinkFor(path string) (Link, bool) {
	p := trimSlash(path)
	var best Link
	found := false
	for _, l := range links {
		h := trimSlash(l.Href)
		if h == "/" {
			if p == "/" && !found {
				best, found = l, true
			}
			continue
		}
		if p == h || strings.HasPrefix(p, h+"/") {
			if !found || len(h) > len(trimSlash(best.Href)) {
				best, found = l, true
			}
		}
	}
	return best, found
}

func trimSlash(p string) string {
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}
