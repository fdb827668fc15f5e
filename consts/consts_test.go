package consts

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDeclaredValues(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestSiteFieldsNonEmpty(t *testing.T) {
	s := Global()
	if s.Title == "" || s.Description == "" || s.Author == "" {
		t.Fatalf("Global() has empty field: %+v", s)
	}
}

func TestPagesPopulated(t *testing.T) {
	for route, p := range Pages() {
		if p.Title == "" {
			t.Errorf("page %s: empty title", route)
		}
		if p.Description == "" {
			t.Errorf("page %s: empty description", route)
		}
	}
}

func TestLinkHrefs(t *testing.T) {
	for _, l := range Links() {
		if l.Href == "" {
			t.Errorf("link %q: empty href", l.Text)
			continue
		}
		if !strings.HasPrefix(l.Href, "/") && !strings.Contains(l.Href, ":") {
			t.Errorf("link %q: href %q is neither a path nor a URL", l.Text, l.Href)
		}
	}
}

func TestLinksOrderStable(t *testing.T) {
	want := []string{"/", "/experiences", "/blog", "/projects", "/certificates"}
	for round := 0; round < 3; round++ {
		got := Links()
		if len(got) != len(want) {
			t.Fatalf("len(Links()) = %d, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i].Href != want[i] {
				t.Errorf("round %d: Links()[%d].Href = %q, want %q", round, i, got[i].Href, want[i])
			}
		}
	}
}

func TestLinksReturnsCopy(t *testing.T) {
	got := Links()
	got[0].Text = "Changed"
	if Links()[0].Text != "Home" {
		t.Fatal("mutating the returned slice changed the declared links")
	}
	s := Socials()
	s[0].Href = "https://example.com"
	if Socials()[0].Href != "mailto:gloanda.dev@gmail.com" {
		t.Fatal("mutating the returned slice changed the declared socials")
	}
}

func TestSocialHrefMatchesIcon(t *testing.T) {
	for _, s := range Socials() {
		switch {
		case s.Icon == IconEmail && !strings.HasPrefix(s.Href, "mailto:"):
			t.Errorf("social %q: email icon with href %q", s.Name, s.Href)
		case s.Icon != IconEmail && !strings.HasPrefix(s.Href, "https:"):
			t.Errorf("social %q: %s icon with href %q", s.Name, s.Icon, s.Href)
		}
		if !s.Icon.Known() {
			t.Errorf("social %q: unknown icon %q", s.Name, s.Icon)
		}
	}
}

func TestLinkValidate(t *testing.T) {
	tests := []struct {
		name string
		link Link
		err  error
	}{
		{"root", Link{Text: "Home", Href: "/"}, nil},
		{"path", Link{Text: "Blog", Href: "/blog"}, nil},
		{"https", Link{Text: "Ext", Href: "https://example.com/x"}, nil},
		{"mailto", Link{Text: "Mail", Href: "mailto:a@b.c"}, nil},
		{"empty href", Link{Text: "X", Href: ""}, ErrInvalidHref},
		{"empty text", Link{Text: " ", Href: "/"}, ErrEmptyField},
		{"bare word", Link{Text: "X", Href: "blog"}, ErrInvalidHref},
		{"protocol relative", Link{Text: "X", Href: "//evil.com"}, ErrInvalidHref},
		{"javascript", Link{Text: "X", Href: "javascript:alert(1)"}, ErrInvalidHref},
		{"no host", Link{Text: "X", Href: "https://"}, ErrInvalidHref},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.link.Validate()
			if tt.err == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.err) {
				t.Fatalf("Validate() = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestSocialValidate(t *testing.T) {
	tests := []struct {
		name   string
		social Social
		err    error
	}{
		{"email ok", Social{Name: "Email", Icon: IconEmail, Text: "a@b.c", Href: "mailto:a@b.c"}, nil},
		{"github ok", Social{Name: "Github", Icon: IconGithub, Text: "me", Href: "https://github.com/me"}, nil},
		{"unknown icon", Social{Name: "X", Icon: "myspace", Text: "me", Href: "https://myspace.com/me"}, ErrUnknownIcon},
		{"email over https", Social{Name: "Email", Icon: IconEmail, Text: "me", Href: "https://mail.example.com"}, ErrSchemeMismatch},
		{"github over http", Social{Name: "Github", Icon: IconGithub, Text: "me", Href: "http://github.com/me"}, ErrSchemeMismatch},
		{"mailto without address", Social{Name: "Email", Icon: IconEmail, Text: "me", Href: "mailto:"}, ErrInvalidHref},
		{"missing text", Social{Name: "Github", Icon: IconGithub, Href: "https://github.com/me"}, ErrEmptyField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.social.Validate()
			if tt.err == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.err) {
				t.Fatalf("Validate() = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestSiteAndPageValidate(t *testing.T) {
	if err := (Site{Title: "T", Description: "D"}).Validate(); !errors.Is(err, ErrEmptyField) {
		t.Errorf("Site without author: got %v", err)
	}
	if err := (Page{Title: "T"}).Validate(); !errors.Is(err, ErrEmptyField) {
		t.Errorf("Page without description: got %v", err)
	}
}

func TestLinkFor(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/", "Home", true},
		{"", "Home", true},
		{"/blog", "Blog", true},
		{"/blog/", "Blog", true},
		{"/blog/hello-world/", "Blog", true},
		{"/experiences/", "Experiences", true},
		{"/blogroll/", "", false},
		{"/search/", "", false},
	}
	for _, tt := range tests {
		got, ok := LinkFor(tt.path)
		if ok != tt.ok || got.Text != tt.want {
			t.Errorf("LinkFor(%q) = (%q, %v), want (%q, %v)", tt.path, got.Text, ok, tt.want, tt.ok)
		}
	}
}
