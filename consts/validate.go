package consts

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrEmptyField     = errors.New("empty field")
	ErrInvalidHref    = errors.New("invalid href")
	ErrUnknownIcon    = errors.New("unknown icon")
	ErrSchemeMismatch = errors.New("href scheme does not match icon")
)

var linkSchemes = map[string]struct{}{
	"http":   {},
	"https":  {},
	"mailto": {},
}

// Validate reports the first missing field of s.
func (s Site) Validate() error {
	switch {
	case strings.TrimSpace(s.Title) == "":
		return fmt.Errorf("site title: %w", ErrEmptyField)
	case strings.TrimSpace(s.Description) == "":
		return fmt.Errorf("site description: %w", ErrEmptyField)
	case strings.TrimSpace(s.Author) == "":
		return fmt.Errorf("site author: %w", ErrEmptyField)
	}
	return nil
}

// Validate reports a missing title or description.
func (p Page) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("page title: %w", ErrEmptyField)
	}
	if strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("page %q description: %w", p.Title, ErrEmptyField)
	}
	return nil
}

// Validate checks that l has text and an href that is either a site-relative
// path or an absolute URL with a recognised scheme.
func (l Link) Validate() error {
	if strings.TrimSpace(l.Text) == "" {
		return fmt.Errorf("link %q text: %w", l.Href, ErrEmptyField)
	}
	if err := checkHref(l.Href); err != nil {
		return fmt.Errorf("link %q: %w", l.Text, err)
	}
	return nil
}

// Validate checks the icon against the icon set and the href scheme against
// the icon: email links use mailto, everything else https.
func (s Social) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("social %q name: %w", s.Href, ErrEmptyField)
	}
	if strings.TrimSpace(s.Text) == "" {
		return fmt.Errorf("social %q text: %w", s.Name, ErrEmptyField)
	}
	if !s.Icon.Known() {
		return fmt.Errorf("social %q icon %q: %w", s.Name, s.Icon, ErrUnknownIcon)
	}
	if err := checkHref(s.Href); err != nil {
		return fmt.Errorf("social %q: %w", s.Name, err)
	}
	if !strings.HasPrefix(s.Href, s.Icon.Scheme()+":") {
		return fmt.Errorf("social %q: want %s: got %q: %w", s.Name, s.Icon.Scheme(), s.Href, ErrSchemeMismatch)
	}
	return nil
}

func checkHref(href string) error {
	if href == "" {
		return fmt.Errorf("empty: %w", ErrInvalidHref)
	}
	if strings.HasPrefix(href, "/") {
		if strings.HasPrefix(href, "//") {
			return fmt.Errorf("%q is protocol-relative: %w", href, ErrInvalidHref)
		}
		if _, err := url.Parse(href); err != nil {
			return fmt.Errorf("%q: %w", href, ErrInvalidHref)
		}
		return nil
	}
	u, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("%q: %w", href, ErrInvalidHref)
	}
	if _, ok := linkSchemes[strings.ToLower(u.Scheme)]; !ok {
		return fmt.Errorf("%q has no recognised scheme: %w", href, ErrInvalidHref)
	}
	if u.Scheme == "mailto" {
		if u.Opaque == "" || !strings.Contains(u.Opaque, "@") {
			return fmt.Errorf("%q has no address: %w", href, ErrInvalidHref)
		}
		return nil
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host: %w", href, ErrInvalidHref)
	}
	return nil
}

// Validate checks every declared value and joins all problems found.
func Validate() error {
	var errs []error
	if err := site.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, p := range []Page{experiences, blog, projects, certificates, search} {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	seen := make(map[string]struct{}, len(links))
	for _, l := range links {
		if err := l.Validate(); err != nil {
			errs = append(errs, err)
		}
		if _, dup := seen[l.Href]; dup {
			errs = append(errs, fmt.Errorf("link %q: duplicate href %q: %w", l.Text, l.Href, ErrInvalidHref))
		}
		seen[l.Href] = struct{}{}
	}
	for _, s := range socials {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
