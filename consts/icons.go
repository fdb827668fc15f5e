package consts

// Icon identifies an entry of the site's icon set.
type Icon string

const (
	IconEmail    Icon = "email"
	IconGithub   Icon = "github"
	IconLinkedIn Icon = "linkedin"
	IconTwitter  Icon = "twitter"
	IconRSS      Icon = "rss"
)

var knownIcons = map[Icon]struct{}{
	IconEmail:    {},
	IconGithub:   {},
	IconLinkedIn: {},
	IconTwitter:  {},
	IconRSS:      {},
}

// Known reports whether i belongs to the icon set.
func (i Icon) Known() bool {
	_, ok := knownIcons[i]
	return ok
}

// Scheme is the URL scheme a social link with this icon must use.
func (i Icon) Scheme() string {
	if i == IconEmail {
		return "mailto"
	}
	return "https"
}
