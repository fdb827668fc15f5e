// Package content holds the types rendered by the site (blog posts,
// collection entries, uploaded images) and the loaders that produce them.
package content

// BlogPost is the core content type stored in SQLite and rendered by views.
type BlogPost struct {
	Title     string
	Date      string // YYYY-MM-DD
	Tags      []string
	Summary   string
	Link      string
	Slug      string
	Content   string
	Published bool
}

// Entry is one item of the experiences, projects or certificates collection.
type Entry struct {
	Slug     string   `yaml:"slug"`
	Title    string   `yaml:"title"`
	Subtitle string   `yaml:"subtitle"` // company, issuer or stack
	Summary  string   `yaml:"summary"`
	Start    string   `yaml:"start"` // YYYY-MM or YYYY-MM-DD
	End      string   `yaml:"end"`   // empty means ongoing
	Tags     []string `yaml:"tags"`
	URL      string   `yaml:"url"`
	Repo     string   `yaml:"repo"`
}

// Collections groups the entries backing the non-blog pages.
type Collections struct {
	Experiences  []Entry `yaml:"experiences"`
	Projects     []Entry `yaml:"projects"`
	Certificates []Entry `yaml:"certificates"`
}

// Image is the metadata of an uploaded, re-encoded image.
type Image struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}
