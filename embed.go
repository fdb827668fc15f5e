package folio

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
)

// EmbeddedAssets holds the files shipped inside the binary: the site
// stylesheet and the favicon.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

// serveEmbedded answers with one embedded file. A missing file is a
// programming error and fails at route setup.
func serveEmbedded(name, contentType string) echo.HandlerFunc {
	data, err := fs.ReadFile(EmbeddedAssets, "embedded/"+name)
	if err != nil {
		panic("folio: missing embedded asset " + name)
	}
	return func(c echo.Context) error {
		return c.Blob(http.StatusOK, contentType, data)
	}
}
