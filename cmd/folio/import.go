package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gloanda/folio"
	"github.com/gloanda/folio/content"
)

var importCmd = &cobra.Command{
	Use:   "import <file.md>...",
	Short: "Import markdown posts into the blog database",
	Long: `import reads markdown files with YAML front matter (title, slug, date,
tags, summary, draft) and upserts them into the blog database. Posts whose
slug already exists are replaced.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		store, err := folio.NewStore(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		for _, path := range args {
			post, err := importFile(cmd, store, path)
			if err != nil {
				return err
			}
			logger.Info("post imported",
				zap.String("file", path),
				zap.String("slug", post.Slug),
				zap.Bool("published", post.Published),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s -> /blog/%s/\n", path, post.Slug)
		}
		return nil
	},
}

func importFile(cmd *cobra.Command, store *folio.Store, path string) (content.BlogPost, error) {
	f, err := os.Open(path)
	if err != nil {
		return content.BlogPost{}, err
	}
	defer f.Close()

	post, err := content.ParseMarkdownPost(filepath.Base(path), f)
	if err != nil {
		return content.BlogPost{}, err
	}
	if err := store.SavePost(cmd.Context(), post); err != nil {
		return content.BlogPost{}, fmt.Errorf("%s: save: %w", path, err)
	}
	return post, nil
}
