package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gloanda/folio/consts"
	"github.com/gloanda/folio/content"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the site constants and the collections file",
	Long: `check validates the built-in site identity, page metadata, navigation and
social links, then parses the collections file. Every problem is printed and
the command exits non-zero when there is at least one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		out := cmd.OutOrStdout()
		var problems []error
		if err := consts.Validate(); err != nil {
			problems = append(problems, fmt.Errorf("site constants: %w", err))
		} else {
			fmt.Fprintf(out, "site constants: ok (%d links, %d socials)\n", len(consts.Links()), len(consts.Socials()))
		}

		c, err := content.LoadCollections(cfg.CollectionsPath)
		if err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", cfg.CollectionsPath, err))
		} else {
			fmt.Fprintf(out, "%s: ok (%d experiences, %d projects, %d certificates)\n",
				cfg.CollectionsPath, len(c.Experiences), len(c.Projects), len(c.Certificates))
		}

		if err := cfg.Validate(); err != nil {
			problems = append(problems, fmt.Errorf("config: %w", err))
		}
		return errors.Join(problems...)
	},
}
