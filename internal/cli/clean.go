package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kmartell/ddltools/internal/cleaner"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Comment out server-specific statements in exported schema files",
	Long: `Rewrite every .sql file directly inside the target folder, commenting
out lines that start with CREATE ROLE or ALTER DATABASE. Those statements
reference source-server settings and must not replay against a new target.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().String("dir", "./ddl-output", "folder with .sql files to clean")
}

func runClean(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")

	changed, err := cleaner.Clean(dir)
	if err != nil {
		return err
	}

	color.Green("Cleaned %d file(s) in %s", changed, dir)
	return nil
}
