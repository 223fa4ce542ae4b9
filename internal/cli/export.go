package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kmartell/ddltools/internal/config"
	"github.com/kmartell/ddltools/internal/exporter"
	"github.com/kmartell/ddltools/internal/models"
	"github.com/kmartell/ddltools/internal/report"
	"github.com/kmartell/ddltools/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export schema DDL from SQL Server instances",
	Long: `Connect to each server, enumerate its user databases, and write one
full schema script per database. A text log and an HTML summary report are
written next to the schema files.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringSlice("instances", nil, "server instance names (mutually exclusive with --input-file)")
	exportCmd.Flags().String("input-file", "", "CSV file with a ServerName column")
	exportCmd.Flags().String("output-dir", "./ddl-output", "directory for schema files and reports")
	exportCmd.Flags().Bool("pick-kinds", false, "interactively choose which object kinds to script")
}

func runExport(cmd *cobra.Command, args []string) error {
	servers, err := config.ResolveServers(viper.GetStringSlice("instances"), viper.GetString("input-file"))
	if err != nil {
		return err
	}

	outputDir := viper.GetString("output-dir")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	kinds := models.AllKinds()
	if viper.GetBool("pick-kinds") {
		kinds, err = ui.PickKinds(kinds)
		if err != nil {
			return fmt.Errorf("selecting object kinds: %w", err)
		}
		if len(kinds) == 0 {
			return errors.New("no object kinds selected")
		}
	}

	rep := report.NewRunReport("ddl-export", time.Now())
	exp := exporter.New(connectionFromFlags(), outputDir, kinds)
	exp.Run(cmd.Context(), servers, rep)

	logPath, htmlPath, err := rep.Flush(outputDir)
	if err != nil {
		return err
	}

	counts := rep.Counts()
	color.Cyan("Run complete: %d succeeded, %d failed, %d skipped",
		counts[models.StatusSuccess], counts[models.StatusFailure], counts[models.StatusSkip])
	fmt.Println("Log:", logPath)
	fmt.Println("Report:", htmlPath)
	return nil
}
