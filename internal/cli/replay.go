package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kmartell/ddltools/internal/models"
	"github.com/kmartell/ddltools/internal/replayer"
	"github.com/kmartell/ddltools/internal/report"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Execute schema files against a target server",
	Long: `Run every .sql file in a folder, in name order, against one target
server and database using the sqlcmd utility. Each file's outcome is judged
by sqlcmd's exit code alone; the run never stops on a single failure.`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().String("dir", "", "folder with .sql files to execute")
	replayCmd.Flags().String("server", "", "target server instance")
	replayCmd.Flags().String("database", "", "target database name")
	replayCmd.MarkFlagRequired("dir")
	replayCmd.MarkFlagRequired("server")
	replayCmd.MarkFlagRequired("database")
}

func runReplay(cmd *cobra.Command, args []string) error {
	if err := replayer.ClientAvailable(); err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("dir")
	server, _ := cmd.Flags().GetString("server")
	database, _ := cmd.Flags().GetString("database")

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("source directory %s does not exist", dir)
	}

	rep := report.NewRunReport("ddl-replay", time.Now())
	r := replayer.New(server, database, connectionFromFlags())
	if err := r.Run(cmd.Context(), dir, rep); err != nil {
		return err
	}

	logPath, htmlPath, err := rep.Flush(".")
	if err != nil {
		return err
	}

	counts := rep.Counts()
	color.Cyan("Replay complete: %d succeeded, %d failed, %d skipped",
		counts[models.StatusSuccess], counts[models.StatusFailure], counts[models.StatusSkip])
	fmt.Println("Log:", logPath)
	fmt.Println("Report:", htmlPath)
	return nil
}
