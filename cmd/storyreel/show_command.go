package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/illustration"
	"storyreel/internal/narration"
	"storyreel/internal/queue"
	"storyreel/internal/script"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Display the full state of a production run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				run, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %d not found", id)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader(fmt.Sprintf("Run #%d: %s", run.ID, run.Title), colorize) {
					fmt.Fprintln(out, line)
				}
				for _, line := range buildRunDetailLines(run, colorize) {
					fmt.Fprintln(out, line)
				}
				printSceneBreakdown(out, run)
				return nil
			})
		},
	}
}

func buildRunDetailLines(run *queue.Run, colorize bool) []string {
	lines := []string{
		renderStatusLine("Status", statusKindForRun(run), formatStatusLabel(string(run.Status)), colorize),
		renderStatusLine("Scenes", statusInfo, formatSceneCount(run), colorize),
	}

	if run.ScriptPath != "" {
		detail := run.ScriptPath
		if run.ScriptSource != "" {
			detail = fmt.Sprintf("%s (%s)", run.ScriptPath, run.ScriptSource)
		}
		lines = append(lines, renderStatusLine("Script", statusOK, detail, colorize))
	} else {
		lines = append(lines, renderStatusLine("Script", statusInfo, "not generated", colorize))
	}

	if stages := run.FallbackList(); len(stages) > 0 {
		lines = append(lines, renderStatusLine("Fallbacks", statusWarn, strings.Join(stages, ", "), colorize))
	}

	if run.VideoPath != "" {
		lines = append(lines, renderStatusLine("Video", statusOK, run.VideoPath, colorize))
	}

	if run.Status == queue.StatusFailed {
		message := run.ErrorMessage
		if run.ErrorKind != "" {
			message = fmt.Sprintf("%s: %s", run.ErrorKind, run.ErrorMessage)
		}
		lines = append(lines, renderStatusLine("Error", statusError, message, colorize))
	} else if progress := formatProgress(run); progress != "-" {
		lines = append(lines, renderStatusLine("Progress", statusInfo, progress, colorize))
	}

	if run.ApprovedAt != nil {
		lines = append(lines, renderStatusLine("Approved", statusInfo, formatDisplayTime(*run.ApprovedAt), colorize))
	}
	lines = append(lines,
		renderStatusLine("Created", statusInfo, formatDisplayTime(run.CreatedAt), colorize),
		renderStatusLine("Updated", statusInfo, formatDisplayTime(run.UpdatedAt), colorize),
	)
	return lines
}

// printSceneBreakdown lists each scene with its tone and asset locations.
// Assets that have not been generated yet show as "-".
func printSceneBreakdown(out io.Writer, run *queue.Run) {
	if run.ScriptPath == "" {
		return
	}
	src, err := script.ReadFile(run.ScriptPath)
	if err != nil {
		return
	}
	rows := make([][]string, 0, len(src.Scenes))
	for _, scene := range src.Scenes {
		rows = append(rows, []string{
			fmt.Sprintf("%d", scene.Index),
			scene.Tone,
			truncate(scene.Narration, 40),
			assetCell(illustration.ImagePath(run.RunDir, scene.Index)),
			assetCell(narration.VoicePath(run.RunDir, scene.Index)),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Scene", "Tone", "Narration", "Image", "Voice"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	))
}

func assetCell(path string) string {
	if _, err := os.Stat(path); err != nil {
		return "-"
	}
	return filepath.Base(path)
}

func statusKindForRun(run *queue.Run) statusKind {
	switch run.Status {
	case queue.StatusCompleted:
		return statusOK
	case queue.StatusFailed:
		return statusError
	case queue.StatusScriptReady:
		return statusWarn
	default:
		return statusInfo
	}
}
