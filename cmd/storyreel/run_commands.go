package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/queue"
	"storyreel/internal/script"
	"storyreel/internal/workflow"
)

func newNewCommand(ctx *commandContext) *cobra.Command {
	var title string
	var scenes int

	cmd := &cobra.Command{
		Use:   "new <story-file|->",
		Short: "Register a story and break it into scenes for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storyPath, cleanup, err := resolveStoryArg(cmd, args[0], title)
			if err != nil {
				return err
			}
			defer cleanup()
			return ctx.withProducer(func(cfg *config.Config, store *queue.Store, producer *workflow.Producer) error {
				run, err := producer.CreateRun(cmd.Context(), storyPath, title, scenes)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created run #%d (%s)\n", run.ID, run.Title)

				scripted, err := producer.GenerateScript(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if err := printSceneSummary(out, scripted); err != nil {
					return err
				}
				fmt.Fprintf(out, "Script written to %s (%s)\n", scripted.ScriptPath, scripted.ScriptSource)
				fmt.Fprintf(out, "Review the scenes, then produce the video with `storyreel produce %d`\n", scripted.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Display title (defaults to the story filename)")
	cmd.Flags().IntVarP(&scenes, "scenes", "n", 0, "Number of scenes (defaults to script.scene_count)")
	return cmd
}

func newScriptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "script <run-id>",
		Short: "Regenerate the scene script for an unapproved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			return ctx.withProducer(func(cfg *config.Config, store *queue.Store, producer *workflow.Producer) error {
				run, err := producer.GenerateScript(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if err := printSceneSummary(out, run); err != nil {
					return err
				}
				fmt.Fprintf(out, "Script written to %s (%s)\n", run.ScriptPath, run.ScriptSource)
				fmt.Fprintf(out, "Review the scenes, then start media generation with `storyreel produce %d`\n", run.ID)
				return nil
			})
		},
	}
}

func newProduceCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "produce <run-id>",
		Short: "Generate media and assemble the video for a scripted run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			return ctx.withProducer(func(cfg *config.Config, store *queue.Store, producer *workflow.Producer) error {
				run, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %d not found", id)
				}
				out := cmd.OutOrStdout()
				if run.ScriptPath != "" {
					if err := printSceneSummary(out, run); err != nil {
						return err
					}
				}
				if !yes {
					ok, err := confirm(cmd, fmt.Sprintf("Produce video for run #%d (%s)?", run.ID, run.Title))
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(out, "Aborted")
						return nil
					}
				}
				final, err := producer.GenerateMedia(cmd.Context(), id)
				if err != nil {
					return err
				}
				printProductionResult(out, final)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var title string
	var scenes int
	var yes bool

	cmd := &cobra.Command{
		Use:   "run <story-file|->",
		Short: "Produce a video from a story in one invocation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storyPath, cleanup, err := resolveStoryArg(cmd, args[0], title)
			if err != nil {
				return err
			}
			defer cleanup()
			return ctx.withProducer(func(cfg *config.Config, store *queue.Store, producer *workflow.Producer) error {
				out := cmd.OutOrStdout()
				created, err := producer.CreateRun(cmd.Context(), storyPath, title, scenes)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Created run #%d (%s)\n", created.ID, created.Title)

				scripted, err := producer.GenerateScript(cmd.Context(), created.ID)
				if err != nil {
					return err
				}
				if err := printSceneSummary(out, scripted); err != nil {
					return err
				}
				if !yes {
					ok, err := confirm(cmd, "Continue with media generation?")
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintf(out, "Stopping after the script. Resume with `storyreel produce %d`\n", scripted.ID)
						return nil
					}
				}

				final, err := producer.GenerateMedia(cmd.Context(), created.ID)
				if err != nil {
					return err
				}
				printProductionResult(out, final)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Display title (defaults to the story filename)")
	cmd.Flags().IntVarP(&scenes, "scenes", "n", 0, "Number of scenes (defaults to script.scene_count)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func printSceneSummary(out io.Writer, run *queue.Run) error {
	src, err := script.ReadFile(run.ScriptPath)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(src.Scenes))
	for _, scene := range src.Scenes {
		rows = append(rows, []string{
			fmt.Sprintf("%d", scene.Index),
			scene.Tone,
			truncate(scene.Narration, 60),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Scene", "Tone", "Narration"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	))
	return nil
}

func printProductionResult(out io.Writer, run *queue.Run) {
	fmt.Fprintf(out, "Video written to %s\n", run.VideoPath)
	if stages := run.FallbackList(); len(stages) > 0 {
		fmt.Fprintf(out, "Local fallback used for: %s\n", strings.Join(stages, ", "))
	}
}

// resolveStoryArg turns a story argument into a readable file path. "-" reads
// the story from stdin into a temp file; the caller must supply a title since
// no filename exists to derive one from.
func resolveStoryArg(cmd *cobra.Command, arg, title string) (string, func(), error) {
	if arg != "-" {
		return arg, func() {}, nil
	}
	if strings.TrimSpace(title) == "" {
		return "", nil, errors.New("--title is required when reading the story from stdin")
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", nil, fmt.Errorf("read story from stdin: %w", err)
	}
	file, err := os.CreateTemp("", "storyreel-story-*.txt")
	if err != nil {
		return "", nil, fmt.Errorf("stage stdin story: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", nil, fmt.Errorf("stage stdin story: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", nil, fmt.Errorf("stage stdin story: %w", err)
	}
	return file.Name(), func() { os.Remove(file.Name()) }, nil
}

func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !isatty.IsTerminal(in.Fd()) {
		return false, errors.New("stdin is not a terminal; pass --yes to continue")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func parseRunID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id %q", arg)
	}
	return id, nil
}
