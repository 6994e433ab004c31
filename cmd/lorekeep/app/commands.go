package app

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lorekeep/lorekeep/internal/cmd/output"
	"github.com/lorekeep/lorekeep/pkg/changeset"
	"github.com/lorekeep/lorekeep/pkg/constants"
	"github.com/lorekeep/lorekeep/pkg/errors"
	"github.com/lorekeep/lorekeep/pkg/validator"
)

// NewExtractCommand creates the extract command.
func (a *App) NewExtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [story-file]",
		Short: "Extract the facts a story establishes",
		Long: `Extract converts a story into the fact graph it establishes: the
entities it mentions and the events it places on the timeline. The
story is read from the given file, or from stdin when no file (or "-")
is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := readStory(cmd, args)
			if err != nil {
				return err
			}

			engine, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}

			result, err := engine.Extract(cmd.Context(), story)
			if err != nil {
				return err
			}

			return a.render(cmd, map[string]any{
				"graph":    result.Graph,
				"attempts": result.Attempts,
				"usage":    result.Usage,
			})
		},
	}
}

// NewPlanCommand creates the plan command.
func (a *App) NewPlanCommand() *cobra.Command {
	var repoRoot string

	cmd := &cobra.Command{
		Use:   "plan [story-file]",
		Short: "Reconcile a story's entities against the canon",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := readStory(cmd, args)
			if err != nil {
				return err
			}

			engine, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}

			current, err := engine.LoadCanon(repoRoot)
			if err != nil {
				return err
			}

			extracted, err := engine.Extract(cmd.Context(), story)
			if err != nil {
				return err
			}

			plan, err := engine.Plan(cmd.Context(), current.EntityGraph(), extracted.Graph.EntityGraph())
			if err != nil {
				return err
			}

			return a.render(cmd, plan)
		},
	}

	cmd.Flags().StringVarP(&repoRoot, "repo", "r", ".", "universe repository root")
	return cmd
}

// NewValidateCommand creates the validate command.
func (a *App) NewValidateCommand() *cobra.Command {
	var (
		repoRoot string
		strict   bool
	)

	cmd := &cobra.Command{
		Use:   "validate [story-file]",
		Short: "Check a story for consistency issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := readStory(cmd, args)
			if err != nil {
				return err
			}

			engine, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}

			current, err := engine.LoadCanon(repoRoot)
			if err != nil {
				return err
			}

			extracted, err := engine.Extract(cmd.Context(), story)
			if err != nil {
				return err
			}

			issues := engine.Validate(cmd.Context(), current, extracted.Graph)
			if err := a.render(cmd, map[string]any{"issues": issues}); err != nil {
				return err
			}

			if strict && validator.HasErrors(issues) {
				return errors.New("story has error-level consistency issues")
			}
			return nil
		},
		Args: cobra.MaximumNArgs(1),
	}

	cmd.Flags().StringVarP(&repoRoot, "repo", "r", ".", "universe repository root")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero on error-level issues")
	return cmd
}

// NewProcessCommand creates the process command.
func (a *App) NewProcessCommand() *cobra.Command {
	var (
		repoRoot string
		write    bool
	)

	cmd := &cobra.Command{
		Use:   "process [story-file]",
		Short: "Run the full pipeline for a story",
		Long: `Process runs the full pipeline: load the canon, extract the story's
facts, validate them, and build the changeset that absorbs them.

The engine never writes; with --write the CLI applies the proposed
changeset to the repository after the report is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := readStory(cmd, args)
			if err != nil {
				return err
			}

			engine, err := a.Engine(cmd.Context())
			if err != nil {
				return err
			}

			report, err := engine.ProcessStory(cmd.Context(), story, repoRoot)
			if err != nil {
				return err
			}

			if err := a.render(cmd, report); err != nil {
				return err
			}

			if write && !report.Proposed.IsEmpty() {
				if err := applyChangeset(repoRoot, report.Proposed); err != nil {
					return err
				}
				a.logger.Info().
					Int("files", len(report.Proposed.Files)).
					Str("repo", repoRoot).
					Msg("changeset applied")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&repoRoot, "repo", "r", ".", "universe repository root")
	cmd.Flags().BoolVar(&write, "write", false, "apply the proposed changeset to the repository")
	return cmd
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("lorekeep %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit: %s\n", a.commit)
				cmd.Printf("  built:  %s\n", a.date)
			}
		},
	}
}

// render encodes v in the configured output format.
func (a *App) render(cmd *cobra.Command, v any) error {
	format, err := output.ParseFormat(a.config.Format)
	if err != nil {
		return err
	}
	return output.Render(cmd.OutOrStdout(), format, v)
}

// readStory reads the story text from the file argument, or from stdin
// when no file (or "-") is given.
func readStory(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", errors.WrapIO("read", args[0], err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", errors.WrapIO("read", "stdin", err)
	}
	return string(data), nil
}

// applyChangeset writes a proposed changeset to disk. This is the
// external collaborator role: only the CLI ever touches the repository.
func applyChangeset(repoRoot string, cs *changeset.Changeset) error {
	for _, file := range cs.Files {
		path := filepath.Join(repoRoot, filepath.FromSlash(file.Path))
		if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
			return errors.WrapIO("mkdir", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(file.New), constants.FilePermissions); err != nil {
			return errors.WrapIO("write", path, err)
		}
	}
	return nil
}
