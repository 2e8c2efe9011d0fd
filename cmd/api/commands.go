package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/talent-coach/backend/internal/extract"
	"github.com/zhouzirui/talent-coach/backend/internal/model/coaching"
	"github.com/zhouzirui/talent-coach/backend/internal/report"
)

func migrateCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the turn archive schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logCloser, err := loadConfig(*opts)
			if err != nil {
				return err
			}
			defer logCloser.Close()

			if !cfg.Archive.Enabled() {
				return errors.New("ARCHIVE_DRIVER and ARCHIVE_DSN must be set")
			}
			queries, err := openArchive(cmd.Context(), cfg.Archive)
			if err != nil {
				return err
			}
			defer queries.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "archive schema ready (%s)\n", cfg.Archive.Driver)
			return nil
		},
	}
}

func historyCmd(opts *appOptions) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "Print the archived turns of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logCloser, err := loadConfig(*opts)
			if err != nil {
				return err
			}
			defer logCloser.Close()

			if !cfg.Archive.Enabled() {
				return errors.New("ARCHIVE_DRIVER and ARCHIVE_DSN must be set")
			}
			queries, err := openArchive(cmd.Context(), cfg.Archive)
			if err != nil {
				return err
			}
			defer queries.Close()

			turns, err := queries.ListTurnsBySession(cmd.Context(), args[0])
			if err != nil {
				return errors.Wrap(err, "list archived turns")
			}
			out := cmd.OutOrStdout()
			for _, turn := range turns {
				fmt.Fprintf(out, "#%d %s\n%s\n\n", turn.Position, turn.CreatedAt.Format(time.RFC3339), turn.Entry)
			}

			if purge {
				if err := queries.DeleteTurnsBySession(cmd.Context(), args[0]); err != nil {
					return errors.Wrap(err, "purge archived turns")
				}
				fmt.Fprintf(out, "purged %d archived turns\n", len(turns))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "delete the archived turns after printing them")
	return cmd
}

func extractCmd(_ *appOptions) *cobra.Command {
	var mimeType string

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Print the plain text of a resume (txt, pdf or docx)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := extract.ExtractFile(args[0], mimeType)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(text))
			return nil
		},
	}
	cmd.Flags().StringVar(&mimeType, "mime", "", "media type, detected from the file when empty")
	return cmd
}

type rehearseOptions struct {
	sessionID string
	scenario  coaching.ScenarioConfig
	output    string
	format    string
}

func rehearseCmd(opts *appOptions) *cobra.Command {
	var ro rehearseOptions

	cmd := &cobra.Command{
		Use:   "rehearse [query...]",
		Short: "Run recruiter queries against the configured model",
		Long: `Run a coaching session from the terminal. Queries come from the arguments,
or one per line on stdin when none are given.

Examples:
  talent-coach rehearse "Tell me about a hard bug you fixed"
  talent-coach rehearse --level senior --report report.pdf < questions.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			queries := args
			if len(queries) == 0 {
				queries, err = readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			return rehearse(cmd.Context(), a, ro, queries, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&ro.sessionID, "session", "", "session id, generated when empty")
	cmd.Flags().StringVar(&ro.scenario.CoachPersonality, "coach", "", "coach personality")
	cmd.Flags().StringVar(&ro.scenario.Level, "level", "", "candidate level")
	cmd.Flags().StringVar(&ro.scenario.FocusArea, "focus", "", "focus area")
	cmd.Flags().StringVar(&ro.scenario.ScenarioType, "scenario", "", "position being interviewed for")
	cmd.Flags().StringVar(&ro.output, "report", "", "write the session report to this file")
	cmd.Flags().StringVar(&ro.format, "format", "", "report format (pdf or docx), taken from the file extension when empty")
	return cmd
}

func rehearse(ctx context.Context, a *app, ro rehearseOptions, queries []string, out io.Writer) error {
	sessionID := ro.sessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("rehearsal-%d", time.Now().UnixNano())
	}

	for _, query := range queries {
		result, err := a.coach.SubmitTurn(ctx, sessionID, ro.scenario, query)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "RECRUITER: %s\nCOACH: %s\n\n", query, result.Response)
	}

	if ro.output == "" {
		return nil
	}

	rawFormat := ro.format
	if rawFormat == "" {
		rawFormat = strings.TrimPrefix(filepath.Ext(ro.output), ".")
	}
	format, err := report.ParseFormat(rawFormat, report.FormatPDF)
	if err != nil {
		return err
	}

	err = a.coach.DeliverReport(ctx, sessionID, format, func(_ context.Context, artifact report.Artifact) error {
		f, err := os.Create(ro.output)
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, artifact.Body); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "report written to %s\n", ro.output)
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read queries")
	}
	return lines, nil
}
