package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/meigma/zip1970"
	"github.com/meigma/zip1970/internal/sink"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "1.0"

const versionTemplate = `zip1970 {{.Version}}
Copyright (C) 2022 teddyxlandlee
This program comes with ABSOLUTELY NO WARRANTY.
This is free software licensed under GNU Affero General Public License, Version 3, or
(at your option) later, and you are welcome to redistribute it under certain conditions
`

const (
	FlagOutput     = "output"
	FlagInclude    = "include"
	FlagExclude    = "exclude"
	FlagCreateTime = "create-time"
	FlagTime       = "time"
	FlagAccessTime = "access-time"
	FlagList       = "list"
	FlagLogLevel   = "log-level"
)

type options struct {
	output   string
	include  patternValue
	exclude  patternValue
	created  timeValue
	modified timeValue
	accessed timeValue
	list     bool
	logLevel levelValue
}

func newRootCmd() *cobra.Command {
	opts := &options{logLevel: levelValue{level: slog.LevelWarn}}

	cmd := &cobra.Command{
		Use:   "zip1970 [options] [input_zipfile]",
		Short: "Rewrite creation, modification and access times of zip entries",
		Long: `zip1970 copies a zip archive, overriding the timestamps of its entries.

Entry content is copied as stored and never recompressed. Timestamps are
ISO-8601 local date-times (e.g. 1970-01-01T00:00:00) interpreted as UTC.
Include and exclude patterns are regular expressions that must match the
whole entry name; entries that fail them are copied with their original times.

The input defaults to stdin and the output to stdout. An http or https URL
is read with range requests.`,
		Example: `  zip1970 -m 1970-01-01T00:00:00 -o out.jar app.jar
  zip1970 -i '.*\.class' -x 'META-INF/.*' -m 1980-01-01T00:00 < in.zip > out.zip
  zip1970 --list app.jar
  zip1970 -m 1970-01-01T00:00 -o app.jar https://example.com/app.jar`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("too many inputs: %q", args)
			}
			return nil
		},
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}
	cmd.SetVersionTemplate(versionTemplate)

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, FlagOutput, "o", "", "output path (default stdout)")
	flags.VarP(&opts.include, FlagInclude, "i", "only patch entries whose whole name matches this pattern")
	flags.VarP(&opts.exclude, FlagExclude, "x", "do not patch entries whose whole name matches this pattern")
	flags.VarP(&opts.created, FlagCreateTime, "c", "set creation time (ISO local date-time, UTC)")
	flags.VarP(&opts.modified, FlagTime, "m", "set modification time (ISO local date-time, UTC)")
	flags.VarP(&opts.accessed, FlagAccessTime, "a", "set access time (ISO local date-time, UTC)")
	flags.BoolVarP(&opts.list, FlagList, "l", false, "list entries with their times and digests instead of transforming")
	flags.Var(&opts.logLevel, FlagLogLevel, "log level (debug, info, warn, error)")
	flags.BoolP("version", "v", false, "print version and copyright information")
	return cmd
}

func run(cmd *cobra.Command, args []string, opts *options) error {
	input := ""
	if len(args) == 1 {
		input = args[0]
	}
	stdin := cmd.InOrStdin()
	if (input == "" || input == "-") && isTerminal(stdin) {
		if cmd.Flags().NFlag() == 0 {
			return cmd.Help()
		}
		return errors.New("an input archive is required: pass a path or pipe it to stdin")
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: opts.logLevel.level}))
	filter := zip1970.FilterOf(opts.include.re, opts.exclude.re)

	archive, err := openInput(input, stdin)
	if err != nil {
		return err
	}
	defer archive.Close()

	if opts.list {
		return list(cmd.OutOrStdout(), archive, filter)
	}

	overrides := zip1970.Overrides{
		Created:  opts.created.t,
		Modified: opts.modified.t,
		Accessed: opts.accessed.t,
	}
	if overrides.IsZero() {
		logger.Warn("no timestamp given; entries are copied unchanged")
	}

	out, err := openOutput(opts.output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer out.Discard() //nolint:errcheck // no-op after Commit

	t := zip1970.NewTransformer(
		zip1970.WithFilter(filter),
		zip1970.WithOverrides(overrides),
		zip1970.WithLogger(logger),
	)
	stats, err := t.Process(archive.Reader(), out)
	if err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	if err := out.Commit(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.Info("archive written",
		slog.String("output", outputName(opts.output)),
		slog.Int("entries", stats.Entries),
		slog.Int("patched", stats.Patched),
		slog.Int64("bytes", stats.Bytes))
	return nil
}

func openInput(path string, stdin io.Reader) (*zip1970.Archive, error) {
	if path == "" || path == "-" {
		return zip1970.OpenReader(stdin)
	}
	return zip1970.Open(path)
}

func openOutput(path string, stdout io.Writer) (sink.Sink, error) {
	if path == "" || path == "-" {
		if isTerminal(stdout) {
			return nil, errors.New("refusing to write an archive to a terminal: use -o or redirect stdout")
		}
		return sink.Stdout(stdout), nil
	}
	return sink.Create(path)
}

func outputName(path string) string {
	if path == "" || path == "-" {
		return "<stdout>"
	}
	return path
}

func list(w io.Writer, archive *zip1970.Archive, filter zip1970.Filter) error {
	infos, err := zip1970.Inspect(archive.Reader(), filter)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Name", "Modified", "Created", "Accessed", "Match", "Size", "Digest"})
	for _, info := range infos {
		t.AppendRow(table.Row{
			info.Name,
			formatTime(info.Times.Modified),
			formatTime(info.Times.Created),
			formatTime(info.Times.Accessed),
			info.Match,
			info.Size,
			info.Digest.String(),
		})
	}
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02T15:04:05")
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits int
}
