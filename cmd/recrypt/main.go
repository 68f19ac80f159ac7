package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recrypt/internal/app"
	"recrypt/internal/config"
	"recrypt/internal/recrypt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// Exit statuses.
const (
	exitOK    = 0
	exitUsage = 1
	exitWalk  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// walkFailure marks an error from the migration itself, after the
// preconditions passed. Everything else is reported with exitUsage.
type walkFailure struct {
	err error
}

func (w *walkFailure) Error() string { return w.err.Error() }
func (w *walkFailure) Unwrap() error { return w.err }

// run executes the command line in args and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(stderr, "recrypt: %v\n", err)
	var wf *walkFailure
	if errors.As(err, &wf) {
		return exitWalk
	}
	if app.IsUsageError(err) {
		fmt.Fprintf(stderr, "Run 'recrypt --help' for usage.\n")
	}
	return exitUsage
}

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	configPath string
	verbose    bool
}

// loadConfig reads the config file named by --config, or returns the
// defaults when none was given.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath == "" {
		return config.NewConfig(), nil
	}
	cfg, err := config.ReadFromFile(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a RecryptApp. The caller must defer app.Close().
func (o *rootOptions) newApp(stderr io.Writer) (*app.RecryptApp, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewRecryptApp(cfg, app.Options{Verbose: o.verbose, Stderr: stderr})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "recrypt [flags] SRC-PATH DST-PATH RECIPIENT",
		Short: "Copy a directory tree, re-encrypting encrypted files for a new recipient",
		Long: `recrypt mirrors SRC-PATH into the new directory DST-PATH. Plain files are
copied byte for byte. Files ending in the encrypted suffix (.gpg by default)
are decrypted, encrypted for RECIPIENT and verified by decrypting the result
and comparing SHA-512 digests of both plaintexts.

Both paths must be absolute. DST-PATH must not exist yet.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				return &app.UsageError{Msg: fmt.Sprintf("expected 3 arguments (SRC-PATH DST-PATH RECIPIENT), got %d", len(args))}
			}
			if args[2] == "" {
				return &app.UsageError{Msg: "recipient must not be empty"}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), opts, args[0], args[1], args[2], stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &app.UsageError{Msg: err.Error()}
	})

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a TOML config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every directory and command")

	root.AddCommand(newConfigCmd(stdout))
	root.AddCommand(newHistoryCmd(opts, stdout, stderr))
	return root
}

func migrate(ctx context.Context, opts *rootOptions, src, dst, recipient string, stdout, stderr io.Writer) error {
	if err := app.CheckPreconditions(src, dst); err != nil {
		return err
	}

	a, err := opts.newApp(stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	summary, err := a.Migrate(ctx, src, dst, recipient)
	if err != nil {
		return &walkFailure{err: err}
	}

	printSummary(stdout, summary, time.Since(start))
	return nil
}

func printSummary(w io.Writer, s *recrypt.Summary, elapsed time.Duration) {
	fmt.Fprintf(w, "Created %s director%s\n", humanize.Comma(int64(s.Directories)), plural(s.Directories, "y", "ies"))
	fmt.Fprintf(w, "Copied %s file%s (%s)\n", humanize.Comma(int64(s.Copied)), plural(s.Copied, "", "s"), humanize.Bytes(uint64(s.BytesCopied)))
	fmt.Fprintf(w, "Re-encrypted %s file%s\n", humanize.Comma(int64(s.Reencrypted)), plural(s.Reencrypted, "", "s"))
	fmt.Fprintf(w, "Done in %s\n", elapsed.Truncate(time.Millisecond))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// config command
func newConfigCmd(stdout io.Writer) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "init PATH",
		Short: "Write a config file with default settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(args[0], config.NewConfig()); err != nil {
				return fmt.Errorf("failed to initialize config: %w", err)
			}
			fmt.Fprintf(stdout, "Configuration initialized at %s\n", args[0])
			return nil
		},
	})
	return configCmd
}

// history command
func newHistoryCmd(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "View recorded migration runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.History(limit)
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Fprintln(stdout, "No runs recorded.")
				return nil
			}

			for _, h := range runs {
				r := h.Run
				duration := ""
				if r.FinishedAt.Valid {
					duration = r.FinishedAt.Time.Sub(r.StartedAt).Truncate(time.Millisecond).String()
				}
				fmt.Fprintf(stdout, "%s  %s  %-8s  %6d  %s -> %s  %s\n",
					shortID(r.ID),
					r.StartedAt.Local().Format("2006-01-02 15:04:05"),
					r.Status,
					len(h.Entries),
					r.Source,
					r.Destination,
					duration,
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}
