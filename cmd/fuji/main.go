package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fujiteam/fuji/internal/acquire"
	"github.com/fujiteam/fuji/internal/config"
	"github.com/fujiteam/fuji/internal/dialog"
	"github.com/fujiteam/fuji/internal/digest"
	"github.com/fujiteam/fuji/internal/journal"
	"github.com/fujiteam/fuji/internal/proc"
	"github.com/fujiteam/fuji/internal/report"
	"github.com/fujiteam/fuji/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

// acqFlags carries the shared acquisition flags. Each acquisition
// subcommand binds the same set into it; config file defaults fill
// anything the operator did not set.
type acqFlags struct {
	params        report.Parameters
	verbose       bool
	quiet         bool
	logFile       string
	bwLimit       string
	nativeDialogs bool
	noKeepAwake   bool
	noJournal     bool
}

func run() int {
	var (
		flags       acqFlags
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "fuji",
		Short: "Forensic acquisition of storage volumes",
		Long: `Fuji acquires storage volumes for forensic examination.

Each acquisition method copies evidence with clone-on-write semantics,
hashes the resulting artifact (MD5, SHA-1, SHA-256), and writes a plain
text audit report to <destination>/<image name>/<image name>.txt. Every
run is also recorded in a tamper-evident local journal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "fuji %s\n", version)
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")

	for _, name := range acquire.StrategyNames() {
		rootCmd.AddCommand(newAcquireCommand(name, &flags))
	}
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(docsCmd)

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

// newAcquireCommand builds the subcommand for one acquisition method.
// Info is available without collaborators; those are wired at run time
// once flags and config are resolved.
func newAcquireCommand(name string, flags *acqFlags) *cobra.Command {
	info := acquire.Strategies(nil)[name].Info()
	cmd := &cobra.Command{
		Use:           name,
		Short:         info.Description,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAcquisition(cmd, name, flags)
		},
	}
	addAcquireFlags(cmd.Flags(), flags)
	return cmd
}

// addAcquireFlags registers the shared acquisition flags. Both methods
// take the same set; binding to one struct is fine since a single
// invocation runs a single method.
func addAcquireFlags(fs *pflag.FlagSet, flags *acqFlags) {
	fs.StringVar(&flags.params.Case, "case", "", "case identifier recorded in the report")
	fs.StringVar(&flags.params.Examiner, "examiner", "", "examiner name recorded in the report")
	fs.StringVar(&flags.params.Notes, "notes", "", "free-form notes recorded in the report")
	fs.StringVar(&flags.params.ImageName, "image-name", "FujiAcquisition", "base name for produced artifacts")
	fs.StringVar(&flags.params.Source, "source", "/", "path on the volume to acquire")
	fs.StringVar(&flags.params.Tmp, "tmp", "/Volumes/Fuji", "working area for temporary images")
	fs.StringVar(&flags.params.Destination, "destination", "/Volumes/Fuji", "where artifacts and the report are written")
	fs.BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")
	fs.BoolVarP(&flags.quiet, "quiet", "q", false, "suppress all output except warnings and errors")
	fs.StringVar(&flags.logFile, "log", "", "write structured JSON log to FILE")
	fs.StringVar(&flags.bwLimit, "bwlimit", "", "hash read throughput limit (e.g. 100M, 1G)")
	fs.BoolVar(&flags.nativeDialogs, "native-dialogs", true, "use native selection dialogs (macOS only)")
	fs.BoolVar(&flags.noKeepAwake, "no-keep-awake", false, "don't hold the system awake during tool runs")
	fs.BoolVar(&flags.noJournal, "no-journal", false, "don't record this run in the acquisition journal")
}

func runAcquisition(cmd *cobra.Command, name string, flags *acqFlags) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config", "error", err)
	}

	keepAwake := !flags.noKeepAwake
	journalOn := !flags.noJournal
	applyConfigDefaults(cmd, cfg.Defaults, flags, &keepAwake, &journalOn)

	var hashLimit int64
	if flags.bwLimit != "" {
		hashLimit, err = config.ParseSize(flags.bwLimit)
		if err != nil {
			return fmt.Errorf("invalid --bwlimit: %w", err)
		}
	}

	logLevel := slog.LevelWarn
	if flags.verbose {
		logLevel = slog.LevelDebug
	} else if !flags.quiet {
		logLevel = slog.LevelInfo
	}
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	var logHandler slog.Handler = textHandler
	if flags.logFile != "" {
		lf, lfErr := os.Create(flags.logFile)
		if lfErr != nil {
			return fmt.Errorf("open log file: %w", lfErr)
		}
		defer lf.Close()
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := proc.NewExecRunner()
	if !keepAwake {
		runner.AwakeWrapper = nil
	}

	console := ui.NewConsole(flags.quiet)

	var chooser dialog.Chooser
	if flags.nativeDialogs && runtime.GOOS == "darwin" {
		chooser = dialog.NewScript(runner)
	} else {
		if !ui.IsTTY(os.Stdin.Fd()) {
			return errors.New("the terminal picker needs an interactive terminal; on macOS use --native-dialogs")
		}
		chooser = &dialog.Picker{}
	}

	hasher := &digest.Engine{Limit: hashLimit, Progress: console.HashProgress()}
	env := acquire.NewEnv(runner, chooser, console, hasher)
	strategy := acquire.Strategies(env)[name]

	slog.Debug("starting acquisition",
		"method", name,
		"source", flags.params.Source,
		"destination", flags.params.Destination,
		"image_name", flags.params.ImageName,
	)

	rep := strategy.Execute(ctx, flags.params)

	// The journal records every outcome, failures included. A journal
	// problem never fails an otherwise-complete acquisition.
	if journalOn {
		if err := recordRun(rep); err != nil {
			slog.Warn("failed to record run in journal", "error", err)
		}
	}

	if !rep.Success {
		return &exitError{code: 1}
	}
	return nil
}

func recordRun(rep *report.Report) error {
	j, err := journal.Open()
	if err != nil {
		return err
	}
	defer j.Close()
	_, err = j.Append(rep)
	return err
}

// applyConfigDefaults applies config file defaults for flags not
// explicitly set on the CLI.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	flags *acqFlags,
	keepAwake *bool,
	journalOn *bool,
) {
	set := cmd.Flags().Changed
	if !set("examiner") && defaults.Examiner != nil {
		flags.params.Examiner = *defaults.Examiner
	}
	if !set("image-name") && defaults.ImageName != nil {
		flags.params.ImageName = *defaults.ImageName
	}
	if !set("tmp") && defaults.Tmp != nil {
		flags.params.Tmp = *defaults.Tmp
	}
	if !set("destination") && defaults.Destination != nil {
		flags.params.Destination = *defaults.Destination
	}
	if !set("bwlimit") && defaults.BWLimit != nil {
		flags.bwLimit = *defaults.BWLimit
	}
	if !set("native-dialogs") && defaults.NativeDialogs != nil {
		flags.nativeDialogs = *defaults.NativeDialogs
	}
	if !set("no-keep-awake") && defaults.KeepAwake != nil {
		*keepAwake = *defaults.KeepAwake
	}
	if !set("no-journal") && defaults.Journal != nil {
		*journalOn = *defaults.Journal
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
