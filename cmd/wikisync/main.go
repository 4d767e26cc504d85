package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"
	"golang.org/x/term"

	wikisync "github.com/goliatone/go-wikisync"
	"github.com/goliatone/go-wikisync/internal/commands"
)

const version = "0.1.0"

const usage = `wikisync mirrors a DOCX directory tree into a Confluence space.

Usage:
  wikisync [--dir=<path>] [--root=<id>] [--env-file=<path>] [--metrics-file=<path>] [--dry-run] [--no-readme] [--strict]
  wikisync -h | --help
  wikisync --version

Options:
  -h --help              Show this screen.
  --version              Show version.
  --dir=<path>           Data directory (WIKISYNC_DATA_DIR, else ./data).
  --root=<id>            Page id top-level folders are created under (CONFLUENCE_ROOT_PAGE_ID).
  --env-file=<path>      Dotenv file loaded before the environment [default: .env].
  --metrics-file=<path>  Write Prometheus metrics to this file (WIKISYNC_METRICS_FILE).
  --dry-run              Run against an in-memory space; nothing is sent.
  --no-readme            Ignore README.md intros on folder pages.
  --strict               Exit non-zero when any file or folder failed.`

var (
	moduleBuilder = wikisync.New
	stdin         = os.Stdin
	isTerminal    = term.IsTerminal
	readPassword  = term.ReadPassword
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "wikisync: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for configuration and command validation errors, 1 otherwise.
func exitCode(err error) int {
	if commands.IsValidation(err) {
		return 2
	}
	return 1
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	parser := &docopt.Parser{HelpHandler: docopt.PrintHelpOnly}
	opts, err := parser.ParseArgs(usage, args, version)
	if err != nil {
		return err
	}
	if opts == nil {
		return nil
	}
	if help, _ := opts.Bool("--help"); help {
		return nil
	}
	if showVersion, _ := opts.Bool("--version"); showVersion {
		return nil
	}

	cfg, err := wikisync.LoadConfig(optString(opts, "--env-file"))
	if err != nil {
		return err
	}
	if dir := optString(opts, "--dir"); dir != "" {
		cfg.Sync.DataDir = dir
	}
	if root := optString(opts, "--root"); root != "" {
		cfg.Confluence.RootPageID = root
	}
	if path := optString(opts, "--metrics-file"); path != "" {
		cfg.Metrics.TextfilePath = path
	}
	if dryRun, _ := opts.Bool("--dry-run"); dryRun {
		cfg.Sync.DryRun = true
	}
	if noReadme, _ := opts.Bool("--no-readme"); noReadme {
		cfg.Sync.ReadmeIntro = false
	}
	if err := promptToken(&cfg, stdout); err != nil {
		return err
	}

	module, err := moduleBuilder(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	cmd := module.SyncCommand()
	cmd.Strict, _ = opts.Bool("--strict")
	result, err := module.Sync(ctx, cmd)
	if result != nil {
		printSummary(stdout, result, cmd.DryRun)
	}
	return err
}

// promptToken asks for a missing API token when stdin is a terminal.
func promptToken(cfg *wikisync.Config, stdout io.Writer) error {
	if cfg.Sync.DryRun || cfg.Confluence.APIToken != "" {
		return nil
	}
	fd := int(stdin.Fd())
	if !isTerminal(fd) {
		return nil
	}
	fmt.Fprint(stdout, "Confluence API token: ")
	token, err := readPassword(fd)
	fmt.Fprintln(stdout)
	if err != nil {
		return fmt.Errorf("read api token: %w", err)
	}
	cfg.Confluence.APIToken = strings.TrimSpace(string(token))
	return nil
}

func printSummary(w io.Writer, result *wikisync.SyncResult, dryRun bool) {
	label := "Sync"
	if dryRun {
		label = "Dry run"
	}
	fmt.Fprintf(w, "%s %s finished in %s\n", label, result.RunID, result.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "  folders:     %d created, %d found, %d relinked\n", result.FoldersCreated, result.FoldersFound, result.FoldersRelinked)
	fmt.Fprintf(w, "  documents:   %d created, %d updated\n", result.DocumentsCreated, result.DocumentsUpdated)
	fmt.Fprintf(w, "  attachments: %d uploaded\n", result.AttachmentsUploaded)
	fmt.Fprintf(w, "  permissions: %d applied\n", result.PermissionsApplied)
	if !result.HasFailures() {
		return
	}
	fmt.Fprintf(w, "  failures:    %d\n", len(result.Failures))
	for _, f := range result.Failures {
		fmt.Fprintf(w, "    %s\n", f.Error())
	}
}

func optString(opts docopt.Opts, key string) string {
	value, _ := opts[key].(string)
	return strings.TrimSpace(value)
}
