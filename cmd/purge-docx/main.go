package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/docopt/docopt-go"
	"golang.org/x/term"

	wikisync "github.com/goliatone/go-wikisync"
	"github.com/goliatone/go-wikisync/internal/purge"
)

const usage = `purge-docx deletes every file that is not a .docx below a data directory.

Usage:
  purge-docx [--dir=<path>] [--env-file=<path>] [--yes]
  purge-docx -h | --help

Options:
  -h --help          Show this screen.
  --dir=<path>       Data directory (WIKISYNC_DATA_DIR, else ./data).
  --env-file=<path>  Dotenv file loaded before the environment [default: .env].
  --yes              Delete without asking for confirmation.`

var (
	moduleBuilder = wikisync.New
	isTerminal    = term.IsTerminal
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, stdout io.Writer) error {
	parser := &docopt.Parser{HelpHandler: docopt.PrintHelpOnly}
	opts, err := parser.ParseArgs(usage, args, "")
	if err != nil {
		return err
	}
	if opts == nil {
		return nil
	}
	if help, _ := opts.Bool("--help"); help {
		return nil
	}

	envFile, _ := opts["--env-file"].(string)
	cfg, err := wikisync.LoadConfig(envFile)
	if err != nil {
		return err
	}
	if dir, _ := opts["--dir"].(string); dir != "" {
		cfg.Sync.DataDir = dir
	}

	module, err := moduleBuilder(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	assumeYes, _ := opts.Bool("--yes")
	interactive := isInteractive(in)
	if !assumeYes && !interactive {
		module.Logger().Info("purge.confirmation.non_interactive", "source", "stdin")
	}

	_, err = module.Purge(ctx, wikisync.PurgeCommand{
		Directory: cfg.Sync.DataDir,
		AssumeYes: assumeYes,
	}, purge.PromptConfirmer{In: in, Out: stdout, Echo: !interactive}, stdout)
	if errors.Is(err, purge.ErrDirectoryMissing) {
		return fmt.Errorf("directory %q not found", cfg.Sync.DataDir)
	}
	return err
}

func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && isTerminal(int(f.Fd()))
}
