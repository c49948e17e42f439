package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/hpungsan/studio/internal/builder"
	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/convert"
	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/logging"
	"github.com/hpungsan/studio/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"serve": true, "seed": true, "uploads": true, "jobs": true,
	"library": true, "expenses": true, "catalog": true, "suggest": true,
	"tools": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
       _             _ _
   ___| |_ _   _  __| (_) ___
  / __| __| | | |/ _' | |/ _ \
  \__ \ |_| |_| | (_| | | (_) |
  |___/\__|\__,_|\__,_|_|\___/

  Templates, expenses and one-page sites, locally

  Usage: studio <command> [options]
         studio --help

  MCP server mode requires piped input.`)
}

// dataDir returns $STUDIO_HOME, or ~/.studio.
func dataDir() (string, error) {
	if d := os.Getenv("STUDIO_HOME"); d != "" {
		return d, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".studio"), nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal(os.Stdin) {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	// A missing .env is fine; a malformed one is not.
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		fatal("failed to load .env: %v", err)
	}

	baseDir, err := dataDir()
	if err != nil {
		fatal("%v", err)
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		fatal("failed to configure logging: %v", err)
	}
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("config.unknown_disabled_tools", "names", unknown)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		fatal("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	env := &cliEnv{db: database, cfg: cfg, logger: logger, dataDir: baseDir}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(env)
		if err := app.Run(os.Args); err != nil {
			database.Close()
			fatal("%v", err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal(os.Stdin) {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'studio --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	ctx := context.Background()
	conv := convert.New(database, cfg, logger)
	release, err := startJobs(ctx, env, nil)
	if err != nil {
		logger.Error("recover.failed", "error", err)
	} else {
		defer release()
	}
	suggester, err := builder.NewSuggester(ctx, cfg, logger)
	if err != nil {
		logger.Warn("suggest.gemini_unavailable", "error", err)
		suggester = builder.TemplateSuggester{}
	}
	if err := mcp.Run(mcp.Deps{
		DB:        database,
		Config:    cfg,
		Logger:    logger,
		Runner:    convert.Sync{Exec: conv},
		Suggester: suggester,
		Version:   Version,
	}); err != nil {
		database.Close()
		fatal("%v", err)
	}
}
