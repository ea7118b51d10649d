package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/away0419/eunoia/internal/config"
	"github.com/away0419/eunoia/internal/logging"
	"github.com/away0419/eunoia/internal/mcp"
	"github.com/away0419/eunoia/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"today": true, "quiz": true, "answer": true,
	"history": true, "remember": true, "forget": true,
	"category": true, "word": true, "fetch": true, "serve": true,
	"export": true, "import": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false // No args → MCP server
	}
	arg := args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___ _   _ _ __   ___ (_) __ _
  / _ \ | | | '_ \ / _ \| |/ _' |
 |  __/ |_| | | | | (_) | | (_| |
  \___|\__,_|_| |_|\___/|_|\__,_|

  A few words a day

  Usage: eunoia <command> [options]
         eunoia --help

  MCP server mode requires piped input.`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before opening the data directory
	if isHelpOrVersion(os.Args) {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fatal("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".eunoia")

	cwd, err := os.Getwd()
	if err != nil {
		fatal("could not determine working directory: %v", err)
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	log, err := logging.New(cfg)
	if err != nil {
		fatal("invalid logging config: %v", err)
	}
	warnUnknownDisabled(log, cfg)

	deps, err := ops.Open(baseDir, cfg, log)
	if err != nil {
		fatal("failed to open data directory: %v", err)
	}
	defer deps.Close()

	// CLI mode: known subcommand
	if isCLIMode(os.Args) {
		app := newCLIApp(deps)
		if err := app.Run(os.Args); err != nil {
			deps.Close()
			fatal("%v", err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		deps.Close()
		fatal("unknown command %q\nRun 'eunoia --help' for usage.", os.Args[1])
	}

	// MCP server mode (default)
	if err := mcp.Run(deps, Version); err != nil {
		deps.Close()
		fatal("%v", err)
	}
}

// warnUnknownDisabled logs disabled tool and type names that match nothing.
func warnUnknownDisabled(log logrus.FieldLogger, cfg *config.Config) {
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.WithField("tools", unknown).Warn("unknown tools in disabled_tools")
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		log.WithField("types", unknown).Warn("unknown types in disabled_types")
	}
}
