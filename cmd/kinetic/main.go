package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vango-dev/kinetic/internal/config"
	"github.com/vango-dev/kinetic/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦╔═╦┌┐┌┌─┐┌┬┐┬┌─┐
  ╠╩╗║│││├┤  │ ││
  ╩ ╩╩┘└┘└─┘ ┴ ┴└─┘
`

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool
}

func main() {
	var flags globalFlags
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:   "kinetic",
		Short: "A fine-grained reactive rendering runtime for Go",
		Long: `Kinetic renders component trees into pluggable hosts and keeps
them up to date with fine-grained reactive state.

  • Proxy-based dependency tracking with deduplicated, batched updates
  • Keyed reconciliation with minimal moves
  • In-memory and wire hosts; WebSocket sessions with a patch protocol`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.noColor || !isTerminal(os.Stderr) {
				errors.DisableColors()
			}
			loaded, err := loadConfig(flags)
			if err != nil {
				return err
			}
			cfg = loaded
			slog.SetDefault(cfg.NewLogger(os.Stderr))
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to kinetic.json or kinetic.yaml (default: search from the working directory)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored error output")

	current := func() *config.Config { return cfg }
	rootCmd.AddCommand(
		serveCmd(current),
		demoCmd(),
		watchCmd(current),
		benchCmd(current),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig finds the configuration, applies flag overrides and validates
// the result. A missing file is not an error: defaults apply.
func loadConfig(flags globalFlags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
		if errors.Code(err) == errors.CodeConfigRead {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// printBanner prints the kinetic ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
