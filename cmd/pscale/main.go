// pscale: digit-addressed semantic store
//
// Serves the store to an LLM host over MCP (stdio) and exposes the same
// operations on the command line for inspection, scripting and backups.
//
// Usage:
//
//	pscale serve                 # Start MCP server (stdio transport)
//	pscale read S:0.21           # Print one coordinate
//	pscale write M:3 "entry"     # Store text
//	pscale bsp -n S 0.21         # Walk a spindle
//	pscale export > backup.json  # Dump every namespace
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/HendryAvila/pscale/internal/config"
	"github.com/HendryAvila/pscale/internal/memory"
	pserver "github.com/HendryAvila/pscale/internal/server"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "pscale",
		Usage:                  "Digit-addressed semantic store for LLM memory",
		Version:                pserver.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (.yaml, .yml or .toml)",
				EnvVars: []string{"PSCALE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Directory holding the store (overrides config)",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Storage backend: sqlite, file or memory (overrides config)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn or error (overrides config)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the MCP server (stdio transport)",
				Action: runServe,
			},
			{
				Name:      "migrate",
				Usage:     "Import legacy data into an empty store",
				ArgsUsage: " ",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "from",
						Usage: "JSON dump of a browser localStorage to import instead of the SQLite legacy tables",
					},
				},
				Action: runMigrate,
			},
			{
				Name:      "read",
				Usage:     "Print the text at a coordinate",
				ArgsUsage: "ADDRESS",
				Flags:     []cli.Flag{channelFlag()},
				Action:    runRead,
			},
			{
				Name:      "write",
				Usage:     "Store text at a coordinate (TEXT '-' reads stdin)",
				ArgsUsage: "ADDRESS TEXT",
				Flags:     []cli.Flag{channelFlag()},
				Action:    runWrite,
			},
			{
				Name:      "delete",
				Usage:     "Remove one channel from a coordinate",
				ArgsUsage: "ADDRESS",
				Flags:     []cli.Flag{channelFlag()},
				Action:    runDelete,
			},
			{
				Name:      "children",
				Usage:     "List the written children of a coordinate",
				ArgsUsage: "ADDRESS",
				Action:    runChildren,
			},
			{
				Name:      "context",
				Usage:     "Print the chain from the broadest written ancestor down to a coordinate",
				ArgsUsage: "ADDRESS",
				Action:    runContext,
			},
			{
				Name:      "bsp",
				Usage:     "Block/spindle/point resolution over one namespace",
				ArgsUsage: "[SPINDLE]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "namespace",
						Aliases: []string{"n"},
						Usage:   "Namespace prefix (default: the default namespace)",
					},
					&cli.IntFlag{
						Name:    "point",
						Aliases: []string{"p"},
						Usage:   "Pscale level to extract from the spindle",
					},
				},
				Action: runBSP,
			},
			{
				Name:      "next",
				Usage:     "Propose the next slot of a log namespace",
				ArgsUsage: "[NAMESPACE]",
				Action:    runNext,
			},
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List written coordinates, optionally filtered by prefix or glob",
				ArgsUsage: "[PATTERN]",
				Action:    runList,
			},
			{
				Name:   "stats",
				Usage:  "Show store statistics",
				Action: runStats,
			},
			{
				Name:  "export",
				Usage: "Write every namespace as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default: stdout)",
					},
				},
				Action: runExport,
			},
			{
				Name:      "import",
				Usage:     "Replace the namespaces named in an export file",
				ArgsUsage: "FILE",
				Action:    runImport,
			},
		},
	}
}

func channelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "channel",
		Usage: "Dimension name (e.g. 'v'); default is the main channel",
	}
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if v := c.String("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v := c.String("backend"); v != "" {
		cfg.Backend = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes to stderr so stdout stays free for MCP's stdio transport.
func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
}

// openStore loads configuration and opens the store. The returned close
// function is always non-nil.
func openStore(c *cli.Context) (*memory.Store, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, func() {}, err
	}
	store, err := memory.New(cfg.Memory(newLogger(cfg)))
	if err != nil {
		return nil, func() {}, err
	}
	return store, func() { _ = store.Close() }, nil
}
