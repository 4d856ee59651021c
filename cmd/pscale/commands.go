package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v2"

	"github.com/HendryAvila/pscale/internal/memory"
	pserver "github.com/HendryAvila/pscale/internal/server"
	"github.com/HendryAvila/pscale/internal/tree"
)

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s, cleanup, err := pserver.New(cfg, newLogger(cfg))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// ServeStdio handles SIGINT/SIGTERM itself.
	return server.ServeStdio(s)
}

func runMigrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	mcfg := cfg.Memory(newLogger(cfg))
	if from := c.String("from"); from != "" {
		mcfg.LegacyDump = from
	}

	// Migration runs when the store opens; a second run reports the skip.
	store, err := memory.New(mcfg)
	if err != nil {
		return err
	}
	defer store.Close()

	w := c.App.Writer
	rep := store.MigrationReport()
	switch {
	case rep.Skipped:
		fmt.Fprintln(w, "Already migrated: the store holds data")
	case rep.Source == "":
		fmt.Fprintln(w, "No legacy data found")
	default:
		fmt.Fprintf(w, "Migrated from %s: %d coordinates, %d dimensions, %d literals in %d namespaces\n",
			rep.Source, rep.Coordinates, rep.Dimensions, rep.Literals, rep.Namespaces)
	}
	for _, name := range rep.Failed {
		fmt.Fprintf(w, "Unreadable source skipped: %s\n", name)
	}
	for _, key := range rep.Dropped {
		fmt.Fprintf(w, "Dropped (no namespace): %s\n", key)
	}

	st := store.Stats()
	fmt.Fprintf(w, "Store ready: %d coordinates, %d literals in %d namespaces\n",
		st.TotalCoordinates, st.TotalLiterals, st.TotalNamespaces)
	return nil
}

func requireArgs(c *cli.Context, n int) error {
	if c.NArg() < n {
		return cli.Exit(fmt.Sprintf("usage: pscale %s %s", c.Command.Name, c.Command.ArgsUsage), 2)
	}
	return nil
}

func runRead(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	store, closeFn, err := openStore(c)
	defer closeFn()
	if err != nil {
		return err
	}

	text, ok := store.Read(c.Args().First(), c.String("channel"))
	if !ok {
		return cli.Exit(fmt.Sprintf("nothing written at %s", c.Args().First()), 1)
	}
	fmt.Fprintln(c.App.Writer, text)
	return nil
}

func runWrite(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	text := c.Args().Get(1)
	if text == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\n")
	}

	store, closeFn, err := openStore(c)
	defer closeFn()
	if err != nil {
		return err
	}
	return store.Write(c.Context, c.Args().First(), text, c.String("channel"))
}

func runDelete(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	store, closeFn, err := openStore(c)
	defer closeFn()
	if err != nil {
		return err
	}

	removed, err := store.Delete(c.Context, c.Args().First(), c.String("channel"))
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(c.App.Writer, "nothing to delete at %s\n", c.Args().First())
	}
	return nil
}

func runChildren(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	store, closeFn, err := openStore(c)
	defer closeFn()
	if err != nil {
		return err
	}

	for _, k := range store.Children(c.Args().First()) {
		text, _ := store.Read(k.String(), "")
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", k, memory.Truncate(text, 80))
	}
	return nil
}

func runContext(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	store, closeFn, err := openStore(c)
	defer closeFn()
	if err != nil {
		return err
	}

	for _, l := range store.ContextContent(c.Args().First()) {
		fmt.Fprintf(c.App.Writer, "[%d]\t%s\t%s\n", l.Pscale, l.Coordinate, l.Content)
	}
	return nil
}

func runBSP(c *cli.Context) error {
	store, closeFn, err := openStore(c)
	defer closeFn()
	if err != nil {
		return err
	}

	q := tree.Query{}
	if c.NArg() > 0 {
		q.Spindle, q.HasSpindle = c.Args().First(), true
	}
	if c.IsSet("point") {
		q.Point, q.HasPoint = c.Int("point"), true
	}

	res := store.BSP(strings.TrimSuffix(c.String("namespace"), ":"), q)
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runNext(c *cli.Context) error {
	store, closeFn, err := openStore(c)
	defer closeFn()
	if err != nil {
		return err
	}

	p := store.NextMemory(c.Args().First())
	fmt.Fprintf(c.App.Writer, "%s\t%s\n", p.Type, p.Coordinate)
	for _, s := range p.Summarize {
		fmt.Fprintf(c.App.Writer, "\t%s\n", s)
	}
	return nil
}

func runList(c *cli.Context) error {
	store, closeFn, err := openStore(c)
	defer closeFn()
	if err != nil {
		return err
	}

	entries, err := store.List(c.Args().First())
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", e.Coordinate, memory.Truncate(e.Content, 80))
	}
	return nil
}

func runStats(c *cli.Context) error {
	store, closeFn, err := openStore(c)
	defer closeFn()
	if err != nil {
		return err
	}

	st := store.Stats()
	fmt.Fprintf(c.App.Writer, "namespace\tplace\tcoordinates\tchannels\tliterals\tbytes\n")
	for _, n := range st.Namespaces {
		fmt.Fprintf(c.App.Writer, "%s\t%d\t%d\t%d\t%d\t%d\n",
			n.Prefix, n.Place, n.Coordinates, n.Channels, n.Literals, n.Bytes)
	}
	return nil
}

func runExport(c *cli.Context) error {
	store, closeFn, err := openStore(c)
	defer closeFn()
	if err != nil {
		return err
	}

	out := c.App.Writer
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(store.Export())
}

func runImport(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	raw, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.Args().First(), err)
	}
	var data memory.ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parsing %s: %w", c.Args().First(), err)
	}

	store, closeFn, err := openStore(c)
	defer closeFn()
	if err != nil {
		return err
	}
	res, err := store.Import(c.Context, &data)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Imported %d namespaces (%d coordinates)\n",
		res.NamespacesImported, res.CoordinatesImported)
	return nil
}
