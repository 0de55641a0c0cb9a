// CLAUDE:SUMMARY CLI subcommands that import rosters from public sources and manage their source URLs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/hazyhaar/judgefinder/pkg/importer"
)

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	source := fs.String("source", "", "adapter ID to import (e.g. fjc-judges-us)")
	all := fs.Bool("all", false, "import every available source")
	outputDir := fs.String("output-dir", "rosters", "rosters directory")
	fs.Parse(args)

	logger := newLogger(slog.LevelInfo)
	sdb, err := openSources(*outputDir)
	if err != nil {
		fatal(logger, "open sources.db", err)
	}
	defer sdb.Close()

	if !*all && *source == "" {
		sources, err := sdb.ListSources()
		if err != nil {
			fatal(logger, "list sources", err)
		}
		fmt.Println("Available sources:")
		printSources(color.Output, sources)
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  judgefinder import --source <id> [--output-dir <dir>]")
		fmt.Println("  judgefinder import --all [--output-dir <dir>]")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	adapters := importer.All()
	if !*all {
		a, err := importer.Get(*source)
		if err != nil {
			fatal(logger, "import", err)
		}
		adapters = []importer.Adapter{a}
	}

	failed := 0
	for _, a := range adapters {
		if err := runImport(ctx, sdb, a, *outputDir); err != nil {
			fmt.Fprintf(os.Stderr, "[%s] %s %v\n", a.ID(), poorColor.Sprint("FAILED"), err)
			failed++
			continue
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
	fmt.Println("Send SIGHUP to a running server to load the new rosters.")
}

func runImport(ctx context.Context, sdb *importer.SourceDB, a importer.Adapter, outputDir string) error {
	url, err := sdb.GetURL(a.ID())
	if err != nil {
		return fmt.Errorf("source URL: %w", err)
	}
	fmt.Printf("[%s] importing from %s\n", a.ID(), url)
	res, err := a.Import(ctx, url, outputDir)
	if err != nil {
		return err
	}
	if err := sdb.RecordImport(a.ID(), res.Entries); err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	fmt.Printf("[%s] %s %d judges -> %s\n", a.ID(), strongColor.Sprint("OK"), res.Entries, res.Dir)
	if res.Backup != "" {
		fmt.Printf("[%s] previous roster saved as %s\n", a.ID(), res.Backup)
	}
	return nil
}

func cmdSources(args []string) {
	fs := flag.NewFlagSet("sources", flag.ExitOnError)
	dir := fs.String("rosters", "rosters", "rosters directory holding sources.db")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: judgefinder sources [--rosters <dir>] <list | set-url <id> <url> | check [id]>
`)
	}
	fs.Parse(args)

	logger := newLogger(slog.LevelInfo)
	sdb, err := openSources(*dir)
	if err != nil {
		fatal(logger, "open sources.db", err)
	}
	defer sdb.Close()

	rest := fs.Args()
	if len(rest) == 0 {
		rest = []string{"list"}
	}

	switch rest[0] {
	case "list":
		sources, err := sdb.ListSources()
		if err != nil {
			fatal(logger, "list sources", err)
		}
		printSources(color.Output, sources)

	case "set-url":
		if len(rest) != 3 {
			fs.Usage()
			os.Exit(2)
		}
		if err := sdb.SetURL(rest[1], rest[2]); err != nil {
			fatal(logger, "set-url", err)
		}
		fmt.Printf("[%s] source URL set to %s\n", rest[1], rest[2])

	case "check":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		checker := importer.NewChecker(sdb, logger, 0)
		if len(rest) > 1 {
			src, err := checker.Check(ctx, rest[1])
			if err != nil {
				fatal(logger, "check", err)
			}
			printSources(color.Output, []importer.Source{*src})
			return
		}
		sum := checker.CheckAll(ctx)
		fmt.Printf("checked %d sources: %d ok, %d failed\n", sum.Total, sum.OK, sum.Failed)
		if sum.Failed > 0 {
			os.Exit(1)
		}

	default:
		fs.Usage()
		os.Exit(2)
	}
}

// printSources writes one line per source with its last check and import.
func printSources(w io.Writer, sources []importer.Source) {
	for _, src := range sources {
		status := "unchecked"
		switch {
		case src.LastError != nil && *src.LastError != "":
			status = poorColor.Sprint("error")
		case src.Healthy():
			status = strongColor.Sprintf("%d", *src.LastStatus)
		case src.LastStatus != nil:
			status = poorColor.Sprintf("%d", *src.LastStatus)
		}
		imported := "never imported"
		if src.LastImport != nil {
			imported = time.Unix(*src.LastImport, 0).UTC().Format("2006-01-02")
			if src.Entries != nil {
				imported += fmt.Sprintf(" (%d judges)", *src.Entries)
			}
		}
		fmt.Fprintf(w, "  %-16s -> %-16s %-10s %s\n    %s\n", src.AdapterID, src.RosterID, status, imported, src.SourceURL)
	}
}
