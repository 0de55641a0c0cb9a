package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/hazyhaar/judgefinder/pkg/mcpquic"
	"github.com/hazyhaar/judgefinder/pkg/namefind"
)

// findOutput mirrors the find endpoint's response so local and remote
// results print the same way.
type findOutput struct {
	Roster string `json:"roster"`
	namefind.Result
}

var tagRe = regexp.MustCompile(`\[[^\[\]\s]+\]`)

var (
	tagColor    = color.New(color.FgCyan, color.Bold)
	strongColor = color.New(color.FgGreen)
	weakColor   = color.New(color.FgYellow)
	poorColor   = color.New(color.FgRed)
)

// highlight colors every [ID] tag in s.
func highlight(s string, c *color.Color) string {
	return tagRe.ReplaceAllStringFunc(s, func(tag string) string { return c.Sprint(tag) })
}

func qualityColor(q int) *color.Color {
	switch {
	case q <= namefind.ExactQuality:
		return strongColor
	case q <= 6:
		return weakColor
	default:
		return poorColor
	}
}

// printResult writes the annotated text, then one line per match unless
// quiet is set.
func printResult(w io.Writer, out *findOutput, quiet bool) {
	fmt.Fprintln(w, highlight(out.Text, tagColor))
	if quiet {
		return
	}
	for _, s := range out.Spans {
		for _, m := range s.Matches {
			fmt.Fprintf(w, "  %-10s %s  %-24s %s\n", m.ID, qualityColor(m.Quality).Sprintf("q%-2d", m.Quality), m.Text, m.Name)
		}
	}
}

// readTexts returns the arguments joined as one text, or one text per
// non-blank stdin line when there are no arguments.
func readTexts(args []string, stdin io.Reader) ([]string, error) {
	if len(args) > 0 {
		return []string{strings.Join(args, " ")}, nil
	}
	var texts []string
	sc := bufio.NewScanner(stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			texts = append(texts, line)
		}
	}
	return texts, sc.Err()
}

type findFlags struct {
	mode    *string
	subset  *string
	roster  *string
	jsonOut *bool
	quiet   *bool
	noColor *bool
}

func registerFindFlags(fs *flag.FlagSet) findFlags {
	return findFlags{
		mode:    fs.String("mode", "", "all, best or exact (default from config)"),
		subset:  fs.String("subset", "", "comma-separated judge IDs to restrict matching to"),
		roster:  fs.String("roster", "", "roster ID (optional when one roster is loaded)"),
		jsonOut: fs.Bool("json", false, "print results as JSON lines"),
		quiet:   fs.Bool("q", false, "print only the annotated text"),
		noColor: fs.Bool("no-color", false, "disable colors"),
	}
}

func (f findFlags) emit(outs []*findOutput) error {
	if *f.noColor {
		color.NoColor = true
	}
	if *f.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		for _, out := range outs {
			if err := enc.Encode(out); err != nil {
				return err
			}
		}
		return nil
	}
	for _, out := range outs {
		printResult(color.Output, out, *f.quiet)
	}
	return nil
}

func cmdFind(args []string) {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	rostersDir := fs.String("rosters", "", "rosters directory (overrides config)")
	ff := registerFindFlags(fs)
	fs.Parse(args)

	cfg, logger, reg := setup(*cfgPath, *rostersDir)
	texts, err := readTexts(fs.Args(), os.Stdin)
	if err != nil {
		fatal(logger, "read input", err)
	}

	mode := cfg.mode
	if *ff.mode != "" {
		if mode, err = namefind.ParseMode(*ff.mode); err != nil {
			fatal(logger, "mode", err)
		}
	}
	ro, err := reg.Get(*ff.roster)
	if err != nil {
		fatal(logger, "roster", err)
	}
	id := ro.Manifest.ID

	opts := &namefind.Options{Mode: mode, Subset: splitIDs(*ff.subset)}
	results, err := reg.FindBatch(context.Background(), id, texts, opts)
	if err != nil {
		fatal(logger, "find", err)
	}
	outs := make([]*findOutput, len(results))
	for i, res := range results {
		outs[i] = &findOutput{Roster: id, Result: *res}
	}
	if err := ff.emit(outs); err != nil {
		fatal(logger, "write", err)
	}
}

func cmdRemote(args []string) {
	fs := flag.NewFlagSet("remote", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8443", "server address (QUIC)")
	insecure := fs.Bool("insecure", false, "accept self-signed certificates")
	timeout := fs.Duration("timeout", 30*time.Second, "overall timeout")
	ff := registerFindFlags(fs)
	fs.Parse(args)

	logger := newLogger(slog.LevelInfo)
	texts, err := readTexts(fs.Args(), os.Stdin)
	if err != nil {
		fatal(logger, "read input", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	c, err := mcpquic.Dial(ctx, *addr, mcpquic.ClientTLSConfig(*insecure))
	if err != nil {
		fatal(logger, "connect", err)
	}
	defer c.Close()

	outs := make([]*findOutput, 0, len(texts))
	for _, text := range texts {
		raw, err := c.CallTool(ctx, "find_judges", map[string]any{
			"text":   text,
			"roster": *ff.roster,
			"mode":   *ff.mode,
			"subset": *ff.subset,
		})
		if err != nil {
			fatal(logger, "find_judges", err)
		}
		var out findOutput
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			fatal(logger, "decode find_judges result", err)
		}
		outs = append(outs, &out)
	}
	if err := ff.emit(outs); err != nil {
		fatal(logger, "write", err)
	}
}
