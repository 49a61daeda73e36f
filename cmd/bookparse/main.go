// Command bookparse parses a document file and prints the normalized
// record as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/dgallion1/bookparse/internal/document"
	"github.com/dgallion1/bookparse/internal/parser"
)

var version = "dev"

type cli struct {
	Verbose bool `short:"v" help:"Enable debug logging."`

	Parse   parseCmd   `cmd:"" help:"Parse a document and print it as JSON."`
	Toc     tocCmd     `cmd:"" help:"Print a document's table of contents."`
	Version versionCmd `cmd:"" help:"Print version information."`
}

type parseCmd struct {
	Path    string `arg:"" type:"existingfile" help:"Document to parse (.txt, .md, .epub, .pdf)."`
	Pretty  bool   `help:"Indent the JSON output."`
	Payload bool   `help:"Include the binary payload in the output."`
}

func (c *parseCmd) Run(log *slog.Logger) error {
	doc, err := parseFile(c.Path, log)
	if err != nil {
		return err
	}
	if !c.Payload {
		doc.Payload = nil
	}

	enc := json.NewEncoder(os.Stdout)
	if c.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}

type tocCmd struct {
	Path string `arg:"" type:"existingfile" help:"Document to inspect."`
}

func (c *tocCmd) Run(log *slog.Logger) error {
	doc, err := parseFile(c.Path, log)
	if err != nil {
		return err
	}
	if len(doc.TOC) == 0 {
		fmt.Println("no table of contents")
		return nil
	}
	printEntries(doc.TOC, 0)
	return nil
}

func printEntries(entries []document.TocEntry, depth int) {
	for _, e := range entries {
		target := e.Anchor
		if e.Page > 0 {
			target = fmt.Sprintf("page %d", e.Page)
		}
		if target != "" {
			fmt.Printf("%s%s (%s)\n", strings.Repeat("  ", depth), e.Label, target)
		} else {
			fmt.Printf("%s%s\n", strings.Repeat("  ", depth), e.Label)
		}
		printEntries(e.Children, depth+1)
	}
}

type versionCmd struct{}

func (c *versionCmd) Run(log *slog.Logger) error {
	fmt.Println("bookparse", version)
	return nil
}

func parseFile(path string, log *slog.Logger) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parser.Parse(data, path, log)
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("bookparse"),
		kong.Description("Parse text, Markdown, EPUB and PDF files into a normalized document record."),
		kong.UsageOnError(),
	)

	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	ctx.FatalIfErrorf(ctx.Run(log))
}
