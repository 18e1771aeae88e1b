package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/mattn/go-runewidth"
	"github.com/urfave/cli/v3"

	"github.com/starford/booker/internal"
	"github.com/starford/booker/internal/bookservice"
	"github.com/starford/booker/internal/host"
	"github.com/starford/booker/internal/library"
	"github.com/starford/booker/internal/models"
	pkgconfig "github.com/starford/booker/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOrDefault(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

// withLibrary opens the configured vault for a one-shot command.
func withLibrary(cmd *cli.Command, fn func(lib *internal.Library, cfg *internal.Config) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lib, err := internal.OpenLibrary(internal.WithConfig(cfg))
	if err != nil {
		return err
	}
	defer lib.Close()
	return fn(lib, cfg)
}

func insert(ctx context.Context, cmd *cli.Command) error {
	book := models.Book{
		Title:        cmd.String("title"),
		Authors:      cmd.StringSlice("author"),
		DateAdded:    cmd.String("added"),
		DateFinished: cmd.String("finished"),
		Review:       cmd.String("review"),
	}
	if cmd.IsSet("pages") {
		n := int(cmd.Int("pages"))
		book.PageCount = &n
	}
	if cmd.IsSet("rating") {
		r := cmd.Float("rating")
		book.Rating = &r
	}

	return withLibrary(cmd, func(lib *internal.Library, _ *internal.Config) error {
		res, err := lib.InsertBook(ctx, cmd.String("file"), int(cmd.Int("block")), bookservice.Static{Book: book})
		printMessages(os.Stdout, res)
		return err
	})
}

func table(ctx context.Context, cmd *cli.Command) error {
	block := host.NewBlock
	if cmd.IsSet("block") {
		block = int(cmd.Int("block"))
	}
	return withLibrary(cmd, func(lib *internal.Library, cfg *internal.Config) error {
		template := cmd.String("template")
		if template == "" {
			template = cfg.Booker.DefaultTemplate
		}
		res, err := lib.CreateTable(ctx, cmd.String("file"), block, template)
		printMessages(os.Stdout, res)
		return err
	})
}

func search(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	return withLibrary(cmd, func(lib *internal.Library, _ *internal.Config) error {
		var (
			entries []models.CatalogEntry
			err     error
		)
		if query == "" {
			entries, _, err = lib.ListBooks(ctx, int(cmd.Int("limit")), 0)
		} else {
			entries, err = lib.Search(ctx, query, int(cmd.Int("limit")))
		}
		if err != nil {
			return err
		}
		printEntries(os.Stdout, entries)
		return nil
	})
}

func syncVault(ctx context.Context, cmd *cli.Command) error {
	return withLibrary(cmd, func(lib *internal.Library, _ *internal.Config) error {
		if err := lib.Sync(ctx); err != nil {
			return err
		}
		_, total, err := lib.ListBooks(ctx, 1, 0)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%d books catalogued\n", total)
		return nil
	})
}

func printMessages(w io.Writer, res *library.Result) {
	if res == nil {
		return
	}
	for _, m := range res.Messages {
		fmt.Fprintf(w, "[%s] %s\n", m.Level, m.Text)
	}
}

const titleWidth = 40

// printEntries writes one aligned line per catalog entry. Widths are measured
// in terminal cells so wide titles line up.
func printEntries(w io.Writer, entries []models.CatalogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no books found")
		return
	}
	for _, e := range entries {
		title := e.Title
		if runewidth.StringWidth(title) > titleWidth {
			title = runewidth.Truncate(title, titleWidth, "...")
		}
		fmt.Fprintf(w, "%-13s  %s  %s  %s:%d\n",
			e.ISBN,
			runewidth.FillRight(title, titleWidth),
			strings.Join(e.Authors, ", "),
			e.Path, e.Block)
	}
}

func fileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Document path relative to the vault",
		Required: true,
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "booker",
		Usage:  "Reading log kept as Markdown tables in a vault of documents",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with live catalog updates",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:   "insert",
				Usage:  "Insert the book whose ISBN is in --block into the table above it",
				Action: insert,
				Flags: []cli.Flag{
					fileFlag(),
					&cli.IntFlag{Name: "block", Aliases: []string{"b"}, Value: -1, Usage: "Block holding the ISBN; negative counts from the end"},
					&cli.StringFlag{Name: "title", Usage: "Book title"},
					&cli.StringSliceFlag{Name: "author", Usage: "Author (repeatable)"},
					&cli.IntFlag{Name: "pages", Usage: "Page count"},
					&cli.StringFlag{Name: "added", Usage: "Date added"},
					&cli.StringFlag{Name: "finished", Usage: "Date finished"},
					&cli.FloatFlag{Name: "rating", Usage: "Rating (7+ column tables)"},
					&cli.StringFlag{Name: "review", Usage: "Review (8 column tables)"},
				},
			},
			{
				Name:   "table",
				Usage:  "Seed an empty block with a table template",
				Action: table,
				Flags: []cli.Flag{
					fileFlag(),
					&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Usage: "Template name (basic, advanced)"},
					&cli.IntFlag{Name: "block", Aliases: []string{"b"}, Usage: "Block to fill (default: append a new block)"},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the book catalog; lists every book without a query",
				ArgsUsage: "[query]",
				Action:    search,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum results"},
				},
			},
			{
				Name:   "sync",
				Usage:  "Rebuild the book catalog from the vault",
				Action: syncVault,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
