package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/ragline"
	"github.com/poiesic/ragline/chunking"
	"github.com/poiesic/ragline/config"
	"github.com/poiesic/ragline/core"
	"github.com/poiesic/ragline/indexing"
	"github.com/poiesic/ragline/pipeline"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

func openEngine(ctx context.Context, cfg *config.AppConfig, opts ...ragline.EngineOption) (*ragline.Engine, error) {
	engine, err := ragline.NewEngine(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func documentFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "id", Usage: "Document ID (defaults to the file name without extension)"},
		&cli.StringFlag{Name: "title", Usage: "Document title (defaults to the file name)"},
		&cli.StringFlag{Name: "url", Usage: "Canonical URL of the document"},
		&cli.StringFlag{Name: "category", Usage: "Document category"},
		&cli.StringFlag{Name: "scope", Usage: "Organization scope the document belongs to"},
		&cli.StringFlag{Name: "heading", Usage: "Section heading shared by every chunk"},
	}
}

func chunkSizeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "target-size", Usage: "Maximum estimated tokens per chunk (default from config)"},
		&cli.IntFlag{Name: "overlap", Usage: "Estimated tokens repeated between chunks (default from config)"},
	}
}

// readDocument builds a Document from a file path and the document flags.
// Flags that name a single document are ignored when several files are given.
func readDocument(c *cli.Context, path string, single bool) (core.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	base := filepath.Base(path)
	doc := core.Document{
		ID:      strings.TrimSuffix(base, filepath.Ext(base)),
		Title:   base,
		RawText: string(data),
		Metadata: core.DocumentMetadata{
			Source:   path,
			URL:      c.String("url"),
			Category: c.String("category"),
			OrgScope: c.String("scope"),
			Heading:  c.String("heading"),
		},
	}
	if single {
		if id := c.String("id"); id != "" {
			doc.ID = id
		}
		if title := c.String("title"); title != "" {
			doc.Title = title
		}
	}
	return doc, nil
}

func chunkConfig(c *cli.Context, cfg *config.AppConfig) chunking.Config {
	out := cfg.Chunking.Config
	if n := c.Int("target-size"); n > 0 {
		out.TargetSize = n
	}
	if c.IsSet("overlap") {
		out.Overlap = c.Int("overlap")
	}
	return out
}

func chunkCommand() *cli.Command {
	return &cli.Command{
		Name:      "chunk",
		Usage:     "Split a file into chunks and print them without indexing",
		ArgsUsage: "<file>",
		Flags:     append(documentFlags(), chunkSizeFlags()...),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("exactly one file is required")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			doc, err := readDocument(c, c.Args().First(), true)
			if err != nil {
				return err
			}
			if err := core.ValidateDocument(&doc); err != nil {
				return err
			}
			estimator, err := cfg.Chunking.NewEstimator()
			if err != nil {
				return err
			}
			chunker, err := chunking.NewChunker(chunking.WithEstimator(estimator))
			if err != nil {
				return err
			}
			chunks := chunker.ChunkDocument(&doc, chunkConfig(c, cfg))
			printChunks(c.App.Writer, chunks, estimator)
			return nil
		},
	}
}

func printChunks(w io.Writer, chunks []core.Chunk, estimator chunking.TokenEstimator) {
	for _, ch := range chunks {
		fmt.Fprintf(w, "--- %s [%d:%d] ~%d tokens\n", ch.ID, ch.StartOffset, ch.EndOffset, estimator.Estimate(ch.Text))
		fmt.Fprintln(w, ch.Text)
	}
	fmt.Fprintf(w, "%d chunks\n", len(chunks))
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:      "index",
		Usage:     "Chunk, embed and store one or more files",
		ArgsUsage: "<file>...",
		Flags: append(append([]cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "Re-index documents even when unchanged"},
		}, documentFlags()...), chunkSizeFlags()...),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("at least one file is required")
			}
			ctx := context.Background()
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			single := c.NArg() == 1
			docs := make([]core.Document, 0, c.NArg())
			for _, path := range c.Args().Slice() {
				doc, err := readDocument(c, path, single)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
			}

			var opts []ragline.EngineOption
			if c.Bool("force") {
				opts = append(opts, ragline.WithIndexerOptions(indexing.WithSkipUnchanged(false)))
			}
			engine, err := openEngine(ctx, cfg, opts...)
			if err != nil {
				return err
			}
			defer engine.Close()

			summary, err := engine.Indexer().IndexDocuments(ctx, docs, chunkConfig(c, cfg), c.App.ErrWriter)
			fmt.Fprintf(c.App.Writer, "indexed %d, unchanged %d, failed %d, %d chunks\n",
				summary.Indexed, summary.Skipped, summary.Failed, summary.Chunks)
			if err != nil {
				return fmt.Errorf("indexing failed: %w", err)
			}
			return nil
		},
	}
}

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer a question from the indexed documents",
		ArgsUsage: "<question>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "scope", Usage: "Restrict retrieval to an organization scope"},
			&cli.StringFlag{Name: "preamble", Usage: "Organization-specific instructions added to the prompt"},
			&cli.IntFlag{Name: "top-k", Usage: "Number of chunks to retrieve (default from config)"},
			&cli.Float64Flag{Name: "threshold", Usage: "Minimum similarity of retrieved chunks (default from config)"},
			&cli.BoolFlag{Name: "explain", Usage: "Print which confidence signals fired"},
			&cli.BoolFlag{Name: "trace", Usage: "Print each pipeline stage to stderr"},
		},
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")
			if err := core.ValidateQuery(query); err != nil {
				return err
			}
			ctx := context.Background()
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if k := c.Int("top-k"); k > 0 {
				cfg.Pipeline.TopK = k
			}
			if c.IsSet("threshold") {
				cfg.Pipeline.Threshold = c.Float64("threshold")
			}

			engine, err := openEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer engine.Close()

			var monitor pipeline.Monitor
			if c.Bool("trace") {
				monitor = newTraceMonitor(c.App.ErrWriter)
			}
			out, err := engine.Pipeline().ProcessQueryWithMonitor(ctx, core.PipelineInput{
				Query:          query,
				Scope:          c.String("scope"),
				TenantPreamble: c.String("preamble"),
			}, monitor)
			if err != nil {
				return err
			}

			printAnswer(c.App.Writer, out)
			if c.Bool("explain") && out.Err == nil {
				b := engine.Scorer().Explain(out.Answer)
				fmt.Fprintf(c.App.Writer, "\nconfidence: citation=%t code=%t length=%.2f structure=%t negative=%t raw=%.2f score=%.2f\n",
					b.Citation, b.CodeBlock, b.LengthBonus, b.Structure, b.NegativeCapped, b.Raw, b.Score)
			}
			if out.Err != nil {
				return fmt.Errorf("generation failed: %w", out.Err)
			}
			return nil
		},
	}
}

func printAnswer(w io.Writer, out core.PipelineOutput) {
	fmt.Fprintln(w, out.Answer)
	fmt.Fprintf(w, "\nconfidence %.2f\n", out.Confidence)
	if len(out.Sources) == 0 {
		return
	}
	fmt.Fprintln(w, "\nsources:")
	for i, s := range out.Sources {
		fmt.Fprintf(w, "  [%d] %s (%s) %.2f", i+1, s.Title, s.ChunkID, s.RelevanceScore)
		if s.URL != "" {
			fmt.Fprintf(w, " %s", s.URL)
		}
		fmt.Fprintln(w)
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Remove a document and its chunks from the index",
		ArgsUsage: "<document-id>...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("at least one document id is required")
			}
			ctx := context.Background()
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			engine, err := openEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer engine.Close()

			for _, id := range c.Args().Slice() {
				n, err := engine.Indexer().DeleteDocument(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "%s: removed %d chunks\n", id, n)
			}
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration as YAML",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(c.App.Writer)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
