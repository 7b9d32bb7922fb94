package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/japaniel/duckparse/pkg/db"
	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/japaniel/duckparse/pkg/document"
	"github.com/japaniel/duckparse/pkg/duckparse"
	"github.com/japaniel/duckparse/pkg/ingest"
	"github.com/japaniel/duckparse/pkg/language"
	"github.com/spf13/cobra"
)

func ingestCmd(a *app) *cobra.Command {
	var (
		dims      []string
		ref       string
		lang      string
		title     string
		workers   int
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "ingest <url|file>",
		Short: "Extract entities from a web article or a file and store them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l := a.cfg.Lang
			if lang != "" {
				var err error
				if l, err = language.Parse(lang); err != nil {
					return err
				}
			}
			filter, err := dimension.ParseList(dims...)
			if err != nil {
				return err
			}

			doc, kind, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			if title != "" {
				doc.Title = title
			}
			a.logger.Info("Document read", "title", doc.Title, "chars", len(doc.Text))

			conn, err := db.Open(a.cfg.DB)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer conn.Close()

			sourceID, err := db.CreateOrGetSource(conn, db.Source{
				SourceType: kind,
				Title:      doc.Title,
				Author:     doc.Author,
				Website:    doc.Site,
				URL:        doc.URL,
				Language:   l.ISO(),
			})
			if err != nil {
				return fmt.Errorf("failed to persist source: %w", err)
			}

			analyzer, err := document.NewAnalyzer(l)
			if err != nil {
				return err
			}
			sentences := analyzer.Split(doc.Text)

			p, err := a.loadedParser(ctx)
			if err != nil {
				return err
			}

			ig := ingest.NewIngester(conn, p)
			ig.Language = l
			ig.Dimensions = filter
			ig.Logger = a.logger
			if workers > 0 {
				ig.Workers = workers
			}
			if batchSize > 0 {
				ig.BatchSize = batchSize
			}
			if ref != "" {
				t, err := duckparse.ParseReferenceTime(ref)
				if err != nil {
					return err
				}
				ig.ReferenceTime = &t
			}
			ig.OnProgress = func(current, total int) {
				a.logger.Info("Progress", "source", sourceID, "sentences", current, "total", total)
			}

			start := time.Now()
			n, err := ig.Ingest(ctx, sourceID, sentences)
			if err != nil {
				return fmt.Errorf("ingestion failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Source %d: stored %d entries from %d sentences in %v\n",
				sourceID, n, len(sentences), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&dims, "dims", "d", nil, "only store these dimensions")
	cmd.Flags().StringVar(&ref, "ref", "", "reference time for relative expressions")
	cmd.Flags().StringVar(&lang, "in", "", "language of the document, overriding --lang")
	cmd.Flags().StringVar(&title, "title", "", "source title (defaults to the article or file name)")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel parse jobs")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "sentences per database transaction")
	return cmd
}

// readDocument loads a URL or a local file. HTML files go through the same
// article extraction as web pages.
func readDocument(cmd *cobra.Command, target string) (document.Document, string, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		doc, err := document.Fetch(cmd.Context(), nil, target)
		return doc, "website_article", err
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return document.Document{}, "", err
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return document.Document{}, "", err
	}
	fileURL := "file://" + filepath.ToSlash(abs)

	switch strings.ToLower(filepath.Ext(target)) {
	case ".html", ".htm":
		doc, err := document.FromHTML(data, fileURL)
		if doc.Title == "" {
			doc.Title = filepath.Base(target)
		}
		return doc, "html_file", err
	}
	return document.Document{
		Title: filepath.Base(target),
		URL:   fileURL,
		Text:  string(data),
	}, "text_file", nil
}

type sourceRow struct {
	ID       int64     `json:"id"`
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Author   string    `json:"author,omitempty"`
	URL      string    `json:"url,omitempty"`
	Language string    `json:"language"`
	AddedAt  time.Time `json:"added_at"`
	Progress int       `json:"last_processed_sentence"`
}

func sourcesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List ingested sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := db.Open(a.cfg.DB)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer conn.Close()

			sources, err := db.ListSources(conn)
			if err != nil {
				return err
			}
			rows := make([]sourceRow, len(sources))
			for i, s := range sources {
				rows[i] = sourceRow{
					ID:       s.ID,
					Type:     s.SourceType,
					Title:    s.Title,
					Author:   s.Author,
					URL:      s.URL,
					Language: s.Language,
					AddedAt:  s.AddedAt,
					Progress: s.LastProcessedSentence,
				}
			}
			return render(cmd.OutOrStdout(), a.format, rows)
		},
	}
}

type entryRow struct {
	Sentence int             `json:"sentence"`
	Dim      string          `json:"dim"`
	Body     string          `json:"body"`
	Start    int             `json:"start"`
	End      int             `json:"end"`
	Latent   bool            `json:"latent"`
	Value    json.RawMessage `json:"value"`
}

func entriesCmd(a *app) *cobra.Command {
	var (
		dims []string
		raw  bool
	)

	cmd := &cobra.Command{
		Use:   "entries <source-id>",
		Short: "Print the stored entries of a source in document order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid source id %q", args[0])
			}
			filter, err := dimension.ParseList(dims...)
			if err != nil {
				return err
			}
			names := make([]string, len(filter))
			for i, d := range filter {
				names[i] = d.String()
			}

			conn, err := db.Open(a.cfg.DB)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer conn.Close()

			if _, err := db.GetSource(conn, id); err != nil {
				return err
			}
			entries, err := db.ListEntries(conn, id, names)
			if err != nil {
				return err
			}
			rows := make([]entryRow, len(entries))
			for i, e := range entries {
				rows[i] = entryRow{
					Sentence: e.SentenceIndex,
					Dim:      e.Dim,
					Body:     e.Body,
					Start:    e.Start,
					End:      e.End,
					Latent:   e.Latent,
					Value:    json.RawMessage(e.Projected),
				}
				if raw {
					rows[i].Value = json.RawMessage(e.Value)
				}
			}
			return render(cmd.OutOrStdout(), a.format, rows)
		},
	}

	cmd.Flags().StringSliceVarP(&dims, "dims", "d", nil, "only print these dimensions")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the full decoded values")
	return cmd
}
