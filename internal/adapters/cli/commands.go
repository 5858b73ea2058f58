package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
)

func newIngestCommand(a *app) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Ingest PDF or text files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if services.Ingestor == nil {
				return errNotConfigured
			}

			for _, path := range args {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				file := domain.SourceFile{
					Name:     filepath.Base(path),
					MimeType: mimeTypeForPath(path),
					Content:  content,
				}

				doc, err := services.Ingestor.Ingest(cmd.Context(), file, func(ev domain.ProgressEvent) {
					if !quiet {
						cmd.Printf("  [%s] %s\n", ev.Phase, ev.Message)
					}
				})
				if err != nil {
					return fmt.Errorf("ingest %s: %w", path, err)
				}
				cmd.Printf("%s  %s  %s  %d chunks\n", doc.ID, doc.Title, doc.Status, doc.ChunkCount)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print progress")
	return cmd
}

func newSearchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Print the retrieval context block for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if services.Searcher == nil {
				return errNotConfigured
			}
			cmd.Println(services.Searcher.Search(cmd.Context(), strings.Join(args, " ")))
			return nil
		},
	}
}

func newAskCommand(a *app) *cobra.Command {
	var showContext bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question grounded on the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if services.Advice == nil {
				return errNotConfigured
			}
			answer, err := services.Advice.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if showContext {
				cmd.Println(answer.Context)
				cmd.Println()
			}
			cmd.Println(answer.Text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showContext, "context", false, "print the retrieved context before the answer")
	return cmd
}

func newDocsCommand(a *app) *cobra.Command {
	var asJSON bool

	docs := &cobra.Command{
		Use:   "docs",
		Short: "Manage ingested documents",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if services.Library == nil {
				return errNotConfigured
			}
			items := services.Library.ListDocuments(cmd.Context())
			if asJSON {
				data, err := json.MarshalIndent(items, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal documents: %w", err)
				}
				cmd.Println(string(data))
				return nil
			}
			if len(items) == 0 {
				cmd.Println("No documents.")
				return nil
			}
			for _, d := range items {
				cmd.Printf("%s  %-5s %-10s %4d chunks  %s  %s\n",
					d.ID, d.SourceType, d.Status, d.ChunkCount, d.UploadedAt.Format("2006-01-02 15:04"), d.Title)
			}
			cmd.Printf("\nTotal: %d documents\n", len(items))
			return nil
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "output as JSON")

	remove := &cobra.Command{
		Use:     "delete [document-id]",
		Aliases: []string{"rm"},
		Short:   "Delete a document and its chunks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if services.Library == nil {
				return errNotConfigured
			}
			if err := services.Library.DeleteDocument(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("Deleted %s\n", args[0])
			return nil
		},
	}

	docs.AddCommand(list, remove)
	return docs
}

func newCatalogCommand(a *app) *cobra.Command {
	catalog := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the reference catalog",
	}

	crops := &cobra.Command{
		Use:   "crops",
		Short: "List crops with official norms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if services.Catalog == nil {
				return errNotConfigured
			}
			printNames(cmd, "Crops", services.Catalog.CropNames())
			return nil
		},
	}
	fertilizers := &cobra.Command{
		Use:   "fertilizers",
		Short: "List fertilizers with official norms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if services.Catalog == nil {
				return errNotConfigured
			}
			printNames(cmd, "Fertilizers", services.Catalog.FertilizerNames())
			return nil
		},
	}
	seed := &cobra.Command{
		Use:   "seed-neo4j",
		Short: "Write the active catalog into Neo4j",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if services.SeedCatalog == nil {
				return errNotConfigured
			}
			crops, ferts, err := services.SeedCatalog(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Seeded %d crops and %d fertilizers\n", crops, ferts)
			return nil
		},
	}

	catalog.AddCommand(crops, fertilizers, seed)
	return catalog
}

func printNames(cmd *cobra.Command, title string, names []string) {
	cmd.Printf("%s:\n", title)
	for _, n := range names {
		cmd.Printf("  %s\n", n)
	}
}

func mimeTypeForPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return "application/pdf"
	}
	return "text/plain"
}
