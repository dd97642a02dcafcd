/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/bitext/internal/backend"
)

var (
	onlyCompleted bool
	downloadDir   string
)

type bookLister interface {
	ListBooks(ctx context.Context) ([]backend.BookSummary, error)
}

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List books with their translation progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		var src bookLister
		if a.client != nil {
			src = a.client
		} else {
			src = a.db
		}
		books, err := src.ListBooks(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list books: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tPAGES\tSENTENCES\tPROGRESS\tUPLOADED")
		n := 0
		for _, b := range books {
			if onlyCompleted && !b.Completed() {
				continue
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%d/%d\t%d%%\t%s\n",
				b.ID, b.Title, b.TotalPages,
				b.TranslatedSentences, b.TotalSentences, b.Progress(), b.UploadedAt)
			n++
		}
		if n == 0 {
			fmt.Println("No books.")
			return nil
		}
		return w.Flush()
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <book>",
	Short: "Delete a book from the book service and the local mirror",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBookID(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()

		if a.client != nil {
			if err := a.client.DeleteBook(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete book: %w", err)
			}
		}
		if a.db != nil {
			if err := a.db.DeleteBook(cmd.Context(), id); err != nil && a.client == nil {
				return fmt.Errorf("failed to delete book: %w", err)
			}
		}
		fmt.Printf("Deleted book %d\n", id)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <book>",
	Short: "Download the translated book file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBookID(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		client, err := a.online("download")
		if err != nil {
			return err
		}
		export, err := client.Download(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to download book: %w", err)
		}

		if err := os.MkdirAll(downloadDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		// The service names the file; keep only its base name.
		out := filepath.Join(downloadDir, filepath.Base(export.Filename))
		if err := os.WriteFile(out, export.Content, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Saved %s (%s, %d bytes)\n", out, export.ContentType, len(export.Content))
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <book>...",
	Short: "Copy books from the book service into the local mirror",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, len(args))
		for i, arg := range args {
			id, err := parseBookID(arg)
			if err != nil {
				return err
			}
			ids[i] = id
		}
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()

		client, err := a.online("sync")
		if err != nil {
			return err
		}
		db, err := a.mirror("sync")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		summaries, err := client.ListBooks(ctx)
		if err != nil {
			return fmt.Errorf("failed to list books: %w", err)
		}
		uploaded := make(map[int64]string, len(summaries))
		for _, s := range summaries {
			uploaded[s.ID] = s.UploadedAt
		}

		for _, id := range ids {
			b, err := client.GetBook(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to fetch book %d: %w", id, err)
			}
			if err := db.ImportBook(ctx, b, uploaded[id]); err != nil {
				return fmt.Errorf("failed to import book %d: %w", id, err)
			}
			fmt.Printf("Synced book %d %q: %d pages, %d translations\n", id, b.Title, len(b.Pages), len(b.Translations))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(booksCmd, deleteCmd, downloadCmd, syncCmd)

	booksCmd.Flags().BoolVar(&onlyCompleted, "completed", false, "Only list fully translated books")
	downloadCmd.Flags().StringVarP(&downloadDir, "output", "o", ".", "Directory to save the file in")
}
