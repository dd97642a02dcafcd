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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/bitext/internal/viewer"
)

var (
	viewPage int
	viewHTML bool
)

var viewCmd = &cobra.Command{
	Use:   "view <book>",
	Short: "Show a page with its original and translated text",
	Long: `Show one page of a book. By default each sentence is listed with its state,
original text and current translation. --html prints both rendered panes
instead, with translated, approved and active classes applied.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args, func(s *viewer.Session, _ []string) error {
			if err := s.GoTo(viewPage - 1); err != nil {
				return err
			}

			if viewHTML {
				view, err := s.Render()
				if err != nil {
					return err
				}
				fmt.Printf("<!-- page %d/%d, original -->\n%s\n", view.Page+1, view.NumPages, view.Panes.Original)
				fmt.Printf("<!-- page %d/%d, translated (%d applied) -->\n%s\n", view.Page+1, view.NumPages, view.Panes.Applied, view.Panes.Translated)
				return nil
			}

			p, err := s.Document().Page(s.Page())
			if err != nil {
				return err
			}
			fmt.Printf("%s, page %d/%d\n\n", s.Document().Title, s.Page()+1, s.Document().NumPages())
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATE\tORIGINAL\tTRANSLATION")
			for _, sent := range p.Sentences {
				t, _ := s.Scope().Store().Get(sent.ID)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sent.ID, s.State(sent.ID), sent.Text, t.Text)
			}
			return w.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().IntVarP(&viewPage, "page", "p", 1, "Page to show (1-based)")
	viewCmd.Flags().BoolVar(&viewHTML, "html", false, "Print the rendered panes")
}
