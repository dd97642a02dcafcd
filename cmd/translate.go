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
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/bitext/internal/lifecycle"
	"github.com/valpere/bitext/internal/viewer"
	"github.com/valpere/bitext/internal/worddiff"
)

var (
	translatePage int
	saveRestored  bool
)

// withSession opens book args[0] and runs fn against it, waiting for
// background saves before returning.
func withSession(cmd *cobra.Command, args []string, fn func(s *viewer.Session, args []string) error) error {
	id, err := parseBookID(args[0])
	if err != nil {
		return err
	}
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := a.open(cmd.Context(), id)
	if err != nil {
		return err
	}
	return fn(s, args[1:])
}

var translateCmd = &cobra.Command{
	Use:   "translate <book> [sentence]...",
	Short: "Machine translate sentences",
	Long: `Machine translate the given sentences, or with --page every untranslated
sentence of that page. The model is chosen with --model.

Examples:
  bitext translate 12 s-0001 s-0002
  bitext translate 12 --page 3 --model ollama:qwen2.5:7b`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args, func(s *viewer.Session, ids []string) error {
			if translatePage > 0 {
				p, err := s.Document().Page(translatePage - 1)
				if err != nil {
					return err
				}
				for _, sent := range p.Sentences {
					if !s.Scope().Store().Has(sent.ID) {
						ids = append(ids, sent.ID)
					}
				}
			}
			if len(ids) == 0 {
				fmt.Println("Nothing to translate.")
				return nil
			}

			failed := 0
			for _, id := range ids {
				out, err := s.Translate(cmd.Context(), id)
				if err != nil {
					var svcErr *lifecycle.TranslationServiceError
					if !errors.As(err, &svcErr) {
						return err
					}
					fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
					failed++
					continue
				}
				fmt.Printf("%s\t%s\n", id, out)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d translations failed", failed, len(ids))
			}
			return nil
		})
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <book> <sentence> <text>",
	Short: "Save an edited translation as a new version",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args, func(s *viewer.Session, args []string) error {
			if err := s.Save(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Saved %s, version %d\n", args[0], s.Scope().Ledger().Len(args[0]))
			return nil
		})
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <book> <sentence>...",
	Short: "Approve translated sentences",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args, func(s *viewer.Session, ids []string) error {
			for _, id := range ids {
				if err := s.Approve(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Printf("Approved %s\n", id)
			}
			return nil
		})
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <book> <sentence> <version>",
	Short: "Show an earlier version, or make it current with --save",
	Long: `Restore puts an earlier version back into the editor. Versions are
numbered from 1 as listed by "bitext history". Without --save nothing is
stored; with --save the restored text is saved as a new version.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args, func(s *viewer.Session, args []string) error {
			id := args[0]
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[1])
			}
			if err := s.Restore(id, n-1); err != nil {
				return err
			}
			t, _ := s.Scope().Store().Get(id)
			fmt.Println(t.Text)

			if !saveRestored {
				return nil
			}
			if err := s.Save(cmd.Context(), id, t.Text); err != nil {
				return err
			}
			fmt.Printf("Saved %s, version %d\n", id, s.Scope().Ledger().Len(id))
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <book> <sentence>",
	Short: "Show the version history of a sentence with word diffs",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args, func(s *viewer.Session, args []string) error {
			id := args[0]
			history := s.History(id)
			if len(history) == 0 {
				fmt.Printf("%s has no versions (%s)\n", id, s.State(id))
				return nil
			}

			fmt.Printf("%s: %s\n", id, s.State(id))
			for _, h := range history {
				stamp := "loaded"
				if !h.Version.Timestamp.IsZero() {
					stamp = h.Version.Timestamp.Local().Format("2006-01-02 15:04:05")
				}
				model := h.Version.Model
				if model == "" {
					model = "-"
				}
				marker := " "
				if h.Latest {
					marker = "*"
				}
				fmt.Printf("%s %d  %s  %s\n", marker, h.Index+1, stamp, model)
				fmt.Printf("    %s\n", formatDiff(h.Diff))
			}
			return nil
		})
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress <book>",
	Short: "Show how many sentences are translated and approved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args, func(s *viewer.Session, _ []string) error {
			p := s.Progress()
			pct := 0
			if p.Total > 0 {
				pct = (p.Translated*100 + p.Total/2) / p.Total
			}
			fmt.Printf("%s\n", s.Document().Title)
			fmt.Printf("Translated: %d/%d (%d%%)\n", p.Translated, p.Total, pct)
			fmt.Printf("Approved:   %d\n", p.Approved)
			return nil
		})
	},
}

// formatDiff renders a word diff inline, [-removed-] and {+added+}.
func formatDiff(parts []worddiff.Part) string {
	var b strings.Builder
	for _, p := range parts {
		switch p.Kind {
		case worddiff.Removed:
			b.WriteString("[-" + p.Token + "-]")
		case worddiff.Added:
			b.WriteString("{+" + p.Token + "+}")
		default:
			b.WriteString(p.Token)
		}
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(translateCmd, saveCmd, approveCmd, restoreCmd, historyCmd, progressCmd)

	translateCmd.Flags().IntVarP(&translatePage, "page", "p", 0, "Translate every untranslated sentence of this page (1-based)")
	restoreCmd.Flags().BoolVar(&saveRestored, "save", false, "Save the restored text as a new version")
}
