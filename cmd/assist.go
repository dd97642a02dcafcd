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
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/bitext/internal/viewer"
)

var applyCandidate int

var explainCmd = &cobra.Command{
	Use:   "explain <book> <sentence>",
	Short: "Ask the assistant to explain a translation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args, func(s *viewer.Session, args []string) error {
			text, err := s.Explain(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		})
	},
}

var improveCmd = &cobra.Command{
	Use:   "improve <book> <sentence> <instruction>...",
	Short: "Ask the assistant for improved translations",
	Long: `Ask the assistant for up to five improved translations following the
instruction. --apply N saves candidate N as a new version.

Example:
  bitext improve 12 s-0001 make it more formal --apply 1`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args, func(s *viewer.Session, args []string) error {
			id := args[0]
			candidates, err := s.Improve(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			for i, c := range candidates {
				fmt.Printf("%d. %s\n", i+1, c)
			}

			if applyCandidate == 0 {
				return nil
			}
			if applyCandidate < 0 || applyCandidate > len(candidates) {
				return fmt.Errorf("no candidate %d, got %d", applyCandidate, len(candidates))
			}
			if err := s.ApplyCandidate(cmd.Context(), id, candidates[applyCandidate-1]); err != nil {
				return err
			}
			fmt.Printf("Saved %s, version %d\n", id, s.Scope().Ledger().Len(id))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(explainCmd, improveCmd)

	improveCmd.Flags().IntVar(&applyCandidate, "apply", 0, "Save this candidate (1-based)")
}
