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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/bitext/internal/arbiter"
	"github.com/valpere/bitext/internal/orchestrator"
)

var (
	compareModels  []string
	useArbiter     bool
	compareApply   int
	compareRetries int
)

var compareCmd = &cobra.Command{
	Use:   "compare <book> <sentence>",
	Short: "Translate a sentence with several models side by side",
	Long: `Translate one sentence with every model in --models in parallel and list
the results. --arbiter asks an Ollama model (arbiter_model) to pick the best
or compose a better one. --apply N saves candidate N as a new version; with
--arbiter, --apply 0 saves the arbiter's choice.

Example:
  bitext compare 12 s-0001 --models kazllm,google,ollama:qwen2.5:7b --arbiter`,
	Args: cobra.ExactArgs(2),
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

		s, err := a.open(cmd.Context(), id)
		if err != nil {
			return err
		}
		sentenceID := args[1]
		sent, ok := s.Document().Lookup(sentenceID)
		if !ok {
			return fmt.Errorf("sentence %s not found in book %d", sentenceID, id)
		}

		ctx := cmd.Context()
		orch := orchestrator.New(a.tr, orchestrator.Config{
			Timeout:     cfg.RequestTimeout,
			MaxAttempts: compareRetries,
		})
		result, err := orch.Execute(ctx, sent.Text, compareModels)
		if err != nil {
			return err
		}
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "%v\n", e)
		}
		if result.Succeeded == 0 {
			return fmt.Errorf("all %d models failed", result.Failed)
		}

		fmt.Printf("%s\n\n", sent.Text)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tMODEL\tLATENCY\tTRANSLATION")
		for i, c := range result.Candidates {
			fmt.Fprintf(w, "%d\t%s\t%dms\t%s\n", i+1, c.Model, c.Latency.Milliseconds(), c.Text)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		model, text := "", ""
		if useArbiter {
			arb := arbiter.NewOllamaArbiter(cfg.ArbiterModel, ollamaURL())
			ev, err := arb.Evaluate(ctx, sent.Text, cfg.SourceLanguage, cfg.TargetLanguage, result.Candidates)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Arbiter failed: %v\n", err)
			} else {
				fmt.Printf("\nArbiter selected %s: %s\n", ev.Selected, ev.Text)
				if ev.Reasoning != "" {
					fmt.Printf("  %s\n", ev.Reasoning)
				}
				model, text = ev.Selected, ev.Text
				if ev.IsComposite() {
					model = "arbiter:" + cfg.ArbiterModel
				}
			}
		}

		switch {
		case compareApply > 0:
			if compareApply > len(result.Candidates) {
				return fmt.Errorf("no candidate %d, got %d", compareApply, len(result.Candidates))
			}
			c := result.Candidates[compareApply-1]
			model, text = c.Model, c.Text
		case compareApply == 0:
			if text == "" {
				return errors.New("--apply 0 needs an arbiter choice, add --arbiter")
			}
		default:
			return nil
		}

		s.SetModel(model)
		if err := s.Save(ctx, sentenceID, text); err != nil {
			return err
		}
		fmt.Printf("Saved %s from %s, version %d\n", sentenceID, model, s.Scope().Ledger().Len(sentenceID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringSliceVar(&compareModels, "models", []string{"kazllm", "google", "ollama"}, "Model tags to compare (comma-separated)")
	compareCmd.Flags().BoolVar(&useArbiter, "arbiter", false, "Ask an LLM arbiter to choose the best translation")
	compareCmd.Flags().IntVar(&compareApply, "apply", -1, "Save candidate N (1-based), or 0 for the arbiter's choice")
	compareCmd.Flags().IntVar(&compareRetries, "max-retries", 1, "Total attempts per model including the first (1 = no retries)")
}
