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
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/valpere/bitext/internal/config"
	"github.com/valpere/bitext/internal/logging"
)

var version = "0.1.0"

var (
	v          = config.New()
	cfg        *config.Config
	configFile string
	envFiles   []string
)

var rootCmd = &cobra.Command{
	Use:   "bitext",
	Short: "Sentence-level bilingual annotation",
	Long: `A CLI for translating books sentence by sentence.

Pages are shown as an original and a translated pane. Each sentence can be
machine translated, edited, approved, and restored from its version history.
Books come from the book service, or from a local SQLite mirror with --offline.

Model tags: kazllm, claude and chatgpt go to the book service; google,
ollama:<model>, openrouter:<model> and mymemory call those services directly.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(v, configFile, envFiles...)
		if err != nil {
			return err
		}
		cfg = c
		logging.Setup(cfg.LogLevel, cfg.LogPretty)
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logging.Component("cli").Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default ./bitext.yaml or $XDG_CONFIG_HOME/bitext/bitext.yaml)")
	pf.StringSliceVar(&envFiles, "env-file", nil, "Env files to load (default .env)")

	pf.String("api-url", "", "Book service base URL")
	pf.String("token", "", "Book service bearer token")
	pf.StringP("model", "m", "", "Model tag for translate and save")
	pf.String("db", "", "Path of the local SQLite mirror")
	pf.Bool("offline", false, "Use the local mirror instead of the book service")
	pf.Bool("memory", false, "Answer repeated sentences from the translation memory")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.Bool("pretty", false, "Human-readable log output")

	for flag, key := range map[string]string{
		"api-url":   "api_url",
		"token":     "token",
		"model":     "model",
		"db":        "db",
		"offline":   "offline",
		"memory":    "memory",
		"log-level": "log_level",
		"pretty":    "log_pretty",
	} {
		// A bound flag only overrides env and file values when set explicitly.
		if err := v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}
