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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/valpere/bitext/internal/assist"
	"github.com/valpere/bitext/internal/backend"
	"github.com/valpere/bitext/internal/lifecycle"
	"github.com/valpere/bitext/internal/logging"
	"github.com/valpere/bitext/internal/refiner"
	"github.com/valpere/bitext/internal/store"
	"github.com/valpere/bitext/internal/translator"
	"github.com/valpere/bitext/internal/validator"
	"github.com/valpere/bitext/internal/viewer"
)

// app holds everything a command needs, built from the loaded config.
type app struct {
	client *backend.Client
	db     *store.Store
	tr     lifecycle.Translator
	ctrl   *lifecycle.Controller
	source viewer.Source
	assist *assist.Assistant
	log    zerolog.Logger
}

// newApp wires the configured stack. The mirror is opened when offline, when
// the translation memory is on, or when withDB asks for it.
func newApp(withDB bool) (*app, error) {
	a := &app{log: logging.Component("cli")}

	if cfg.DB != "" && (cfg.Offline || cfg.Memory || withDB) {
		if err := os.MkdirAll(filepath.Dir(cfg.DB), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := store.New(cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.db = db
	}

	var persister lifecycle.Persister
	var fallback translator.Fallback
	if cfg.Offline {
		a.source = a.db
		persister = a.db
	} else {
		a.client = backend.New(cfg.APIURL, cfg.Token, cfg.RequestTimeout)
		a.source = a.client
		persister = a.client
		fallback = a.client
		a.assist = assist.New(a.client, cfg.SourceLanguage, cfg.TargetLanguage)
	}

	var tr lifecycle.Translator = translator.NewRouter(fallback, cfg.SourceLanguage, cfg.TargetLanguage, buildServices()...)
	if cfg.RefineModel != "" {
		tr = refiner.Wrap(tr, refiner.NewOllamaRefiner(cfg.RefineModel, ollamaURL()), cfg.SourceLanguage, cfg.TargetLanguage)
	}
	if cfg.ValidateLanguage {
		tr = validator.New(cfg.SourceLanguage, cfg.TargetLanguage).Wrap(tr)
	}
	if cfg.Memory {
		if a.db == nil {
			a.close()
			return nil, errors.New("translation memory requires db")
		}
		tr = a.db.Memory(tr, cfg.TargetLanguage)
	}
	a.tr = tr

	a.ctrl = lifecycle.New(tr, persister, lifecycle.Options{
		Model:          cfg.Model,
		PersistTimeout: cfg.PersistTimeout,
		OnPersistError: func(err error) {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		},
	})
	return a, nil
}

// buildServices registers the direct translation services the config
// enables. Ollama and MyMemory need no key and are always available.
func buildServices() []translator.Service {
	list := []translator.Service{
		translator.NewOllamaService(translator.ServiceConfig{
			BaseURL: ollamaURL(),
			Model:   cfg.OllamaModel,
		}),
		translator.NewMyMemoryService(cfg.MyMemoryEmail),
	}
	if cfg.GoogleCredentials != "" || cfg.GoogleProject != "" {
		list = append(list, translator.NewGoogleService(cfg.GoogleCredentials, cfg.GoogleProject))
	}
	if cfg.OpenRouterKey != "" {
		list = append(list, translator.NewOpenRouterService(translator.ServiceConfig{
			APIKey:  cfg.OpenRouterKey,
			Timeout: cfg.RequestTimeout,
		}))
	}
	return list
}

func ollamaURL() string {
	if cfg.OllamaURL == "" {
		return translator.DefaultOllamaURL
	}
	return cfg.OllamaURL
}

// open starts a viewer session on book id.
func (a *app) open(ctx context.Context, id int64) (*viewer.Session, error) {
	s, err := viewer.Open(ctx, a.source, a.ctrl, id, viewer.Options{
		Model:     cfg.Model,
		Debounce:  cfg.Debounce,
		CacheSize: cfg.ProjectionCache,
		Assistant: a.assist,
	})
	if err != nil {
		return nil, err
	}
	if r := s.Report(); r.Skipped > 0 {
		a.log.Warn().Int64("book_id", id).Int("skipped", r.Skipped).Msg("some stored translations match no sentence")
	}
	return s, nil
}

// online returns the book service client, failing in offline mode.
func (a *app) online(what string) (*backend.Client, error) {
	if a.client == nil {
		return nil, fmt.Errorf("%s needs the book service, drop --offline", what)
	}
	return a.client, nil
}

// mirror returns the local store, failing when none is configured.
func (a *app) mirror(what string) (*store.Store, error) {
	if a.db == nil {
		return nil, fmt.Errorf("%s needs a database, set --db", what)
	}
	return a.db, nil
}

// close waits for background saves and releases the mirror.
func (a *app) close() {
	if a.ctrl != nil {
		a.ctrl.Flush()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close database")
		}
	}
}

func parseBookID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book id %q", arg)
	}
	return id, nil
}
