package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dialogprime/internal/dialog"
	"dialogprime/internal/manifest"
	"dialogprime/internal/priming"
	"dialogprime/internal/recognizer"
)

var (
	describeLocale     string
	describeAllLocales bool
	describeWatch      bool
)

// localeDescription is the JSON shape printed by describe.
type localeDescription struct {
	Locale   string            `json:"locale"`
	Possible priming.Aggregate `json:"possible"`
}

var describeCmd = &cobra.Command{
	Use:   "describe [manifest]",
	Short: "Print the priming description of a manifest's root dialog",
	Long: `Computes the Possible aggregate — every intent, entity and vocabulary list
statically reachable from the manifest's root dialog — and prints it as JSON.

The locale defaults to the manifest's locale, then the configured default.
With --all-locales, one description is computed per locale found in the
tree's multi-language recognizers. With --watch, the manifest is re-described
whenever the file changes on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runDescribe,
}

func init() {
	describeCmd.Flags().StringVar(&describeLocale, "locale", "", "locale to describe for (overrides the manifest)")
	describeCmd.Flags().BoolVar(&describeAllLocales, "all-locales", false, "describe for every locale in the tree")
	describeCmd.Flags().BoolVar(&describeWatch, "watch", false, "re-describe whenever the manifest changes")
}

func runDescribe(cmd *cobra.Command, args []string) error {
	path := args[0]
	reg := dialog.NewRegistry(recognizer.NewRegistry())

	describe := func(m *manifest.Manifest) error {
		out, err := describeManifest(reg, m)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	if err := describe(m); err != nil {
		return err
	}

	if !describeWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := manifest.NewWatcher(path, func(m *manifest.Manifest) {
		if err := describe(m); err != nil {
			logger.Warn("describe failed after reload", zap.Error(err))
		}
	}, logger)
	if err != nil {
		return err
	}
	w.SetDebounce(cfg.Watch.Debounce)
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	logger.Info("watching manifest for changes", zap.String("path", path))
	<-ctx.Done()
	return nil
}

func describeManifest(reg *dialog.Registry, m *manifest.Manifest) ([]localeDescription, error) {
	locales := []string{resolveLocale(m)}
	if describeAllLocales {
		if found := manifest.Locales(m.Dialog); len(found) > 0 {
			locales = found
		}
	}

	out := make([]localeDescription, len(locales))
	var mu sync.Mutex

	// Describe is a pure tree walk, so per-locale computations can fan out.
	var g errgroup.Group
	for i, locale := range locales {
		i, locale := i, locale
		g.Go(func() error {
			agg, err := reg.Describe(m.Dialog, locale)
			if err != nil {
				return fmt.Errorf("locale %q: %w", locale, err)
			}
			mu.Lock()
			out[i] = localeDescription{Locale: locale, Possible: agg}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func resolveLocale(m *manifest.Manifest) string {
	if describeLocale != "" {
		return describeLocale
	}
	if m.Locale != "" {
		return m.Locale
	}
	return cfg.DefaultLocale
}
