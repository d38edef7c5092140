package app

import (
	"context"
	"fmt"
	"os"

	"github.com/zeebo/xxh3"

	"github.com/vk/conceptc/internal/cachestore"
	"github.com/vk/conceptc/internal/compiler"
	"github.com/vk/conceptc/internal/ctxlog"
	"github.com/vk/conceptc/internal/macro"
	"github.com/vk/conceptc/internal/output"
	"github.com/vk/conceptc/internal/publish"
	"github.com/vk/conceptc/internal/snapshot"
	"github.com/vk/conceptc/internal/source"
	"github.com/vk/conceptc/internal/token"
)

// Run compiles the configured sources and writes, and optionally
// publishes, the ordered concept list.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	result, err := a.Result(ctx)
	if err != nil {
		return err
	}
	doc := output.Build(result)

	if err := a.writeOutput(doc); err != nil {
		return err
	}

	if a.config.Publish.URL != "" {
		err := publish.Publish(ctx, publish.Options{
			URL:                a.config.Publish.URL,
			Namespace:          a.config.Publish.Namespace,
			Event:              a.config.Publish.Event,
			AckEvent:           a.config.Publish.AckEvent,
			Timeout:            a.config.publishTimeout(),
			InsecureSkipVerify: a.config.Publish.InsecureSkipVerify,
		}, doc)
		if err != nil {
			return fmt.Errorf("failed to publish concepts: %w", err)
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// Result returns the compiled model, compiling it on the first call.
func (a *App) Result(ctx context.Context) (*compiler.Result, error) {
	return a.result.Get(ctxlog.WithLogger(ctx, a.logger))
}

func (a *App) writeOutput(doc *output.Document) error {
	w := a.outW
	if a.config.OutputPath != "" {
		f, err := os.Create(a.config.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := output.Write(w, doc, output.Format(a.config.OutputFormat)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (a *App) compilerOptions(hints *macro.Hints) compiler.Options {
	return compiler.Options{
		Token: token.Options{
			Variant:           a.config.Variant,
			VariantExtensions: a.config.VariantExtensions,
		},
		ExcessDotInKey: a.config.excessDotPolicy(),
		MaxErrorLines:  a.config.MaxErrorLines,
		MaxIterations:  a.config.MaxIterations,
		Hints:          hints,
	}
}

// optionsFingerprint covers the options that change what a compilation
// produces.
func (a *App) optionsFingerprint() uint64 {
	return xxh3.HashString(fmt.Sprintf("%s|%v|%s|%d",
		a.config.Variant, a.config.VariantExtensions, a.config.excessDotPolicy(), a.config.MaxIterations))
}

// build is the compiler.BuildFunc behind Result.
func (a *App) build(ctx context.Context) (*compiler.Result, error) {
	logger := ctxlog.FromContext(ctx)

	set, err := source.Load(ctx, a.config.Sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}

	if a.config.CachePath == "" {
		return compiler.Compile(ctx, a.registry, set, a.compilerOptions(nil))
	}

	// Includes are resolved while tokenizing, so the key needs the tokens.
	tokens, err := compiler.Tokenize(ctx, set, a.compilerOptions(nil))
	if err != nil {
		return nil, err
	}

	store, err := cachestore.Open(ctx, a.config.CachePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	key := cachestore.Key(set.Fingerprint(), token.IncludeFingerprint(tokens), a.registry.Fingerprint(), a.optionsFingerprint())
	build, hit, err := store.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if hit {
		result, err := snapshot.Decode(a.registry, build.Snapshot)
		if err == nil {
			logger.Info("Using cached build.", "build", build.ID, "concepts", result.Graph.Len())
			return result, nil
		}
		logger.Warn("Ignoring unreadable cached build.", "build", build.ID, "error", err)
	}

	hints := macro.NewHints()
	if err := store.LoadHints(ctx, hints); err != nil {
		return nil, err
	}
	result, err := compiler.CompileTokens(ctx, a.registry, set, tokens, a.compilerOptions(hints))
	if err != nil {
		return nil, err
	}
	if err := store.SaveHints(ctx, hints); err != nil {
		return nil, err
	}

	data, err := snapshot.Encode(result)
	if err != nil {
		return nil, err
	}
	saved, err := store.Save(ctx, key, data)
	if err != nil {
		return nil, err
	}
	logger.Info("Compiled and cached.", "build", saved.ID, "concepts", result.Graph.Len(), "iterations", result.Stats.Iterations)
	return result, nil
}
