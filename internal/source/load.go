package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/vk/conceptc/internal/ctxlog"
	"github.com/vk/conceptc/internal/fsutil"
)

// ScriptExtension is the file extension of DSL scripts.
const ScriptExtension = ".rhe"

// maxParallelReads bounds the number of files read at the same time.
const maxParallelReads = 8

// Load reads every script reachable from paths into a Set. Directories are
// walked for ScriptExtension files. Files are read concurrently but the Set
// keeps the discovery order, so the result is deterministic.
func Load(ctx context.Context, paths ...string) (*Set, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.CollectFiles(paths, ScriptExtension, false)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered script files.", "count", len(files))

	texts := make([]Text, len(files))
	g := new(errgroup.Group)
	g.SetLimit(maxParallelReads)
	for i, file := range files {
		g.Go(func() error {
			content, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read script %s: %w", file, err)
			}
			texts[i] = Text{
				Name:    filepath.ToSlash(file),
				Path:    file,
				Content: string(content),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Script sources loaded.", "sources", len(texts))
	return NewSet(texts...), nil
}
