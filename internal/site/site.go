// Package site turns a note corpus into a static HTML site: note pages, the
// home and listing pages, tag pages and the link graph.
package site

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"runtime"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/sync/errgroup"

	"github.com/starford/symark/internal/apperr"
	"github.com/starford/symark/internal/corpus"
	"github.com/starford/symark/internal/storage"
)

// Config describes the generated site.
type Config struct {
	Name        string
	Description string
	BaseURL     string
	Author      string
	// Templates is the directory holding page.html, styles.css and graph.js
	// overrides. Missing files fall back to the embedded defaults.
	Templates string
	Locale    monday.Locale
	// Workers bounds concurrent page rendering; 0 means one per CPU.
	Workers int
	// Now is the clock used for generated pages; nil means time.Now.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "SyMark"
	}
	if c.Description == "" {
		c.Description = "A collection of notes"
	}
	if c.Author == "" {
		c.Author = "Notes Author"
	}
	if c.Locale == "" {
		c.Locale = monday.LocaleEnUS
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Result summarises one build.
type Result struct {
	Corpus  *corpus.Corpus
	Pages   []string
	Assets  int
	Pruned  []string
	Elapsed time.Duration
}

// Build loads every note of src and writes the site into out. Pages render
// concurrently; each page gets its own renderer. HTML files left over from
// earlier builds are removed.
func Build(ctx context.Context, cfg Config, src storage.Provider, out *storage.FS, logger *slog.Logger) (*Result, error) {
	start := time.Now()
	cfg = cfg.withDefaults()

	tpl, err := LoadTemplates(cfg.Templates)
	if err != nil {
		return nil, err
	}
	c, err := corpus.Load(src, logger)
	if err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}

	gen := newGenerator(cfg, c, tpl)
	jobs := gen.plan()

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			if err := out.Write(j.name, []byte(j.render())); err != nil {
				return fmt.Errorf("site: write %s: %w", j.name, err)
			}
			logger.Debug("site: page written", slog.String("page", j.name))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	graphJSON, err := json.MarshalIndent(gen.graph, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("site: encode graph: %w", err)
	}
	for name, data := range map[string][]byte{
		StylesFile:  []byte(tpl.Styles),
		GraphScript: []byte(tpl.Graph),
		GraphJSON:   graphJSON,
	} {
		if err := out.Write(name, data); err != nil {
			return nil, fmt.Errorf("site: write %s: %w", name, err)
		}
	}

	assets, err := copyAssets(src, out)
	if err != nil {
		return nil, err
	}

	res := &Result{Corpus: c, Assets: assets}
	keep := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		res.Pages = append(res.Pages, j.name)
		keep[j.name] = struct{}{}
	}
	res.Pruned, err = out.Prune(".html", keep)
	if err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}
	res.Elapsed = time.Since(start)

	logger.Info("site: built",
		slog.Int("pages", len(res.Pages)),
		slog.Int("notes", len(c.Notes)),
		slog.Int("assets", res.Assets),
		slog.Int("pruned", len(res.Pruned)),
		slog.String("elapsed", res.Elapsed.String()))
	return res, nil
}

// copyAssets copies every file below a directory named "assets", at any
// depth of src, into the assets directory of out. Files whose checksum is
// unchanged are skipped.
func copyAssets(src storage.Provider, out *storage.FS) (int, error) {
	files, err := src.List("", "")
	if err != nil {
		return 0, fmt.Errorf("site: list assets: %w", err)
	}
	existing := make(map[string]string)
	prev, err := out.List(AssetsDir, "")
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return 0, fmt.Errorf("site: list output assets: %w", err)
	}
	for _, m := range prev {
		existing[m.Path] = m.Checksum
	}

	copied := 0
	for _, m := range files {
		rel, ok := assetPath(m.Path)
		if !ok {
			continue
		}
		dst := path.Join(AssetsDir, rel)
		if existing[dst] == m.Checksum {
			continue
		}
		data, err := src.Read(m.Path)
		if err != nil {
			return copied, fmt.Errorf("site: read asset: %w", err)
		}
		if err := out.Write(dst, data); err != nil {
			return copied, fmt.Errorf("site: write asset: %w", err)
		}
		copied++
	}
	return copied, nil
}

// assetPath returns the part of p below its first "assets" directory.
func assetPath(p string) (string, bool) {
	parts := strings.Split(p, "/")
	for i, part := range parts[:len(parts)-1] {
		if part == AssetsDir {
			return strings.Join(parts[i+1:], "/"), true
		}
	}
	return "", false
}
