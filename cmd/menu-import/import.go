package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/bistro-kart/internal/domain/menu"
)

const bloomFPR = 0.001

// catalogFile is one decoded input with a filter over its entry ids.
type catalogFile struct {
	path       string
	categories []menu.Category
	filter     *bloom.BloomFilter

	// ids is built lazily, only for files a filter flagged.
	ids map[string]struct{}
}

func (f *catalogFile) entryCount() int {
	n := 0
	for _, c := range f.categories {
		n += len(c.Entries)
	}
	return n
}

func (f *catalogFile) has(id string) bool {
	if f.ids == nil {
		f.ids = make(map[string]struct{}, f.entryCount())
		for _, c := range f.categories {
			for _, e := range c.Entries {
				f.ids[e.ID] = struct{}{}
			}
		}
	}
	_, ok := f.ids[id]
	return ok
}

// loadFiles decodes every file concurrently, keeping input order.
func loadFiles(ctx context.Context, lg *zap.Logger, paths []string) ([]*catalogFile, error) {
	files := make([]*catalogFile, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			f, err := loadFile(ctx, path)
			if err != nil {
				return err
			}
			lg.Info("Decoded menu file",
				zap.String("path", path),
				zap.Int("categories", len(f.categories)),
				zap.Int("entries", f.entryCount()),
			)
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// loadFile reads a menu document, gunzipping files ending in .gz.
func loadFile(ctx context.Context, path string) (*catalogFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fd, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = fd.Close() }()

	var r io.Reader = fd
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(fd)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	categories, err := menu.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}

	f := &catalogFile{path: path, categories: categories}
	f.filter = bloom.NewWithEstimates(uint(max(f.entryCount(), 1)), bloomFPR)
	for _, c := range categories {
		for _, e := range c.Entries {
			f.filter.AddString(e.ID)
		}
	}
	return f, nil
}

// override records an entry id redefined by a later file.
type override struct {
	id   string
	from string
	by   string
}

// findOverrides returns, per file index, the entry ids a later file
// redefines. Filter hits are confirmed against the exact id set.
func findOverrides(files []*catalogFile) (map[int]map[string]struct{}, []override) {
	dropped := make(map[int]map[string]struct{})
	var overrides []override
	for i, f := range files {
		for _, c := range f.categories {
			for _, e := range c.Entries {
				last := -1
				for j := i + 1; j < len(files); j++ {
					if files[j].filter.TestString(e.ID) && files[j].has(e.ID) {
						last = j
					}
				}
				if last < 0 {
					continue
				}
				if dropped[i] == nil {
					dropped[i] = make(map[string]struct{})
				}
				dropped[i][e.ID] = struct{}{}
				overrides = append(overrides, override{id: e.ID, from: f.path, by: files[last].path})
			}
		}
	}
	return dropped, overrides
}

// merge combines files into one catalog. Categories keep first-seen order
// and merge by key; a later title replaces an earlier one. Entries redefined
// by a later file take the later definition and position.
func merge(files []*catalogFile, dropped map[int]map[string]struct{}) []menu.Category {
	var out []menu.Category
	index := make(map[string]int)
	for i, f := range files {
		for _, c := range f.categories {
			pos, ok := index[c.Key]
			if !ok {
				pos = len(out)
				index[c.Key] = pos
				out = append(out, menu.Category{Key: c.Key})
			}
			out[pos].Title = c.Title
			for _, e := range c.Entries {
				if _, skip := dropped[i][e.ID]; skip {
					continue
				}
				out[pos].Entries = append(out[pos].Entries, e)
			}
		}
	}
	return out
}
