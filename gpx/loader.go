// gpx/loader.go
// Copyright(c) 2024-2026 wayfind contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package gpx

import (
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"

	"github.com/wayfind/wayfind/log"
	"github.com/wayfind/wayfind/util"

	"golang.org/x/sync/errgroup"
)

// Loader reads route description documents from disk and merges them into
// the single working pool the route engine uses. Loading never fails: a
// document that cannot be read or parsed falls back to the last
// successfully parsed copy from the on-disk cache, or failing that to an
// empty document, so a corrupt recording can't take navigation down.
type Loader struct {
	lg      *log.Logger
	noCache bool
}

func NewLoader(lg *log.Logger) *Loader {
	return &Loader{lg: lg}
}

// DisableCache turns off the on-disk fallback cache; tests use this to
// keep runs hermetic.
func (l *Loader) DisableCache() {
	l.noCache = true
}

// LoadFiles parses all of the given documents in parallel and merges the
// results in the order the paths were given.
func (l *Loader) LoadFiles(paths []string) *Document {
	docs := make([]*Document, len(paths))

	var eg errgroup.Group
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			docs[i] = l.loadFile(path)
			return nil
		})
	}
	_ = eg.Wait()

	return Merge(docs...)
}

func (l *Loader) loadFile(path string) *Document {
	data, err := os.ReadFile(path)
	if err == nil {
		var doc *Document
		if doc, err = Parse(data); err == nil {
			if !l.noCache {
				if cerr := util.CacheStoreObject(cacheKey(path), doc); cerr != nil {
					l.lg.Warnf("%s: unable to cache route document: %v", path, cerr)
				}
			}
			l.lg.Infof("%s: loaded %d tracks, %d waypoints", path, len(doc.Tracks),
				len(doc.Waypoints))
			return doc
		}
	}

	if !l.noCache {
		var doc Document
		if when, cerr := util.CacheRetrieveObject(cacheKey(path), &doc); cerr == nil {
			l.lg.Warnf("%s: falling back to cached copy from %v: %v", path, when, err)
			return &doc
		}
	}

	l.lg.Errorf("%s: unable to load route document: %v", path, err)
	return &Document{}
}

func cacheKey(path string) string {
	h := fnv.New64a()
	_, _ = io.WriteString(h, path)
	return filepath.Join("gpx", fmt.Sprintf("%016x", h.Sum64()))
}
