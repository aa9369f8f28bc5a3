// Package checkpoint persists scrape progress so an interrupted run can
// resume without re-fetching completed pages. Durability is at-least-once:
// a crash between a page's inserts and the checkpoint write re-processes
// that page on resume, and the ingest gateway's natural-key check absorbs
// the duplicates.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
)

// Section tracks one logical slice of a scrape (a dealer location or a
// listing type).
type Section struct {
	CompletedPages []int `json:"completed_pages"`
	Imported       int   `json:"imported"`
}

// File is a flat JSON progress checkpoint, one per scraper. Concurrent
// invocations against the same file are not supported.
type File struct {
	path     string
	Sections map[string]*Section `json:"sections"`
}

// Load reads the checkpoint at path, defaulting to an empty structure when
// the file does not exist.
func Load(path string) (*File, error) {
	f := &File{path: path, Sections: make(map[string]*Section)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse checkpoint %s: %w", path, err)
	}
	if f.Sections == nil {
		f.Sections = make(map[string]*Section)
	}
	return f, nil
}

// PageDone reports whether page was already fully processed for section.
func (f *File) PageDone(section string, page int) bool {
	s, ok := f.Sections[section]
	if !ok {
		return false
	}
	for _, p := range s.CompletedPages {
		if p == page {
			return true
		}
	}
	return false
}

// Imported returns the cumulative imported count for section.
func (f *File) Imported(section string) int {
	if s, ok := f.Sections[section]; ok {
		return s.Imported
	}
	return 0
}

// MarkDone records page as completed, adds imported to the section's
// cumulative count, and immediately rewrites the whole file.
func (f *File) MarkDone(section string, page, imported int) error {
	s, ok := f.Sections[section]
	if !ok {
		s = &Section{}
		f.Sections[section] = s
	}
	if !f.PageDone(section, page) {
		s.CompletedPages = append(s.CompletedPages, page)
	}
	s.Imported += imported
	return f.save()
}

func (f *File) save() error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}
