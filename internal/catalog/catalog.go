// Package catalog resolves source IDs to document titles and URLs.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"mini-qna/internal/rag"
)

// Source is one entry of the sources file.
type Source struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// Catalog is an immutable id -> Source lookup table.
type Catalog struct {
	byID map[string]Source
}

// New builds a catalog from sources. Later duplicates replace earlier ones.
func New(sources []Source) *Catalog {
	byID := make(map[string]Source, len(sources))
	for _, s := range sources {
		if s.ID == "" {
			continue
		}
		byID[s.ID] = s
	}
	return &Catalog{byID: byID}
}

// Load reads a sources file. Files ending in .yaml or .yml are parsed as
// YAML, anything else as JSON. Both hold a list of {id, title, url}.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var sources []Source
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &sources)
	default:
		err = json.Unmarshal(data, &sources)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}

	return New(sources), nil
}

// Get returns the source with id, if present.
func (c *Catalog) Get(id string) (Source, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Lookup returns the source with id, or a placeholder titled
// "Unknown source <id>" with an empty URL.
func (c *Catalog) Lookup(id string) Source {
	if s, ok := c.byID[id]; ok {
		return s
	}
	return Source{ID: id, Title: "Unknown source " + id}
}

// Metadata builds the vector payload for a chunk of source id.
func (c *Catalog) Metadata(chunkID int64, sourceID string) rag.ChunkMetadata {
	src := c.Lookup(sourceID)
	return rag.ChunkMetadata{
		ChunkID:  chunkID,
		SourceID: sourceID,
		Title:    src.Title,
		URL:      src.URL,
	}
}

// IDs returns every source ID in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of sources.
func (c *Catalog) Len() int {
	return len(c.byID)
}
