// Package flavor holds the announcement text the bot posts to the town.
package flavor

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// NoneKey is the reason used when the caller gives none
const NoneKey = "none"

var ErrUnknownFormat = errors.New("unknown flavor file format")

// Entry is one selectable reason
type Entry struct {
	Key  string `yaml:"key" xml:"key,attr"`
	Name string `yaml:"name" xml:"name,attr"`
	Text string `yaml:"text" xml:",chardata"`
}

// Catalog is the full set of announcement text
type Catalog struct {
	XMLName   xml.Name `yaml:"-" xml:"flavor"`
	Endings   []Entry  `yaml:"endings" xml:"endings>ending"`
	Deaths    []Entry  `yaml:"deaths" xml:"deaths>death"`
	Resurrect string   `yaml:"resurrect" xml:"resurrect"`
}

// Load reads a catalog from path, choosing the decoder by extension
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flavor file: %w", err)
	}
	var format string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	case ".xml":
		format = "xml"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	c, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalog in the given format
func Parse(data []byte, format string) (*Catalog, error) {
	var c Catalog
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse flavor yaml: %w", err)
		}
	case "xml":
		if err := xml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse flavor xml: %w", err)
		}
		for _, list := range [][]Entry{c.Endings, c.Deaths} {
			for i := range list {
				list[i].Text = strings.TrimSpace(list[i].Text)
			}
		}
		c.Resurrect = strings.TrimSpace(c.Resurrect)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every list has a none entry and no duplicate or blank keys
func (c *Catalog) Validate() error {
	if err := validateEntries("endings", c.Endings); err != nil {
		return err
	}
	if err := validateEntries("deaths", c.Deaths); err != nil {
		return err
	}
	if c.Resurrect == "" {
		return fmt.Errorf("resurrect text is required")
	}
	return nil
}

func validateEntries(list string, entries []Entry) error {
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if e.Key == "" {
			return fmt.Errorf("%s[%d]: key is required", list, i)
		}
		if e.Text == "" {
			return fmt.Errorf("%s[%d]: text is required", list, i)
		}
		if seen[e.Key] {
			return fmt.Errorf("%s: duplicate key %q", list, e.Key)
		}
		seen[e.Key] = true
	}
	if !seen[NoneKey] {
		return fmt.Errorf("%s: a %q entry is required", list, NoneKey)
	}
	return nil
}

func lookup(entries []Entry, key string) string {
	if key == "" {
		key = NoneKey
	}
	for _, e := range entries {
		if e.Key == key {
			return e.Text
		}
	}
	for _, e := range entries {
		if e.Key == NoneKey {
			return e.Text
		}
	}
	return ""
}

// Ending returns the closing announcement for a reason key. Unknown keys
// fall back to the none entry.
func (c *Catalog) Ending(key string) string {
	return lookup(c.Endings, key)
}

// Death returns the text following a dead player's mention
func (c *Catalog) Death(key string) string {
	return lookup(c.Deaths, key)
}
