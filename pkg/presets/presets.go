// Package presets holds the static style and voice catalogs offered to clients.
package presets

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Style is a visual style preset. PromptSuffix is appended to every scene prompt.
type Style struct {
	Key          string `yaml:"key"           json:"id"`
	Name         string `yaml:"name"          json:"name"`
	Description  string `yaml:"description"   json:"description"`
	PromptSuffix string `yaml:"prompt_suffix" json:"prompt_suffix"`
}

// Voice is a narration voice preset.
type Voice struct {
	Key         string `yaml:"key"         json:"id"`
	Name        string `yaml:"name"        json:"name"`
	Description string `yaml:"description" json:"description"`
	VoiceID     string `yaml:"voice_id"    json:"voice_id"`
}

// Catalog is an immutable set of styles and voices. Lookups are case-sensitive.
type Catalog struct {
	styles       []Style
	voices       []Voice
	styleIndex   map[string]int
	voiceIndex   map[string]int
	defaultStyle string
	defaultVoice string
}

type catalogDoc struct {
	DefaultStyle string  `yaml:"default_style"`
	DefaultVoice string  `yaml:"default_voice"`
	Styles       []Style `yaml:"styles"`
	Voices       []Voice `yaml:"voices"`
}

// Parse builds a Catalog from a YAML document. Both defaults must name an entry.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	c := &Catalog{
		styles:       doc.Styles,
		voices:       doc.Voices,
		styleIndex:   make(map[string]int, len(doc.Styles)),
		voiceIndex:   make(map[string]int, len(doc.Voices)),
		defaultStyle: doc.DefaultStyle,
		defaultVoice: doc.DefaultVoice,
	}
	for i, s := range doc.Styles {
		if s.Key == "" {
			return nil, fmt.Errorf("style %d has no key", i)
		}
		if _, dup := c.styleIndex[s.Key]; dup {
			return nil, fmt.Errorf("duplicate style %q", s.Key)
		}
		c.styleIndex[s.Key] = i
	}
	for i, v := range doc.Voices {
		if v.Key == "" {
			return nil, fmt.Errorf("voice %d has no key", i)
		}
		if _, dup := c.voiceIndex[v.Key]; dup {
			return nil, fmt.Errorf("duplicate voice %q", v.Key)
		}
		if v.VoiceID == "" {
			c.voices[i].VoiceID = v.Key
		}
		c.voiceIndex[v.Key] = i
	}

	if _, ok := c.styleIndex[c.defaultStyle]; !ok {
		return nil, fmt.Errorf("default style %q is not in the catalog", c.defaultStyle)
	}
	if _, ok := c.voiceIndex[c.defaultVoice]; !ok {
		return nil, fmt.Errorf("default voice %q is not in the catalog", c.defaultVoice)
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog. It panics if the embedded document is invalid,
// which the package tests rule out.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("presets: embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Style returns the style for key.
func (c *Catalog) Style(key string) (Style, bool) {
	i, ok := c.styleIndex[key]
	if !ok {
		return Style{}, false
	}
	return c.styles[i], true
}

// Voice returns the voice for key.
func (c *Catalog) Voice(key string) (Voice, bool) {
	i, ok := c.voiceIndex[key]
	if !ok {
		return Voice{}, false
	}
	return c.voices[i], true
}

// StyleOrDefault returns the style for key, or the default style when key is unknown.
func (c *Catalog) StyleOrDefault(key string) Style {
	if s, ok := c.Style(key); ok {
		return s
	}
	s, _ := c.Style(c.defaultStyle)
	return s
}

// VoiceOrDefault returns the voice for key, or the default voice when key is unknown.
func (c *Catalog) VoiceOrDefault(key string) Voice {
	if v, ok := c.Voice(key); ok {
		return v
	}
	v, _ := c.Voice(c.defaultVoice)
	return v
}

func (c *Catalog) DefaultStyle() string { return c.defaultStyle }
func (c *Catalog) DefaultVoice() string { return c.defaultVoice }

// Styles returns the styles in catalog order.
func (c *Catalog) Styles() []Style {
	out := make([]Style, len(c.styles))
	copy(out, c.styles)
	return out
}

// Voices returns the voices in catalog order.
func (c *Catalog) Voices() []Voice {
	out := make([]Voice, len(c.voices))
	copy(out, c.voices)
	return out
}
