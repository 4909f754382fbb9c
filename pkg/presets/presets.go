// Package presets holds the text template and border catalog consumed by
// the styling actions.
//
// A catalog is read-only once built. The built-in [Default] catalog can be
// replaced by a TOML file:
//
//	[templates.classic]
//	font_size = 18
//	line_height = 1.3
//	inset_x = 16
//	inset_y = 12
//	color = "#111111"
//	background = "transparent"
//
//	[borders.rounded]
//	width = 0
//	radius = 12
package presets

import (
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/postkit/pkg/errors"
)

// Template is the geometry and default colors of a text style.
type Template struct {
	Name       string  `toml:"-" json:"name"`
	FontSize   float64 `toml:"font_size" json:"fontSize"`
	LineHeight float64 `toml:"line_height" json:"lineHeight"`
	InsetX     float64 `toml:"inset_x" json:"insetX"`
	InsetY     float64 `toml:"inset_y" json:"insetY"`
	Color      string  `toml:"color" json:"color"`
	Background string  `toml:"background" json:"background"`
}

// Border is the frame drawn around a text block.
type Border struct {
	Name   string  `toml:"-" json:"name"`
	Width  float64 `toml:"width" json:"width"`
	Radius float64 `toml:"radius" json:"radius"`
}

// Catalog is the set of known templates and borders.
type Catalog struct {
	Templates map[string]Template `toml:"templates" json:"templates"`
	Borders   map[string]Border   `toml:"borders" json:"borders"`
}

// Source provides the current catalog. Both *Catalog and *Watcher
// implement it.
type Source interface {
	Catalog() *Catalog
}

// Catalog returns c itself.
func (c *Catalog) Catalog() *Catalog { return c }

// Default returns the built-in catalog.
func Default() *Catalog {
	c := &Catalog{
		Templates: map[string]Template{
			"classic": {FontSize: 18, LineHeight: 1.3, InsetX: 16, InsetY: 12, Color: "#111111", Background: "transparent"},
			"bold":    {FontSize: 28, LineHeight: 1.1, InsetX: 16, InsetY: 16, Color: "#000000", Background: "#ffe14d"},
			"quote":   {FontSize: 22, LineHeight: 1.4, InsetX: 24, InsetY: 20, Color: "#ffffff", Background: "#1d1d1f"},
			"caption": {FontSize: 14, LineHeight: 1.2, InsetX: 12, InsetY: 8, Color: "#555555", Background: "transparent"},
		},
		Borders: map[string]Border{
			"none":    {},
			"thin":    {Width: 1},
			"rounded": {Radius: 12},
			"pill":    {Width: 2, Radius: 999},
		},
	}
	c.fillNames()
	return c
}

// Load reads a catalog from a TOML file.
func Load(path string) (*Catalog, error) {
	var c Catalog
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPreset, err, "decode presets %s", path)
	}
	c.fillNames()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) fillNames() {
	for name, t := range c.Templates {
		t.Name = name
		c.Templates[name] = t
	}
	for name, b := range c.Borders {
		b.Name = name
		c.Borders[name] = b
	}
}

// Validate checks that the catalog is usable.
func (c *Catalog) Validate() error {
	if len(c.Templates) == 0 {
		return errors.New(errors.ErrCodeInvalidPreset, "catalog has no templates")
	}
	for name, t := range c.Templates {
		if t.FontSize <= 0 {
			return errors.New(errors.ErrCodeInvalidPreset, "template %q: font_size must be positive", name)
		}
		if t.InsetX < 0 || t.InsetY < 0 {
			return errors.New(errors.ErrCodeInvalidPreset, "template %q: insets must not be negative", name)
		}
		for _, color := range []string{t.Color, t.Background} {
			if err := errors.ValidateColor(color); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPreset, err, "template %q", name)
			}
		}
	}
	for name, b := range c.Borders {
		if b.Width < 0 || b.Radius < 0 {
			return errors.New(errors.ErrCodeInvalidPreset, "border %q: width and radius must not be negative", name)
		}
	}
	return nil
}

// Template returns the template called name.
func (c *Catalog) Template(name string) (Template, error) {
	t, ok := c.Templates[name]
	if !ok {
		return Template{}, errors.New(errors.ErrCodeInvalidPreset, "unknown template %q", name)
	}
	return t, nil
}

// Border returns the border called name.
func (c *Catalog) Border(name string) (Border, error) {
	b, ok := c.Borders[name]
	if !ok {
		return Border{}, errors.New(errors.ErrCodeInvalidPreset, "unknown border %q", name)
	}
	return b, nil
}

// TemplateNames returns the template names sorted.
func (c *Catalog) TemplateNames() []string {
	return sortedKeys(c.Templates)
}

// BorderNames returns the border names sorted.
func (c *Catalog) BorderNames() []string {
	return sortedKeys(c.Borders)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
