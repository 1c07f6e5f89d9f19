// Package catalog holds the predefined page templates and expands them
// into concrete page fields.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	"github.com/eringen/foundry/layout"
)

//go:embed templates.yaml
var builtinYAML []byte

// Colors are the declared text and background colors of a template.
type Colors struct {
	Text       string `yaml:"text"`
	Background string `yaml:"background"`
}

// BackgroundSpec is the YAML form of a template background.
type BackgroundSpec struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
	From  string `yaml:"from"`
	To    string `yaml:"to"`
	URL   string `yaml:"url"`
}

// Fill converts the background entry to a layout fill. An empty or unknown type yields
// a solid fill of fallback.
func (b BackgroundSpec) Fill(fallback string) layout.Fill {
	switch b.Type {
	case "color":
		return layout.Fill{Background: layout.Solid{Color: b.Value}}
	case "gradient":
		return layout.Fill{Background: layout.Gradient{From: b.From, To: b.To}}
	case "image":
		return layout.Fill{Background: layout.Image{URL: b.URL}}
	}
	if fallback != "" {
		return layout.Fill{Background: layout.Solid{Color: fallback}}
	}
	return layout.Fill{}
}

// TemplateCell is one cell of a template, possibly spanning several slots.
type TemplateCell struct {
	ColSpan       int           `yaml:"colSpan"`
	RowSpan       int           `yaml:"rowSpan"`
	Padding       [4]float64    `yaml:"padding"` // top, right, bottom, left
	Content       string        `yaml:"content"`
	Align         layout.HAlign `yaml:"align"`
	VerticalAlign layout.VAlign `yaml:"verticalAlign"`
	FontSize      float64       `yaml:"fontSize"`
	LineHeight    float64       `yaml:"lineHeight"`
}

// Slots is the number of grid slots the cell occupies.
func (c TemplateCell) Slots() int {
	return max(c.ColSpan, 1) * max(c.RowSpan, 1)
}

// Template is an immutable predefined page layout.
type Template struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Colors      Colors         `yaml:"colors"`
	Background  BackgroundSpec `yaml:"background"`
	Margins     [4]float64     `yaml:"margins"` // top, right, bottom, left
	Columns     int            `yaml:"columns"`
	Rows        int            `yaml:"rows"`
	Gap         float64        `yaml:"gap"`
	Cells       []TemplateCell `yaml:"cells"`
}

// Capacity is the number of grid slots of the template.
func (t Template) Capacity() int {
	return t.Columns * t.Rows
}

// Overflow returns how many expanded cells exceed the grid capacity.
func Overflow(t Template) int {
	n := 0
	for _, c := range t.Cells {
		n += c.Slots()
	}
	return max(n-t.Capacity(), 0)
}

// Validate reports templates that cannot be expanded faithfully.
func (t Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("template without id")
	}
	if t.Columns < 1 || t.Columns > layout.MaxGridDimension || t.Rows < 1 || t.Rows > layout.MaxGridDimension {
		return fmt.Errorf("template %s: grid %dx%d out of range", t.ID, t.Columns, t.Rows)
	}
	if n := Overflow(t); n > 0 {
		return fmt.Errorf("template %s: cells overflow the %dx%d grid by %d slots", t.ID, t.Columns, t.Rows, n)
	}
	return nil
}

// Catalog is a read-only set of templates.
type Catalog struct {
	templates []Template
	byID      map[string]int
}

// Parse decodes and validates a YAML template list.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	c := &Catalog{byID: make(map[string]int, len(doc.Templates))}
	for _, t := range doc.Templates {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate template %s", t.ID)
		}
		c.byID[t.ID] = len(c.templates)
		c.templates = append(c.templates, t)
	}
	return c, nil
}

var (
	builtinOnce sync.Once
	builtin     *Catalog
	builtinErr  error
)

// Builtin returns the catalog shipped with the binary.
func Builtin() (*Catalog, error) {
	builtinOnce.Do(func() {
		builtin, builtinErr = Parse(builtinYAML)
	})
	return builtin, builtinErr
}

// All returns the templates sorted by title.
func (c *Catalog) All() []Template {
	out := make([]Template, len(c.templates))
	copy(out, c.templates)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Get returns the template with id.
func (c *Catalog) Get(id string) (Template, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Template{}, false
	}
	return c.templates[i], true
}

// Closest returns the id of the template whose id or title is nearest to
// query by edit distance. It reports false for an empty catalog or when
// nothing is within half the query length.
func (c *Catalog) Closest(query string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", false
	}
	best, bestDist := "", -1
	for _, t := range c.templates {
		for _, cand := range []string{t.ID, t.Title} {
			d := levenshtein.ComputeDistance(q, strings.ToLower(cand))
			if bestDist < 0 || d < bestDist {
				best, bestDist = t.ID, d
			}
		}
	}
	if bestDist < 0 || bestDist > max(len(q)/2, 1) {
		return "", false
	}
	return best, true
}
