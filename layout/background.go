package layout

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Background is a page or cell fill. The concrete type is one of Solid,
// Gradient or Image.
type Background interface {
	background()
}

// Solid fills with a single color.
type Solid struct {
	Color string
}

// Gradient fills top to bottom between two colors.
type Gradient struct {
	From string
	To   string
}

// Image fills with a picture, covering and centred.
type Image struct {
	URL string
}

func (Solid) background()    {}
func (Gradient) background() {}
func (Image) background()    {}

// White is the fill used whenever none is set or the set one is unusable.
var White = Solid{Color: "#ffffff"}

// Fill carries an optional Background through JSON. A nil Background means
// the owner relies on the default.
type Fill struct {
	Background
}

// IsZero reports whether no background is set.
func (f Fill) IsZero() bool {
	return f.Background == nil
}

type fillJSON struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	URL   string `json:"url,omitempty"`
}

// MarshalJSON encodes the variant with a "type" discriminator.
func (f Fill) MarshalJSON() ([]byte, error) {
	switch v := f.Background.(type) {
	case Solid:
		return json.Marshal(fillJSON{Type: "color", Value: v.Color})
	case Gradient:
		return json.Marshal(fillJSON{Type: "gradient", From: v.From, To: v.To})
	case Image:
		return json.Marshal(fillJSON{Type: "image", URL: v.URL})
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes a discriminated fill. Unknown or malformed input
// leaves the fill empty instead of failing the surrounding document.
func (f *Fill) UnmarshalJSON(data []byte) error {
	f.Background = nil
	var raw fillJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	switch raw.Type {
	case "color":
		f.Background = Solid{Color: raw.Value}
	case "gradient":
		f.Background = Gradient{From: raw.From, To: raw.To}
	case "image":
		f.Background = Image{URL: raw.URL}
	}
	return nil
}

var (
	hexColorRe   = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	namedColorRe = regexp.MustCompile(`^[a-zA-Z]{3,20}$`)
)

// SanitizeColor returns c when it is a hex or named CSS color, else "".
func SanitizeColor(c string) string {
	c = strings.TrimSpace(c)
	if hexColorRe.MatchString(c) || namedColorRe.MatchString(c) {
		return c
	}
	return ""
}

// SanitizeURL returns u when it is an http(s) or root-relative URL that
// cannot break out of a CSS url('') context, else "".
func SanitizeURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" || strings.ContainsAny(u, "'\"()\\<>\n\r") {
		return ""
	}
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") ||
		(strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//")) {
		return u
	}
	return ""
}

// ResolveBackground returns the usable background of f, falling back to
// White when f is empty or its variant carries unusable values.
func ResolveBackground(f Fill) Background {
	if b, ok := resolveBackground(f); ok {
		return b
	}
	return White
}

func resolveBackground(f Fill) (Background, bool) {
	switch v := f.Background.(type) {
	case Solid:
		if c := SanitizeColor(v.Color); c != "" {
			return Solid{Color: c}, true
		}
	case Gradient:
		from, to := SanitizeColor(v.From), SanitizeColor(v.To)
		if from != "" && to != "" {
			return Gradient{From: from, To: to}, true
		}
	case Image:
		if u := SanitizeURL(v.URL); u != "" {
			return Image{URL: u}, true
		}
	}
	return nil, false
}

// BackgroundStyle converts a background into CSS declarations.
func BackgroundStyle(b Background) Declarations {
	switch v := b.(type) {
	case Solid:
		if c := SanitizeColor(v.Color); c != "" {
			return Declarations{{"background-color", c}}
		}
	case Gradient:
		from, to := SanitizeColor(v.From), SanitizeColor(v.To)
		if from != "" && to != "" {
			return Declarations{{"background", "linear-gradient(to bottom, " + from + ", " + to + ")"}}
		}
	case Image:
		if u := SanitizeURL(v.URL); u != "" {
			return Declarations{
				{"background-image", "url('" + u + "')"},
				{"background-size", "cover"},
				{"background-position", "center"},
			}
		}
	}
	return Declarations{{"background-color", White.Color}}
}
