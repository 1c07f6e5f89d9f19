// Package editor implements the rich-text cell editor: a marked-text model
// of cell content and the per-cell editing session that buffers changes
// locally and persists them on blur.
package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/eringen/foundry/layout"
)

// SaveFunc persists the serialized content of one cell. It is the only
// path through which cell content is written.
type SaveFunc func(ctx context.Context, pageID string, cellIndex int, html string) error

// ErrNotOpen is returned by operations that need an open cell.
var ErrNotOpen = errors.New("editor: no cell open")

// Patch is an inline formatting change. Nil fields are left as they are;
// an empty string clears the attribute.
type Patch struct {
	FontFamily *string `json:"fontFamily,omitempty"`
	FontSize   *string `json:"fontSize,omitempty"`
	Color      *string `json:"color,omitempty"`
	Background *string `json:"backgroundColor,omitempty"`
	LineHeight *string `json:"lineHeight,omitempty"`
	Bold       *bool   `json:"bold,omitempty"`
	Italic     *bool   `json:"italic,omitempty"`
	Underline  *bool   `json:"underline,omitempty"`
}

func (p Patch) apply(m Marks) Marks {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = sanitizeValue(*v)
		}
	}
	set(&m.FontFamily, p.FontFamily)
	set(&m.FontSize, p.FontSize)
	set(&m.Color, p.Color)
	set(&m.Background, p.Background)
	set(&m.LineHeight, p.LineHeight)
	if p.Bold != nil {
		m.Bold = *p.Bold
	}
	if p.Italic != nil {
		m.Italic = *p.Italic
	}
	if p.Underline != nil {
		m.Underline = *p.Underline
	}
	return m
}

// Apply returns a copy of d with p applied to every character in r.
func (d Doc) Apply(r Range, p Patch) Doc {
	out := Doc{Blocks: cloneBlocks(d.Blocks)}
	r = out.clamp(r)
	if r.Collapsed() {
		return out
	}
	out.eachSelected(r, func(s *Span) {
		s.Marks = p.apply(s.Marks)
	})
	out.merge()
	return out
}

// Editor is the editing session of a single cell. The zero value has no
// cell open. An Editor is not safe for concurrent use; callers serialize
// access.
type Editor struct {
	pageID    string
	cellIndex int
	open      bool
	focused   bool
	buffer    string
	saved     string
	save      SaveFunc
	observer  func(*Marks)
}

// New returns an editor with no cell open. observer, when non-nil, is
// notified of the shared marks on every selection change.
func New(observer func(*Marks)) *Editor {
	return &Editor{observer: observer}
}

// Open loads content for the cell at (pageID, cellIndex). The content is
// block-wrapped and otherwise kept verbatim.
func (e *Editor) Open(pageID string, cellIndex int, content string, save SaveFunc) {
	wrapped := layout.EnsureWrapped(content)
	e.pageID = pageID
	e.cellIndex = cellIndex
	e.open = true
	e.focused = false
	e.buffer = wrapped
	e.saved = wrapped
	e.save = save
}

// IsOpen reports whether a cell is loaded.
func (e *Editor) IsOpen() bool { return e.open }

// Cell returns the address of the open cell.
func (e *Editor) Cell() (pageID string, cellIndex int) {
	return e.pageID, e.cellIndex
}

// Focus marks the editor as focused. External syncs are ignored until blur.
func (e *Editor) Focus() {
	if e.open {
		e.focused = true
	}
}

// Focused reports whether the editor has focus.
func (e *Editor) Focused() bool { return e.focused }

// Update replaces the local buffer. Nothing is persisted until Blur or Save.
func (e *Editor) Update(html string) error {
	if !e.open {
		return ErrNotOpen
	}
	e.buffer = html
	return nil
}

// HTML returns the current buffer, block-wrapped.
func (e *Editor) HTML() string {
	return layout.EnsureWrapped(e.buffer)
}

// Dirty reports whether the buffer differs from the last persisted value.
func (e *Editor) Dirty() bool {
	return e.open && layout.EnsureWrapped(e.buffer) != e.saved
}

// Select reports the formatting shared across r, or nil for a collapsed
// range, and forwards it to the observer.
func (e *Editor) Select(r Range) *Marks {
	if !e.open {
		return nil
	}
	marks := Parse(e.buffer).MarksIn(r)
	if e.observer != nil {
		e.observer(marks)
	}
	return marks
}

// Apply formats the characters in r and returns the new shared marks.
func (e *Editor) Apply(r Range, p Patch) (*Marks, error) {
	if !e.open {
		return nil, ErrNotOpen
	}
	doc := Parse(e.buffer).Apply(r, p)
	e.buffer = doc.HTML()
	return e.Select(r), nil
}

// Blur drops focus and persists the buffer when it changed. On failure
// the buffer is kept and the editor stays dirty.
func (e *Editor) Blur(ctx context.Context) error {
	if !e.open {
		return nil
	}
	e.focused = false
	if !e.Dirty() {
		return nil
	}
	return e.Save(ctx)
}

// Save serializes the buffer and hands it to the SaveFunc.
func (e *Editor) Save(ctx context.Context) error {
	if !e.open {
		return ErrNotOpen
	}
	html := layout.EnsureWrapped(e.buffer)
	if e.save != nil {
		if err := e.save(ctx, e.pageID, e.cellIndex, html); err != nil {
			return fmt.Errorf("editor: save cell %d of page %s: %w", e.cellIndex, e.pageID, err)
		}
	}
	e.buffer = html
	e.saved = html
	return nil
}

// Sync adopts an externally changed value. It is a no-op while focused,
// while the buffer holds unsaved text, or when the wrapped value already
// matches the buffer.
func (e *Editor) Sync(external string) bool {
	if !e.open || e.focused || e.Dirty() {
		return false
	}
	wrapped := layout.EnsureWrapped(external)
	if wrapped == layout.EnsureWrapped(e.buffer) {
		return false
	}
	e.buffer = wrapped
	e.saved = wrapped
	return true
}

// Close forgets the open cell without saving.
func (e *Editor) Close() {
	*e = Editor{observer: e.observer}
}
