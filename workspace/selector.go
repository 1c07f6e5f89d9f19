package workspace

import (
	"context"
	"fmt"
	"sync"

	"github.com/eringen/foundry/editor"
)

// LoadFunc returns the stored content of the cell addressed by sel.
type LoadFunc func(sel Selection) (string, error)

// Selector owns the single selected cell of a workspace and the editor
// open on it. Moving the selection flushes the open editor first.
type Selector struct {
	mu  sync.Mutex
	sel *Selection
	ed  *editor.Editor
}

// NewSelector returns a selector with nothing selected. observer receives
// the toolbar marks of every text selection inside the editor.
func NewSelector(observer func(*editor.Marks)) *Selector {
	return &Selector{ed: editor.New(observer)}
}

// Current returns the selected cell.
func (s *Selector) Current() (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sel == nil {
		return Selection{}, false
	}
	return *s.sel, true
}

// Select moves the selection to target. The open editor is blurred first;
// when that flush fails the previous cell stays selected and the error is
// returned. The new cell's content is loaded after the flush so that it
// reflects the write.
func (s *Selector) Select(ctx context.Context, target Selection, load LoadFunc, save editor.SaveFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sel != nil && *s.sel == target {
		return nil
	}
	if err := s.ed.Blur(ctx); err != nil {
		return fmt.Errorf("workspace: flush cell: %w", err)
	}
	content, err := load(target)
	if err != nil {
		return fmt.Errorf("workspace: load cell: %w", err)
	}
	s.ed.Open(target.PageID, target.CellIndex, content, save)
	s.ed.Focus()
	s.sel = &target
	return nil
}

// Clear flushes the open editor and drops the selection. A failed flush
// keeps both.
func (s *Selector) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ed.Blur(ctx); err != nil {
		return fmt.Errorf("workspace: flush cell: %w", err)
	}
	s.ed.Close()
	s.sel = nil
	return nil
}

// Rebind rewrites the page id of the selection, used when the selected
// page was given a new id on its first write.
func (s *Selector) Rebind(resolve func(string) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sel == nil {
		return
	}
	s.sel.PageID = resolve(s.sel.PageID)
}

// WithEditor runs fn with exclusive access to the editor.
func (s *Selector) WithEditor(fn func(ed *editor.Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.ed)
}
