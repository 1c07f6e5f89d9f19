// Package panel implements the page panel of the workspace: page list
// management, specimen settings and the page-level layout controls. Every
// change goes through a Gateway first; the in-memory mirror is only
// updated once the gateway accepted the change.
package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/eringen/foundry/catalog"
	"github.com/eringen/foundry/layout"
)

var (
	ErrLastPage       = errors.New("panel: cannot delete the last page")
	ErrNotConfirmed   = errors.New("panel: deletion not confirmed")
	ErrInvalidOrder   = errors.New("panel: order is not a permutation of the pages")
	ErrPageNotFound   = errors.New("panel: page not found")
	ErrInvalidName    = errors.New("panel: name must not be empty")
	ErrInvalidFormat  = errors.New("panel: unsupported format or orientation")
	ErrCellOutOfRange = errors.New("panel: cell index out of range")
	ErrNotRenaming    = errors.New("panel: no rename in progress")
)

// Patch is a partial specimen update. Nil fields are left unchanged.
type Patch struct {
	Name        *string
	Format      *layout.Format
	Orientation *layout.Orientation
	Pages       *[]layout.Page
}

// Gateway persists specimen changes.
type Gateway interface {
	UpdateSpecimen(ctx context.Context, id string, p Patch) error
}

// CellPatch changes the cell-level properties of one cell. Nil fields are
// left unchanged.
type CellPatch struct {
	Color         *string
	Align         *layout.HAlign
	VerticalAlign *layout.VAlign
	Padding       *layout.Padding
	FontID        *string
	Background    *layout.Fill
	FontSize      *float64
	LineHeight    *float64
}

// Option configures a Controller.
type Option func(*Controller)

// WithIDFunc overrides the page id generator.
func WithIDFunc(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// Controller mirrors one specimen and applies panel actions to it.
type Controller struct {
	mu     sync.Mutex
	gw     Gateway
	spec   layout.Specimen
	newID  func() string
	rename struct {
		pageID string
		buffer string
		active bool
	}
	// materialized is the id given to the placeholder page when it was
	// first written back.
	materialized string
}

// New returns a controller for s backed by gw.
func New(gw Gateway, s layout.Specimen, opts ...Option) *Controller {
	c := &Controller{gw: gw, newID: uuid.NewString}
	c.spec = layout.NormalizeSpecimen(s)
	c.spec.Pages = layout.ClonePages(s.Pages)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Specimen returns a copy of the mirrored specimen as stored.
func (c *Controller) Specimen() layout.Specimen {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.spec
	s.Pages = layout.ClonePages(c.spec.Pages)
	return s
}

// Pages returns the pages to show, synthesizing the placeholder when the
// specimen has none.
func (c *Controller) Pages() []layout.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return layout.ClonePages(layout.EditablePages(c.spec))
}

// Page returns the page with id. The placeholder id resolves to the
// materialized first page once it exists.
func (c *Controller) Page(id string) (layout.Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pages := layout.EditablePages(c.spec)
	i := layout.FindPage(pages, c.resolve(id))
	if i < 0 {
		return layout.Page{}, false
	}
	return layout.ClonePage(pages[i]), true
}

// ResolvePageID maps the placeholder id to the id of the page it became.
func (c *Controller) ResolvePageID(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolve(id)
}

func (c *Controller) resolve(id string) string {
	if id == layout.PlaceholderPageID && c.materialized != "" && len(c.spec.Pages) > 0 {
		return c.materialized
	}
	return id
}

// Replace resets the mirror to s, for example after reloading from the
// store. A rename in progress is abandoned.
func (c *Controller) Replace(s layout.Specimen) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pages := layout.ClonePages(s.Pages)
	c.spec = layout.NormalizeSpecimen(s)
	c.spec.Pages = pages
	c.rename.active = false
}

// update sends p to the gateway and, on success, lets apply fold it into
// the mirror. Callers hold c.mu.
func (c *Controller) update(ctx context.Context, p Patch, apply func()) error {
	if err := c.gw.UpdateSpecimen(ctx, c.spec.ID, p); err != nil {
		return fmt.Errorf("panel: update specimen %s: %w", c.spec.ID, err)
	}
	apply()
	return nil
}

func (c *Controller) commitPages(ctx context.Context, pages []layout.Page) error {
	return c.update(ctx, Patch{Pages: &pages}, func() {
		c.spec.Pages = pages
	})
}

// workingPages returns a private copy of the editable pages in which the
// placeholder, if present, has been given a real id.
func (c *Controller) workingPages() []layout.Page {
	if len(c.spec.Pages) > 0 {
		return layout.ClonePages(c.spec.Pages)
	}
	p := layout.PlaceholderPage()
	p.ID = c.newID()
	return []layout.Page{p}
}

// editPage applies fn to the page with id and writes all pages back. Edits
// of the placeholder materialize it as the real first page in the same
// write.
func (c *Controller) editPage(ctx context.Context, id string, fn func(*layout.Page) error) error {
	id = c.resolve(id)
	pages := c.workingPages()
	i := layout.FindPage(pages, id)
	if i < 0 && id == layout.PlaceholderPageID && len(c.spec.Pages) == 0 {
		i = 0
	}
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	if err := fn(&pages[i]); err != nil {
		return err
	}
	placeholder := len(c.spec.Pages) == 0
	if err := c.commitPages(ctx, pages); err != nil {
		return err
	}
	if placeholder {
		c.materialized = pages[0].ID
	}
	return nil
}

// AddPage appends a default page named after the next free "Page N".
// Adding to a specimen that only shows the placeholder writes the
// placeholder as page one first.
func (c *Controller) AddPage(ctx context.Context) (layout.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	placeholder := len(c.spec.Pages) == 0
	pages := c.workingPages()
	page := layout.DefaultPage(c.newID(), layout.NextPageName(pages))
	pages = append(pages, page)
	if err := c.commitPages(ctx, pages); err != nil {
		return layout.Page{}, err
	}
	if placeholder {
		c.materialized = pages[0].ID
	}
	return layout.ClonePage(page), nil
}

// StartRename opens the rename buffer for a page with its current name.
func (c *Controller) StartRename(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	id = c.resolve(id)
	pages := layout.EditablePages(c.spec)
	i := layout.FindPage(pages, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	c.rename.pageID = id
	c.rename.buffer = pages[i].Name
	c.rename.active = true
	return nil
}

// Rename replaces the rename buffer.
func (c *Controller) Rename(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.rename.active {
		return ErrNotRenaming
	}
	c.rename.buffer = name
	return nil
}

// Renaming reports the page being renamed and the current buffer.
func (c *Controller) Renaming() (pageID, buffer string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rename.pageID, c.rename.buffer, c.rename.active
}

// CancelRename discards the rename buffer.
func (c *Controller) CancelRename() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rename.active = false
}

// CommitRename writes the trimmed buffer as the page name. A blank name is
// rejected and the rename stays open.
func (c *Controller) CommitRename(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.rename.active {
		return ErrNotRenaming
	}
	name := strings.TrimSpace(c.rename.buffer)
	if name == "" {
		return ErrInvalidName
	}
	err := c.editPage(ctx, c.rename.pageID, func(p *layout.Page) error {
		p.Name = name
		return nil
	})
	if err != nil {
		return err
	}
	c.rename.active = false
	return nil
}

// CanDelete reports whether a page may be deleted.
func (c *Controller) CanDelete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.spec.Pages) > 1
}

// DeletePage removes a page. The caller must pass the user's confirmation;
// the last remaining page is never removed.
func (c *Controller) DeletePage(ctx context.Context, id string, confirmed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !confirmed {
		return ErrNotConfirmed
	}
	if len(c.spec.Pages) <= 1 {
		return ErrLastPage
	}
	id = c.resolve(id)
	i := layout.FindPage(c.spec.Pages, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	pages := layout.ClonePages(c.spec.Pages)
	pages = append(pages[:i], pages[i+1:]...)
	return c.commitPages(ctx, pages)
}

// Reorder arranges the pages in the order of ids, which must name every
// stored page exactly once.
func (c *Controller) Reorder(ctx context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(ids) == 0 || len(ids) != len(c.spec.Pages) {
		return ErrInvalidOrder
	}
	used := make(map[string]bool, len(ids))
	pages := make([]layout.Page, 0, len(ids))
	for _, id := range ids {
		id = c.resolve(id)
		i := layout.FindPage(c.spec.Pages, id)
		if i < 0 || used[id] {
			return ErrInvalidOrder
		}
		used[id] = true
		pages = append(pages, layout.ClonePage(c.spec.Pages[i]))
	}
	return c.commitPages(ctx, pages)
}

// SetName renames the specimen.
func (c *Controller) SetName(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	return c.update(ctx, Patch{Name: &name}, func() { c.spec.Name = name })
}

// SetFormat changes the paper size.
func (c *Controller) SetFormat(ctx context.Context, f layout.Format) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, f)
	}
	return c.update(ctx, Patch{Format: &f}, func() { c.spec.Format = f })
}

// SetOrientation changes the paper orientation.
func (c *Controller) SetOrientation(ctx context.Context, o layout.Orientation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !o.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, o)
	}
	return c.update(ctx, Patch{Orientation: &o}, func() { c.spec.Orientation = o })
}

// ApplyTemplate replaces the layout of a page with the expansion of t.
func (c *Controller) ApplyTemplate(ctx context.Context, pageID string, t catalog.Template) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editPage(ctx, pageID, func(p *layout.Page) error {
		*p = catalog.Expand(t, *p)
		return nil
	})
}

// ResizeGrid changes the grid dimensions of a page. Cells beyond the new
// capacity are dropped.
func (c *Controller) ResizeGrid(ctx context.Context, pageID string, columns, rows int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editPage(ctx, pageID, func(p *layout.Page) error {
		*p = layout.Resize(*p, columns, rows)
		return nil
	})
}

// SetGridOptions changes the gap and grid line visibility of a page.
func (c *Controller) SetGridOptions(ctx context.Context, pageID string, gap float64, showLines bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editPage(ctx, pageID, func(p *layout.Page) error {
		g := layout.ResolveGrid(*p)
		if gap >= 0 {
			g.Gap = gap
		}
		g.ShowLines = showLines
		p.Grid = &g
		*p = layout.FillCells(*p)
		return nil
	})
}

// SetMargins changes the margins of a page.
func (c *Controller) SetMargins(ctx context.Context, pageID string, m layout.Margins) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editPage(ctx, pageID, func(p *layout.Page) error {
		p.Margins = &m
		*p = layout.FillCells(*p)
		return nil
	})
}

// SetBackground changes the background of a page.
func (c *Controller) SetBackground(ctx context.Context, pageID string, f layout.Fill) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editPage(ctx, pageID, func(p *layout.Page) error {
		p.Background = f
		*p = layout.FillCells(*p)
		return nil
	})
}

// SaveCell writes the content of one cell. It has the signature of an
// editor save function.
func (c *Controller) SaveCell(ctx context.Context, pageID string, index int, html string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editCell(ctx, pageID, index, func(cell *layout.Cell) {
		cell.Content = layout.EnsureWrapped(html)
	})
}

// UpdateCell applies cell-level property changes to one cell.
func (c *Controller) UpdateCell(ctx context.Context, pageID string, index int, patch CellPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editCell(ctx, pageID, index, func(cell *layout.Cell) {
		if patch.Color != nil {
			cell.Color = *patch.Color
		}
		if patch.Align != nil {
			cell.Align = *patch.Align
		}
		if patch.VerticalAlign != nil {
			cell.VerticalAlign = *patch.VerticalAlign
		}
		if patch.Padding != nil {
			cell.Padding = *patch.Padding
		}
		if patch.FontID != nil {
			cell.FontID = *patch.FontID
		}
		if patch.Background != nil {
			cell.Background = *patch.Background
		}
		if patch.FontSize != nil {
			cell.FontSize = *patch.FontSize
		}
		if patch.LineHeight != nil {
			cell.LineHeight = *patch.LineHeight
		}
	})
}

func (c *Controller) editCell(ctx context.Context, pageID string, index int, fn func(*layout.Cell)) error {
	return c.editPage(ctx, pageID, func(p *layout.Page) error {
		n := layout.ResolveGrid(*p).Slots()
		if index < 0 || index >= n {
			return fmt.Errorf("%w: %d of %d", ErrCellOutOfRange, index, n)
		}
		*p = layout.FillCells(*p)
		fn(&p.Cells[index])
		return nil
	})
}
