package foundry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/foundry/canvas"
	"github.com/eringen/foundry/editor"
	"github.com/eringen/foundry/layout"
	"github.com/eringen/foundry/panel"
	"github.com/eringen/foundry/workspace"
)

var errBadRequest = errors.New("foundry: malformed request")

// session returns this browser's workspace session on the :id specimen,
// loading the specimen into a new panel controller on first use.
func (a *App) session(c echo.Context) (*workspace.Session, error) {
	id := c.Param("id")
	token := workspaceToken(c)
	if s, ok := a.Hub.Get(token, id); ok {
		return s, nil
	}
	spec, err := a.Store.GetSpecimen(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	return a.Hub.Open(token, id, func() *panel.Controller {
		return panel.New(a.Store, spec)
	}), nil
}

// cellLoader reads the effective content of a cell from the session mirror.
func cellLoader(sess *workspace.Session) workspace.LoadFunc {
	return func(sel workspace.Selection) (string, error) {
		p, ok := sess.Panel.Page(sel.PageID)
		if !ok {
			return "", panel.ErrPageNotFound
		}
		cells := layout.EffectiveCells(p)
		if sel.CellIndex < 0 || sel.CellIndex >= len(cells) {
			return "", panel.ErrCellOutOfRange
		}
		return cells[sel.CellIndex].Content, nil
	}
}

// syncEditor follows a page edit: the selection picks up a page id given
// on first write and an unfocused editor reloads the stored content.
func syncEditor(sess *workspace.Session) {
	sess.Selector.Rebind(sess.Panel.ResolvePageID)
	sel, ok := sess.Selector.Current()
	if !ok {
		return
	}
	content, err := cellLoader(sess)(sel)
	if err != nil {
		return
	}
	_ = sess.Selector.WithEditor(func(ed *editor.Editor) error {
		ed.Sync(content)
		return nil
	})
}

func (a *App) handleWorkspace(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	msg := c.QueryParam("msg")
	// Navigating to the page starts without a selection.
	if !isHTMX(c) || c.Request().Header.Get("HX-History-Restore-Request") == "true" {
		if err := sess.Selector.Clear(ctx); err != nil {
			c.Logger().Warnf("clear selection on %s: %v", sess.SpecimenID, err)
			msg = userMessage(err)
		}
	}
	// A full load picks up writes made from other sessions.
	spec, err := a.Store.GetSpecimen(ctx, sess.SpecimenID)
	if err != nil {
		return err
	}
	sess.Panel.Replace(spec)
	syncEditor(sess)

	page, err := a.workspacePage(c, sess, msg)
	if err != nil {
		return err
	}
	return RenderPage(c, a.Views.Workspace(page), a.Views.WorkspacePartial(page))
}

func (a *App) handlePrint(c echo.Context) error {
	ctx := c.Request().Context()
	spec, err := a.Store.GetSpecimen(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	st, err := a.Studio.Studio(ctx)
	if err != nil {
		return err
	}
	spec.Pages = layout.EditablePages(spec)
	return Render(c, a.Views.Print(spec, canvas.PrintComponent(spec, a.Fonts.Lookup(st.Fonts))))
}

// workspacePage renders every page of the session onto the strip and
// collects the panel state.
func (a *App) workspacePage(c echo.Context, sess *workspace.Session, msg string) (WorkspacePage, error) {
	ctx := c.Request().Context()
	st, err := a.Studio.Studio(ctx)
	if err != nil {
		return WorkspacePage{}, err
	}
	images, err := a.Store.ListImages(ctx)
	if err != nil {
		return WorkspacePage{}, err
	}
	fonts := a.Fonts.Lookup(st.Fonts)

	spec := sess.Panel.Specimen()
	pages := sess.Panel.Pages()
	strip := workspace.NewStrip(spec, pages)
	view := sess.View()

	out := WorkspacePage{
		Specimen:  spec,
		View:      view,
		Transform: view.Transform(),
		Toolbar:   sess.Toolbar(),
		CanDelete: sess.Panel.CanDelete(),
		Templates: a.Catalog.All(),
		Fonts:     st.Fonts,
		Images:    images,
		Message:   msg,
		CSRF:      CsrfToken(c),
	}
	if id, buf, ok := sess.Panel.Renaming(); ok {
		out.Rename = RenameState{PageID: id, Buffer: buf}
	}
	if sel, ok := sess.Selector.Current(); ok {
		out.Selection = &sel
	}

	err = sess.Selector.WithEditor(func(ed *editor.Editor) error {
		for _, p := range pages {
			frame := canvas.Layout(spec, p, out.Selection, fonts)
			var buf bytes.Buffer
			if err := canvas.Component(frame, ed).Render(ctx, &buf); err != nil {
				return err
			}
			rect, _ := strip.PageRect(p.ID)
			out.Pages = append(out.Pages, PageCanvas{Page: p, Rect: rect, Canvas: templ.Raw(buf.String())})
			if out.Selection != nil && out.Selection.PageID == p.ID {
				if slot, ok := frame.Slot(out.Selection.CellIndex); ok {
					cell := slot.Cell
					out.Cell = &cell
				}
			}
		}
		return nil
	})
	return out, err
}

func (a *App) renderWorkspace(c echo.Context, sess *workspace.Session, msg string) error {
	page, err := a.workspacePage(c, sess, msg)
	if err != nil {
		return err
	}
	return Render(c, a.Views.WorkspacePartial(page))
}

// saveFunc persists a cell through the panel controller.
func saveFunc(sess *workspace.Session) editor.SaveFunc {
	return sess.Panel.SaveCell
}

func formInt(c echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(c.FormValue(name)))
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errBadRequest, name)
	}
	return v, nil
}

func formFloat(c echo.Context, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(c.FormValue(name)), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errBadRequest, name)
	}
	return v, nil
}

func (a *App) handleCellSelect(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	idx, err := formInt(c, "cell")
	if err != nil {
		return err
	}
	target := workspace.Selection{PageID: sess.Panel.ResolvePageID(c.FormValue("page")), CellIndex: idx}

	ctx := c.Request().Context()
	err = sess.Selector.Select(ctx, target, cellLoader(sess), saveFunc(sess))
	sess.Selector.Rebind(sess.Panel.ResolvePageID)
	if err != nil {
		// The previous cell stays open with its unsaved text.
		c.Logger().Warnf("select cell %d of page %s: %v", idx, target.PageID, err)
		return a.renderWorkspace(c, sess, userMessage(err))
	}
	_ = sess.Selector.WithEditor(func(ed *editor.Editor) error {
		ed.Focus()
		return nil
	})
	return a.renderWorkspace(c, sess, "")
}

func (a *App) handleCellClear(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	err = sess.Selector.Clear(c.Request().Context())
	sess.Selector.Rebind(sess.Panel.ResolvePageID)
	if err != nil {
		c.Logger().Warnf("clear selection: %v", err)
		return a.renderWorkspace(c, sess, userMessage(err))
	}
	return a.renderWorkspace(c, sess, "")
}

// handleCellSave receives the editor surface's html when it loses focus.
func (a *App) handleCellSave(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	html := c.FormValue("html")
	ctx := c.Request().Context()

	// A blur save can arrive after the select that moved away from its
	// cell. It then belongs to the cell it names, not the open one.
	if page := c.FormValue("page"); page != "" {
		idx, err := formInt(c, "cell")
		if err != nil {
			return err
		}
		target := workspace.Selection{PageID: sess.Panel.ResolvePageID(page), CellIndex: idx}
		sel, ok := sess.Selector.Current()
		if ok {
			sel.PageID = sess.Panel.ResolvePageID(sel.PageID)
		}
		if !ok || sel != target {
			if err := sess.Panel.SaveCell(ctx, target.PageID, target.CellIndex, layout.EnsureWrapped(html)); err != nil {
				return err
			}
			sess.Selector.Rebind(sess.Panel.ResolvePageID)
			return c.NoContent(http.StatusNoContent)
		}
	}

	err = sess.Selector.WithEditor(func(ed *editor.Editor) error {
		if !ed.IsOpen() {
			return editor.ErrNotOpen
		}
		if err := ed.Update(html); err != nil {
			return err
		}
		return ed.Blur(ctx)
	})
	sess.Selector.Rebind(sess.Panel.ResolvePageID)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type marksRequest struct {
	Range editor.Range `json:"range"`
}

// handleCellMarks reports the formatting shared by the text selection so
// the toolbar can reflect it.
func (a *App) handleCellMarks(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	var req marksRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	var marks *editor.Marks
	err = sess.Selector.WithEditor(func(ed *editor.Editor) error {
		if !ed.IsOpen() {
			return editor.ErrNotOpen
		}
		marks = ed.Select(req.Range)
		return nil
	})
	if err != nil {
		return err
	}
	return Render(c, a.Views.Toolbar(marks))
}

type formatRequest struct {
	HTML  string       `json:"html"`
	Range editor.Range `json:"range"`
	Patch editor.Patch `json:"patch"`
}

// handleCellFormat applies inline formatting to the selected text. The
// change stays in the editor buffer until the next blur.
func (a *App) handleCellFormat(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	var req formatRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	err = sess.Selector.WithEditor(func(ed *editor.Editor) error {
		if !ed.IsOpen() {
			return editor.ErrNotOpen
		}
		if req.HTML != "" {
			if err := ed.Update(req.HTML); err != nil {
				return err
			}
		}
		ed.Focus()
		_, err := ed.Apply(req.Range, req.Patch)
		return err
	})
	if err != nil {
		return err
	}
	return a.renderWorkspace(c, sess, "")
}

// handleCellMarkdown replaces the selected cell's text with converted
// markdown and saves it.
func (a *App) handleCellMarkdown(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	html, err := editor.FromMarkdown(c.FormValue("markdown"))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	ctx := c.Request().Context()
	err = sess.Selector.WithEditor(func(ed *editor.Editor) error {
		if !ed.IsOpen() {
			return editor.ErrNotOpen
		}
		if err := ed.Update(html); err != nil {
			return err
		}
		return ed.Save(ctx)
	})
	sess.Selector.Rebind(sess.Panel.ResolvePageID)
	if err != nil {
		return err
	}
	return a.renderWorkspace(c, sess, "")
}

// handleCellStyle changes cell-level properties of the selected cell.
// Empty form fields are left unchanged.
func (a *App) handleCellStyle(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	sel, ok := sess.Selector.Current()
	if !ok {
		return editor.ErrNotOpen
	}
	patch, err := cellPatchFromForm(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if patch.FontID != nil && *patch.FontID != "" {
		if _, err := a.Studio.Font(ctx, *patch.FontID); err != nil {
			return fmt.Errorf("%w: font %s: %v", errBadRequest, *patch.FontID, err)
		}
	}
	if err := sess.Panel.UpdateCell(ctx, sel.PageID, sel.CellIndex, patch); err != nil {
		return err
	}
	syncEditor(sess)
	return a.renderWorkspace(c, sess, "")
}

func cellPatchFromForm(c echo.Context) (panel.CellPatch, error) {
	var p panel.CellPatch
	str := func(name string) *string {
		if _, ok := c.Request().Form[name]; !ok {
			return nil
		}
		v := strings.TrimSpace(c.FormValue(name))
		return &v
	}
	num := func(name string) (*float64, error) {
		if v := str(name); v != nil && *v != "" {
			f, err := strconv.ParseFloat(*v, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", errBadRequest, name)
			}
			return &f, nil
		}
		return nil, nil
	}
	if _, err := c.FormParams(); err != nil {
		return p, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	p.Color = str("color")
	p.FontID = str("font")
	if v := str("align"); v != nil {
		align := layout.HAlign(*v)
		p.Align = &align
	}
	if v := str("valign"); v != nil {
		valign := layout.VAlign(*v)
		p.VerticalAlign = &valign
	}
	var err error
	if p.FontSize, err = num("fontSize"); err != nil {
		return p, err
	}
	if p.LineHeight, err = num("lineHeight"); err != nil {
		return p, err
	}
	if str("padTop") != nil {
		var pad layout.Padding
		for name, dst := range map[string]*float64{"padTop": &pad.Top, "padRight": &pad.Right, "padBottom": &pad.Bottom, "padLeft": &pad.Left} {
			v, err := num(name)
			if err != nil {
				return p, err
			}
			if v != nil {
				*dst = *v
			}
		}
		p.Padding = &pad
	}
	if str("bgType") != nil {
		fill := fillFromForm(c)
		p.Background = &fill
	}
	return p, nil
}

// fillFromForm reads a background from bgType plus bgColor, bgFrom/bgTo or
// bgURL. Anything else clears the background.
func fillFromForm(c echo.Context) layout.Fill {
	switch c.FormValue("bgType") {
	case "color":
		return layout.Fill{Background: layout.Solid{Color: c.FormValue("bgColor")}}
	case "gradient":
		return layout.Fill{Background: layout.Gradient{From: c.FormValue("bgFrom"), To: c.FormValue("bgTo")}}
	case "image":
		return layout.Fill{Background: layout.Image{URL: c.FormValue("bgURL")}}
	}
	return layout.Fill{}
}

type viewResponse struct {
	workspace.View
	Transform string `json:"transform"`
	Handled   bool   `json:"handled"`
}

// handleView applies a pointer or wheel gesture to the session's view and
// returns the new transform. Gestures without the modifier are reported as
// not handled so the browser keeps its default scrolling.
func (a *App) handleView(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	var g workspace.Gesture
	if err := c.Bind(&g); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	strip := sess.Strip()
	v, handled := sess.UpdateView(func(v *workspace.View) bool {
		return v.Handle(g, strip)
	})
	return c.JSON(http.StatusOK, viewResponse{View: v, Transform: v.Transform(), Handled: handled})
}

func (a *App) handleSettings(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	params, err := c.FormParams()
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	ctx := c.Request().Context()
	if name, ok := params["name"]; ok && len(name) > 0 {
		if err := sess.Panel.SetName(ctx, name[0]); err != nil {
			return err
		}
	}
	if f := c.FormValue("format"); f != "" {
		if err := sess.Panel.SetFormat(ctx, layout.Format(f)); err != nil {
			return err
		}
	}
	if o := c.FormValue("orientation"); o != "" {
		if err := sess.Panel.SetOrientation(ctx, layout.Orientation(o)); err != nil {
			return err
		}
	}
	a.Studio.Invalidate()
	return a.renderWorkspace(c, sess, "")
}

func (a *App) handlePageAdd(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	if _, err := sess.Panel.AddPage(c.Request().Context()); err != nil {
		return err
	}
	syncEditor(sess)
	a.Studio.Invalidate()
	return a.renderWorkspace(c, sess, "")
}

func (a *App) handlePageOrder(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	params, err := c.FormParams()
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := sess.Panel.Reorder(c.Request().Context(), FilterEmpty(params["page"])); err != nil {
		return err
	}
	return a.renderWorkspace(c, sess, "")
}

// handlePageRename drives the inline rename: start, input, commit, cancel.
func (a *App) handlePageRename(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	pageID := c.Param("page")
	switch c.FormValue("action") {
	case "start":
		err = sess.Panel.StartRename(pageID)
	case "input":
		err = sess.Panel.Rename(c.FormValue("name"))
	case "commit":
		if name, ok := c.Request().Form["name"]; ok && len(name) > 0 {
			if err := sess.Panel.Rename(name[0]); err != nil {
				return err
			}
		}
		err = sess.Panel.CommitRename(c.Request().Context())
	case "cancel":
		sess.Panel.CancelRename()
	default:
		err = errBadRequest
	}
	if err != nil {
		return err
	}
	syncEditor(sess)
	return a.renderWorkspace(c, sess, "")
}

// deselectPage flushes and drops the selection when it sits on pageID, so
// structural page edits never leave the editor bound to a missing cell.
func deselectPage(ctx context.Context, sess *workspace.Session, pageID string) error {
	sel, ok := sess.Selector.Current()
	if !ok || sel.PageID != sess.Panel.ResolvePageID(pageID) {
		return nil
	}
	err := sess.Selector.Clear(ctx)
	sess.Selector.Rebind(sess.Panel.ResolvePageID)
	return err
}

func (a *App) handlePageDelete(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	pageID := c.Param("page")
	confirmed := c.FormValue("confirmed") == "true"
	if confirmed && sess.Panel.CanDelete() {
		if err := deselectPage(ctx, sess, pageID); err != nil {
			return err
		}
	}
	if err := sess.Panel.DeletePage(ctx, pageID, confirmed); err != nil {
		return err
	}
	a.Studio.Invalidate()
	return a.renderWorkspace(c, sess, "")
}

func (a *App) handlePageTemplate(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	name := c.FormValue("template")
	t, ok := a.Catalog.Get(name)
	if !ok {
		if id, ok := a.Catalog.Closest(name); ok {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no template %q, did you mean %q?", name, id))
		}
		return ErrNotFound
	}
	ctx := c.Request().Context()
	pageID := c.Param("page")
	if err := deselectPage(ctx, sess, pageID); err != nil {
		return err
	}
	if err := sess.Panel.ApplyTemplate(ctx, pageID, t); err != nil {
		return err
	}
	return a.renderWorkspace(c, sess, "")
}

func (a *App) handlePageGrid(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	pageID := c.Param("page")

	if c.FormValue("columns") != "" || c.FormValue("rows") != "" {
		cols, err := formInt(c, "columns")
		if err != nil {
			return err
		}
		rows, err := formInt(c, "rows")
		if err != nil {
			return err
		}
		if err := deselectPage(ctx, sess, pageID); err != nil {
			return err
		}
		if err := sess.Panel.ResizeGrid(ctx, pageID, cols, rows); err != nil {
			return err
		}
	}
	if c.FormValue("gap") != "" {
		gap, err := formFloat(c, "gap")
		if err != nil {
			return err
		}
		if err := sess.Panel.SetGridOptions(ctx, pageID, gap, c.FormValue("lines") == "on"); err != nil {
			return err
		}
	}
	syncEditor(sess)
	return a.renderWorkspace(c, sess, "")
}

func (a *App) handlePageMargins(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	var m layout.Margins
	for name, dst := range map[string]*float64{"top": &m.Top, "right": &m.Right, "bottom": &m.Bottom, "left": &m.Left} {
		if c.FormValue(name) == "" {
			continue
		}
		v, err := formFloat(c, name)
		if err != nil {
			return err
		}
		*dst = v
	}
	if err := sess.Panel.SetMargins(c.Request().Context(), c.Param("page"), m); err != nil {
		return err
	}
	syncEditor(sess)
	return a.renderWorkspace(c, sess, "")
}

func (a *App) handlePageBackground(c echo.Context) error {
	sess, err := a.session(c)
	if err != nil {
		return err
	}
	if err := sess.Panel.SetBackground(c.Request().Context(), c.Param("page"), fillFromForm(c)); err != nil {
		return err
	}
	syncEditor(sess)
	return a.renderWorkspace(c, sess, "")
}

// userMessage turns a workspace error into text for the panel.
func userMessage(err error) string {
	switch statusFor(err) {
	case http.StatusNotFound:
		return "That cell no longer exists."
	case http.StatusUnprocessableEntity:
		return "That cell is outside the page grid."
	}
	return "Your last change could not be saved. It is still in the editor; try again."
}
