package views

import (
	"encoding/json"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/foundry"
	"github.com/eringen/foundry/canvas"
	"github.com/eringen/foundry/editor"
	"github.com/eringen/foundry/layout"
)

// Workspace is the full specimen workspace page.
func (s Site) Workspace(p foundry.WorkspacePage) templ.Component {
	return s.shell(p.Specimen.Typeface+" "+p.Specimen.Name, p.CSRF, func(w *writer) {
		nav(w, p.CSRF)
		w.child(s.WorkspacePartial(p))
	})
}

// WorkspacePartial is the #workspace fragment every panel action swaps.
func (s Site) WorkspacePartial(p foundry.WorkspacePage) templ.Component {
	return component(func(w *writer) {
		base := canvas.SpecimenPath(p.Specimen.ID)
		w.f(`<div id="workspace" class="workspace" data-base="%s">`, base)

		w.raw(`<div class="viewport" id="viewport">`)
		w.f(`<div class="strip" id="strip" style="%s">`, p.Transform)
		for _, pc := range p.Pages {
			w.f(`<div class="strip-page" style="position: absolute; left: %spx; top: %spx;">`,
				layout.FormatNumber(pc.Rect.X), layout.FormatNumber(pc.Rect.Y))
			w.f(`<div class="page-label">%s</div>`, pc.Page.Name)
			w.child(pc.Canvas)
			w.raw(`</div>`)
		}
		w.raw(`</div></div>`)

		w.raw(`<aside class="panel">`)
		if p.Message != "" {
			w.f(`<p class="message" role="alert">%s</p>`, p.Message)
		}
		settingsSection(w, base, p)
		pagesSection(w, base, p)
		if page, ok := activePage(p); ok {
			pageSection(w, base, page, p)
		}
		if p.Selection != nil && p.Cell != nil {
			cellSection(w, base, p)
		}
		w.raw(`</aside></div>`)
	})
}

// activePage is the page of the selected cell, or the first page.
func activePage(p foundry.WorkspacePage) (layout.Page, bool) {
	for _, pc := range p.Pages {
		if p.Selection != nil && pc.Page.ID == p.Selection.PageID {
			return pc.Page, true
		}
	}
	if len(p.Pages) == 0 {
		return layout.Page{}, false
	}
	return p.Pages[0].Page, true
}

const swap = ` hx-target="#workspace" hx-swap="outerHTML"`

func settingsSection(w *writer, base string, p foundry.WorkspacePage) {
	w.f(`<section class="settings"><h2>Specimen</h2><form hx-post="%s/settings"%s hx-trigger="change">`, base, safe(swap))
	w.f(`<label>Name <input name="name" value="%s" required></label>`, p.Specimen.Name)
	formatSelect(w, p.Specimen.Format)
	orientationSelect(w, p.Specimen.Orientation)
	w.f(`</form><a href="%s/print/" target="_blank">Print</a></section>`, base)
}

func pagesSection(w *writer, base string, p foundry.WorkspacePage) {
	w.raw(`<section class="pages"><h2>Pages</h2><ol>`)
	ids := make([]string, len(p.Pages))
	for i, pc := range p.Pages {
		ids[i] = pc.Page.ID
	}
	for i, pc := range p.Pages {
		pg := pc.Page
		w.raw(`<li>`)
		if p.Rename.Active() && p.Rename.PageID == pg.ID {
			w.f(`<form hx-post="%s/pages/%s/rename"%s><input type="hidden" name="action" value="commit">`, base, pg.ID, safe(swap))
			w.f(`<input name="name" value="%s" autofocus hx-post="%s/pages/%s/rename" hx-vals='{"action":"input"}' hx-trigger="keyup changed delay:300ms" hx-swap="none">`,
				p.Rename.Buffer, base, pg.ID)
			w.f(`<button type="submit">Save</button><button type="button" hx-post="%s/pages/%s/rename" hx-vals='{"action":"cancel"}'%s>Cancel</button></form>`,
				base, pg.ID, safe(swap))
		} else {
			w.f(`<button class="page-name" data-center="%s" title="Show page">%s</button>`, pg.ID, pg.Name)
			w.f(`<button hx-post="%s/pages/%s/rename" hx-vals='{"action":"start"}'%s>Rename</button>`, base, pg.ID, safe(swap))
		}
		if i > 0 {
			reorderForm(w, base, moved(ids, i, i-1), "↑")
		}
		if i < len(ids)-1 {
			reorderForm(w, base, moved(ids, i, i+1), "↓")
		}
		if p.CanDelete {
			w.f(`<button hx-post="%s/pages/%s/delete" hx-vals='{"confirmed":"true"}' hx-confirm="Delete %s?"%s>Delete</button>`,
				base, pg.ID, pg.Name, safe(swap))
		}
		w.raw(`</li>`)
	}
	w.f(`</ol><button hx-post="%s/pages"%s>Add page</button></section>`, base, safe(swap))
}

// moved returns ids with the element at from moved to to.
func moved(ids []string, from, to int) []string {
	out := append([]string(nil), ids...)
	out[from], out[to] = out[to], out[from]
	return out
}

func reorderForm(w *writer, base string, order []string, label string) {
	w.f(`<form class="inline" hx-post="%s/pages/order"%s>`, base, safe(swap))
	for _, id := range order {
		w.f(`<input type="hidden" name="page" value="%s">`, id)
	}
	w.f(`<button type="submit">%s</button></form>`, label)
}

func pageSection(w *writer, base string, pg layout.Page, p foundry.WorkspacePage) {
	action := base + "/pages/" + pg.ID
	w.f(`<section class="page-layout"><h2>%s</h2>`, pg.Name)

	w.f(`<form hx-post="%s/template"%s hx-confirm="Replace the cells of %s?"><select name="template">`, action, safe(swap), pg.Name)
	for _, t := range p.Templates {
		w.f(`<option value="%s" title="%s"%s>%s</option>`, t.ID, t.Description, selected(t.ID == pg.TemplateID), t.Title)
	}
	w.raw(`</select><button type="submit">Apply template</button></form>`)

	g := layout.ResolveGrid(pg)
	w.f(`<form hx-post="%s/grid"%s hx-trigger="change">`, action, safe(swap))
	w.f(`<label>Columns <input type="number" name="columns" min="1" max="%d" value="%d"></label>`, layout.MaxGridDimension, g.Columns)
	w.f(`<label>Rows <input type="number" name="rows" min="1" max="%d" value="%d"></label>`, layout.MaxGridDimension, g.Rows)
	w.f(`<label>Gap <input type="number" name="gap" min="0" value="%s"></label>`, layout.FormatNumber(g.Gap))
	w.f(`<label><input type="checkbox" name="lines"%s> Grid lines</label></form>`, checked(g.ShowLines))

	m := layout.ResolveMargins(pg)
	w.f(`<form hx-post="%s/margins"%s hx-trigger="change"><fieldset><legend>Margins</legend>`, action, safe(swap))
	for _, side := range []struct {
		name string
		v    float64
	}{{"top", m.Top}, {"right", m.Right}, {"bottom", m.Bottom}, {"left", m.Left}} {
		w.f(`<label>%s <input type="number" name="%s" min="0" value="%s"></label>`, side.name, side.name, layout.FormatNumber(side.v))
	}
	w.raw(`</fieldset></form>`)

	w.f(`<form hx-post="%s/background"%s><fieldset><legend>Background</legend>`, action, safe(swap))
	backgroundFields(w, pg.Background, p.Images)
	w.raw(`<button type="submit">Set background</button></fieldset></form></section>`)
}

func backgroundFields(w *writer, f layout.Fill, images []foundry.Image) {
	kind, color, from, to, url := "none", "#ffffff", "#ffffff", "#000000", ""
	switch b := f.Background.(type) {
	case layout.Solid:
		kind, color = "color", b.Color
	case layout.Gradient:
		kind, from, to = "gradient", b.From, b.To
	case layout.Image:
		kind, url = "image", b.URL
	}
	w.raw(`<select name="bgType">`)
	for _, k := range []string{"none", "color", "gradient", "image"} {
		w.f(`<option value="%s"%s>%s</option>`, k, selected(k == kind), k)
	}
	w.raw(`</select>`)
	w.f(`<input type="color" name="bgColor" value="%s">`, color)
	w.f(`<input type="color" name="bgFrom" value="%s"><input type="color" name="bgTo" value="%s">`, from, to)
	w.raw(`<select name="bgURL"><option value="">No image</option>`)
	for _, img := range images {
		w.f(`<option value="%s"%s>%s</option>`, img.URL(), selected(img.URL() == url), img.OriginalName)
	}
	w.raw(`</select>`)
}

func cellSection(w *writer, base string, p foundry.WorkspacePage) {
	c := p.Cell
	w.f(`<section class="cell"><h2>Cell %d</h2>`, p.Selection.CellIndex+1)
	w.child(Toolbar(p.Toolbar))

	w.f(`<form hx-post="%s/cells/style"%s hx-trigger="change">`, base, safe(swap))
	w.f(`<label>Color <input type="color" name="color" value="%s"></label>`, colorOr(c.Color, layout.DefaultTextColor))
	w.raw(`<label>Align <select name="align">`)
	for _, a := range []layout.HAlign{layout.AlignLeft, layout.AlignCenter, layout.AlignRight, layout.AlignJustify} {
		w.f(`<option value="%s"%s>%s</option>`, string(a), selected(a == c.Align), string(a))
	}
	w.raw(`</select></label><label>Vertical <select name="valign">`)
	for _, a := range []layout.VAlign{layout.AlignTop, layout.AlignMiddle, layout.AlignBottom} {
		w.f(`<option value="%s"%s>%s</option>`, string(a), selected(a == c.VerticalAlign), string(a))
	}
	w.raw(`</select></label><label>Font <select name="font"><option value="">Inherited</option>`)
	for _, f := range p.Fonts {
		label := f.Family
		if f.Italic {
			label += " Italic"
		}
		w.f(`<option value="%s"%s>%s %d</option>`, f.ID, selected(f.ID == c.FontID), label, f.Weight)
	}
	w.raw(`</select></label>`)
	w.f(`<label>Size <input type="number" name="fontSize" min="1" step="0.5" value="%s"></label>`, optional(c.FontSize))
	w.f(`<label>Line height <input type="number" name="lineHeight" min="0.5" step="0.05" value="%s"></label>`, optional(c.LineHeight))
	w.raw(`<fieldset><legend>Padding</legend>`)
	for _, side := range []struct {
		name string
		v    float64
	}{{"padTop", c.Padding.Top}, {"padRight", c.Padding.Right}, {"padBottom", c.Padding.Bottom}, {"padLeft", c.Padding.Left}} {
		w.f(`<input type="number" name="%s" min="0" value="%s" aria-label="%s">`, side.name, layout.FormatNumber(side.v), strings.TrimPrefix(side.name, "pad"))
	}
	w.raw(`</fieldset><fieldset><legend>Cell background</legend>`)
	backgroundFields(w, c.Background, p.Images)
	w.raw(`</fieldset></form>`)

	w.f(`<form hx-post="%s/cells/markdown"%s><label>Paste markdown <textarea name="markdown" rows="4"></textarea></label><button type="submit">Replace text</button></form>`,
		base, safe(swap))
	w.f(`<button hx-post="%s/cells/clear"%s>Done</button></section>`, base, safe(swap))
}

func colorOr(c, fallback string) string {
	if strings.HasPrefix(c, "#") && len(c) == 7 {
		return c
	}
	return fallback
}

func optional(v float64) string {
	if v == 0 {
		return ""
	}
	return layout.FormatNumber(v)
}

type toolButton struct {
	label  string
	active bool
	patch  editor.Patch
}

// Toolbar shows the inline formatting of the text selection. With no
// selection (marks is nil) every toggle is off.
func Toolbar(marks *editor.Marks) templ.Component {
	var m editor.Marks
	if marks != nil {
		m = *marks
	}
	on, off := true, false
	toggle := func(v bool) *bool {
		if v {
			return &off
		}
		return &on
	}
	buttons := []toolButton{
		{"B", m.Bold, editor.Patch{Bold: toggle(m.Bold)}},
		{"I", m.Italic, editor.Patch{Italic: toggle(m.Italic)}},
		{"U", m.Underline, editor.Patch{Underline: toggle(m.Underline)}},
	}
	return component(func(w *writer) {
		w.raw(`<div id="toolbar" class="toolbar">`)
		for _, b := range buttons {
			patch, _ := json.Marshal(b.patch)
			class := "tool"
			if b.active {
				class += " active"
			}
			w.f(`<button type="button" class="%s" data-format='%s'%s>%s</button>`, class, string(patch), disabled(marks == nil), b.label)
		}
		w.f(`<input type="text" class="tool-size" data-format-key="fontSize" placeholder="size" value="%s"%s>`, m.FontSize, disabled(marks == nil))
		w.f(`<input type="color" class="tool-color" data-format-key="color" value="%s"%s>`, colorOr(m.Color, layout.DefaultTextColor), disabled(marks == nil))
		w.raw(`</div>`)
	})
}
