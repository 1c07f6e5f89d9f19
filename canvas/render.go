package canvas

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/foundry/editor"
	"github.com/eringen/foundry/layout"
)

// FontPath is the URL prefix under which uploaded font files are served.
const FontPath = "/fonts/"

// EmptyHint is shown in cells without visible content.
const EmptyHint = "Click to add text"

// SpecimenPath is the workspace URL of a specimen.
func SpecimenPath(specimenID string) string {
	return "/studio/specimens/" + specimenID
}

// Component renders f as the interactive page surface. The selected slot
// hosts the editor; other slots post a select action when clicked.
func Component(f Frame, ed *editor.Editor) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		writeFaces(&buf, f.Faces)
		fmt.Fprintf(&buf, `<div class="page" id="page-%s" data-page-id="%s" data-width="%s" data-height="%s" style="%s">`,
			templ.EscapeString(f.PageID), templ.EscapeString(f.PageID),
			num(f.Paper.Width), num(f.Paper.Height), templ.EscapeString(pageStyle(f)))
		for _, s := range f.Slots {
			writeSlot(&buf, f, s, ed)
		}
		buf.WriteString(`</div>`)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func writeSlot(buf *bytes.Buffer, f Frame, s Slot, ed *editor.Editor) {
	style := slotBox(f, s) + " " + s.Style.String()
	class := "cell"
	if s.Selected {
		class += " cell-selected"
	}
	fmt.Fprintf(buf, `<div class="%s" data-cell-index="%d" style="%s"`, class, s.Index, templ.EscapeString(style))
	if !s.Selected {
		fmt.Fprintf(buf, ` hx-post="%s/cells/select" hx-vals='{"page":"%s","cell":"%d"}' hx-target="#workspace" hx-swap="outerHTML"`,
			templ.EscapeString(SpecimenPath(f.SpecimenID)), templ.EscapeString(f.PageID), s.Index)
	}
	buf.WriteString(`>`)

	switch {
	case s.Selected && ed != nil && ed.IsOpen():
		fmt.Fprintf(buf, `<div id="cell-editor" class="cell-editor" contenteditable="true" hx-post="%s/cells/save" hx-trigger="blur" hx-swap="none" hx-vals='{"page":"%s","cell":"%d"}' data-page-id="%s" data-cell-index="%d">`,
			templ.EscapeString(SpecimenPath(f.SpecimenID)), templ.EscapeString(f.PageID), s.Index, templ.EscapeString(f.PageID), s.Index)
		buf.WriteString(ed.HTML())
		buf.WriteString(`</div>`)
	case s.Empty:
		fmt.Fprintf(buf, `<p class="cell-hint">%s</p>`, templ.EscapeString(EmptyHint))
	default:
		buf.WriteString(s.Cell.Content)
	}
	buf.WriteString(`</div>`)
}

func pageStyle(f Frame) string {
	d := layout.Declarations{
		{Property: "position", Value: "relative"},
		{Property: "width", Value: num(f.Paper.Width) + "px"},
		{Property: "height", Value: num(f.Paper.Height) + "px"},
	}
	return append(d, f.Background...).String()
}

func slotBox(f Frame, s Slot) string {
	d := layout.Declarations{
		{Property: "position", Value: "absolute"},
		{Property: "left", Value: num(s.Rect.X) + "px"},
		{Property: "top", Value: num(s.Rect.Y) + "px"},
		{Property: "width", Value: num(s.Rect.W) + "px"},
		{Property: "height", Value: num(s.Rect.H) + "px"},
		{Property: "overflow", Value: "hidden"},
		{Property: "box-sizing", Value: "border-box"},
	}
	if f.Grid.ShowLines {
		d = append(d, layout.Declaration{Property: "outline", Value: "1px dashed #9ca3af"})
	}
	return d.String()
}

func writeFaces(buf *bytes.Buffer, faces []layout.Font) {
	if len(faces) == 0 {
		return
	}
	buf.WriteString(`<style>`)
	for _, font := range faces {
		buf.WriteString(FontFace(font))
	}
	buf.WriteString(`</style>`)
}

// FontFace returns the @font-face rule of an uploaded font, or "" when the
// font cannot be served.
func FontFace(f layout.Font) string {
	family := layout.FontFamily(&f)
	src := layout.SanitizeURL(FontPath + f.File)
	if family == "" || src == "" {
		return ""
	}
	style := "normal"
	if f.Italic {
		style = "italic"
	}
	weight := f.Weight
	if weight <= 0 {
		weight = 400
	}
	return fmt.Sprintf("@font-face{font-family:'%s';src:url('%s');font-weight:%d;font-style:%s;font-display:swap;}",
		family, src, weight, style)
}

func num(v float64) string {
	return layout.FormatNumber(v)
}
