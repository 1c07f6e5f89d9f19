package canvas

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/foundry/layout"
)

// PrintComponent renders every stored page of s, one per printed sheet,
// without editing affordances. A specimen without pages prints its
// placeholder page.
func PrintComponent(s layout.Specimen, fonts layout.FontLookup) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		spec := layout.NormalizeSpecimen(s)
		paper := PaperSize(spec.Format, spec.Orientation)

		var frames []Frame
		var faces []layout.Font
		seen := make(map[string]bool)
		for _, p := range layout.EditablePages(spec) {
			f := Layout(spec, p, nil, fonts)
			frames = append(frames, f)
			for _, face := range f.Faces {
				if !seen[face.ID] {
					seen[face.ID] = true
					faces = append(faces, face)
				}
			}
		}

		var buf bytes.Buffer
		fmt.Fprintf(&buf, `<style>@page{size:%spx %spx;margin:0;}body{margin:0;}.sheet{page-break-after:always;break-after:page;}.sheet:last-child{page-break-after:auto;break-after:auto;}`,
			num(paper.Width), num(paper.Height))
		for _, face := range faces {
			buf.WriteString(FontFace(face))
		}
		buf.WriteString(`</style>`)
		for _, f := range frames {
			fmt.Fprintf(&buf, `<section class="sheet" aria-label="%s"><div class="page" style="%s">`,
				templ.EscapeString(f.PageName), templ.EscapeString(pageStyle(f)))
			for _, slot := range f.Slots {
				style := slotBox(Frame{}, slot) + " " + slot.Style.String()
				fmt.Fprintf(&buf, `<div class="cell" style="%s">`, templ.EscapeString(style))
				if !slot.Empty {
					buf.WriteString(slot.Cell.Content)
				}
				buf.WriteString(`</div>`)
			}
			buf.WriteString(`</div></section>`)
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}
