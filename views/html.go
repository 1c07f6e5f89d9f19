// Package views holds the default HTML views of the studio server. Each
// view is a templ.Component; cmd/foundry wires them into foundry.ViewFuncs.
package views

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// safe marks markup that is already escaped or trusted.
type safe string

// writer buffers a view. String arguments of f are escaped unless wrapped
// in safe.
type writer struct {
	ctx context.Context
	buf bytes.Buffer
	err error
}

func (w *writer) f(format string, args ...any) {
	for i, a := range args {
		switch v := a.(type) {
		case string:
			args[i] = templ.EscapeString(v)
		case safe:
			args[i] = string(v)
		}
	}
	fmt.Fprintf(&w.buf, format, args...)
}

func (w *writer) raw(s string) {
	w.buf.WriteString(s)
}

func (w *writer) text(s string) {
	w.buf.WriteString(templ.EscapeString(s))
}

// child renders a nested component into the buffer.
func (w *writer) child(c templ.Component) {
	if c == nil || w.err != nil {
		return
	}
	w.err = c.Render(w.ctx, &w.buf)
}

func component(fn func(w *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{ctx: ctx}
		fn(w)
		if w.err != nil {
			return w.err
		}
		_, err := out.Write(w.buf.Bytes())
		return err
	})
}

func selected(ok bool) safe {
	if ok {
		return " selected"
	}
	return ""
}

func checked(ok bool) safe {
	if ok {
		return " checked"
	}
	return ""
}

func disabled(ok bool) safe {
	if ok {
		return " disabled"
	}
	return ""
}

func csrfField(token string) safe {
	return safe(`<input type="hidden" name="_csrf" value="` + templ.EscapeString(token) + `">`)
}
