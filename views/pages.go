package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/foundry"
	"github.com/eringen/foundry/canvas"
	"github.com/eringen/foundry/layout"
)

// Site carries the site-wide settings the shell needs.
type Site struct {
	Name string
}

// shell wraps body in the document head and the htmx runtime. The CSRF
// token rides on every htmx request as a header.
func (s Site) shell(title, csrf string, body func(w *writer)) templ.Component {
	return component(func(w *writer) {
		w.f(`<!doctype html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.f(`<title>%s · %s</title>`, title, s.Name)
		w.raw(`<link rel="stylesheet" href="/public/studio.css">`)
		w.raw(`<script src="/public/htmx.min.js" defer></script><script src="/public/workspace.js" defer></script>`)
		w.f(`</head><body hx-headers='{"X-CSRF-Token":"%s"}'>`, csrf)
		body(w)
		w.raw(`</body></html>`)
	})
}

// Login is the staff sign-in page.
func (s Site) Login(showError bool, csrf string) templ.Component {
	return s.shell("Sign in", csrf, func(w *writer) {
		w.f(`<main class="login"><h1>%s</h1><form method="post" action="/login/">%s`, s.Name, csrfField(csrf))
		if showError {
			w.raw(`<p class="error" role="alert">Wrong password.</p>`)
		}
		w.raw(`<label>Password <input type="password" name="password" autofocus required></label><button type="submit">Sign in</button></form></main>`)
	})
}

func nav(w *writer, csrf string) {
	w.f(`<nav class="nav"><a href="/studio/">Specimens</a><a href="/studio/fonts/">Fonts</a><a href="/studio/images/">Images</a>`+
		`<form method="post" action="/logout/">%s<button type="submit">Sign out</button></form></nav>`, csrfField(csrf))
}

// Dashboard lists the studio's specimens with a form to start a new one.
func (s Site) Dashboard(p foundry.DashboardPage) templ.Component {
	return s.shell(p.Studio.Name, p.CSRF, func(w *writer) {
		nav(w, p.CSRF)
		w.f(`<main class="dashboard" id="dashboard"><h1>%s</h1>`, p.Studio.Name)
		if p.Message != "" {
			w.f(`<p class="message">%s</p>`, p.Message)
		}
		w.f(`<form class="new-specimen" method="post" action="/studio/specimens">%s`, csrfField(p.CSRF))
		w.raw(`<input name="typeface" placeholder="Typeface" required><input name="name" placeholder="Specimen name">`)
		formatSelect(w, layout.FormatA4)
		orientationSelect(w, layout.Portrait)
		w.raw(`<button type="submit">New specimen</button></form>`)

		if len(p.Studio.Specimens) == 0 {
			w.raw(`<p class="empty">No specimens yet.</p>`)
		}
		w.raw(`<ul class="specimens">`)
		for _, sp := range p.Studio.Specimens {
			w.f(`<li><a href="%s/">%s <small>%s</small></a><span>%s %s · %d pages · %s</span>`,
				canvas.SpecimenPath(sp.ID), sp.Typeface, sp.Name, string(sp.Format), string(sp.Orientation), sp.PageCount, sp.UpdatedAt)
			w.f(`<a href="%s/print/" target="_blank">Print</a>`, canvas.SpecimenPath(sp.ID))
			w.f(`<button hx-delete="/studio/specimens/%s" hx-confirm="Delete %s?" hx-target="#dashboard" hx-select="#dashboard" hx-swap="outerHTML">Delete</button></li>`,
				sp.ID, sp.Name)
		}
		w.raw(`</ul></main>`)
	})
}

func formatSelect(w *writer, current layout.Format) {
	w.raw(`<select name="format">`)
	for _, f := range []layout.Format{layout.FormatA4, layout.FormatLetter} {
		w.f(`<option value="%s"%s>%s</option>`, string(f), selected(f == current), string(f))
	}
	w.raw(`</select>`)
}

func orientationSelect(w *writer, current layout.Orientation) {
	w.raw(`<select name="orientation">`)
	for _, o := range []layout.Orientation{layout.Portrait, layout.Landscape} {
		w.f(`<option value="%s"%s>%s</option>`, string(o), selected(o == current), string(o))
	}
	w.raw(`</select>`)
}

// Fonts lists uploaded fonts with an upload form.
func (s Site) Fonts(fonts []foundry.FontAsset, message, csrf string) templ.Component {
	return s.shell("Fonts", csrf, func(w *writer) {
		nav(w, csrf)
		w.raw(`<main id="fonts"><h1>Fonts</h1>`)
		if message != "" {
			w.f(`<p class="message">%s</p>`, message)
		}
		w.raw(`<form hx-post="/studio/fonts" hx-encoding="multipart/form-data" hx-target="#fonts" hx-select="#fonts" hx-swap="outerHTML">`)
		w.raw(`<input type="file" name="font" accept=".ttf,.otf" required><button type="submit">Upload</button></form><table class="fonts">`)
		for _, f := range fonts {
			style := "normal"
			if f.Italic {
				style = "italic"
			}
			w.f(`<tr><td>%s</td><td>%d</td><td>%s</td><td>%d KB</td>`, f.Family, f.Weight, style, f.Size/1024)
			w.f(`<td><button hx-delete="/studio/fonts/%s" hx-confirm="Delete %s?" hx-target="#fonts" hx-select="#fonts" hx-swap="outerHTML">Delete</button></td></tr>`, f.ID, f.Family)
		}
		w.raw(`</table></main>`)
	})
}

// Images lists uploaded background images.
func (s Site) Images(images []foundry.Image, csrf string) templ.Component {
	return s.shell("Images", csrf, func(w *writer) {
		nav(w, csrf)
		w.raw(`<main id="images"><h1>Background images</h1>`)
		w.raw(`<form hx-post="/studio/images" hx-encoding="multipart/form-data" hx-target="#images" hx-select="#images" hx-swap="outerHTML">`)
		w.raw(`<input type="file" name="image" accept="image/*" required><button type="submit">Upload</button></form><ul class="images">`)
		for _, img := range images {
			w.f(`<li><img src="%s" alt="%s" loading="lazy"><span>%s · %dx%d</span>`, img.URL(), img.OriginalName, img.Filename, img.Width, img.Height)
			w.f(`<button hx-delete="/studio/images/%s" hx-target="#images" hx-select="#images" hx-swap="outerHTML">Delete</button></li>`, img.Filename)
		}
		w.raw(`</ul></main>`)
	})
}

// Print is the printable document of a specimen.
func (s Site) Print(sp layout.Specimen, body templ.Component) templ.Component {
	return component(func(w *writer) {
		w.f(`<!doctype html><html lang="en"><head><meta charset="utf-8"><title>%s · %s</title>`, sp.Typeface, sp.Name)
		w.raw(`<link rel="stylesheet" href="/public/studio.css"></head><body class="print">`)
		w.child(body)
		w.raw(`</body></html>`)
	})
}

// NotFound is the 404 page.
func (s Site) NotFound() templ.Component {
	return s.shell("Not found", "", func(w *writer) {
		w.raw(`<main class="error-page"><h1>Not found</h1><p>That page does not exist.</p><a href="/studio/">Back to specimens</a></main>`)
	})
}

// ServerError is the 500 page.
func (s Site) ServerError() templ.Component {
	return s.shell("Error", "", func(w *writer) {
		w.raw(`<main class="error-page"><h1>Something went wrong</h1><p>Please try again.</p></main>`)
	})
}

// Funcs returns the default views wired for foundry.New.
func (s Site) Funcs() foundry.ViewFuncs {
	return foundry.ViewFuncs{
		Login:            s.Login,
		Dashboard:        s.Dashboard,
		Workspace:        s.Workspace,
		WorkspacePartial: s.WorkspacePartial,
		Toolbar:          Toolbar,
		Fonts:            s.Fonts,
		Images:           s.Images,
		Print:            s.Print,
		NotFound:         s.NotFound,
		ServerError:      s.ServerError,
	}
}
