package foundry

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// RenderPage writes fragment for htmx requests and full otherwise. The
// response varies on HX-Request so caches keep the two apart.
func RenderPage(c echo.Context, full, fragment templ.Component) error {
	c.Response().Header().Add(echo.HeaderVary, "HX-Request")
	if isHTMX(c) && c.Request().Header.Get("HX-History-Restore-Request") != "true" {
		return Render(c, fragment)
	}
	return Render(c, full)
}

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}
