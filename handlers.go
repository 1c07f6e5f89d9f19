package foundry

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/foundry/canvas"
	"github.com/eringen/foundry/editor"
	"github.com/eringen/foundry/layout"
	"github.com/eringen/foundry/panel"
)

func (a *App) handleHome(c echo.Context) error {
	if IsStaff(c) && workspaceToken(c) != "" {
		return c.Redirect(http.StatusSeeOther, "/studio/")
	}
	return Render(c, a.Views.Login(false, CsrfToken(c)))
}

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.StaffPassword)) == 1 {
		if err := setStaffSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/studio/")
	}
	a.loginLimiter.Record(ip)
	return RenderStatus(c, http.StatusUnauthorized, a.Views.Login(true, CsrfToken(c)))
}

func handleLogout(c echo.Context) error {
	if err := clearStaffSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleDashboard(c echo.Context) error {
	return a.renderDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleSpecimenCreate(c echo.Context) error {
	typeface := strings.TrimSpace(c.FormValue("typeface"))
	name := strings.TrimSpace(c.FormValue("name"))
	if typeface == "" {
		return c.Redirect(http.StatusSeeOther, "/studio/?msg=Typeface+is+required.")
	}
	if name == "" {
		name = typeface + " Specimen"
	}
	format := layout.Format(c.FormValue("format"))
	orientation := layout.Orientation(c.FormValue("orientation"))
	if (format != "" && !format.Valid()) || (orientation != "" && !orientation.Valid()) {
		return panel.ErrInvalidFormat
	}

	s, err := a.Store.CreateSpecimen(c.Request().Context(), a.Config.StudioID, typeface, name, format, orientation)
	if err != nil {
		return err
	}
	a.Studio.Invalidate()
	target := canvas.SpecimenPath(s.ID) + "/"
	if isHTMX(c) {
		c.Response().Header().Set("HX-Redirect", target)
		return c.NoContent(http.StatusCreated)
	}
	return c.Redirect(http.StatusSeeOther, target)
}

func (a *App) handleSpecimenDelete(c echo.Context) error {
	id := c.Param("id")
	if err := a.Store.DeleteSpecimen(c.Request().Context(), id); err != nil {
		return err
	}
	a.Hub.Drop(id)
	a.Studio.Invalidate()
	return a.renderDashboard(c, "deleted")
}

func (a *App) renderDashboard(c echo.Context, msg string) error {
	st, err := a.Studio.Studio(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.Dashboard(DashboardPage{Studio: st, Message: msg, CSRF: CsrfToken(c)}))
}

// statusFor maps domain errors to HTTP status codes. Anything unknown is a
// server error.
func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, ErrNotFound), errors.Is(err, panel.ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, panel.ErrLastPage), errors.Is(err, panel.ErrNotConfirmed),
		errors.Is(err, panel.ErrNotRenaming), errors.Is(err, editor.ErrNotOpen),
		errors.Is(err, ErrNoPages):
		return http.StatusConflict
	case errors.Is(err, panel.ErrInvalidOrder), errors.Is(err, panel.ErrInvalidName),
		errors.Is(err, panel.ErrInvalidFormat), errors.Is(err, panel.ErrCellOutOfRange),
		errors.Is(err, errBadRequest):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := statusFor(err)
	switch {
	case code == http.StatusNotFound && !isHTMX(c):
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	case code >= 500:
		c.Logger().Errorf("server error: %v", err)
		if isHTMX(c) {
			_ = c.String(code, "Something went wrong. Your last change was not saved.")
			return
		}
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		a.Echo.DefaultHTTPErrorHandler(err, c)
		return
	}
	_ = c.String(code, err.Error())
}
