package foundry

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/zeebo/blake3"
	"seehuhn.de/go/sfnt"

	"github.com/eringen/foundry/layout"
)

const (
	fontsSubdir       = "fonts"
	maxFontUploadSize = 20 << 20 // 20MB
	defaultFontWeight = 400
)

var errUnsupportedFont = errors.New("unsupported font file")

// fontExtensions are the files sfnt can read.
var fontExtensions = map[string]bool{".ttf": true, ".otf": true}

// processFont reads the family, weight and style of an uploaded font and
// names it by the BLAKE3 hash of its bytes, so identical uploads share one
// file.
func processFont(data []byte, originalName string) (FontAsset, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !fontExtensions[ext] {
		return FontAsset{}, errUnsupportedFont
	}
	info, err := sfnt.Read(bytes.NewReader(data))
	if err != nil {
		return FontAsset{}, fmt.Errorf("parse font: %w", err)
	}
	family := strings.TrimSpace(info.FamilyName)
	if family == "" {
		family = strings.TrimSuffix(originalName, filepath.Ext(originalName))
	}
	weight := int(info.Weight)
	if weight == 0 {
		weight = defaultFontWeight
	}
	sum := blake3.Sum256(data)
	return FontAsset{
		Family: family,
		File:   hex.EncodeToString(sum[:16]) + ext,
		Weight: weight,
		Italic: info.IsItalic,
		Size:   len(data),
	}, nil
}

// FontRegistry tracks which uploaded font files can be served. Registering
// a file is idempotent; a file that cannot be read is logged once and
// skipped, so cells using it fall back to the inherited family.
type FontRegistry struct {
	mu     sync.Mutex
	dir    string
	state  map[string]bool // file -> usable
	logger echo.Logger
}

// NewFontRegistry creates a registry for font files stored in dir.
func NewFontRegistry(dir string, logger echo.Logger) *FontRegistry {
	return &FontRegistry{dir: dir, state: make(map[string]bool), logger: logger}
}

// Register checks f once and reports whether it is usable.
func (r *FontRegistry) Register(f FontAsset) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ok, seen := r.state[f.File]; seen {
		return ok
	}
	err := r.check(f)
	if err != nil {
		r.logger.Warnf("font %s (%s) skipped: %v", f.Family, f.File, err)
	}
	r.state[f.File] = err == nil
	return err == nil
}

func (r *FontRegistry) check(f FontAsset) error {
	if f.File == "" {
		return errors.New("no file")
	}
	file, err := os.Open(filepath.Join(r.dir, filepath.Base(f.File)))
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = sfnt.Read(file)
	return err
}

// Lookup returns the layout records of the usable fonts among fonts.
func (r *FontRegistry) Lookup(fonts []FontAsset) layout.Fonts {
	usable := make([]layout.Font, 0, len(fonts))
	for _, f := range fonts {
		if r.Register(f) {
			usable = append(usable, f.Layout())
		}
	}
	return layout.NewFonts(usable)
}

// Forget drops the cached state of a file, for example after it was
// written again.
func (r *FontRegistry) Forget(file string) {
	r.mu.Lock()
	delete(r.state, file)
	r.mu.Unlock()
}

func (a *App) fontDir() string {
	return filepath.Join(a.Config.StaticDir, fontsSubdir)
}

func (a *App) handleFontList(c echo.Context) error {
	return a.renderFontList(c, "")
}

func (a *App) handleFontUpload(c echo.Context) error {
	file, err := c.FormFile("font")
	if err != nil {
		return c.String(http.StatusBadRequest, "No font file provided")
	}
	if file.Size > maxFontUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 20MB)")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxFontUploadSize+1))
	if err != nil {
		return err
	}

	font, err := processFont(data, file.Filename)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid font: "+err.Error())
	}
	font.StudioID = a.Config.StudioID

	dir := a.fontDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create fonts dir: %w", err)
	}
	path := filepath.Join(dir, font.File)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write font: %w", err)
		}
		a.Fonts.Forget(font.File)
	}

	stored, err := a.Store.SaveFont(c.Request().Context(), font)
	if err != nil {
		return err
	}
	a.Studio.Invalidate()
	a.Fonts.Register(stored)
	return a.renderFontList(c, "uploaded "+stored.Family)
}

func (a *App) handleFontDelete(c echo.Context) error {
	if err := a.Store.DeleteFont(c.Request().Context(), a.Config.StudioID, c.Param("id")); err != nil {
		return err
	}
	a.Studio.Invalidate()
	return a.renderFontList(c, "deleted")
}

func (a *App) renderFontList(c echo.Context, msg string) error {
	st, err := a.Studio.Studio(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.Fonts(st.Fonts, msg, CsrfToken(c)))
}
