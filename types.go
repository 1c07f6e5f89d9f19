package foundry

import (
	"github.com/a-h/templ"

	"github.com/eringen/foundry/canvas"
	"github.com/eringen/foundry/catalog"
	"github.com/eringen/foundry/editor"
	"github.com/eringen/foundry/layout"
	"github.com/eringen/foundry/workspace"
)

// Studio is the type foundry account that owns specimens and fonts.
type Studio struct {
	ID        string
	Name      string
	Specimens []SpecimenSummary
	Fonts     []FontAsset
}

// SpecimenSummary is the dashboard view of a specimen, without pages.
type SpecimenSummary struct {
	ID          string
	Typeface    string
	Name        string
	Slug        string
	Format      layout.Format
	Orientation layout.Orientation
	PageCount   int
	UpdatedAt   string
}

// FontAsset is an uploaded font file and the metadata read from it.
type FontAsset struct {
	ID         string
	StudioID   string
	Family     string
	File       string // content-addressed file name under the font dir
	Weight     int
	Italic     bool
	Size       int
	UploadedAt string
}

// Layout returns the record the layout core works with.
func (f FontAsset) Layout() layout.Font {
	return layout.Font{ID: f.ID, File: f.File, Weight: f.Weight, Italic: f.Italic}
}

// Image is an uploaded background image.
type Image struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}

// URL is the public path of the image.
func (i Image) URL() string {
	return "/" + uploadsSubdir + "/" + i.Filename
}

// DashboardPage is the data of the staff dashboard.
type DashboardPage struct {
	Studio  Studio
	Message string
	CSRF    string
}

// WorkspacePage is the data of the specimen workspace: the page strip
// under the session's view transform and the side panel.
type WorkspacePage struct {
	Specimen  layout.Specimen
	Pages     []PageCanvas
	View      workspace.View
	Transform string
	Selection *workspace.Selection
	Cell      *layout.Cell // resolved selected cell
	Toolbar   *editor.Marks
	Rename    RenameState
	CanDelete bool
	Templates []catalog.Template
	Fonts     []FontAsset
	Images    []Image
	Message   string
	CSRF      string
}

// PageCanvas is one rendered page and its place on the strip.
type PageCanvas struct {
	Page   layout.Page
	Rect   canvas.Rect
	Canvas templ.Component
}

// RenameState is the page name being edited in the panel.
type RenameState struct {
	PageID string
	Buffer string
}

// Active reports whether a rename is in progress.
func (r RenameState) Active() bool { return r.PageID != "" }
