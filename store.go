package foundry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eringen/foundry/layout"
	"github.com/eringen/foundry/panel"
)

// ErrNoPages is returned when a patch would leave a specimen without pages.
var ErrNoPages = errors.New("store: a specimen keeps at least one page")

// Store wraps a SQLite database holding studios, specimens, fonts and
// images. It implements panel.Gateway.
type Store struct {
	db *sql.DB
}

var _ panel.Gateway = (*Store)(nil)

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and applies the embedded migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// busy_timeout is per connection, so it rides on the DSN for the whole
	// pool.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	// WAL lets the workspace read while a save is in flight; writers wait on
	// the busy timeout instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	defer src.Close()
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return err
	}
	// The migrate instance is not closed: its database driver would close
	// the shared *sql.DB.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// EnsureStudio creates the studio row when it does not exist yet and keeps
// its name current otherwise.
func (s *Store) EnsureStudio(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO studios (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`, id, name, now())
	return err
}

// Studio returns the studio aggregate with its specimens, most recently
// edited first, and its fonts.
func (s *Store) Studio(ctx context.Context, id string) (Studio, error) {
	st := Studio{ID: id}
	if err := s.db.QueryRowContext(ctx, `SELECT name FROM studios WHERE id = ?`, id).Scan(&st.Name); err != nil {
		return Studio{}, err
	}
	specimens, err := s.ListSpecimens(ctx, id)
	if err != nil {
		return Studio{}, err
	}
	fonts, err := s.ListFonts(ctx, id)
	if err != nil {
		return Studio{}, err
	}
	st.Specimens = specimens
	st.Fonts = fonts
	return st, nil
}

// ListSpecimens returns the summaries of a studio's specimens.
func (s *Store) ListSpecimens(ctx context.Context, studioID string) ([]SpecimenSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, typeface, name, slug, format, orientation, json_array_length(pages), updated_at
		FROM specimens WHERE studio_id = ? ORDER BY updated_at DESC, id`, studioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SpecimenSummary
	for rows.Next() {
		var sum SpecimenSummary
		var format, orientation string
		if err := rows.Scan(&sum.ID, &sum.Typeface, &sum.Name, &sum.Slug, &format, &orientation, &sum.PageCount, &sum.UpdatedAt); err != nil {
			return nil, err
		}
		sum.Format = layout.Format(format)
		sum.Orientation = layout.Orientation(orientation)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// GetSpecimen loads a full specimen. Unknown formats fall back to A4
// portrait and an unreadable page column loads as no pages.
func (s *Store) GetSpecimen(ctx context.Context, id string) (layout.Specimen, error) {
	var sp layout.Specimen
	var format, orientation, pages string
	err := s.db.QueryRowContext(ctx, `SELECT id, studio_id, typeface, name, format, orientation, pages FROM specimens WHERE id = ?`, id).
		Scan(&sp.ID, &sp.StudioID, &sp.Typeface, &sp.Name, &format, &orientation, &pages)
	if err != nil {
		return layout.Specimen{}, err
	}
	sp.Format = layout.Format(format)
	sp.Orientation = layout.Orientation(orientation)
	if err := json.Unmarshal([]byte(pages), &sp.Pages); err != nil || len(sp.Pages) == 0 {
		sp.Pages = nil
	}
	return layout.NormalizeSpecimen(sp), nil
}

// CreateSpecimen stores a new specimen without pages; the editor shows a
// placeholder page until the first edit.
func (s *Store) CreateSpecimen(ctx context.Context, studioID, typeface, name string, format layout.Format, orientation layout.Orientation) (layout.Specimen, error) {
	sp := layout.NormalizeSpecimen(layout.Specimen{
		ID:          uuid.NewString(),
		StudioID:    studioID,
		Typeface:    typeface,
		Name:        name,
		Format:      format,
		Orientation: orientation,
	})
	ts := now()
	_, err := s.db.ExecContext(ctx, `INSERT INTO specimens (id, studio_id, typeface, name, slug, format, orientation, pages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, '[]', ?, ?)`,
		sp.ID, sp.StudioID, sp.Typeface, sp.Name, Slugify(typeface+" "+name), string(sp.Format), string(sp.Orientation), ts, ts)
	if err != nil {
		return layout.Specimen{}, err
	}
	return sp, nil
}

// UpdateSpecimen applies a partial patch in one transaction. Writes are
// last-write-wins.
func (s *Store) UpdateSpecimen(ctx context.Context, id string, p panel.Patch) error {
	if p.Pages != nil && len(*p.Pages) == 0 {
		return ErrNoPages
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	set := func(column string, value any) error {
		res, err := tx.ExecContext(ctx, `UPDATE specimens SET `+column+` = ?, updated_at = ? WHERE id = ?`, value, now(), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	}

	if p.Name != nil {
		if err := set("name", *p.Name); err != nil {
			return err
		}
	}
	if p.Format != nil {
		if err := set("format", string(*p.Format)); err != nil {
			return err
		}
	}
	if p.Orientation != nil {
		if err := set("orientation", string(*p.Orientation)); err != nil {
			return err
		}
	}
	if p.Pages != nil {
		data, err := json.Marshal(*p.Pages)
		if err != nil {
			return fmt.Errorf("store: encode pages: %w", err)
		}
		if err := set("pages", string(data)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteSpecimen removes a specimen.
func (s *Store) DeleteSpecimen(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM specimens WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFonts returns the fonts of a studio ordered by family, weight and
// style.
func (s *Store) ListFonts(ctx context.Context, studioID string) ([]FontAsset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, studio_id, family, file, weight, italic, size, uploaded_at
		FROM fonts WHERE studio_id = ? ORDER BY family, weight, italic`, studioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fonts []FontAsset
	for rows.Next() {
		var f FontAsset
		var italic int
		if err := rows.Scan(&f.ID, &f.StudioID, &f.Family, &f.File, &f.Weight, &italic, &f.Size, &f.UploadedAt); err != nil {
			return nil, err
		}
		f.Italic = italic == 1
		fonts = append(fonts, f)
	}
	return fonts, rows.Err()
}

// SaveFont records a font. Uploading the same file twice to a studio keeps
// the first record and returns it.
func (s *Store) SaveFont(ctx context.Context, f FontAsset) (FontAsset, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.UploadedAt == "" {
		f.UploadedAt = now()
	}
	italic := 0
	if f.Italic {
		italic = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO fonts (id, studio_id, family, file, weight, italic, size, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(studio_id, file) DO NOTHING`,
		f.ID, f.StudioID, f.Family, f.File, f.Weight, italic, f.Size, f.UploadedAt)
	if err != nil {
		return FontAsset{}, err
	}
	var stored FontAsset
	var storedItalic int
	err = s.db.QueryRowContext(ctx, `SELECT id, studio_id, family, file, weight, italic, size, uploaded_at FROM fonts WHERE studio_id = ? AND file = ?`, f.StudioID, f.File).
		Scan(&stored.ID, &stored.StudioID, &stored.Family, &stored.File, &stored.Weight, &storedItalic, &stored.Size, &stored.UploadedAt)
	if err != nil {
		return FontAsset{}, err
	}
	stored.Italic = storedItalic == 1
	return stored, nil
}

// DeleteFont removes a font record. Cells that still reference it fall back
// to the inherited family.
func (s *Store) DeleteFont(ctx context.Context, studioID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fonts WHERE studio_id = ? AND id = ?`, studioID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveImage records an uploaded background image.
func (s *Store) SaveImage(ctx context.Context, img Image) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO images (filename, original_name, width, height, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UploadedAt)
	return err
}

// ListImages returns all images, newest first.
func (s *Store) ListImages(ctx context.Context) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename, original_name, width, height, size, uploaded_at FROM images ORDER BY uploaded_at DESC, filename`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UploadedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// ImageExists reports whether an image with filename is recorded.
func (s *Store) ImageExists(ctx context.Context, filename string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images WHERE filename = ?`, filename).Scan(&n)
	return n > 0, err
}

// DeleteImage removes an image record by filename.
func (s *Store) DeleteImage(ctx context.Context, filename string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE filename = ?`, filename)
	return err
}
