package main

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/gorilla/securecookie"
	"github.com/spf13/pflag"

	"github.com/eringen/foundry"
	"github.com/eringen/foundry/catalog"
	"github.com/eringen/foundry/scaffold"
)

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	SiteName string
	StudioID string
	Secret   string
}

func runInit(args []string) error {
	flags := pflag.NewFlagSet("init", pflag.ContinueOnError)
	studioID := flags.String("studio", "", "studio id (default derived from the directory name)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: foundry init <dir> [--studio id]")
	}
	dirName := flags.Arg(0)

	if _, err := os.Stat(dirName); err == nil {
		return fmt.Errorf("directory %q already exists", dirName)
	}

	base := filepath.Base(dirName)
	data := scaffoldData{
		SiteName: toTitle(base),
		StudioID: *studioID,
		Secret:   hex.EncodeToString(securecookie.GenerateRandomKey(32)),
	}
	if data.StudioID == "" {
		data.StudioID = foundry.Slugify(base)
	}

	fmt.Printf("Creating new foundry studio: %s\n\n", dirName)

	root := "templates"
	err := fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		outPath := filepath.Join(dirName, relPath)
		outPath = strings.TrimSuffix(outPath, ".tmpl")
		if filepath.Base(outPath) == "dotenv" {
			outPath = filepath.Join(filepath.Dir(outPath), ".env")
		}

		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		content, err := scaffold.Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}
		// The .env file holds the session secret.
		mode := os.FileMode(0o644)
		if filepath.Base(outPath) == ".env" {
			mode = 0o600
		}
		f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()

		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}

		fmt.Printf("  created %s\n", outPath)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Done! Next steps:")
	fmt.Println()
	fmt.Printf("  cd %s\n", dirName)
	fmt.Println("  edit .env and set FOUNDRY_STAFF_PASSWORD")
	fmt.Println("  copy htmx.min.js into public/")
	fmt.Println("  set -a && . ./.env && set +a && foundry serve")
	return nil
}

// runTemplates prints the page template catalog, or one template when an
// id is given. With --file, a custom catalog is validated instead of the
// built-in one.
func runTemplates(args []string) error {
	flags := pflag.NewFlagSet("templates", pflag.ContinueOnError)
	file := flags.StringP("file", "f", "", "YAML catalog to validate")
	if err := flags.Parse(args); err != nil {
		return err
	}

	var (
		cat *catalog.Catalog
		err error
	)
	if *file == "" {
		cat, err = catalog.Builtin()
	} else {
		var data []byte
		data, err = os.ReadFile(*file)
		if err != nil {
			return err
		}
		cat, err = catalog.Parse(data)
	}
	if err != nil {
		return err
	}

	if flags.NArg() == 1 {
		id := flags.Arg(0)
		t, ok := cat.Get(id)
		if !ok {
			if near, ok := cat.Closest(id); ok {
				return fmt.Errorf("no template %q, did you mean %q?", id, near)
			}
			return fmt.Errorf("no template %q", id)
		}
		fmt.Printf("%s (%s)\n%s\ngrid %dx%d, gap %g, %d cells\n", t.Title, t.ID, t.Description, t.Columns, t.Rows, t.Gap, len(t.Cells))
		return nil
	}

	for _, t := range cat.All() {
		fmt.Printf("%-16s %dx%d  %-24s %s\n", t.ID, t.Columns, t.Rows, t.Title, t.Description)
	}
	return nil
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-studio" -> "My Studio", "mystudio" -> "Mystudio"
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
