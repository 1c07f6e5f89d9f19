// Package scaffold provides the embedded files written by "foundry init"
// when setting up a new studio directory.
package scaffold

import "embed"

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS
