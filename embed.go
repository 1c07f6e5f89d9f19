package foundry

import "embed"

// EmbeddedAssets contains the static assets shipped with the studio:
// workspace.js and studio.css. htmx.min.js is served from the static dir.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

//go:embed migrations/*.sql
var migrationsFS embed.FS
