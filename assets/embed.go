// Package assets embeds the default product catalog and the SQL migrations
// for the SQLite catalog backend.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed products.json sql/*.sql
var FS embed.FS

// ProductsJSON returns the built-in catalog document.
func ProductsJSON() ([]byte, error) {
	return FS.ReadFile("products.json")
}

// Migrations returns the migration scripts rooted at the sql directory.
func Migrations() (fs.FS, error) {
	return fs.Sub(FS, "sql")
}
