// Package db embeds the SQL migrations applied at startup and by seed-db.
package db

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the embedded migration statements in filename order.
// Filenames carry a numeric prefix, so lexicographic order is apply order.
func Migrations() ([]string, error) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	stmts := make([]string, 0, len(names))
	for _, name := range names {
		data, err := migrations.ReadFile(name)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, string(data))
	}
	return stmts, nil
}
