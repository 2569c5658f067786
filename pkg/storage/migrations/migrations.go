// Package migrations embeds the sqlite schema.
package migrations

import "embed"

// FS holds the ordered *.sql files applied by sqlitemigrate.
//
//go:embed *.sql
var FS embed.FS
