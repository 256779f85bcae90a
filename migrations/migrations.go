// Package migrations holds the goose migration set. SQL files are embedded;
// the backfill and drop stages are Go migrations because they enforce
// preconditions before touching data.
package migrations

import "embed"

//go:embed *.sql
var Embed embed.FS
