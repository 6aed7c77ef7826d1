// Package migrations embeds the SQL schema for every supported driver.
// Files for each driver live in a directory named after it.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
