// Package migrations embeds the SQL schema files so the migrate
// command and tests run without a checkout-relative path.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
