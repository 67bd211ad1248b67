package migrations

import "embed"

// FS embeds the exchange schema migrations (organizations, incidents,
// campaigns, budgets, audit log). golang-migrate reads them through the
// iofs driver on startup.
//
//go:embed *.sql
var FS embed.FS

const Version = 1
