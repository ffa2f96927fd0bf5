package pgateway

import "github.com/jackc/pgx/v5"

// quoteIdent routes a role, user, or database name into SQL text through a
// safe-identifier quoter: it is always double-quoted and any internal
// double-quote is doubled, never interpolated raw. This is the only path
// by which an identifier reaches a SQL statement in this package.
func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
