package pgateway

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/corbaltcode/postgres-role-controller/internal/model"
)

// ListUsers returns every role with login capability, excluding the
// system-role denylist.
func (g *Gateway) ListUsers(ctx context.Context) (map[string]struct{}, error) {
	return g.listRoles(ctx, true)
}

// ListGroups returns every role without login capability, excluding the
// system-role denylist.
func (g *Gateway) ListGroups(ctx context.Context) (map[string]struct{}, error) {
	return g.listRoles(ctx, false)
}

func (g *Gateway) listRoles(ctx context.Context, canLogin bool) (map[string]struct{}, error) {
	rows, err := g.pool.Query(ctx, `SELECT rolname FROM pg_catalog.pg_roles WHERE rolcanlogin = $1`, canLogin)
	if err != nil {
		return nil, classify("listing roles", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, classify("collecting roles", err)
	}

	out := make(map[string]struct{}, len(names))
	for _, name := range names {
		if model.IsDenied(name) {
			continue
		}
		out[name] = struct{}{}
	}
	return out, nil
}

// UserRoles returns the set of group roles granted directly to username.
func (g *Gateway) UserRoles(ctx context.Context, username string) (map[string]struct{}, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT g.rolname
		FROM pg_catalog.pg_auth_members m
		JOIN pg_catalog.pg_roles u ON u.oid = m.member
		JOIN pg_catalog.pg_roles g ON g.oid = m.roleid
		WHERE u.rolname = $1`, username)
	if err != nil {
		return nil, classify("listing user roles", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, classify("collecting user roles", err)
	}

	out := make(map[string]struct{}, len(names))
	for _, name := range names {
		out[name] = struct{}{}
	}
	return out, nil
}
