package pgateway

import (
	"context"
	"fmt"

	"github.com/corbaltcode/postgres-role-controller/internal/model"
)

// CreateGroup issues CREATE ROLE <name> NOLOGIN in autocommit. Callers are
// expected to only call this for roles absent from live_groups; the
// underlying error on pre-existence is surfaced as a permanent error.
func (g *Gateway) CreateGroup(ctx context.Context, name string) error {
	stmt := fmt.Sprintf("CREATE ROLE %s NOLOGIN", quoteIdent(name))
	if g.dryRunLog(stmt, "role", name) {
		return nil
	}
	_, err := g.pool.Exec(ctx, stmt)
	return classify("create group "+name, err)
}

// DropGroup issues DROP ROLE IF EXISTS <name> in autocommit.
func (g *Gateway) DropGroup(ctx context.Context, name string) error {
	stmt := fmt.Sprintf("DROP ROLE IF EXISTS %s", quoteIdent(name))
	if g.dryRunLog(stmt, "role", name) {
		return nil
	}
	_, err := g.pool.Exec(ctx, stmt)
	return classify("drop group "+name, err)
}

// CreateUser provisions a new login role in a single transaction: create
// the user with the given password, grant CONNECT on its database, grant
// each declared role, and apply each declared object privilege. The whole
// sequence commits or rolls back together.
func (g *Gateway) CreateUser(ctx context.Context, rec model.UserRecord, password string) error {
	user := quoteIdent(rec.Username)
	createStmt := fmt.Sprintf("CREATE USER %s WITH PASSWORD $1", user)
	connectStmt := fmt.Sprintf("GRANT CONNECT ON DATABASE %s TO %s", quoteIdent(rec.Database), user)

	if g.dryRunLog(createStmt+"; "+connectStmt, "username", rec.Username) {
		return nil
	}

	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return classify("begin create user "+rec.Username, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, createStmt, password); err != nil {
		return classify("create user "+rec.Username, err)
	}
	if _, err := tx.Exec(ctx, connectStmt); err != nil {
		return classify("grant connect "+rec.Username, err)
	}
	for _, role := range rec.Roles {
		stmt := fmt.Sprintf("GRANT %s TO %s", quoteIdent(role), user)
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return classify(fmt.Sprintf("grant role %s to %s", role, rec.Username), err)
		}
	}
	for obj, kws := range rec.Privileges {
		for _, kw := range kws {
			if !model.ValidPrivilege(kw) {
				return fmt.Errorf("privilege %q on %q: %w", kw, obj, model.ErrDBPermanent)
			}
			// Privilege objects are schema identifiers (model.ValidPrivilegeObject);
			// PostgreSQL's GRANT defaults to ON TABLE when no object type is
			// given, so the type keyword must be explicit here.
			stmt := fmt.Sprintf("GRANT %s ON SCHEMA %s TO %s", kw, quoteIdent(obj), user)
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return classify(fmt.Sprintf("grant %s on schema %s to %s", kw, obj, rec.Username), err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return classify("commit create user "+rec.Username, err)
	}
	return nil
}

// UpdateUserRoles diffs current against desired and issues REVOKE for each
// role to drop followed by GRANT for each role to add, all within one
// transaction.
func (g *Gateway) UpdateUserRoles(ctx context.Context, username string, current, desired map[string]struct{}) error {
	diff := model.DiffRoles(current, desired)
	if diff.Empty() {
		return nil
	}

	user := quoteIdent(username)
	if g.dryRunLog(fmt.Sprintf("revoke=%v grant=%v", diff.ToRevoke, diff.ToGrant), "username", username) {
		return nil
	}

	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return classify("begin update roles "+username, err)
	}
	defer tx.Rollback(ctx)

	for _, role := range diff.ToRevoke {
		stmt := fmt.Sprintf("REVOKE %s FROM %s", quoteIdent(role), user)
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return classify(fmt.Sprintf("revoke %s from %s", role, username), err)
		}
	}
	for _, role := range diff.ToGrant {
		stmt := fmt.Sprintf("GRANT %s TO %s", quoteIdent(role), user)
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return classify(fmt.Sprintf("grant %s to %s", role, username), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return classify("commit update roles "+username, err)
	}
	return nil
}

// DropUser removes a managed user: revoke all privileges on the
// controller's default database, reassign any objects it owns to the
// controller's admin role, drop whatever else it owns, then drop the role
// itself. All in one transaction so a failure midway leaves the user
// intact.
func (g *Gateway) DropUser(ctx context.Context, username string) error {
	user := quoteIdent(username)
	admin := quoteIdent(g.adminRole)
	revokeStmt := fmt.Sprintf("REVOKE ALL PRIVILEGES ON DATABASE %s FROM %s", quoteIdent(g.defaultDB), user)
	reassignStmt := fmt.Sprintf("REASSIGN OWNED BY %s TO %s", user, admin)
	dropOwnedStmt := fmt.Sprintf("DROP OWNED BY %s", user)
	dropUserStmt := fmt.Sprintf("DROP USER IF EXISTS %s", user)

	if g.dryRunLog(revokeStmt+"; "+reassignStmt+"; "+dropOwnedStmt+"; "+dropUserStmt, "username", username) {
		return nil
	}

	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return classify("begin drop user "+username, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, revokeStmt); err != nil {
		return classify("revoke privileges "+username, err)
	}
	if _, err := tx.Exec(ctx, reassignStmt); err != nil {
		return classify("reassign owned by "+username, err)
	}
	if _, err := tx.Exec(ctx, dropOwnedStmt); err != nil {
		return classify("drop owned by "+username, err)
	}
	if _, err := tx.Exec(ctx, dropUserStmt); err != nil {
		return classify("drop user "+username, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classify("commit drop user "+username, err)
	}
	return nil
}
