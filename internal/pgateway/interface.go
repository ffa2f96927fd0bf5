package pgateway

import (
	"context"

	"github.com/corbaltcode/postgres-role-controller/internal/model"
)

// Querier is the narrow capability surface the reconciler depends on. It
// exists so tests can substitute a fake without spinning up PostgreSQL —
// no class hierarchy, just the operations the reconciler actually calls.
type Querier interface {
	ListUsers(ctx context.Context) (map[string]struct{}, error)
	ListGroups(ctx context.Context) (map[string]struct{}, error)
	UserRoles(ctx context.Context, username string) (map[string]struct{}, error)
	CreateGroup(ctx context.Context, name string) error
	DropGroup(ctx context.Context, name string) error
	CreateUser(ctx context.Context, rec model.UserRecord, password string) error
	UpdateUserRoles(ctx context.Context, username string, current, desired map[string]struct{}) error
	DropUser(ctx context.Context, username string) error
}

var _ Querier = (*Gateway)(nil)
