// Package reconciler orchestrates one reconciliation cycle — merging
// desired, last-applied, and live database state into a minimal set of
// convergent mutations — and the outer sleep loop that drives it.
package reconciler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/corbaltcode/postgres-role-controller/internal/model"
	"github.com/corbaltcode/postgres-role-controller/internal/pgateway"
)

// SpecFetcher is the narrow capability the reconciler needs from the
// desired-spec source.
type SpecFetcher interface {
	FetchDesired(ctx context.Context) (model.DesiredSpec, error)
}

// PasswordResolver is the narrow capability the reconciler needs from the
// secret source.
type PasswordResolver interface {
	PasswordFor(ctx context.Context, username string) (password string, found bool, err error)
}

// StateStore is the narrow capability the reconciler needs from the
// last-applied state store.
type StateStore interface {
	Load() model.LastApplied
	Save(spec model.DesiredSpec) error
}

// MetricsRecorder is the narrow capability the reconciler needs from the
// metrics sink.
type MetricsRecorder interface {
	RecordCycle(stats model.ReconcileStats, usersManaged, rolesManaged int)
}

// Reconciler orchestrates reconciliation cycles.
type Reconciler struct {
	spec    SpecFetcher
	secrets PasswordResolver
	db      pgateway.Querier
	state   StateStore
	metrics MetricsRecorder
	dryRun  bool
	log     *zap.SugaredLogger

	interval time.Duration
}

// New constructs a Reconciler from its collaborators.
func New(
	spec SpecFetcher,
	secrets PasswordResolver,
	db pgateway.Querier,
	state StateStore,
	m MetricsRecorder,
	dryRun bool,
	interval time.Duration,
	log *zap.SugaredLogger,
) *Reconciler {
	return &Reconciler{
		spec:     spec,
		secrets:  secrets,
		db:       db,
		state:    state,
		metrics:  m,
		dryRun:   dryRun,
		interval: interval,
		log:      log,
	}
}

// Run drives the outer loop: one cycle, then sleep for interval (measured
// from cycle end to next cycle start), repeating until ctx is cancelled.
// The loop only blocks at the four suspension points the concurrency model
// names: the cycle's own fetches/queries, and this sleep.
func (r *Reconciler) Run(ctx context.Context) error {
	for {
		if _, err := r.RunOnce(ctx); err != nil {
			r.log.Errorw("reconciliation cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.interval):
		}
	}
}

// RunOnce executes exactly one reconciliation cycle per the ten-step
// algorithm: fetch desired, load last-applied, fetch live view, reconcile
// group roles, diff users, delete, create, update, persist, record
// metrics. A single failing item never aborts the cycle; only a failed
// desired-spec fetch (including a missing spec) or a failed live-view
// fetch does.
func (r *Reconciler) RunOnce(ctx context.Context) (model.ReconcileStats, error) {
	stats := model.ReconcileStats{Start: time.Now()}

	// 1. Fetch desired.
	desired, err := r.spec.FetchDesired(ctx)
	if err != nil {
		stats.AddError()
		stats.End = time.Now()
		if errors.Is(err, model.ErrConfigMissing) {
			r.log.Warnw("desired spec not found, aborting cycle", "error", err)
			return stats, nil
		}
		return stats, err
	}

	// 2. Load last-applied.
	lastApplied := r.state.Load()

	// 3. Fetch live view.
	liveUsers, err := r.db.ListUsers(ctx)
	if err != nil {
		stats.AddError()
		stats.End = time.Now()
		return stats, err
	}
	liveGroups, err := r.db.ListGroups(ctx)
	if err != nil {
		stats.AddError()
		stats.End = time.Now()
		return stats, err
	}

	// 4. Reconcile group roles.
	needed := desired.NeededGroups()
	for role := range needed {
		if model.IsDenied(role) {
			continue
		}
		if _, exists := liveGroups[role]; exists {
			continue
		}
		if err := r.db.CreateGroup(ctx, role); err != nil {
			r.log.Errorw("failed to create group role", "role", role, "error", err)
			stats.AddError()
			continue
		}
		liveGroups[role] = struct{}{}
		stats.RolesCreated++
	}

	// 5. Diff users: detect_drift's pure three-way split, then a separate
	// orphan-protection gate restricting deletions to users the
	// controller previously owned.
	diff := model.DiffUsers(desired, liveUsers)
	ownedDeletions := model.FilterOwnedDeletions(diff.ToDelete, lastApplied)
	stats.Drift = diff.Drift(lastApplied)

	// 6. Deletions first.
	for _, username := range ownedDeletions {
		if model.IsDenied(username) {
			continue
		}
		if err := r.db.DropUser(ctx, username); err != nil {
			r.log.Errorw("failed to drop user", "username", username, "error", err)
			stats.AddError()
			continue
		}
		stats.UsersDeleted++
	}

	// 7. Creations.
	for _, username := range diff.ToCreate {
		rec := desired[username]
		if model.IsDenied(username) {
			continue
		}
		password, found, err := r.secrets.PasswordFor(ctx, username)
		if err != nil {
			r.log.Errorw("failed to resolve password", "username", username, "error", err)
			stats.AddError()
			continue
		}
		if !found {
			r.log.Errorw("secret missing, skipping user creation", "username", username)
			stats.AddError()
			continue
		}
		if err := r.db.CreateUser(ctx, rec, password); err != nil {
			r.log.Errorw("failed to create user", "username", username, "error", err)
			stats.AddError()
			continue
		}
		stats.UsersCreated++
	}

	// 8. Updates. Gated on the user being tracked in last-applied state
	// with roles that differ from desired — an adopted user present in
	// desired∩live but absent from last-applied is left alone until the
	// controller has actually applied state for it once.
	for _, username := range diff.ToUpdate {
		if model.IsDenied(username) {
			continue
		}
		rec := desired[username]
		prior, tracked := lastApplied[username]
		if !tracked {
			continue
		}
		if stringSetEqual(prior.RoleSet(), rec.RoleSet()) {
			continue
		}

		current, err := r.db.UserRoles(ctx, username)
		if err != nil {
			r.log.Errorw("failed to fetch live user roles", "username", username, "error", err)
			stats.AddError()
			continue
		}
		desiredRoles := rec.RoleSet()
		if stringSetEqual(current, desiredRoles) {
			continue
		}
		if err := r.db.UpdateUserRoles(ctx, username, current, desiredRoles); err != nil {
			r.log.Errorw("failed to update user roles", "username", username, "error", err)
			stats.AddError()
			continue
		}
		stats.UsersUpdated++
	}

	// 9. Persist state, unless dry-run.
	if !r.dryRun {
		if err := r.state.Save(desired); err != nil {
			r.log.Errorw("failed to persist last-applied state", "error", err)
			stats.AddError()
		}
	}

	// 10. Update gauges/counters. The roles gauge reports live_groups as
	// observed after this cycle's role creations (resolved open
	// question: eventually consistent, one-cycle lag erased).
	stats.End = time.Now()
	r.metrics.RecordCycle(stats, len(desired), len(liveGroups))

	r.log.Infow("reconciliation cycle complete",
		"users_created", stats.UsersCreated,
		"users_updated", stats.UsersUpdated,
		"users_deleted", stats.UsersDeleted,
		"roles_created", stats.RolesCreated,
		"drift", stats.Drift,
		"errors", stats.Errors,
		"duration", stats.End.Sub(stats.Start),
	)

	return stats, nil
}

func stringSetEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
