// Package pgateway is the pooled, privileged PostgreSQL gateway: the only
// component in the controller that issues SQL. It exposes typed mutations
// and queries, classifies failures as transient or permanent, and gates
// every mutation behind dry-run.
package pgateway

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/corbaltcode/postgres-role-controller/internal/model"
	"github.com/corbaltcode/postgres-role-controller/internal/retry"
)

const connectTimeout = 10 * time.Second

// Config is the gateway's connection and pool configuration.
type Config struct {
	Host    string
	Port    int
	User    string
	Pass    string
	DBName  string
	MinConn int32
	MaxConn int32
}

// Gateway is a pooled connection to PostgreSQL exposing the controller's
// typed operations. adminRole is the owner object ownership is reassigned
// to before a managed user is dropped — the connecting DBUser, since it is
// the controller's own privileged identity.
type Gateway struct {
	pool      *pgxpool.Pool
	defaultDB string
	adminRole string
	dryRun    bool
	log       *zap.SugaredLogger
}

// Connect initializes the connection pool with a bounded-retry policy,
// per the spec's allowance for pool re-initialization on startup. Failure
// after the retry budget is exhausted is a FatalStartup condition.
func Connect(ctx context.Context, cfg Config, dryRun bool, retryPolicy retry.Policy, log *zap.SugaredLogger) (*Gateway, error) {
	poolCfg, err := pgxpool.ParseConfig(fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		cfg.User, cfg.Pass, cfg.Host, cfg.Port, cfg.DBName,
	))
	if err != nil {
		return nil, fmt.Errorf("parsing pool config: %w: %v", model.ErrFatalStartup, err)
	}
	poolCfg.MinConns = cfg.MinConn
	poolCfg.MaxConns = cfg.MaxConn
	poolCfg.ConnConfig.ConnectTimeout = connectTimeout

	var pool *pgxpool.Pool
	err = retry.Do(ctx, retryPolicy, func(error) bool { return true }, func(ctx context.Context) error {
		p, dialErr := pgxpool.NewWithConfig(ctx, poolCfg)
		if dialErr != nil {
			return dialErr
		}
		if pingErr := p.Ping(ctx); pingErr != nil {
			p.Close()
			return pingErr
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("initializing connection pool: %w: %v", model.ErrFatalStartup, err)
	}

	return &Gateway{
		pool:      pool,
		defaultDB: cfg.DBName,
		adminRole: cfg.User,
		dryRun:    dryRun,
		log:       log,
	}, nil
}

// Close drains the pool and closes its underlying sockets.
func (g *Gateway) Close() {
	if g.pool != nil {
		g.pool.Close()
	}
}

// dryRunLog logs the statement an operation would have issued and reports
// whether the caller should return early without touching the pool.
func (g *Gateway) dryRunLog(statement string, fields ...interface{}) bool {
	if !g.dryRun {
		return false
	}
	args := append([]interface{}{"statement", statement}, fields...)
	g.log.Infow("dry-run: would execute", args...)
	return true
}
