package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

// Config holds database connection configuration
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN renders the config as a lib/pq key/value connection string.
// Values are single-quoted so passwords may contain spaces and quotes.
func (c *Config) DSN() string {
	parts := []string{
		"host=" + quoteDSNValue(c.Host),
		"port=" + strconv.Itoa(c.Port),
		"user=" + quoteDSNValue(c.User),
		"password=" + quoteDSNValue(c.Password),
		"dbname=" + quoteDSNValue(c.Database),
	}
	if c.SSLMode != "" {
		parts = append(parts, "sslmode="+quoteDSNValue(c.SSLMode))
	}
	return strings.Join(parts, " ")
}

func quoteDSNValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

const poolMonitorInterval = 10 * time.Second

// PostgresDB wraps sqlx.DB with monitoring and metrics
type PostgresDB struct {
	db      *sqlx.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	config  *Config

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*PostgresDB, error) {
	// Open database connection
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info(context.Background(), "[DB_INIT] PostgreSQL connection established", logging.Fields{
		"host":              cfg.Host,
		"port":              cfg.Port,
		"database":          cfg.Database,
		"max_open_conns":    cfg.MaxOpenConns,
		"max_idle_conns":    cfg.MaxIdleConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime.String(),
	})

	pgDB := &PostgresDB{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
		config:  cfg,
		done:    make(chan struct{}),
	}

	// Start monitoring connection pool
	go pgDB.monitorConnectionPool(poolMonitorInterval)

	return pgDB, nil
}

// Close stops pool monitoring and closes the database connection
func (p *PostgresDB) Close() error {
	p.closeOnce.Do(func() {
		p.logger.Info(context.Background(), "[DB_CLOSE] Closing database connection", logging.Fields{
			"database": p.config.Database,
		})
		close(p.done)
		p.closeErr = p.db.Close()
	})
	return p.closeErr
}

// observe records duration for queryType and, on failure, an error metric
// and log line tagged with op
func (p *PostgresDB) observe(ctx context.Context, op, queryType string, start time.Time, err error) {
	duration := time.Since(start)
	p.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		p.metrics.RecordDBError(op + "_error")
		p.logger.Error(ctx, "[DB_"+strings.ToUpper(op)+"_ERROR] Database "+op+" failed", logging.Fields{
			"query_type":  queryType,
			"duration_ms": duration.Milliseconds(),
		}, err)
		return
	}

	p.logger.Debug(ctx, "[DB_"+strings.ToUpper(op)+"] Database "+op+" completed", logging.Fields{
		"query_type":  queryType,
		"duration_ms": duration.Milliseconds(),
	})
}

// GetContext scans a single row into dest; sql.ErrNoRows is returned unlogged
func (p *PostgresDB) GetContext(ctx context.Context, queryType string, dest interface{}, query string, args ...interface{}) (err error) {
	defer func(start time.Time) { p.observe(ctx, "get", queryType, start, err) }(time.Now())
	return p.db.GetContext(ctx, dest, query, args...)
}

// SelectContext scans every row into the slice dest
func (p *PostgresDB) SelectContext(ctx context.Context, queryType string, dest interface{}, query string, args ...interface{}) (err error) {
	defer func(start time.Time) { p.observe(ctx, "select", queryType, start, err) }(time.Now())
	return p.db.SelectContext(ctx, dest, query, args...)
}

// NamedExecContext executes a statement binding :name parameters from arg
func (p *PostgresDB) NamedExecContext(ctx context.Context, queryType, query string, arg interface{}) (result sql.Result, err error) {
	defer func(start time.Time) { p.observe(ctx, "exec", queryType, start, err) }(time.Now())
	return p.db.NamedExecContext(ctx, query, arg)
}

// WithTx runs fn in a read-committed transaction, committing when fn
// returns nil and rolling back otherwise
func (p *PostgresDB) WithTx(ctx context.Context, queryType string, fn func(tx *sqlx.Tx) error) (err error) {
	defer func(start time.Time) { p.observe(ctx, "tx", queryType, start, err) }(time.Now())

	tx, err := p.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// monitorConnectionPool periodically updates connection pool metrics
func (p *PostgresDB) monitorConnectionPool(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
		}

		stats := p.db.Stats()
		p.metrics.UpdateDBConnectionPool(stats.InUse, stats.Idle, stats.OpenConnections)

		if utilization, high := poolUtilization(stats.InUse, p.config.MaxOpenConns); high {
			p.logger.Warn(context.Background(), "[DB_POOL_WARNING] Connection pool utilization high", logging.Fields{
				"in_use":      stats.InUse,
				"idle":        stats.Idle,
				"total":       stats.OpenConnections,
				"max_open":    p.config.MaxOpenConns,
				"utilization": fmt.Sprintf("%.2f%%", utilization*100),
			})
		}
	}
}

// poolUtilization is in-use over max open; above 80% counts as high.
// An unlimited pool is never high.
func poolUtilization(inUse, maxOpen int) (float64, bool) {
	if maxOpen <= 0 {
		return 0, false
	}
	u := float64(inUse) / float64(maxOpen)
	return u, u > 0.8
}

// HealthCheck pings the database with a short timeout
func (p *PostgresDB) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := p.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}
