package config

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DBConfig holds database connection configuration
type DBConfig struct {
	// DatabaseURL is the PostgreSQL connection string
	DatabaseURL string

	// Logger for structured logging (optional, uses slog.Default if nil)
	Logger *slog.Logger

	// MaxConns is the maximum number of connections in the pool
	// Default: 10
	MaxConns int32

	// MinConns is the minimum number of connections in the pool
	// Default: 2
	MinConns int32

	// MaxConnLifetime is the maximum lifetime of a connection
	// Default: 0 (infinite, for managed databases with a connection pooler)
	MaxConnLifetime time.Duration

	// MaxConnIdleTime is the maximum idle time of a connection
	// Default: 0 (no timeout)
	MaxConnIdleTime time.Duration

	// HealthCheckPeriod is the period between health checks
	// Default: 1 minute
	HealthCheckPeriod time.Duration

	// ConnectTimeout is the timeout for establishing connections
	// Default: 10 seconds
	ConnectTimeout time.Duration

	// MaxRetries is the maximum number of connection attempts
	// Default: 3
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	// Uses exponential backoff
	// Default: 1 second
	RetryDelay time.Duration
}

// DefaultDBConfig returns a default database configuration
func DefaultDBConfig(databaseURL string) *DBConfig {
	return &DBConfig{
		DatabaseURL:       databaseURL,
		MaxConns:          10,
		MinConns:          2,
		HealthCheckPeriod: 1 * time.Minute,
		ConnectTimeout:    10 * time.Second,
		MaxRetries:        3,
		RetryDelay:        1 * time.Second,
	}
}

// PoolConfig builds a DBConfig from loaded database settings
func PoolConfig(db DatabaseConfig, logger *slog.Logger) *DBConfig {
	cfg := DefaultDBConfig(db.URL)
	cfg.Logger = logger
	cfg.MaxConns = db.MaxConns
	cfg.MinConns = db.MinConns
	cfg.HealthCheckPeriod = db.HealthCheckPeriod
	cfg.MaxConnLifetime = db.MaxConnLifetime
	cfg.MaxConnIdleTime = db.MaxConnIdleTime
	cfg.ConnectTimeout = db.ConnectTimeout
	cfg.MaxRetries = db.MaxRetries
	cfg.RetryDelay = db.RetryDelay
	return cfg
}

// NewPool creates a new database connection pool with the given configuration
func NewPool(config *DBConfig) (*pgxpool.Pool, error) {
	if config == nil {
		return nil, fmt.Errorf("database config cannot be nil")
	}
	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("initializing database connection pool",
		"max_conns", config.MaxConns,
		"min_conns", config.MinConns,
		"health_check_period", config.HealthCheckPeriod.String(),
	)

	dbConfig, err := pgxpool.ParseConfig(config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	dbConfig.MaxConns = config.MaxConns
	dbConfig.MinConns = config.MinConns
	dbConfig.MaxConnLifetime = config.MaxConnLifetime
	dbConfig.MaxConnIdleTime = config.MaxConnIdleTime
	dbConfig.HealthCheckPeriod = config.HealthCheckPeriod

	if config.ConnectTimeout > 0 {
		dbConfig.ConnConfig.ConnectTimeout = config.ConnectTimeout
	}

	var pool *pgxpool.Pool
	var lastErr error

	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
		pool, err = pgxpool.NewWithConfig(ctx, dbConfig)
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("failed to create pool (attempt %d/%d): %w", attempt, config.MaxRetries, err)
			logger.Warn("failed to create database pool",
				"attempt", attempt,
				"max_retries", config.MaxRetries,
				"error", err,
			)
			if attempt < config.MaxRetries {
				time.Sleep(calculateBackoff(config.RetryDelay, attempt))
			}
			continue
		}

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = pool.Ping(pingCtx)
		pingCancel()

		if err != nil {
			lastErr = fmt.Errorf("failed to ping database (attempt %d/%d): %w", attempt, config.MaxRetries, err)
			logger.Warn("failed to ping database",
				"attempt", attempt,
				"max_retries", config.MaxRetries,
				"error", err,
			)
			pool.Close()
			pool = nil
			if attempt < config.MaxRetries {
				time.Sleep(calculateBackoff(config.RetryDelay, attempt))
			}
			continue
		}

		logger.Info("database connection pool established",
			"attempt", attempt,
			"total_conns", pool.Stat().TotalConns(),
		)

		return pool, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", config.MaxRetries, lastErr)
}

// calculateBackoff calculates exponential backoff delay, capped at 30s
func calculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	multiplier := math.Pow(2, float64(attempt-1))
	delay := time.Duration(float64(baseDelay) * multiplier)

	maxDelay := 30 * time.Second
	if delay > maxDelay {
		delay = maxDelay
	}

	return delay
}
