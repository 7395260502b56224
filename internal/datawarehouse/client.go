// Package datawarehouse pushes settled contracts to the MS SQL Server
// settlement warehouse the finance team reports from. The connection is
// optional; without it the sync job simply does not run.
package datawarehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/stagelink/marketplace-api/internal/config"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	defaultPingTimeout = 5 * time.Second
)

// SettlementRow is one settled contract as the warehouse stores it
type SettlementRow struct {
	OfferID         uuid.UUID
	EventID         uuid.UUID
	OrganizerID     string
	ProviderID      string
	ServiceCategory string
	FinalAmount     float64
	AcceptedAt      *time.Time
	SignedAt        *time.Time
}

// Client writes settlement rows to the warehouse. It owns the connection
// pool and retries transient failures on connect.
type Client struct {
	db           *sql.DB
	config       *config.WarehouseConfig
	logger       *zap.Logger
	queryTimeout time.Duration
}

// NewClient creates a warehouse client. Returns nil without error when the
// warehouse is disabled or credentials are missing, so callers can treat the
// sync as a no-op.
func NewClient(cfg *config.WarehouseConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Settlement warehouse connection disabled")
		return nil, nil
	}

	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("Settlement warehouse enabled but missing credentials, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	connStr, err := buildConnectionString(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	var db *sql.DB
	backoff := defaultInitialBackoff

	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		logger.Info("Attempting settlement warehouse connection",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", defaultMaxRetries),
		)

		db, err = sql.Open("sqlserver", connStr)
		if err == nil {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
			db.SetMaxIdleConns(cfg.MaxIdleConns)
			db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

			ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
			err = db.PingContext(ctx)
			cancel()
			if err == nil {
				logger.Info("Settlement warehouse connection established",
					zap.Int("attempts_taken", attempt),
				)
				return &Client{
					db:           db,
					config:       cfg,
					logger:       logger,
					queryTimeout: cfg.QueryTimeoutDuration(),
				}, nil
			}
			_ = db.Close()
		}

		logger.Warn("Settlement warehouse connection attempt failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
		)
		if attempt < defaultMaxRetries {
			time.Sleep(backoff)
			backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
		}
	}

	return nil, fmt.Errorf("failed to connect to settlement warehouse after %d attempts: %w", defaultMaxRetries, err)
}

// buildConnectionString constructs a SQL Server connection string.
// URL format expected: host:port/database or host:port.
func buildConnectionString(cfg *config.WarehouseConfig) (string, error) {
	urlParts := strings.SplitN(cfg.URL, "/", 2)
	hostPort := urlParts[0]
	database := ""
	if len(urlParts) > 1 {
		database = urlParts[1]
	}

	hostParts := strings.SplitN(hostPort, ":", 2)
	host := hostParts[0]
	port := "1433"
	if len(hostParts) > 1 {
		port = hostParts[1]
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", host, port),
		RawQuery: query.Encode(),
	}

	return u.String(), nil
}

// UpsertSettlement writes one settled contract, replacing any earlier row
// for the same offer so reruns of the sync are safe
func (c *Client) UpsertSettlement(ctx context.Context, row *SettlementRow) error {
	if c == nil || c.db == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	const stmt = `
MERGE settlements AS target
USING (SELECT @p1 AS offer_id) AS source
ON target.offer_id = source.offer_id
WHEN MATCHED THEN
    UPDATE SET event_id = @p2, organizer_id = @p3, provider_id = @p4,
               service_category = @p5, final_amount = @p6,
               accepted_at = @p7, signed_at = @p8
WHEN NOT MATCHED THEN
    INSERT (offer_id, event_id, organizer_id, provider_id, service_category, final_amount, accepted_at, signed_at)
    VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8);`

	_, err := c.db.ExecContext(ctx, stmt,
		row.OfferID.String(),
		row.EventID.String(),
		row.OrganizerID,
		row.ProviderID,
		row.ServiceCategory,
		row.FinalAmount,
		row.AcceptedAt,
		row.SignedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert settlement for offer %s: %w", row.OfferID, err)
	}
	return nil
}

// Close gracefully closes the warehouse connection
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}

	c.logger.Info("Closing settlement warehouse connection")
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close settlement warehouse connection: %w", err)
	}
	return nil
}

func min(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
