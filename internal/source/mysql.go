package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/dbsmedya/godecomp/internal/config"
	"github.com/dbsmedya/godecomp/internal/logger"
	"github.com/dbsmedya/godecomp/internal/sqlutil"
	"github.com/dbsmedya/godecomp/internal/types"
)

// MySQL reads span records from a MySQL table. The connection is
// strictly read-only; nothing is ever written back.
type MySQL struct {
	DB     *sql.DB
	cfg    config.MySQLConfig
	logger *logger.Logger
}

// ConnectMySQL opens the span source with retry and verifies the
// connection with a ping.
func ConnectMySQL(ctx context.Context, cfg config.MySQLConfig, log *logger.Logger) (*MySQL, error) {
	if log == nil {
		log = logger.NewDefault()
	}

	db, err := connectWithRetry(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to span source: %w", err)
	}

	return &MySQL{DB: db, cfg: cfg, logger: log}, nil
}

// connectWithRetry attempts to connect with exponential backoff.
func connectWithRetry(ctx context.Context, cfg config.MySQLConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 3
	backoff := time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = connect(cfg)
		if err == nil {
			if pingErr := db.PingContext(ctx); pingErr == nil {
				return db, nil
			} else {
				db.Close()
				err = pingErr
			}
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, err)
}

// connect creates a database connection.
func connect(cfg config.MySQLConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", BuildDSN(cfg))
	if err != nil {
		return nil, err
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// BuildDSN constructs a MySQL DSN from configuration.
func BuildDSN(cfg config.MySQLConfig) string {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
	)

	if cfg.Database != "" {
		dsn += cfg.Database
	}

	params := "?parseTime=true"
	switch cfg.TLS {
	case "disable":
		params += "&tls=false"
	case "required":
		params += "&tls=true"
	case "preferred", "":
		params += "&tls=preferred"
	}

	return dsn + params
}

// Close closes the source connection.
func (m *MySQL) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Spans reads all span records from the configured table, applying the
// optional configured WHERE filter. Periods may be stored as integers
// or dateQ-style labels.
func (m *MySQL) Spans(ctx context.Context) ([]types.Span, error) {
	table, err := sqlutil.QuoteIdentifierSafe(m.cfg.Table)
	if err != nil {
		return nil, fmt.Errorf("invalid span table: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT side, entity_id, group_id, time_id, industry_code, statement_id, category_id FROM %s",
		table,
	)
	if m.cfg.Where != "" {
		query += " WHERE " + m.cfg.Where
	}

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("span query failed: %w", err)
	}
	defer rows.Close()

	var spans []types.Span
	for rows.Next() {
		var (
			side        string
			entityRaw   interface{}
			technology  string
			periodRaw   string
			industryRaw interface{}
			statementID string
			categoryRaw interface{}
		)
		if err := rows.Scan(&side, &entityRaw, &technology, &periodRaw, &industryRaw, &statementID, &categoryRaw); err != nil {
			return nil, fmt.Errorf("span scan failed: %w", err)
		}

		span := types.Span{
			Side:        types.Side(strings.ToLower(strings.TrimSpace(side))),
			Technology:  strings.TrimSpace(technology),
			StatementID: strings.TrimSpace(statementID),
		}
		if !span.Side.Valid() {
			return nil, fmt.Errorf("bad side %q in span table", side)
		}

		if span.EntityID, err = types.ToInt64(entityRaw); err != nil {
			return nil, fmt.Errorf("bad entity_id in span table: %w", err)
		}
		if span.Period, err = types.ParsePeriod(periodRaw); err != nil {
			return nil, fmt.Errorf("bad time_id in span table: %w", err)
		}
		industry, err := types.ToInt64(industryRaw)
		if err != nil {
			return nil, fmt.Errorf("bad industry_code in span table: %w", err)
		}
		span.IndustryCode = int(industry)
		category, err := types.ToInt64(categoryRaw)
		if err != nil {
			return nil, fmt.Errorf("bad category_id in span table: %w", err)
		}
		span.Category = int(category)

		spans = append(spans, span)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("span iteration failed: %w", err)
	}

	m.logger.Infow("Spans loaded from MySQL",
		"table", m.cfg.Table,
		"spans", len(spans),
	)

	return spans, nil
}
