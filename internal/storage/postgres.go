package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/xaenox/supportlens/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the config as a lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresStorage struct {
	db     *sql.DB
	opts   Options
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, opts Options, logger *zap.Logger) (*PostgresStorage, error) {
	return OpenPostgres(config.DSN(), opts, logger)
}

// OpenPostgres connects with a ready-made connection string and applies migrations.
func OpenPostgres(connStr string, opts Options, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, opts: opts, logger: logger}

	if err := storage.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err = s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *PostgresStorage) SaveTrace(ctx context.Context, trace *models.Trace) error {
	query := `
		INSERT INTO traces (id, user_message, bot_response, category, timestamp, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query,
		trace.ID,
		trace.UserMessage,
		trace.BotResponse,
		string(trace.Category),
		trace.Timestamp.UTC(),
		trace.ResponseTimeMS,
	)
	if err != nil {
		return fmt.Errorf("error saving trace: %w", err)
	}

	return nil
}

func (s *PostgresStorage) QueryTraces(ctx context.Context, query models.TraceQuery) ([]models.Trace, error) {
	query, err := validateQuery(query)
	if err != nil {
		return nil, err
	}

	where, args := s.whereClause(query)
	stmt := `
		SELECT id, user_message, bot_response, category, timestamp, response_time_ms
		FROM traces` + where + `
		ORDER BY timestamp DESC`

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying traces: %w", err)
	}
	defer rows.Close()

	traces := make([]models.Trace, 0)
	for rows.Next() {
		var (
			t        models.Trace
			category string
			ts       time.Time
		)
		if err := rows.Scan(&t.ID, &t.UserMessage, &t.BotResponse, &category, &ts, &t.ResponseTimeMS); err != nil {
			return nil, fmt.Errorf("error scanning trace: %w", err)
		}
		t.Category = models.Category(category)
		t.Timestamp = models.NewTimestamp(asUTC(ts))
		traces = append(traces, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating traces: %w", err)
	}

	s.logger.Debug("Queried traces",
		zap.String("category", string(query.Category)),
		zap.String("search", query.Search),
		zap.Int("count", len(traces)),
		zap.Duration("took", time.Since(start)))
	return traces, nil
}

func (s *PostgresStorage) whereClause(query models.TraceQuery) (string, []any) {
	var conds []string
	var args []any

	if query.Category != "" {
		args = append(args, string(query.Category))
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if query.Search != "" {
		op := "ILIKE"
		if s.opts.CaseSensitiveSearch {
			op = "LIKE"
		}
		args = append(args, "%"+escapeLike(query.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(user_message %s $%d OR bot_response %s $%d)", op, n, op, n))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStorage) Analytics(ctx context.Context) (*models.Analytics, error) {
	query := `
		SELECT category, COUNT(*), COALESCE(SUM(response_time_ms), 0)
		FROM traces
		GROUP BY category`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying analytics: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Category]int)
	var extra []models.Category
	var latency int64
	for rows.Next() {
		var (
			category string
			count    int
			sum      int64
		)
		if err := rows.Scan(&category, &count, &sum); err != nil {
			return nil, fmt.Errorf("error scanning analytics row: %w", err)
		}
		c := models.Category(category)
		if !c.Known() {
			extra = append(extra, c)
		}
		counts[c] = count
		latency += sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analytics rows: %w", err)
	}

	stats := orderedStats(counts, extra)
	return models.BuildAnalytics(stats, latency), nil
}

func (s *PostgresStorage) CountTraces(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM traces`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting traces: %w", err)
	}
	return n, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// escapeLike neutralises LIKE wildcards so search text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// asUTC reinterprets a TIMESTAMP WITHOUT TIME ZONE value as UTC wall time.
func asUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
