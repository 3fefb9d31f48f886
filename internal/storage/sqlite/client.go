package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/glucorisk/backend/internal/storage/models"
	"github.com/glucorisk/backend/pkg/logger"
	"github.com/glucorisk/backend/pkg/retry"
)

type Client struct {
	db          *sql.DB
	retryConfig retry.Config
}

func NewClient(dbPath string) (*Client, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	retryConfig := retry.DefaultConfig()
	retryConfig.InitialDelay = 50 * time.Millisecond
	retryConfig.MaxDelay = time.Second
	retryConfig.RetryIf = isBusy
	retryConfig.Logger = logger.GetLogger()

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db, retryConfig: retryConfig}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trace_id TEXT,
		age INTEGER NOT NULL DEFAULT 0,
		age_answer TEXT,
		gender TEXT,
		polyuria TEXT,
		polydipsia TEXT,
		weight_loss TEXT,
		weakness TEXT,
		polyphagia TEXT,
		genital_thrush TEXT,
		visual_blurring TEXT,
		itching TEXT,
		irritability TEXT,
		delayed_healing TEXT,
		partial_paresis TEXT,
		muscle_stiffness TEXT,
		alopecia TEXT,
		obesity TEXT,
		label INTEGER NOT NULL,
		probability REAL NOT NULL,
		model_used TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at);
	CREATE INDEX IF NOT EXISTS idx_predictions_model ON predictions(model_used);
	CREATE INDEX IF NOT EXISTS idx_predictions_label ON predictions(label);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// InsertPrediction stores record in its own transaction and returns the new id.
func (c *Client) InsertPrediction(ctx context.Context, record *models.PredictionRecord) (int64, error) {
	query := `
		INSERT INTO predictions (
			trace_id, age, age_answer, gender, polyuria, polydipsia, weight_loss, weakness,
			polyphagia, genital_thrush, visual_blurring, itching, irritability,
			delayed_healing, partial_paresis, muscle_stiffness, alopecia, obesity,
			label, probability, model_used, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	a := record.Answers
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	id, err := retry.DoWithResult(ctx, c.retryConfig, func() (int64, error) {
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return 0, err
		}
		defer tx.Rollback()

		res, err := tx.ExecContext(ctx, query,
			record.TraceID, record.Age, a.Age, a.Gender, a.Polyuria, a.Polydipsia, a.WeightLoss, a.Weakness,
			a.Polyphagia, a.GenitalThrush, a.VisualBlurring, a.Itching, a.Irritability,
			a.DelayedHealing, a.PartialParesis, a.MuscleStiffness, a.Alopecia, a.Obesity,
			record.Label, record.Probability, record.ModelUsed, record.CreatedAt.UnixNano(),
		)
		if err != nil {
			return 0, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		return id, tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert prediction: %w", err)
	}

	record.ID = id
	logger.Debug("Prediction stored", zap.Int64("id", id), zap.String("model_used", record.ModelUsed))
	return id, nil
}

// DeletePrediction removes one record and reports whether it existed.
func (c *Client) DeletePrediction(ctx context.Context, id int64) (bool, error) {
	var affected int64
	err := retry.Do(ctx, c.retryConfig, func() error {
		res, err := c.db.ExecContext(ctx, `DELETE FROM predictions WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete prediction: %w", err)
	}

	if affected > 0 {
		logger.Info("Prediction deleted", zap.Int64("id", id))
	}
	return affected > 0, nil
}

// DefaultListLimit replaces a non-positive limit in ListPredictions.
const DefaultListLimit = 50

// ListPredictions returns up to limit records, newest first.
func (c *Client) ListPredictions(ctx context.Context, limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT id, trace_id, age, age_answer, gender, polyuria, polydipsia, weight_loss, weakness,
			polyphagia, genital_thrush, visual_blurring, itching, irritability,
			delayed_healing, partial_paresis, muscle_stiffness, alopecia, obesity,
			label, probability, model_used, created_at
		FROM predictions
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	records := make([]models.PredictionRecord, 0, limit)
	for rows.Next() {
		var r models.PredictionRecord
		var traceID, ageAnswer sql.NullString
		var createdAt int64
		a := &r.Answers

		err := rows.Scan(
			&r.ID, &traceID, &r.Age, &ageAnswer, &a.Gender, &a.Polyuria, &a.Polydipsia, &a.WeightLoss, &a.Weakness,
			&a.Polyphagia, &a.GenitalThrush, &a.VisualBlurring, &a.Itching, &a.Irritability,
			&a.DelayedHealing, &a.PartialParesis, &a.MuscleStiffness, &a.Alopecia, &a.Obesity,
			&r.Label, &r.Probability, &r.ModelUsed, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.TraceID = traceID.String
		a.Age = ageAnswer.String
		r.CreatedAt = time.Unix(0, createdAt)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate predictions: %w", err)
	}

	return records, nil
}

func (c *Client) CountPredictions(ctx context.Context) (int, error) {
	return c.count(ctx, `SELECT COUNT(*) FROM predictions`)
}

// CountPositive counts records whose final label is 1.
func (c *Client) CountPositive(ctx context.Context) (int, error) {
	return c.count(ctx, `SELECT COUNT(*) FROM predictions WHERE label = 1`)
}

func (c *Client) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return n, nil
}

// CountByModel groups records by model_used, most used first.
func (c *Client) CountByModel(ctx context.Context) ([]models.ModelUsage, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT model_used, COUNT(*) AS n
		FROM predictions
		GROUP BY model_used
		ORDER BY n DESC, model_used ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by model: %w", err)
	}
	defer rows.Close()

	usage := make([]models.ModelUsage, 0)
	for rows.Next() {
		var u models.ModelUsage
		if err := rows.Scan(&u.ModelUsed, &u.Count); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		usage = append(usage, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate model usage: %w", err)
	}

	return usage, nil
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
