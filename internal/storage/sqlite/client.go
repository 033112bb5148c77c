package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/javari-ai/brain/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// Ping runs a lightweight read so the health aggregator can measure store
// round-trip latency.
func (c *Client) Ping(ctx context.Context) error {
	var one int
	err := c.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	if err != nil {
		return fmt.Errorf("store ping failed: %w", err)
	}
	return nil
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS knowledge_entries (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		topic TEXT UNIQUE NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		short_answer TEXT,
		source TEXT,
		source_url TEXT,
		confidence_score REAL NOT NULL DEFAULT 0.8,
		keywords TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_knowledge_category ON knowledge_entries(category);
	CREATE INDEX IF NOT EXISTS idx_knowledge_active ON knowledge_entries(is_active);
	CREATE INDEX IF NOT EXISTS idx_knowledge_confidence ON knowledge_entries(confidence_score);

	CREATE TABLE IF NOT EXISTS queue_items (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		content_type TEXT NOT NULL,
		raw_content TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 5,
		processed INTEGER NOT NULL DEFAULT 0,
		processed_at INTEGER,
		learning_outcome TEXT,
		leased_by TEXT,
		leased_at INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_queue_processed ON queue_items(processed, priority, created_at);
	CREATE INDEX IF NOT EXISTS idx_queue_hash ON queue_items(content_hash);

	CREATE TABLE IF NOT EXISTS data_sources (
		name TEXT PRIMARY KEY,
		source_type TEXT NOT NULL,
		url TEXT,
		fetch_frequency TEXT NOT NULL DEFAULT '01:00:00',
		last_fetch INTEGER,
		next_fetch INTEGER,
		is_active INTEGER NOT NULL DEFAULT 1,
		error_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		config TEXT
	);

	CREATE TABLE IF NOT EXISTS healing_issues (
		id TEXT PRIMARY KEY,
		component TEXT NOT NULL,
		issue_type TEXT NOT NULL,
		description TEXT,
		severity TEXT NOT NULL,
		auto_healed INTEGER NOT NULL DEFAULT 0,
		healing_action TEXT,
		healing_result TEXT,
		requires_human INTEGER NOT NULL DEFAULT 0,
		notified INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		resolved_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_issues_open ON healing_issues(resolved_at, auto_healed);
	CREATE INDEX IF NOT EXISTS idx_issues_created ON healing_issues(created_at);

	CREATE TABLE IF NOT EXISTS activity_log (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		component TEXT NOT NULL,
		metadata TEXT,
		success INTEGER NOT NULL DEFAULT 1,
		error_message TEXT,
		duration_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activity_type ON activity_log(action_type);
	CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_log(created_at);

	CREATE TABLE IF NOT EXISTS external_data (
		source TEXT NOT NULL,
		data_type TEXT NOT NULL,
		content TEXT,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (source, data_type)
	);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}
