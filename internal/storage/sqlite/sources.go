package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/storage/models"
	"github.com/javari-ai/brain/pkg/logger"
)

// UpsertDataSource registers a source or refreshes its registration. Error
// and fetch bookkeeping are left alone here; scrape results update them
// separately, so a re-registration carrying no last_fetch keeps the stored one.
func (c *Client) UpsertDataSource(src *models.DataSource) error {
	configJSON, err := json.Marshal(src.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal source config: %w", err)
	}

	isActive := 0
	if src.IsActive {
		isActive = 1
	}

	var lastFetch interface{}
	if src.LastFetch != nil {
		lastFetch = src.LastFetch.Unix()
	}

	_, err = c.db.Exec(`
		INSERT INTO data_sources (name, source_type, url, fetch_frequency, last_fetch, is_active, config)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			source_type = excluded.source_type,
			url = excluded.url,
			fetch_frequency = excluded.fetch_frequency,
			last_fetch = COALESCE(excluded.last_fetch, data_sources.last_fetch),
			is_active = excluded.is_active,
			config = excluded.config
	`, src.Name, src.SourceType, src.URL, src.FetchFrequency, lastFetch, isActive, string(configJSON))

	if err != nil {
		return fmt.Errorf("failed to upsert data source: %w", err)
	}
	return nil
}

// UpdateSourceFetchResult records the outcome of one scrape attempt.
func (c *Client) UpdateSourceFetchResult(name string, errorCount int, lastError string, config map[string]interface{}) error {
	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal source config: %w", err)
	}

	var lastErrArg interface{}
	if lastError != "" {
		lastErrArg = lastError
	}

	_, err = c.db.Exec(`
		UPDATE data_sources
		SET last_fetch = ?, error_count = ?, last_error = ?, config = ?
		WHERE name = ?
	`, time.Now().UTC().Unix(), errorCount, lastErrArg, string(configJSON), name)

	if err != nil {
		return fmt.Errorf("failed to update source fetch result: %w", err)
	}
	return nil
}

// ResetSourceErrors clears the error counter and last error, and schedules an
// immediate next fetch. Used by the self-healing dispatcher.
func (c *Client) ResetSourceErrors(name string) error {
	_, err := c.db.Exec(`
		UPDATE data_sources
		SET error_count = 0, last_error = NULL, next_fetch = ?
		WHERE name = ?
	`, time.Now().UTC().Unix(), name)

	if err != nil {
		return fmt.Errorf("failed to reset source errors: %w", err)
	}

	logger.Info("Data source errors reset", zap.String("source", name))
	return nil
}

func (c *Client) ListDataSources(activeOnly bool) ([]models.DataSource, error) {
	query := `
		SELECT name, source_type, url, fetch_frequency, last_fetch, next_fetch, is_active, error_count, last_error, config
		FROM data_sources
	`
	if activeOnly {
		query += " WHERE is_active = 1"
	}

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list data sources: %w", err)
	}
	defer rows.Close()

	return scanDataSources(rows)
}

// SourcesWithErrorsAbove returns active sources whose error counter exceeds
// the threshold, regardless of whether an issue was ever logged for them.
func (c *Client) SourcesWithErrorsAbove(threshold int) ([]models.DataSource, error) {
	rows, err := c.db.Query(`
		SELECT name, source_type, url, fetch_frequency, last_fetch, next_fetch, is_active, error_count, last_error, config
		FROM data_sources
		WHERE is_active = 1 AND error_count > ?
	`, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to find failing sources: %w", err)
	}
	defer rows.Close()

	return scanDataSources(rows)
}

func (c *Client) GetDataSource(name string) (*models.DataSource, error) {
	rows, err := c.db.Query(`
		SELECT name, source_type, url, fetch_frequency, last_fetch, next_fetch, is_active, error_count, last_error, config
		FROM data_sources
		WHERE name = ?
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get data source: %w", err)
	}
	defer rows.Close()

	sources, err := scanDataSources(rows)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, nil
	}
	return &sources[0], nil
}

func scanDataSources(rows *sql.Rows) ([]models.DataSource, error) {
	var sources []models.DataSource
	for rows.Next() {
		var src models.DataSource
		var url, lastError, configJSON sql.NullString
		var lastFetch, nextFetch sql.NullInt64
		var isActive int

		err := rows.Scan(&src.Name, &src.SourceType, &url, &src.FetchFrequency,
			&lastFetch, &nextFetch, &isActive, &src.ErrorCount, &lastError, &configJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}

		if url.Valid {
			src.URL = url.String
		}
		if lastError.Valid {
			src.LastError = lastError.String
		}
		if lastFetch.Valid {
			t := time.Unix(lastFetch.Int64, 0).UTC()
			src.LastFetch = &t
		}
		if nextFetch.Valid {
			t := time.Unix(nextFetch.Int64, 0).UTC()
			src.NextFetch = &t
		}
		if configJSON.Valid && configJSON.String != "" {
			json.Unmarshal([]byte(configJSON.String), &src.Config)
		}
		src.IsActive = isActive == 1
		sources = append(sources, src)
	}
	return sources, rows.Err()
}
