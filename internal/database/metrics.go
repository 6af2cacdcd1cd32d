package database

import (
	"database/sql"

	"github.com/pkg/errors"
)

// AddMetric adds delta to the stored value, creating the metric at delta
func (s *Store) AddMetric(metricName string, delta float64) error {
	query := `
	INSERT INTO metrics (metric_name, metric_value)
	VALUES (?, ?)
	ON CONFLICT(metric_name) DO UPDATE SET metric_value = metric_value + excluded.metric_value;`
	if _, err := s.DB.Exec(query, metricName, delta); err != nil {
		return errors.Wrapf(err, "failed to save metric %s", metricName)
	}
	return nil
}

// GetMetric returns the stored value, or 0 when the metric was never saved
func (s *Store) GetMetric(metricName string) (float64, error) {
	var value float64
	err := s.DB.QueryRow(`SELECT metric_value FROM metrics WHERE metric_name = ?;`, metricName).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	} else if err != nil {
		return 0, errors.Wrapf(err, "failed to get metric %s", metricName)
	}
	return value, nil
}
