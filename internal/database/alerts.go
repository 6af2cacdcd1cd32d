package database

import (
	"context"
	"database/sql"
	"time"

	"crypto-tracker-bot/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const alertColumns = `id, owner_id, chat_id, symbol, target_price, direction, fired, created_at, fired_at`

// CreateAlert validates and saves a new active alert
func (s *Store) CreateAlert(ctx context.Context, a types.Alert) (types.Alert, error) {
	a.Symbol = types.NormalizeSymbol(a.Symbol)
	if err := a.Validate(); err != nil {
		return types.Alert{}, err
	}

	a.CreatedAt = s.now().UTC().Truncate(time.Second)
	a.Fired = false
	a.FiredAt = time.Time{}

	query := `
	INSERT INTO alerts (owner_id, chat_id, symbol, target_price, direction, created_at)
	VALUES (?, ?, ?, ?, ?, ?);`

	res, err := s.DB.ExecContext(ctx, query, a.OwnerID, a.ChatID, a.Symbol, a.TargetPrice, string(a.Direction), a.CreatedAt.Unix())
	if err != nil {
		return types.Alert{}, errors.Wrap(err, "failed to insert alert")
	}

	a.ID, err = res.LastInsertId()
	if err != nil {
		return types.Alert{}, errors.Wrap(err, "failed to read alert id")
	}

	log.WithFields(log.Fields{"alert_id": a.ID, "owner_id": a.OwnerID, "symbol": a.Symbol}).
		Debugf("Alert inserted: %s %.8g", a.Direction, a.TargetPrice)
	return a, nil
}

// GetAlert fetches one alert by id
func (s *Store) GetAlert(ctx context.Context, id int64) (types.Alert, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = ?;`, id)
	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Alert{}, errors.Wrapf(types.ErrAlertNotFound, "alert %d", id)
	}
	return a, err
}

// ListActive returns every alert that has not fired yet, oldest first
func (s *Store) ListActive(ctx context.Context) ([]types.Alert, error) {
	return s.queryAlerts(ctx, `SELECT `+alertColumns+` FROM alerts WHERE fired = 0 ORDER BY id;`)
}

// ListActiveByOwner returns the unfired alerts of one user
func (s *Store) ListActiveByOwner(ctx context.Context, ownerID int64) ([]types.Alert, error) {
	return s.queryAlerts(ctx, `SELECT `+alertColumns+` FROM alerts WHERE fired = 0 AND owner_id = ? ORDER BY id;`, ownerID)
}

// MarkFired flips an alert to fired. It reports true only for the call that
// made the transition; marking an already fired alert is a no-op.
func (s *Store) MarkFired(ctx context.Context, id int64) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `UPDATE alerts SET fired = 1, fired_at = ? WHERE id = ? AND fired = 0;`, s.now().UTC().Unix(), id)
	if err != nil {
		return false, errors.Wrapf(err, "failed to mark alert %d fired", id)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	if n == 1 {
		return true, nil
	}

	if _, err := s.GetAlert(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// DeleteAlert removes an alert owned by ownerID. Another owner's alert is left untouched.
func (s *Store) DeleteAlert(ctx context.Context, id, ownerID int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM alerts WHERE id = ? AND owner_id = ?;`, id, ownerID)
	if err != nil {
		return errors.Wrapf(err, "failed to delete alert %d", id)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 1 {
		return nil
	}

	if _, err := s.GetAlert(ctx, id); err != nil {
		return err
	}
	return errors.Wrapf(types.ErrNotAlertOwner, "alert %d", id)
}

func (s *Store) queryAlerts(ctx context.Context, query string, args ...any) ([]types.Alert, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query alerts")
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate alerts")
	}

	return alerts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(row scanner) (types.Alert, error) {
	var (
		a         types.Alert
		direction string
		fired     int
		createdAt int64
		firedAt   sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.OwnerID, &a.ChatID, &a.Symbol, &a.TargetPrice, &direction, &fired, &createdAt, &firedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, err
	}
	if err != nil {
		return a, errors.Wrap(err, "failed to scan row")
	}

	a.Direction = types.Direction(direction)
	a.Fired = fired != 0
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	if firedAt.Valid {
		a.FiredAt = time.Unix(firedAt.Int64, 0).UTC()
	}
	return a, nil
}
