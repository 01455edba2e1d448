package persistence

import (
	"database/sql"
	"time"

	"pin-scheduler/domain/model"
)

const pinColumns = `id, title, description, link, image_url, board_id, scheduled_time, status, error, published_at, pinterest_id, account, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPin(row rowScanner) (*model.ScheduledPin, error) {
	pin := &model.ScheduledPin{}
	var status string
	var errMsg, pinterestID sql.NullString
	var publishedAt sql.NullTime
	if err := row.Scan(&pin.ID, &pin.Title, &pin.Description, &pin.Link, &pin.ImageURL, &pin.BoardID, &pin.ScheduledTime,
		&status, &errMsg, &publishedAt, &pinterestID, &pin.Account, &pin.CreatedAt, &pin.UpdatedAt); err != nil {
		return nil, err
	}
	pin.Status = model.PinStatus(status)
	if errMsg.Valid {
		v := errMsg.String
		pin.Error = &v
	}
	if publishedAt.Valid {
		v := publishedAt.Time
		pin.PublishedAt = &v
	}
	if pinterestID.Valid {
		v := pinterestID.String
		pin.PinterestID = &v
	}
	return pin, nil
}

func scanPins(rows *sql.Rows) ([]model.ScheduledPin, error) {
	defer rows.Close()
	pins := []model.ScheduledPin{}
	for rows.Next() {
		pin, err := scanPin(rows)
		if err != nil {
			return nil, err
		}
		pins = append(pins, *pin)
	}
	return pins, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func statusStrings(statuses []model.PinStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
