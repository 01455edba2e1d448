package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
	"pin-scheduler/infrastructure/logger"
	"pin-scheduler/infrastructure/utils"
)

// EnsurePinSchema creates the scheduled_pins table for PostgreSQL if not exists
func EnsurePinSchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS scheduled_pins (
        id TEXT PRIMARY KEY,
        title TEXT NOT NULL,
        description TEXT NOT NULL,
        link TEXT NOT NULL DEFAULT '',
        image_url TEXT NOT NULL,
        board_id TEXT NOT NULL,
        scheduled_time TIMESTAMPTZ NOT NULL,
        status TEXT NOT NULL,
        error TEXT,
        published_at TIMESTAMPTZ,
        pinterest_id TEXT,
        account TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create scheduled_pins table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_scheduled_pins_status_time ON scheduled_pins(status, scheduled_time)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_scheduled_pins_status_time")
	}
	return nil
}

type PinRepository struct {
	db  *sql.DB
	now utils.Clock
}

func NewPinRepository(db *sql.DB, now utils.Clock) repository.IPinStore {
	if now == nil {
		now = utils.GetCurrentTime
	}
	return &PinRepository{db: db, now: now}
}

func (r *PinRepository) List(ctx context.Context) ([]model.ScheduledPin, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+pinColumns+` FROM scheduled_pins ORDER BY scheduled_time ASC`)
	if err != nil {
		return nil, err
	}
	return scanPins(rows)
}

func (r *PinRepository) Get(ctx context.Context, id string) (*model.ScheduledPin, error) {
	pin, err := scanPin(r.db.QueryRowContext(ctx, `SELECT `+pinColumns+` FROM scheduled_pins WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errPinNotFound(id)
	}
	return pin, err
}

func (r *PinRepository) Append(ctx context.Context, pin model.ScheduledPin) error {
	stampCreated(&pin, r.now())
	_, err := r.db.ExecContext(ctx, `INSERT INTO scheduled_pins (`+pinColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		pin.ID, pin.Title, pin.Description, pin.Link, pin.ImageURL, pin.BoardID, pin.ScheduledTime,
		string(pin.Status), nullString(pin.Error), nullTime(pin.PublishedAt), nullString(pin.PinterestID), pin.Account,
		pin.CreatedAt, pin.UpdatedAt)
	return err
}

// Update reads, merges and writes back without a row lock; concurrent updates are last-writer-wins.
func (r *PinRepository) Update(ctx context.Context, id string, patch model.PinPatch) (*model.ScheduledPin, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := patch.Apply(*current, r.now())
	_, err = r.db.ExecContext(ctx, `UPDATE scheduled_pins SET title=$2, description=$3, link=$4, image_url=$5, board_id=$6,
		scheduled_time=$7, status=$8, error=$9, published_at=$10, pinterest_id=$11, updated_at=$12 WHERE id=$1`,
		id, next.Title, next.Description, next.Link, next.ImageURL, next.BoardID, next.ScheduledTime,
		string(next.Status), nullString(next.Error), nullTime(next.PublishedAt), nullString(next.PinterestID), next.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *PinRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_pins WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errPinNotFound(id)
	}
	return nil
}

// Claim clears outcome fields along with the status change.
func (r *PinRepository) Claim(ctx context.Context, id string, from []model.PinStatus, to model.PinStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE scheduled_pins SET status=$1, error=NULL, published_at=NULL, pinterest_id=NULL, updated_at=$2
		WHERE id=$3 AND status = ANY($4)`, string(to), r.now(), id, pq.Array(statusStrings(from)))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
