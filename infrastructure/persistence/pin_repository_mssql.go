package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
	"pin-scheduler/infrastructure/utils"
)

type PinRepositoryMSSQL struct {
	db  *sql.DB
	now utils.Clock
}

func NewPinRepositoryMSSQL(db *sql.DB, now utils.Clock) repository.IPinStore {
	if now == nil {
		now = utils.GetCurrentTime
	}
	return &PinRepositoryMSSQL{db: db, now: now}
}

// EnsurePinSchemaMSSQL creates the scheduled_pins table for SQL Server if it does not exist.
func EnsurePinSchemaMSSQL(db *sql.DB) error {
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.scheduled_pins') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[scheduled_pins] (
        id NVARCHAR(64) NOT NULL PRIMARY KEY,
        title NVARCHAR(500) NOT NULL,
        description NVARCHAR(MAX) NOT NULL,
        link NVARCHAR(2048) NOT NULL DEFAULT '',
        image_url NVARCHAR(MAX) NOT NULL,
        board_id NVARCHAR(128) NOT NULL,
        scheduled_time DATETIMEOFFSET NOT NULL,
        status NVARCHAR(16) NOT NULL,
        error NVARCHAR(MAX) NULL,
        published_at DATETIMEOFFSET NULL,
        pinterest_id NVARCHAR(128) NULL,
        account NVARCHAR(128) NOT NULL DEFAULT '',
        created_at DATETIMEOFFSET NOT NULL,
        updated_at DATETIMEOFFSET NOT NULL
    );
    CREATE INDEX IX_scheduled_pins_status_time ON dbo.[scheduled_pins](status, scheduled_time);
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create scheduled_pins (mssql): %w", err)
	}
	return nil
}

func (r *PinRepositoryMSSQL) List(ctx context.Context) ([]model.ScheduledPin, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+pinColumns+` FROM dbo.[scheduled_pins] ORDER BY scheduled_time ASC`)
	if err != nil {
		return nil, err
	}
	return scanPins(rows)
}

func (r *PinRepositoryMSSQL) Get(ctx context.Context, id string) (*model.ScheduledPin, error) {
	pin, err := scanPin(r.db.QueryRowContext(ctx, `SELECT `+pinColumns+` FROM dbo.[scheduled_pins] WHERE id=@p1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errPinNotFound(id)
	}
	return pin, err
}

func (r *PinRepositoryMSSQL) Append(ctx context.Context, pin model.ScheduledPin) error {
	stampCreated(&pin, r.now())
	_, err := r.db.ExecContext(ctx, `INSERT INTO dbo.[scheduled_pins] (`+pinColumns+`)
    VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10,@p11,@p12,@p13,@p14)`,
		pin.ID, pin.Title, pin.Description, pin.Link, pin.ImageURL, pin.BoardID, pin.ScheduledTime,
		string(pin.Status), nullString(pin.Error), nullTime(pin.PublishedAt), nullString(pin.PinterestID), pin.Account,
		pin.CreatedAt, pin.UpdatedAt)
	return err
}

func (r *PinRepositoryMSSQL) Update(ctx context.Context, id string, patch model.PinPatch) (*model.ScheduledPin, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := patch.Apply(*current, r.now())
	_, err = r.db.ExecContext(ctx, `UPDATE dbo.[scheduled_pins] SET
    title=@p2, description=@p3, link=@p4, image_url=@p5, board_id=@p6, scheduled_time=@p7,
    status=@p8, error=@p9, published_at=@p10, pinterest_id=@p11, updated_at=@p12
WHERE id=@p1`,
		id, next.Title, next.Description, next.Link, next.ImageURL, next.BoardID, next.ScheduledTime,
		string(next.Status), nullString(next.Error), nullTime(next.PublishedAt), nullString(next.PinterestID), next.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *PinRepositoryMSSQL) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dbo.[scheduled_pins] WHERE id=@p1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errPinNotFound(id)
	}
	return nil
}

func (r *PinRepositoryMSSQL) Claim(ctx context.Context, id string, from []model.PinStatus, to model.PinStatus) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	args := []interface{}{string(to), r.now(), id}
	placeholders := make([]string, len(from))
	for i, s := range from {
		args = append(args, string(s))
		placeholders[i] = fmt.Sprintf("@p%d", len(args))
	}
	q := `UPDATE dbo.[scheduled_pins] SET status=@p1, error=NULL, published_at=NULL, pinterest_id=NULL, updated_at=@p2
WHERE id=@p3 AND status IN (` + strings.Join(placeholders, ",") + `)`
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
