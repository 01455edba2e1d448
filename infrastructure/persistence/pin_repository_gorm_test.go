package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"pin-scheduler/domain/apperror"
	"pin-scheduler/domain/model"
	"pin-scheduler/infrastructure/utils"
)

func newGormMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	gdb, err := gorm.Open(mysql.New(mysql.Config{Conn: db, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return gdb, mock
}

func TestPinRepositoryGorm_Get(t *testing.T) {
	gdb, mock := newGormMock(t)
	repo := NewPinRepositoryGorm(gdb, utils.FixedClock(fixedNow))

	mock.ExpectQuery("SELECT \\* FROM `scheduled_pins` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows(pinColumnNames).
			AddRow("p1", "T", "D", "", "https://img", "b1", fixedNow.Add(time.Hour), "scheduled", nil, nil, nil, "", fixedNow, fixedNow))
	pin, err := repo.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, model.PinStatusScheduled, pin.Status)

	mock.ExpectQuery("SELECT \\* FROM `scheduled_pins` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows(pinColumnNames))
	_, err = repo.Get(context.Background(), "missing")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPinRepositoryGorm_Claim(t *testing.T) {
	gdb, mock := newGormMock(t)
	repo := NewPinRepositoryGorm(gdb, utils.FixedClock(fixedNow))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `scheduled_pins` SET .* WHERE id = \\? AND status IN \\(\\?,\\?\\)").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := repo.Claim(context.Background(), "p1", []model.PinStatus{model.PinStatusScheduled, model.PinStatusFailed}, model.PinStatusPublishing)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPinRepositoryGorm_DeleteMissing(t *testing.T) {
	gdb, mock := newGormMock(t)
	repo := NewPinRepositoryGorm(gdb, nil)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `scheduled_pins` WHERE id = \\?").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "p1")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPrepareGorm_ClosesPoolWhenMigrationFails(t *testing.T) {
	gdb, mock := newGormMock(t)
	mock.ExpectClose()

	sqlDB, err := PrepareGorm(gdb)
	assert.Error(t, err)
	assert.Nil(t, sqlDB)
	require.NoError(t, mock.ExpectationsWereMet())
}
