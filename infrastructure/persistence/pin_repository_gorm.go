package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
	"pin-scheduler/infrastructure/utils"
)

// PinRepositoryGorm stores pins through gorm; used for the MySQL backend.
type PinRepositoryGorm struct {
	db  *gorm.DB
	now utils.Clock
}

func NewPinRepositoryGorm(db *gorm.DB, now utils.Clock) repository.IPinStore {
	if now == nil {
		now = utils.GetCurrentTime
	}
	return &PinRepositoryGorm{db: db, now: now}
}

func EnsurePinSchemaGorm(db *gorm.DB) error {
	return db.AutoMigrate(&model.ScheduledPin{})
}

func (r *PinRepositoryGorm) List(ctx context.Context) ([]model.ScheduledPin, error) {
	pins := []model.ScheduledPin{}
	if err := r.db.WithContext(ctx).Order("scheduled_time ASC").Find(&pins).Error; err != nil {
		return nil, err
	}
	return pins, nil
}

func (r *PinRepositoryGorm) Get(ctx context.Context, id string) (*model.ScheduledPin, error) {
	var pin model.ScheduledPin
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&pin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errPinNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &pin, nil
}

func (r *PinRepositoryGorm) Append(ctx context.Context, pin model.ScheduledPin) error {
	stampCreated(&pin, r.now())
	return r.db.WithContext(ctx).Create(&pin).Error
}

func (r *PinRepositoryGorm) Update(ctx context.Context, id string, patch model.PinPatch) (*model.ScheduledPin, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := patch.Apply(*current, r.now())
	// Select("*") so nil outcome fields are written as NULL
	if err := r.db.WithContext(ctx).Model(&model.ScheduledPin{}).Where("id = ?", id).Select("*").Omit("created_at").Updates(&next).Error; err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *PinRepositoryGorm) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ScheduledPin{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errPinNotFound(id)
	}
	return nil
}

func (r *PinRepositoryGorm) Claim(ctx context.Context, id string, from []model.PinStatus, to model.PinStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.ScheduledPin{}).
		Where("id = ? AND status IN ?", id, statusStrings(from)).
		Updates(map[string]interface{}{
			"status":       string(to),
			"error":        nil,
			"published_at": nil,
			"pinterest_id": nil,
			"updated_at":   r.now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
