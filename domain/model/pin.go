package model

import (
	"time"
)

type PinStatus string

const (
	PinStatusPending    PinStatus = "pending"
	PinStatusScheduled  PinStatus = "scheduled"
	PinStatusPublishing PinStatus = "publishing"
	PinStatusPublished  PinStatus = "published"
	PinStatusFailed     PinStatus = "failed"
)

func (s PinStatus) Valid() bool {
	switch s {
	case PinStatusPending, PinStatusScheduled, PinStatusPublishing, PinStatusPublished, PinStatusFailed:
		return true
	}
	return false
}

// ScheduledPin is one pin waiting to be, or already, posted to a board.
// Error is set only when failed; PublishedAt and PinterestID only when published.
type ScheduledPin struct {
	ID            string     `json:"id"                    bson:"_id"                   gorm:"primaryKey;size:64"`
	Title         string     `json:"title"                 bson:"title"`
	Description   string     `json:"description"           bson:"description"`
	Link          string     `json:"link,omitempty"        bson:"link,omitempty"`
	ImageURL      string     `json:"imageUrl"              bson:"imageUrl"              gorm:"type:longtext"`
	BoardID       string     `json:"boardId"               bson:"boardId"               gorm:"size:128"`
	ScheduledTime time.Time  `json:"scheduledTime"         bson:"scheduledTime"         gorm:"index"`
	Status        PinStatus  `json:"status"                bson:"status"                gorm:"size:16;index"`
	Error         *string    `json:"error,omitempty"       bson:"error,omitempty"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
	PinterestID   *string    `json:"pinterestId,omitempty" bson:"pinterestId,omitempty" gorm:"size:128"`
	Account       string     `json:"account,omitempty"     bson:"account,omitempty"     gorm:"size:128"`
	CreatedAt     time.Time  `json:"createdAt"             bson:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"             bson:"updatedAt"`
}

func (ScheduledPin) TableName() string {
	return "scheduled_pins"
}

// IsDue reports whether the pin is a publish candidate at now.
func (p ScheduledPin) IsDue(now time.Time) bool {
	return p.Status == PinStatusScheduled && !p.ScheduledTime.After(now)
}

// Normalize drops outcome fields that do not belong to the current status.
func (p *ScheduledPin) Normalize() {
	if p.Status != PinStatusFailed {
		p.Error = nil
	}
	if p.Status != PinStatusPublished {
		p.PublishedAt = nil
		p.PinterestID = nil
	}
}

// PinPatch is a partial update; nil fields are left untouched.
type PinPatch struct {
	Status        *PinStatus `json:"status,omitempty"`
	Error         *string    `json:"error,omitempty"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	PinterestID   *string    `json:"pinterestId,omitempty"`
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Link          *string    `json:"link,omitempty"`
	ImageURL      *string    `json:"imageUrl,omitempty"`
	BoardID       *string    `json:"boardId,omitempty"`
	ScheduledTime *time.Time `json:"scheduledTime,omitempty"`
}

// Apply returns a copy of pin with the patch merged in and status invariants re-imposed.
func (patch PinPatch) Apply(pin ScheduledPin, now time.Time) ScheduledPin {
	if patch.Status != nil {
		pin.Status = *patch.Status
	}
	if patch.Error != nil {
		pin.Error = patch.Error
	}
	if patch.PublishedAt != nil {
		pin.PublishedAt = patch.PublishedAt
	}
	if patch.PinterestID != nil {
		pin.PinterestID = patch.PinterestID
	}
	if patch.Title != nil {
		pin.Title = *patch.Title
	}
	if patch.Description != nil {
		pin.Description = *patch.Description
	}
	if patch.Link != nil {
		pin.Link = *patch.Link
	}
	if patch.ImageURL != nil {
		pin.ImageURL = *patch.ImageURL
	}
	if patch.BoardID != nil {
		pin.BoardID = *patch.BoardID
	}
	if patch.ScheduledTime != nil {
		pin.ScheduledTime = *patch.ScheduledTime
	}
	pin.Normalize()
	pin.UpdatedAt = now
	return pin
}

func StatusPatch(status PinStatus) PinPatch {
	return PinPatch{Status: &status}
}

func PublishedPatch(pinterestID string, at time.Time) PinPatch {
	status := PinStatusPublished
	return PinPatch{Status: &status, PinterestID: &pinterestID, PublishedAt: &at}
}

func FailedPatch(msg string) PinPatch {
	status := PinStatusFailed
	return PinPatch{Status: &status, Error: &msg}
}
