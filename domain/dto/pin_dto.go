package dto

import (
	"pin-scheduler/domain/model"
)

// SchedulePinRequest is the body of POST /pin-scheduler. scheduledTime is RFC3339 with any offset.
type SchedulePinRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Link          string `json:"link,omitempty"`
	ImageURL      string `json:"imageUrl"`
	BoardID       string `json:"boardId"`
	ScheduledTime string `json:"scheduledTime"`
	Account       string `json:"account,omitempty"`
}

type PinsResponse struct {
	Pins []model.ScheduledPin `json:"pins"`
}

type PinResponse struct {
	Message string              `json:"message,omitempty"`
	Pin     *model.ScheduledPin `json:"pin"`
}

type PublishOutcome struct {
	ID          string `json:"id"`
	Success     bool   `json:"success"`
	PinterestID string `json:"pinterestId,omitempty"`
	Error       string `json:"error,omitempty"`
}

type RunSummary struct {
	Message   string           `json:"message"`
	Published int              `json:"published"`
	Failed    int              `json:"failed"`
	Results   []PublishOutcome `json:"results,omitempty"`
}

// CSVPin is one parsed row of a bulk import file.
type CSVPin struct {
	Row         int    `json:"row"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Link        string `json:"link,omitempty"`
}

type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type BulkScheduleResponse struct {
	Message   string               `json:"message"`
	Scheduled int                  `json:"scheduled"`
	Pins      []model.ScheduledPin `json:"pins"`
	Skipped   []RowError           `json:"skipped,omitempty"`
	Errors    []RowError           `json:"errors,omitempty"`
}

type AccountView struct {
	Username     string `json:"username"`
	Active       bool   `json:"active"`
	RefreshAfter string `json:"refreshAfter,omitempty"`
	ExpiresAt    string `json:"expiresAt,omitempty"`
}

type AccountsResponse struct {
	Active   string        `json:"active"`
	Accounts []AccountView `json:"accounts"`
}

type SwitchAccountRequest struct {
	Username string `json:"username" binding:"required"`
}

// PlannedPin is one CSV row with its computed board and time.
type PlannedPin struct {
	Row int `json:"row"`
	SchedulePinRequest
}

type BulkPlan struct {
	Pins    []PlannedPin `json:"pins"`
	Skipped []RowError   `json:"skipped,omitempty"`
}
