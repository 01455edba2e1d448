package model

import (
	"strings"
	"time"
)

const MediaSourceImageURL = "image_url"

type MediaSource struct {
	SourceType string `json:"source_type"`
	URL        string `json:"url"`
}

// PinCreate is the body of POST /pins on the Pinterest API.
type PinCreate struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	BoardID     string      `json:"board_id"`
	MediaSource MediaSource `json:"media_source"`
	Link        string      `json:"link,omitempty"`
}

// NewPinCreate builds the provider payload for a scheduled pin. The image URL is
// expected to be normalized already.
func NewPinCreate(pin ScheduledPin, imageURL string) PinCreate {
	return PinCreate{
		Title:       pin.Title,
		Description: pin.Description,
		BoardID:     pin.BoardID,
		MediaSource: MediaSource{SourceType: MediaSourceImageURL, URL: imageURL},
		Link:        pin.Link,
	}
}

// IsEmbeddedImage reports whether url is a data: or blob: reference that Pinterest cannot fetch.
func IsEmbeddedImage(url string) bool {
	return strings.HasPrefix(url, "data:") || strings.HasPrefix(url, "blob:")
}

type PinterestUser struct {
	Username      string `json:"username"`
	AccountType   string `json:"account_type,omitempty"`
	ProfileImage  string `json:"profile_image,omitempty"`
	WebsiteURL    string `json:"website_url,omitempty"`
	BusinessName  string `json:"business_name,omitempty"`
	BoardCount    int    `json:"board_count,omitempty"`
	PinCount      int    `json:"pin_count,omitempty"`
	FollowerCount int    `json:"follower_count,omitempty"`
}

// PinterestToken mirrors the token endpoint response.
type PinterestToken struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	TokenType             string `json:"token_type,omitempty"`
	ExpiresIn             int64  `json:"expires_in,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in,omitempty"`
	Scope                 string `json:"scope,omitempty"`
}

// Credential converts a token into a stored credential for username.
func (t PinterestToken) Credential(username string, now time.Time, refreshAfter time.Duration) Credential {
	c := Credential{
		Username:     username,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Scope:        t.Scope,
		RefreshAfter: now.Add(refreshAfter),
		UpdatedAt:    now,
	}
	if t.ExpiresIn > 0 {
		exp := now.Add(time.Duration(t.ExpiresIn) * time.Second)
		c.ExpiresAt = &exp
	}
	if t.RefreshTokenExpiresIn > 0 {
		exp := now.Add(time.Duration(t.RefreshTokenExpiresIn) * time.Second)
		c.RefreshTokenExpiresAt = &exp
	}
	return c
}

type Board struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Privacy     string `json:"privacy,omitempty"`
}

// PinEvent is emitted whenever a pin's status changes.
type PinEvent struct {
	Type        string    `json:"type"`
	PinID       string    `json:"pin_id"`
	Status      PinStatus `json:"status"`
	Account     string    `json:"account,omitempty"`
	PinterestID *string   `json:"pinterest_id,omitempty"`
	Error       *string   `json:"error,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

const PinEventType = "pin_status"

func NewPinEvent(pin ScheduledPin, at time.Time) PinEvent {
	return PinEvent{
		Type:        PinEventType,
		PinID:       pin.ID,
		Status:      pin.Status,
		Account:     pin.Account,
		PinterestID: pin.PinterestID,
		Error:       pin.Error,
		OccurredAt:  at,
	}
}
