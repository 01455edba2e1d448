package dto

import (
	"net/http"
	"net/url"

	"pin-scheduler/domain/model"
)

// ProxyRequest is one call forwarded to the Pinterest API. Path is relative to the API base.
type ProxyRequest struct {
	Method        string
	Path          string
	Query         url.Values
	Body          []byte
	Authorization string
}

type ProxyResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

type TokenResponse struct {
	Token model.PinterestToken `json:"token"`
	User  *model.PinterestUser `json:"user,omitempty"`
}

type AuthURLResponse struct {
	URL string `json:"url"`
}

type MediaSourceInput struct {
	SourceType string `json:"source_type"`
	URL        string `json:"url"`
}

// PinInput is the `pin` object accepted by POST /pins; boardId and board_id are both honoured.
type PinInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Link        string           `json:"link,omitempty"`
	BoardID     string           `json:"boardId,omitempty"`
	BoardIDAlt  string           `json:"board_id,omitempty"`
	MediaSource MediaSourceInput `json:"media_source"`
}

func (p PinInput) Board() string {
	if p.BoardID != "" {
		return p.BoardID
	}
	return p.BoardIDAlt
}

type CreatePinRequest struct {
	Pin *PinInput `json:"pin"`
}

type BoardsResponse struct {
	Items    []model.Board `json:"items"`
	Bookmark *string       `json:"bookmark,omitempty"`
}
