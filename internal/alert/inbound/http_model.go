package inbound

import "time"

// AlertResponse is one SSE "alert" event payload.
type AlertResponse struct {
	ID        string    `json:"id"`
	Severity  string    `json:"severity"`
	TitleKey  string    `json:"title_key"`
	BodyKey   string    `json:"body_key"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
