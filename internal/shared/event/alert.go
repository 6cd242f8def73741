package event

import "time"

// AlertDestination is the topic every portal instance publishes alerts to.
const AlertDestination string = "portal_alert"

// AlertConsumerGroup prefixes the per-instance consumer group, so each
// instance sees every alert.
const AlertConsumerGroup string = "portal_alert_relay"

type AlertSeverity string

const (
	AlertInfo    AlertSeverity = "info"
	AlertSuccess AlertSeverity = "success"
	AlertError   AlertSeverity = "error"
)

// Alert is what a module hands to the relay.
type Alert struct {
	Owner    string
	Severity AlertSeverity
	TitleKey string
	BodyKey  string
}

// AlertMessage is the broker payload.
type AlertMessage struct {
	ID        int64         `json:"id,string"`
	Owner     string        `json:"owner"`
	Severity  AlertSeverity `json:"severity"`
	TitleKey  string        `json:"title_key"`
	BodyKey   string        `json:"body_key"`
	CreatedAt time.Time     `json:"created_at"`
}
