package model

import "time"

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notice is a transient user-facing message.
type Notice struct {
	Message  string    `json:"message"`
	Severity Severity  `json:"type"`
	At       time.Time `json:"at"`
}
