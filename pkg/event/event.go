// Package event defines the request lifecycle events published while the
// relay serves intercepted requests, and the dispatcher that fans them out to
// per-client observers.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Topics published during the lifecycle of one intercepted request. Every
// served request emits a start event, and every served request except the
// short-circuit responses emits a matching end event.
const (
	TopicRequestStart = "REQUEST_START"
	TopicRequestEnd   = "REQUEST_END"
)

// Event is one lifecycle notification addressed to a client's observers.
type Event struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"clientID"`
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// StartPayload accompanies TopicRequestStart.
type StartPayload struct {
	IsMock         bool              `json:"isMock"`
	Method         string            `json:"method"`
	Host           string            `json:"host"`
	Pathname       string            `json:"pathname"`
	URL            string            `json:"url"`
	RequestHeaders map[string]string `json:"requestHeaders"`
	RequestData    any               `json:"requestData"`
}

// EndPayload accompanies TopicRequestEnd. Timecost is in milliseconds and
// covers matching, any configured delay, and upstream or synthesis time.
type EndPayload struct {
	Status         int               `json:"status"`
	RequestData    any               `json:"requestData"`
	RequestHeaders map[string]string `json:"requestHeaders"`
	ResponseBody   any               `json:"responseBody"`
	Timecost       int64             `json:"timecost"`
}

// Publisher delivers events to whoever observes the given client.
type Publisher interface {
	Publish(clientID, topic string, payload any)
}

func newEvent(clientID, topic string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		Topic:     topic,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}
