// Package alert defines the alerts ZTS receives from a log-monitoring system.
//
// An Alert is produced when an alert condition on a stream triggers. It carries
// the messages that matched the condition; each of them becomes one trapper
// value on the Zabbix side.
//
// Alerts arrive as NDJSON, one object per line:
//
//	{"stream":"nginx","condition":"5xx > 10","triggered_at":"2023-11-14T22:13:20Z",
//	 "tags":[{"tag":"env","value":"prod"}],
//	 "messages":[{"message":"disk full","timestamp":1700000000000}]}
package alert

import (
	"encoding/json"
	"errors"
	"time"
)

// Tag is a key-value pair attached to the alerting stream.
type Tag struct {
	Tag   string `json:"tag" yaml:"tag"`
	Value string `json:"value" yaml:"value"`
}

// Message is a single log message that matched the alert condition.
type Message struct {
	// Message is the log message text.
	Message string `json:"message"`

	// Timestamp is the message time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

func (m Message) Body() string {
	return m.Message
}

func (m Message) Millis() int64 {
	return m.Timestamp
}

type Alert struct {
	// Stream is the name of the stream the condition is attached to.
	Stream string `json:"stream"`

	// Condition describes the triggered alert condition.
	Condition string `json:"condition,omitempty"`

	Description string    `json:"description,omitempty"`
	TriggeredAt time.Time `json:"triggered_at"`
	Tags        []Tag     `json:"tags,omitempty"`
	Messages    []Message `json:"messages"`
}

var ErrNoStream = errors.New("alert has no stream")

// Parse decodes a single NDJSON line.
func Parse(line []byte) (a Alert, err error) {
	if err = json.Unmarshal(line, &a); err != nil {
		return
	}
	if a.Stream == "" {
		err = ErrNoStream
		return
	}
	if a.TriggeredAt.IsZero() {
		a.TriggeredAt = time.Now()
	}
	return
}
