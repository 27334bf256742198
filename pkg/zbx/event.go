// Package zbx implements the data side of the Zabbix sender protocol.
//
// It builds trapper event records, frames them into "sender data" requests and
// parses the acknowledgement returned by a Zabbix server or proxy. Network I/O
// lives in the trapper package; everything here works on byte streams only.
//
// Example usage:
//
//	ep := zbx.Endpoint{Server: "127.0.0.1", Port: 10051, Host: "web01", Key: "app.errors"}
//	req := zbx.NewRequest(zbx.BuildRecords(ep, messages))
//	frame, err := zbx.EncodeRequest(req, false)
package zbx

// SENDER_DATA is the request kind carrying trapper events.
const SENDER_DATA = "sender data"

// EventRecord is a single trapper value for one item.
type EventRecord struct {
	// Host is the host name configured in Zabbix.
	Host string `json:"host"`

	// Key is the trapper item key.
	Key string `json:"key"`

	// Value is sent as is; escaping is left to the JSON encoder.
	Value string `json:"value"`

	// Clock is the value timestamp in Unix seconds.
	Clock int64 `json:"clock"`
}

// Message is anything carrying a text body and a millisecond timestamp.
type Message interface {
	Body() string
	Millis() int64
}

// ClockSeconds converts a millisecond timestamp to whole Unix seconds,
// rounding towards negative infinity.
func ClockSeconds(millis int64) int64 {
	s := millis / 1000
	if millis%1000 < 0 {
		s--
	}
	return s
}

func NewEventRecord(host, key, value string, millis int64) EventRecord {
	return EventRecord{
		Host:  host,
		Key:   key,
		Value: value,
		Clock: ClockSeconds(millis),
	}
}

// BuildRecords returns one record per message, all sharing the endpoint host and key.
func BuildRecords[M Message](ep Endpoint, messages []M) []EventRecord {
	records := make([]EventRecord, 0, len(messages))
	for _, m := range messages {
		records = append(records, NewEventRecord(ep.Host, ep.Key, m.Body(), m.Millis()))
	}
	return records
}
