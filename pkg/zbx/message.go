package zbx

import (
	"fmt"
	"regexp"
	"strconv"
)

// SUCCESS is the literal a server puts in "response" when every record was accepted.
const SUCCESS = "success"

// Request is a "sender data" document.
type Request struct {
	Request string        `json:"request"`
	Data    []EventRecord `json:"data"`

	// Clock is the send time in Unix seconds, optional.
	Clock int64 `json:"clock,omitempty"`
}

func NewRequest(records []EventRecord) Request {
	return Request{Request: SENDER_DATA, Data: records}
}

// Response is the server acknowledgement. Older servers omit one of the fields.
type Response struct {
	Response string `json:"response,omitempty"`
	Info     string `json:"info,omitempty"`
}

// InfoCounts holds the counters found in the "info" text.
type InfoCounts struct {
	Processed    int
	Failed       int
	Total        int
	SecondsSpent float64
}

// matches "processed: 1; failed: 0; total: 1; seconds spent: 0.000055"
// as well as the older "Processed 1 Failed 0 Total 1 Seconds spent 0.000"
var infoPattern = regexp.MustCompile(
	`(?i)processed:?\s*(\d+);?\s*failed:?\s*(\d+);?\s*total:?\s*(\d+)(?:;?\s*seconds spent:?\s*([0-9.]+))?`,
)

func ParseInfo(info string) (c InfoCounts, ok bool) {
	match := infoPattern.FindStringSubmatch(info)
	if match == nil {
		return
	}
	c.Processed, _ = strconv.Atoi(match[1])
	c.Failed, _ = strconv.Atoi(match[2])
	c.Total, _ = strconv.Atoi(match[3])
	if match[4] != "" {
		c.SecondsSpent, _ = strconv.ParseFloat(match[4], 64)
	}
	return c, true
}

func (r Response) Counts() (InfoCounts, bool) {
	return ParseInfo(r.Info)
}

// Success is true when "response" says so or, if "response" is missing,
// when "info" reports zero failures.
func (r Response) Success() bool {
	if r.Response != "" {
		return r.Response == SUCCESS
	}
	c, ok := r.Counts()
	return ok && c.Failed == 0
}

func (r Response) String() string {
	return fmt.Sprintf("response=%q info=%q", r.Response, r.Info)
}
