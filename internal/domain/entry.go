package domain

import "time"

// Severity of a log entry. Access logs are always SeverityInfo.
type Severity int32

const (
	SeverityDefault Severity = 0
	SeverityInfo    Severity = 200
)

// String returns the severity name.
func (s Severity) String() string {
	if s == SeverityInfo {
		return "INFO"
	}
	return "DEFAULT"
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Timestamp is a point in time split into seconds and nanoseconds since the
// unix epoch.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

// NewTimestamp splits t into whole seconds and the remaining nanoseconds.
func NewTimestamp(t time.Time) Timestamp {
	s := t.Unix()
	return Timestamp{Seconds: s, Nanos: int32(t.Sub(time.Unix(s, 0)))}
}

// Time converts the timestamp back to a time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, int64(t.Nanos))
}

// Duration is a span of time split into seconds and nanoseconds.
type Duration struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

// NewDuration splits d into whole seconds and the remaining nanoseconds.
func NewDuration(d time.Duration) Duration {
	s := d / time.Second
	return Duration{Seconds: int64(s), Nanos: int32(d - s*time.Second)}
}

// HTTPRequest is the HTTP section of an access log entry.
type HTTPRequest struct {
	RequestMethod string   `json:"requestMethod,omitempty"`
	RequestURL    string   `json:"requestUrl,omitempty"`
	RequestSize   int64    `json:"requestSize,omitempty"`
	Status        int32    `json:"status,omitempty"`
	ResponseSize  int64    `json:"responseSize,omitempty"`
	UserAgent     string   `json:"userAgent,omitempty"`
	RemoteIP      string   `json:"remoteIp,omitempty"`
	ServerIP      string   `json:"serverIp,omitempty"`
	Referer       string   `json:"referer,omitempty"`
	Latency       Duration `json:"latency"`
	Protocol      string   `json:"protocol,omitempty"`
}

// LogEntry is one structured access log record.
type LogEntry struct {
	Timestamp    Timestamp         `json:"timestamp"`
	Severity     Severity          `json:"severity"`
	Labels       map[string]string `json:"labels,omitempty"`
	HTTPRequest  HTTPRequest       `json:"httpRequest"`
	Trace        string            `json:"trace,omitempty"`
	SpanID       string            `json:"spanId,omitempty"`
	TraceSampled bool              `json:"traceSampled,omitempty"`
}
