package domain

import "time"

// AuthPolicy is the authentication policy applied to the inbound connection.
type AuthPolicy int

const (
	AuthPolicyUnspecified AuthPolicy = iota
	AuthPolicyNone
	AuthPolicyMutualTLS
)

// String renders the policy the way it appears in the
// service_authentication_policy label.
func (p AuthPolicy) String() string {
	switch p {
	case AuthPolicyNone:
		return "NONE"
	case AuthPolicyMutualTLS:
		return "MUTUAL_TLS"
	default:
		return ""
	}
}

// ParseAuthPolicy is the inverse of AuthPolicy.String. Unknown values map to
// AuthPolicyUnspecified.
func ParseAuthPolicy(s string) AuthPolicy {
	switch s {
	case "NONE", "none":
		return AuthPolicyNone
	case "MUTUAL_TLS", "mutual_tls", "MTLS", "mtls":
		return AuthPolicyMutualTLS
	default:
		return AuthPolicyUnspecified
	}
}

// RequestInfo is the telemetry collected for one completed request.
type RequestInfo struct {
	StartTime time.Time
	Duration  time.Duration

	RequestID        string
	RequestOperation string
	RequestProtocol  string

	URLScheme string
	URLHost   string
	URLPath   string

	RequestSize  int64
	ResponseSize int64
	ResponseCode int32

	UserAgent          string
	Referer            string
	SourceAddress      string
	DestinationAddress string

	DestinationServiceHost string
	ResponseFlag           string
	SourcePrincipal        string
	DestinationPrincipal   string
	ServiceAuthPolicy      AuthPolicy

	B3TraceID      string
	B3SpanID       string
	B3TraceSampled bool
}

// URL reconstructs the full request URL as scheme://host+path.
func (r RequestInfo) URL() string {
	return r.URLScheme + "://" + r.URLHost + r.URLPath
}

// Record pairs a completed request with the peer that issued it.
type Record struct {
	Request RequestInfo
	Peer    NodeInfo
}
