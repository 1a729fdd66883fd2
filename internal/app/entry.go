package app

import "github.com/bft-labs/meshlog/internal/domain"

// BuildEntry converts a completed request and its peer into an access log
// entry. Optional peer labels are copied only when present; trace fields are
// set only when the request was sampled.
func BuildEntry(projectID string, req domain.RequestInfo, peer domain.NodeInfo) domain.LogEntry {
	labels := map[string]string{
		"request_id":                    req.RequestID,
		"source_name":                   peer.Name,
		"source_workload":               peer.WorkloadName,
		"source_namespace":              peer.Namespace,
		"destination_service_host":      req.DestinationServiceHost,
		"response_flag":                 req.ResponseFlag,
		"destination_principal":         req.DestinationPrincipal,
		"source_principal":              req.SourcePrincipal,
		"service_authentication_policy": req.ServiceAuthPolicy.String(),
	}
	if v, ok := peer.Label(domain.VersionLabel); ok {
		labels["source_version"] = v
	}
	if v, ok := peer.Label(domain.AppLabel); ok {
		labels["source_app"] = v
	}

	entry := domain.LogEntry{
		Timestamp: domain.NewTimestamp(req.StartTime),
		Severity:  domain.SeverityInfo,
		Labels:    labels,
		HTTPRequest: domain.HTTPRequest{
			RequestMethod: req.RequestOperation,
			RequestURL:    req.URL(),
			RequestSize:   req.RequestSize,
			Status:        req.ResponseCode,
			ResponseSize:  req.ResponseSize,
			UserAgent:     req.UserAgent,
			RemoteIP:      req.SourceAddress,
			ServerIP:      req.DestinationAddress,
			Protocol:      req.RequestProtocol,
			Latency:       domain.NewDuration(req.Duration),
			Referer:       req.Referer,
		},
	}

	if req.B3TraceSampled {
		entry.Trace = "projects/" + projectID + "/traces/" + req.B3TraceID
		entry.SpanID = req.B3SpanID
		entry.TraceSampled = true
	}
	return entry
}
