package source

import (
	"fmt"
	"math"
	"time"

	"github.com/valyala/fastjson"

	"github.com/bft-labs/meshlog/internal/domain"
)

// DecodeRecord converts one parsed JSON record into a domain.Record.
// Errors wrap domain.ErrInvalidRecord.
func DecodeRecord(v *fastjson.Value) (domain.Record, error) {
	if v.Type() != fastjson.TypeObject {
		return domain.Record{}, fmt.Errorf("%w: record is %s, want object", domain.ErrInvalidRecord, v.Type())
	}
	req := v.Get("request")
	if req == nil || req.Type() != fastjson.TypeObject {
		return domain.Record{}, fmt.Errorf("%w: missing request object", domain.ErrInvalidRecord)
	}

	start, err := decodeTime(req.Get("start_time"))
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: start_time: %v", domain.ErrInvalidRecord, err)
	}
	took, err := decodeDuration(req.Get("duration"))
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: duration: %v", domain.ErrInvalidRecord, err)
	}
	code, err := decodeInt32(req.Get("response_code"))
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: response_code: %v", domain.ErrInvalidRecord, err)
	}

	info := domain.RequestInfo{
		StartTime:              start,
		Duration:               took,
		RequestID:              str(req, "request_id"),
		RequestOperation:       str(req, "method"),
		RequestProtocol:        str(req, "protocol"),
		URLScheme:              str(req, "url_scheme"),
		URLHost:                str(req, "url_host"),
		URLPath:                str(req, "url_path"),
		RequestSize:            req.GetInt64("request_size"),
		ResponseSize:           req.GetInt64("response_size"),
		ResponseCode:           code,
		UserAgent:              str(req, "user_agent"),
		Referer:                str(req, "referer"),
		SourceAddress:          str(req, "source_address"),
		DestinationAddress:     str(req, "destination_address"),
		DestinationServiceHost: str(req, "destination_service_host"),
		ResponseFlag:           str(req, "response_flag"),
		SourcePrincipal:        str(req, "source_principal"),
		DestinationPrincipal:   str(req, "destination_principal"),
		ServiceAuthPolicy:      domain.ParseAuthPolicy(str(req, "service_auth_policy")),
		B3TraceID:              str(req, "b3_trace_id"),
		B3SpanID:               str(req, "b3_span_id"),
		B3TraceSampled:         req.GetBool("b3_trace_sampled"),
	}

	var peer domain.NodeInfo
	if p := v.Get("peer"); p != nil && p.Type() == fastjson.TypeObject {
		peer = decodeNode(p)
	}
	return domain.Record{Request: info, Peer: peer}, nil
}

func decodeNode(v *fastjson.Value) domain.NodeInfo {
	return domain.NodeInfo{
		Name:             str(v, "name"),
		WorkloadName:     str(v, "workload_name"),
		Namespace:        str(v, "namespace"),
		MeshID:           str(v, "mesh_id"),
		Labels:           stringMap(v.Get("labels")),
		PlatformMetadata: stringMap(v.Get("platform_metadata")),
	}
}

func decodeTime(v *fastjson.Value) (time.Time, error) {
	if v == nil {
		return time.Time{}, nil
	}
	switch v.Type() {
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return time.Parse(time.RFC3339Nano, string(b))
	case fastjson.TypeNumber:
		ns, err := v.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(0, ns), nil
	default:
		return time.Time{}, fmt.Errorf("unexpected %s", v.Type())
	}
}

func decodeDuration(v *fastjson.Value) (time.Duration, error) {
	if v == nil {
		return 0, nil
	}
	switch v.Type() {
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return time.ParseDuration(string(b))
	case fastjson.TypeNumber:
		ns, err := v.Int64()
		return time.Duration(ns), err
	default:
		return 0, fmt.Errorf("unexpected %s", v.Type())
	}
}

func decodeInt32(v *fastjson.Value) (int32, error) {
	if v == nil {
		return 0, nil
	}
	n, err := v.Int64()
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%d out of range", n)
	}
	return int32(n), nil
}

func str(v *fastjson.Value, key string) string {
	return string(v.GetStringBytes(key))
}

// stringMap keeps string values only; a key mapped to a non-string is
// dropped rather than stringified.
func stringMap(v *fastjson.Value) map[string]string {
	if v == nil {
		return nil
	}
	o, err := v.Object()
	if err != nil {
		return nil
	}
	m := make(map[string]string, o.Len())
	o.Visit(func(key []byte, val *fastjson.Value) {
		if b, err := val.StringBytes(); err == nil {
			m[string(key)] = string(b)
		}
	})
	return m
}
