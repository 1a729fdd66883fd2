package app

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bft-labs/meshlog/internal/domain"
)

// Field numbers of google.logging.v2.LogEntry and google.logging.type.HttpRequest.
const (
	entryHTTPRequest  protowire.Number = 7
	entryTimestamp    protowire.Number = 9
	entrySeverity     protowire.Number = 10
	entryLabels       protowire.Number = 11
	entryTrace        protowire.Number = 22
	entrySpanID       protowire.Number = 27
	entryTraceSampled protowire.Number = 30

	httpRequestMethod protowire.Number = 1
	httpRequestURL    protowire.Number = 2
	httpRequestSize   protowire.Number = 3
	httpStatus        protowire.Number = 4
	httpResponseSize  protowire.Number = 5
	httpUserAgent     protowire.Number = 6
	httpRemoteIP      protowire.Number = 7
	httpReferer       protowire.Number = 8
	httpServerIP      protowire.Number = 13
	httpLatency       protowire.Number = 14
	httpProtocol      protowire.Number = 15

	secondsField protowire.Number = 1
	nanosField   protowire.Number = 2
	mapKey       protowire.Number = 1
	mapValue     protowire.Number = 2
)

// EstimateSize returns the protobuf wire size the entry would have as a
// google.logging.v2.LogEntry. It only sums field sizes and never marshals.
func EstimateSize(e *domain.LogEntry) int {
	n := messageField(entryTimestamp, secondsNanosSize(e.Timestamp.Seconds, e.Timestamp.Nanos))
	n += varintField(entrySeverity, uint64(e.Severity))
	for k, v := range e.Labels {
		n += messageField(entryLabels,
			protowire.SizeTag(mapKey)+protowire.SizeBytes(len(k))+
				protowire.SizeTag(mapValue)+protowire.SizeBytes(len(v)))
	}
	n += messageField(entryHTTPRequest, httpRequestSizeOf(&e.HTTPRequest))
	n += stringField(entryTrace, e.Trace)
	n += stringField(entrySpanID, e.SpanID)
	if e.TraceSampled {
		n += protowire.SizeTag(entryTraceSampled) + 1
	}
	return n
}

func httpRequestSizeOf(r *domain.HTTPRequest) int {
	n := stringField(httpRequestMethod, r.RequestMethod)
	n += stringField(httpRequestURL, r.RequestURL)
	n += varintField(httpRequestSize, uint64(r.RequestSize))
	n += varintField(httpStatus, uint64(int64(r.Status)))
	n += varintField(httpResponseSize, uint64(r.ResponseSize))
	n += stringField(httpUserAgent, r.UserAgent)
	n += stringField(httpRemoteIP, r.RemoteIP)
	n += stringField(httpReferer, r.Referer)
	n += stringField(httpServerIP, r.ServerIP)
	n += messageField(httpLatency, secondsNanosSize(r.Latency.Seconds, r.Latency.Nanos))
	n += stringField(httpProtocol, r.Protocol)
	return n
}

func secondsNanosSize(seconds int64, nanos int32) int {
	return varintField(secondsField, uint64(seconds)) + varintField(nanosField, uint64(int64(nanos)))
}

// proto3 scalars are omitted when zero
func varintField(num protowire.Number, v uint64) int {
	if v == 0 {
		return 0
	}
	return protowire.SizeTag(num) + protowire.SizeVarint(v)
}

func stringField(num protowire.Number, s string) int {
	if s == "" {
		return 0
	}
	return protowire.SizeTag(num) + protowire.SizeBytes(len(s))
}

func messageField(num protowire.Number, size int) int {
	return protowire.SizeTag(num) + protowire.SizeBytes(size)
}
