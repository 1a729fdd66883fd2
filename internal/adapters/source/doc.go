// Package source provides the record sources that feed request records to
// the batching logger: an HTTP ingest endpoint and a spool file tail.
//
// Both sources share one JSON record shape:
//
//	{
//	  "request": {
//	    "start_time": "2024-05-01T12:00:00.25Z",
//	    "duration": "1.5s",
//	    "request_id": "...",
//	    "method": "GET",
//	    "url_scheme": "http", "url_host": "reviews:9080", "url_path": "/reviews/0",
//	    "response_code": 200,
//	    ...
//	  },
//	  "peer": {"name": "...", "workload_name": "...", "namespace": "...", "labels": {...}}
//	}
//
// start_time accepts RFC 3339 strings or unix nanoseconds; duration accepts
// Go duration strings or integer nanoseconds.
package source
