package observability

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// EventEnvelope wraps every event published to the events exchange.
type EventEnvelope struct {
	EventType string `json:"event_type"`
	EventName string `json:"event_name"`
	Payload   any    `json:"payload"`
}

// RequestMeta identifies the client behind a screen session or request.
type RequestMeta struct {
	RequestID string
	DeviceID  string
	IP        string
	TraceID   string
}

// MetaFromRequest reads the correlation headers of r. A missing request id is
// generated; the trace id comes from the active span, if any.
func MetaFromRequest(r *http.Request) RequestMeta {
	meta := RequestMeta{
		RequestID: r.Header.Get("X-Request-Id"),
		DeviceID:  r.Header.Get("X-Device-Id"),
		IP:        clientIP(r),
	}
	if meta.RequestID == "" {
		meta.RequestID = uuid.NewString()
	}
	if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
		meta.TraceID = sc.TraceID().String()
	}
	return meta
}

// Headers returns the AMQP headers carrying the correlation ids.
func (m RequestMeta) Headers() map[string]string {
	headers := map[string]string{}
	if m.RequestID != "" {
		headers["x-request-id"] = m.RequestID
	}
	if m.TraceID != "" {
		headers["trace_id"] = m.TraceID
	}
	return headers
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
