package usecases

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"neypot.backend/internal/domain/entities"
)

const (
	DefaultMaxBodyChars = 10000
	UnknownSourceIP     = "unknown"
)

// Header names whose values are never persisted. Matching is a
// case-insensitive substring test on the header name.
var sensitiveHeaderMarkers = []string{"authorization", "x-api-token"}

// RawRequest is the transport view of an ingest call.
type RawRequest struct {
	Method        string
	URI           string
	Headers       http.Header
	Body          string
	ContentLength int64
	RemoteAddr    string
}

// DeclaredFields are the optional fields a sensor may put in a JSON body.
// SourceIP is informational only and never used for attribution.
type DeclaredFields struct {
	Structured bool
	Path       string
	Method     string
	UserAgent  string
	Service    string
	Country    string
	ASN        string
	Org        string
	SourceIP   string
	Username   string
	Body       string
	Headers    map[string]string
}

// RequestFields are the resolved path, method and user agent of an event.
type RequestFields struct {
	Path      string
	Method    string
	UserAgent string
}

type EventNormalizer struct {
	maxBodyChars     int
	trustPeerAddress bool
	now              func() time.Time
}

func NewEventNormalizer(maxBodyChars int, trustPeerAddress bool) *EventNormalizer {
	if maxBodyChars <= 0 {
		maxBodyChars = DefaultMaxBodyChars
	}
	return &EventNormalizer{
		maxBodyChars:     maxBodyChars,
		trustPeerAddress: trustPeerAddress,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (n *EventNormalizer) SetClock(now func() time.Time) {
	n.now = now
}

// ParseBody extracts declared fields from a JSON object body. Any other body
// yields zero fields and is kept verbatim by Normalize.
func (n *EventNormalizer) ParseBody(raw string) DeclaredFields {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || obj == nil {
		return DeclaredFields{}
	}

	declared := DeclaredFields{
		Structured: true,
		Path:       stringField(obj, "path"),
		Method:     stringField(obj, "method"),
		UserAgent:  stringField(obj, "user_agent"),
		Service:    stringField(obj, "service"),
		Country:    scalarField(obj, "country"),
		ASN:        scalarField(obj, "asn"),
		Org:        scalarField(obj, "org"),
		SourceIP:   stringField(obj, "source_ip"),
		Username:   stringField(obj, "username"),
		Body:       stringField(obj, "body"),
	}
	if declared.Username == "" {
		declared.Username = stringField(obj, "user")
	}
	if headers, ok := obj["headers"].(map[string]interface{}); ok {
		declared.Headers = make(map[string]string, len(headers))
		for k, v := range headers {
			if s := scalarValue(v); s != "" {
				declared.Headers[k] = s
			}
		}
	}
	return declared
}

// Fields resolves path and method from the body first, and the user agent
// from the request header first.
func (n *EventNormalizer) Fields(req RawRequest, declared DeclaredFields) RequestFields {
	fields := RequestFields{
		Path:      declared.Path,
		Method:    declared.Method,
		UserAgent: req.Headers.Get("User-Agent"),
	}
	if fields.Path == "" {
		fields.Path = req.URI
	}
	if fields.Method == "" {
		fields.Method = req.Method
	}
	if fields.UserAgent == "" {
		fields.UserAgent = declared.UserAgent
	}
	return fields
}

// Normalize assembles the persist-ready event. The tenant comes from the
// authentication result only. Stored text is made storable before it is
// truncated; payload size always counts the raw bytes.
func (n *EventNormalizer) Normalize(
	req RawRequest,
	declared DeclaredFields,
	tenantID uuid.UUID,
	service entities.ServiceType,
	score int,
) *entities.HoneypotEvent {
	fields := n.Fields(req, declared)
	payloadSize := len(req.Body)
	if req.ContentLength > int64(payloadSize) {
		payloadSize = int(req.ContentLength)
	}

	return &entities.HoneypotEvent{
		TenantID:         tenantID,
		Timestamp:        n.now(),
		SourceIP:         n.SourceIP(req),
		DeclaredSourceIP: optional(declared.SourceIP),
		Service:          service,
		Path:             StorableText(fields.Path),
		Method:           StorableText(fields.Method),
		UserAgent:        StorableText(fields.UserAgent),
		Username:         optional(declared.Username),
		Headers:          SanitizeHeaders(req.Headers, declared.Headers),
		Body:             TruncateRunes(StorableText(req.Body), n.maxBodyChars),
		PayloadSize:      payloadSize,
		RiskScore:        clampScore(score),
		Country:          optional(declared.Country),
		ASN:              optional(declared.ASN),
		Org:              optional(declared.Org),
		Tags:             []entities.EventTag{},
	}
}

// SourceIP trusts proxy headers, then optionally the transport peer.
func (n *EventNormalizer) SourceIP(req RawRequest) string {
	if forwarded := req.Headers.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(req.Headers.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if n.trustPeerAddress && req.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(req.RemoteAddr); err == nil && host != "" {
			return host
		}
		return req.RemoteAddr
	}
	return UnknownSourceIP
}

// SanitizeHeaders lowercases names, joins repeated values with ", " and drops
// credential headers. Declared headers fill in names the transport lacks.
func SanitizeHeaders(transport http.Header, declared map[string]string) map[string]string {
	out := make(map[string]string, len(transport)+len(declared))
	for name, values := range transport {
		key := StorableText(strings.ToLower(name))
		if isSensitiveHeader(key) {
			continue
		}
		out[key] = StorableText(strings.Join(values, ", "))
	}
	for name, value := range declared {
		key := StorableText(strings.ToLower(name))
		if isSensitiveHeader(key) {
			continue
		}
		if _, exists := out[key]; !exists {
			out[key] = StorableText(value)
		}
	}
	return out
}

func isSensitiveHeader(lowerName string) bool {
	for _, marker := range sensitiveHeaderMarkers {
		if strings.Contains(lowerName, marker) {
			return true
		}
	}
	return false
}

// TruncateRunes cuts s to at most max characters without splitting a rune.
func TruncateRunes(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// StorableText replaces invalid UTF-8 with U+FFFD and drops NUL bytes,
// neither of which a Postgres text or jsonb column accepts.
func StorableText(s string) string {
	if utf8.ValidString(s) && !strings.Contains(s, "\x00") {
		return s
	}
	return strings.ReplaceAll(strings.ToValidUTF8(s, "\uFFFD"), "\x00", "")
}

func optional(s string) null.String {
	s = StorableText(s)
	if s == "" {
		return null.String{}
	}
	return null.StringFrom(s)
}

func stringField(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return s
}

func scalarField(obj map[string]interface{}, key string) string {
	return scalarValue(obj[key])
}

func scalarValue(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return ""
	}
}
