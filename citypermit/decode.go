package citypermit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// excerptLen limits how much of an offending body ends up in error messages.
const excerptLen = 64

// canonicalTimeLayout is the UTC seconds-precision form every decoded
// timestamp is normalized to before it reaches a record.
const canonicalTimeLayout = "2006-01-02T15:04:05Z"

// decodeBody turns a raw response body into a generic JSON value.
// An empty or whitespace-only body decodes to nil, which callers treat
// as "no payload" rather than a failure; several endpoints answer a
// successful write with an empty body.
func decodeBody(body []byte) (any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil, &ParseError{
			Message: "response body is not valid JSON",
			Excerpt: excerpt(trimmed),
			Err:     err,
		}
	}
	return value, nil
}

// excerpt returns the leading bytes of a body for diagnostics. The cut
// backs up to a rune boundary so a multi-byte character is never split.
func excerpt(body []byte) string {
	if len(body) <= excerptLen {
		return string(body)
	}
	cut := excerptLen
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut]) + "..."
}

// timeLayouts are the ISO 8601 shapes the service has been observed to
// send: full offsets, Z, fractional seconds, and naive local-less values
// which are taken as UTC.
var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
}

// parseTimestamp parses an ISO 8601 timestamp, keeping the offset the
// service sent so callers can reason about the service-local calendar day.
func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return t, nil
	}
	return time.Time{}, &ParseError{Message: fmt.Sprintf("invalid timestamp %q", value)}
}

// normalizeTimestamp parses an ISO 8601 timestamp in whatever offset the
// service returned and renders it as a canonical UTC string with seconds
// precision.
func normalizeTimestamp(value string) (string, error) {
	t, err := parseTimestamp(value)
	if err != nil {
		return "", err
	}
	return formatTimestamp(t), nil
}

// formatTimestamp serializes a timestamp for a request body, UTC with
// seconds precision.
func formatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(canonicalTimeLayout)
}
