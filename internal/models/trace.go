package models

import (
	"strings"
	"time"
)

// Category is the support classification applied to a trace
type Category string

const (
	CategoryBilling        Category = "Billing"
	CategoryRefund         Category = "Refund"
	CategoryAccountAccess  Category = "Account Access"
	CategoryCancellation   Category = "Cancellation"
	CategoryGeneralInquiry Category = "General Inquiry"
)

// CategoryAll is the dashboard's "no filter" selection. It is never sent to the store.
const CategoryAll = "All"

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryBilling,
	CategoryRefund,
	CategoryAccountAccess,
	CategoryCancellation,
	CategoryGeneralInquiry,
}

// ParseCategory returns the known category matching s exactly.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Known reports whether c is one of the five canonical categories.
func (c Category) Known() bool {
	_, ok := ParseCategory(string(c))
	return ok
}

// Trace is one logged chatbot exchange
type Trace struct {
	ID             string    `json:"id"`
	UserMessage    string    `json:"user_message"`
	BotResponse    string    `json:"bot_response"`
	Category       Category  `json:"category"`
	Timestamp      Timestamp `json:"timestamp"`
	ResponseTimeMS int64     `json:"response_time_ms"`
}

// TraceCreate is the body of a record-trace request
type TraceCreate struct {
	UserMessage    string `json:"user_message"`
	BotResponse    string `json:"bot_response"`
	ResponseTimeMS int64  `json:"response_time_ms"`
}

// TraceQuery narrows a trace listing. Zero values impose no restriction.
type TraceQuery struct {
	Category Category
	Search   string
}

// Normalize trims the search text and maps the "All" selection to no category.
func (q TraceQuery) Normalize() TraceQuery {
	q.Search = strings.TrimSpace(q.Search)
	if string(q.Category) == CategoryAll {
		q.Category = ""
	}
	return q
}

// Matches reports whether t satisfies both filters of q. Search is a substring
// match over the user message and the bot response.
func (q TraceQuery) Matches(t Trace, caseSensitive bool) bool {
	q = q.Normalize()
	if q.Category != "" && t.Category != q.Category {
		return false
	}
	if q.Search == "" {
		return true
	}
	if caseSensitive {
		return strings.Contains(t.UserMessage, q.Search) || strings.Contains(t.BotResponse, q.Search)
	}
	needle := strings.ToLower(q.Search)
	return strings.Contains(strings.ToLower(t.UserMessage), needle) ||
		strings.Contains(strings.ToLower(t.BotResponse), needle)
}

// TimestampLayout is the wire format of trace timestamps: UTC without a zone suffix.
const TimestampLayout = "2006-01-02T15:04:05.999999"

// Timestamp is a UTC instant that travels without a zone designator.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, converted to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ts.UTC().Format(TimestampLayout) + `"`), nil
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		ts.Time = time.Time{}
		return nil
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}

// ParseTimestamp parses an RFC 3339 instant. Values without a zone designator
// are store-local UTC, so a "Z" is appended before parsing.
func ParseTimestamp(s string) (time.Time, error) {
	if !hasZone(s) {
		s += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func hasZone(s string) bool {
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		return true
	}
	// an offset looks like +hh:mm or -hh:mm after the time part
	i := strings.IndexByte(s, 'T')
	if i < 0 {
		return false
	}
	return strings.ContainsAny(s[i:], "+-")
}
