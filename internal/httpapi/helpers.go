package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pantry/internal/core"
)

// parseYearMonth extracts year and month from query parameters, defaulting to
// the current month when a parameter is absent. Malformed or out-of-range
// values are an error rather than a silent fallback.
func parseYearMonth(r *http.Request) (int, time.Month, error) {
	now := time.Now()
	year := now.Year()
	month := now.Month()

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid year %q", v)
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, fmt.Errorf("invalid month %q", v)
		}
		month = time.Month(m)
	}

	return year, month, nil
}

// parseDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use RFC 3339 or YYYY-MM-DD", v)
	}
	return t, nil
}

func parseDateRange(r *http.Request) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if v := r.URL.Query().Get("start"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return nil, nil, err
		}
		start = &t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return nil, nil, err
		}
		end = &t
	}
	return start, end, nil
}

func parseQuery(r *http.Request) (core.Query, error) {
	params := r.URL.Query()

	start, end, err := parseDateRange(r)
	if err != nil {
		return core.Query{}, err
	}

	q := core.Query{
		Start:      start,
		End:        end,
		Categories: splitParam(params.Get("category")),
		Locations:  splitParam(params.Get("location")),
		Products:   splitParam(params.Get("product")),
		UserID:     params.Get("userId"),
		GroupID:    params.Get("groupId"),
	}

	for _, t := range splitParam(params.Get("type")) {
		typ := core.TransactionType(t)
		if !typ.Valid() {
			return core.Query{}, fmt.Errorf("invalid transaction type %q", t)
		}
		q.Types = append(q.Types, typ)
	}

	if v := params.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return core.Query{}, fmt.Errorf("invalid limit %q", v)
		}
		q.Limit = limit
	}

	return q, nil
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
