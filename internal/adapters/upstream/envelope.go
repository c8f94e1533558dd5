package upstream

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/perfboard/internal/domain/model"
	"github.com/okian/perfboard/internal/domain/normalize"
)

// decodePage extracts a page from any of the envelope shapes the backend
// uses. Records are read from results.records, results, records, or a bare
// array, in that order. A body that is valid JSON but carries no records
// (for example {"message": "..."}) yields an empty last page.
func decodePage(body any, page int) model.Page {
	var (
		items []any
		obj   map[string]any
	)
	switch v := body.(type) {
	case []any:
		items = v
	case map[string]any:
		obj = v
		items = recordsOf(v)
	}

	p := model.Page{Records: make([]model.RawRecord, 0, len(items))}
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			p.Records = append(p.Records, model.RawRecord(m))
		}
	}

	p.TotalCount = len(p.Records)
	if obj != nil {
		if n, ok := normalize.Number(obj["count"]); ok && n >= 0 {
			p.TotalCount = int(n)
		}
		p.NextPageToken = nextToken(obj["next"], page)
	}
	return p
}

func recordsOf(obj map[string]any) []any {
	switch results := obj["results"].(type) {
	case map[string]any:
		if recs, ok := results["records"].([]any); ok {
			return recs
		}
	case []any:
		return results
	}
	if recs, ok := obj["records"].([]any); ok {
		return recs
	}
	return nil
}

// nextToken turns the "next" field into a page number string. A URL yields
// its page parameter; a URL without one means the page after current.
func nextToken(next any, current int) string {
	switch v := next.(type) {
	case nil, bool:
		return ""
	case json.Number, float64:
		n, ok := normalize.Number(v)
		if !ok || n < 1 {
			return ""
		}
		return strconv.Itoa(int(n))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return ""
		}
		if n, err := strconv.Atoi(s); err == nil {
			if n < 1 {
				return ""
			}
			return strconv.Itoa(n)
		}
		if u, err := url.Parse(s); err == nil {
			if p := u.Query().Get("page"); p != "" {
				if n, err := strconv.Atoi(p); err == nil && n > 0 {
					return strconv.Itoa(n)
				}
			}
		}
		return strconv.Itoa(current + 1)
	default:
		return ""
	}
}
