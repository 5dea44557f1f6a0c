package pagination

import (
	"net/http/httptest"
	"testing"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "/orders", DefaultPage, DefaultLimit},
		{"explicit", "/orders?page=3&limit=25", 3, 25},
		{"zero page", "/orders?page=0", DefaultPage, DefaultLimit},
		{"negative limit", "/orders?limit=-5", DefaultPage, DefaultLimit},
		{"limit clamped", "/orders?limit=5000", DefaultPage, MaxLimit},
		{"garbage", "/orders?page=abc&limit=xyz", DefaultPage, DefaultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseParams(httptest.NewRequest("GET", tt.url, nil))
			if p.Page != tt.wantPage || p.Limit != tt.wantLimit {
				t.Errorf("Expected page=%d limit=%d, got page=%d limit=%d", tt.wantPage, tt.wantLimit, p.Page, p.Limit)
			}
		})
	}
}

func TestCalculateMeta(t *testing.T) {
	p := Params{Page: 2, Limit: 10}
	meta := p.CalculateMeta(35)

	if meta.TotalPages != 4 {
		t.Errorf("Expected 4 pages, got %d", meta.TotalPages)
	}
	if !meta.HasNext || !meta.HasPrevious {
		t.Errorf("Expected middle page to have neighbors, got %+v", meta)
	}

	empty := Params{Page: 1, Limit: 10}
	meta = empty.CalculateMeta(0)
	if meta.TotalPages != 1 || meta.HasNext || meta.HasPrevious {
		t.Errorf("Unexpected meta for empty set %+v", meta)
	}
}

func TestOffset(t *testing.T) {
	p := Params{Page: 3, Limit: 20}
	if p.Offset() != 40 {
		t.Errorf("Expected offset 40, got %d", p.Offset())
	}
}
