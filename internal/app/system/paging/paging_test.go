package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		query string
		want  Window
	}{
		{"", Window{Limit: DefaultLimit}},
		{"?limit=10&skip=20", Window{Limit: 10, Skip: 20}},
		{"?limit=0", Window{Limit: DefaultLimit}},
		{"?limit=-5&skip=-1", Window{Limit: DefaultLimit}},
		{"?limit=abc&skip=x", Window{Limit: DefaultLimit}},
		{"?limit=100000", Window{Limit: MaxLimit}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := Parse(httptest.NewRequest("GET", "/"+tt.query, nil))
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}
