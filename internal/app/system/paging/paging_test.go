package paging

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
)

func TestPage_Skip(t *testing.T) {
	tests := []struct {
		page Page
		want int64
	}{
		{Page{Number: 1, Size: 20}, 0},
		{Page{Number: 2, Size: 20}, 20},
		{Page{Number: 3, Size: 7}, 14},
	}
	for _, tt := range tests {
		if got := tt.page.Skip(); got != tt.want {
			t.Errorf("%+v.Skip() = %d, want %d", tt.page, got, tt.want)
		}
	}
}

func TestPage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		page    Page
		wantErr bool
	}{
		{"valid", Page{Number: 1, Size: 1}, false},
		{"zero page", Page{Number: 0, Size: 20}, true},
		{"negative size", Page{Number: 1, Size: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.page.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperr.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestIsNext(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		skip     int64
		returned int
		want     bool
	}{
		{"first of many", 45, 0, 20, true},
		{"middle page", 45, 20, 20, true},
		{"last partial page", 45, 40, 5, false},
		{"exact last page", 40, 20, 20, false},
		{"offset beyond total", 10, 40, 0, false},
		{"empty collection", 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNext(tt.total, tt.skip, tt.returned); got != tt.want {
				t.Errorf("IsNext(%d, %d, %d) = %v, want %v", tt.total, tt.skip, tt.returned, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   Page
	}{
		{"defaults", "/threads", Page{Number: 1, Size: 20}},
		{"explicit", "/threads?page=3&size=5", Page{Number: 3, Size: 5}},
		{"invalid values fall back", "/threads?page=abc&size=-2", Page{Number: 1, Size: 20}},
		{"size capped", "/threads?size=1000", Page{Number: 1, Size: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			if got := Parse(r, 20, 100); got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.target, got, tt.want)
			}
		})
	}
}
