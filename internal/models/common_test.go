package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginationNormalisesInputs(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		total     int
		wantPage  int
		wantLimit int
		wantPages int
	}{
		{name: "defaults", page: 0, limit: 0, total: 25, wantPage: 1, wantLimit: 10, wantPages: 3},
		{name: "exact fit", page: 2, limit: 5, total: 10, wantPage: 2, wantLimit: 5, wantPages: 2},
		{name: "oversized limit clamped", page: 1, limit: 500, total: 25, wantPage: 1, wantLimit: 10, wantPages: 3},
		{name: "negative page", page: -3, limit: 10, total: 5, wantPage: 1, wantLimit: 10, wantPages: 1},
		{name: "empty result", page: 1, limit: 10, total: 0, wantPage: 1, wantLimit: 10, wantPages: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.limit, tt.total)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.total, p.Total)
			assert.Equal(t, tt.wantPages, p.TotalPages)
		})
	}
}
