package sqlkit_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  sqlkit.Pagination
	}{
		{"defaults", "", sqlkit.Pagination{Page: 1, PerPage: 20}},
		{"explicit", "page=3&limit=50", sqlkit.Pagination{Page: 3, PerPage: 50}},
		{"limit clamped to max", "limit=500", sqlkit.Pagination{Page: 1, PerPage: 100}},
		{"zero and negative ignored", "page=0&limit=-5", sqlkit.Pagination{Page: 1, PerPage: 20}},
		{"garbage ignored", "page=abc&limit=xyz", sqlkit.Pagination{Page: 1, PerPage: 20}},
		{"noPagination", "noPagination=true", sqlkit.Pagination{Page: 1, PerPage: 20, NoPagination: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, sqlkit.ParsePagination(q))
		})
	}
}

func TestPagination_LimitOffset(t *testing.T) {
	assert.Equal(t, " LIMIT 20 OFFSET 0", sqlkit.Pagination{Page: 1, PerPage: 20}.LimitOffset())
	assert.Equal(t, " LIMIT 25 OFFSET 50", sqlkit.Pagination{Page: 3, PerPage: 25}.LimitOffset())
	assert.Equal(t, "", sqlkit.Pagination{NoPagination: true}.LimitOffset())
}

func TestPagination_TotalPages(t *testing.T) {
	p := sqlkit.Pagination{Page: 1, PerPage: 20}
	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(20))
	assert.Equal(t, 2, p.TotalPages(21))
	assert.Equal(t, 5, p.TotalPages(100))

	noPg := sqlkit.Pagination{NoPagination: true, PerPage: 20}
	assert.Equal(t, 1, noPg.TotalPages(999))
	assert.Equal(t, 0, noPg.TotalPages(0))
}
