package pagination_test

import (
	"math"
	"net/http/httptest"
	"testing"

	"placement-service/internal/pagination"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query string
		want  pagination.Params
	}{
		{"", pagination.Params{Page: 1, Limit: 10}},
		{"?page=3&limit=20", pagination.Params{Page: 3, Limit: 20}},
		{"?page=0&limit=-5", pagination.Params{Page: 1, Limit: 10}},
		{"?page=abc&limit=xyz", pagination.Params{Page: 1, Limit: 10}},
		{"?limit=1000", pagination.Params{Page: 1, Limit: 100}},
		{"?page=9223372036854775807&limit=100", pagination.Params{Page: pagination.MaxPage, Limit: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/applications"+tt.query, nil)
			assert.Equal(t, tt.want, pagination.FromRequest(r))
		})
	}
}

func TestParams_OffsetAndMeta(t *testing.T) {
	p := pagination.New(3, 10)
	assert.Equal(t, 20, p.Offset())

	assert.Equal(t, pagination.Meta{Page: 3, Limit: 10, Total: 21, TotalPages: 3}, p.Meta(21))
	assert.Equal(t, pagination.Meta{Page: 3, Limit: 10, Total: 0, TotalPages: 0}, p.Meta(0))
	assert.Equal(t, 2, pagination.New(1, 10).Meta(20).TotalPages)
}

func TestParams_HugePageKeepsOffsetNonNegative(t *testing.T) {
	for _, limit := range []int{1, 10, pagination.MaxLimit} {
		p := pagination.New(math.MaxInt, limit)
		assert.Equal(t, pagination.MaxPage, p.Page)
		assert.GreaterOrEqual(t, p.Offset(), 0, "limit %d", limit)
	}
}

func TestNewPage_NilItemsEncodeAsEmpty(t *testing.T) {
	page := pagination.NewPage[string](nil, pagination.New(1, 10), 0)
	assert.NotNil(t, page.Items)
	assert.Len(t, page.Items, 0)
}
