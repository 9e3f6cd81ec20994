package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=10", nil)
	p := GetPaginationParams(e.NewContext(req, httptest.NewRecorder()))

	assert.Equal(t, PaginationParams{Page: 3, PageSize: 10, Offset: 20}, p)
}

func TestNewPaginationParams_Defaults(t *testing.T) {
	assert.Equal(t, PaginationParams{Page: 1, PageSize: 20, Offset: 0}, NewPaginationParams(0, 0))
	assert.Equal(t, PaginationParams{Page: 2, PageSize: 20, Offset: 20}, NewPaginationParams(2, 500))
}

func TestWindow(t *testing.T) {
	cases := []struct {
		name                 string
		total, limit, offset int
		start, end           int
	}{
		{"first page", 45, 20, 0, 0, 20},
		{"last partial page", 45, 20, 40, 40, 45},
		{"past the end", 45, 20, 60, 45, 45},
		{"no limit", 45, 0, 5, 5, 45},
		{"negative offset", 10, 5, -3, 0, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := Window(tc.total, tc.limit, tc.offset)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)
		})
	}
}
