package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kmmanagement/agenda/pkg/clog"
)

func TestActor(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "header set", header: "ana", want: "ana"},
		{name: "header trimmed", header: "  ana ", want: "ana"},
		{name: "missing header", header: "", want: DefaultActor},
		{name: "blank header", header: "   ", want: DefaultActor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/tasks", nil)
			r = r.WithContext(clog.ContextWithSlog(r.Context()))
			if tt.header != "" {
				r.Header.Set(ActorHeader, tt.header)
			}
			assert.Equal(t, tt.want, Actor(r))
			assert.Equal(t, tt.want, clog.GetAttributes(r.Context())[clog.ActorAttributeKey])
		})
	}
}

func TestPagination(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/tasks?limit=10&offset=20", nil)
	assert.Equal(t, Page{Limit: 10, Offset: 20}, Pagination(r))

	r = httptest.NewRequest(http.MethodGet, "/api/tasks?limit=-1&offset=x", nil)
	assert.Equal(t, Page{Limit: defaultLimit}, Pagination(r))
}
