// Package httpx holds request helpers shared by the JSON handlers.
package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/protobuf/proto"

	"github.com/kmmanagement/agenda/pkg/cerr"
	"github.com/kmmanagement/agenda/pkg/clog"
)

// DefaultActor is stamped on writes made without a known user.
const DefaultActor = "system"

const (
	ActorHeader = "X-User-Name"

	defaultLimit = 50
	maxBodyBytes = 1 << 20
)

// DecodeJSON reads the request body into v. Unknown fields are rejected.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return cerr.NewError(cerr.InvalidArgument, "invalid request body", err).
			AddDetailMessage(err.Error())
	}
	return nil
}

type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// Pagination reads ?limit=&offset=. Missing or non-positive values fall back
// to the defaults.
func Pagination(r *http.Request) Page {
	p := Page{Limit: defaultLimit}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		p.Offset = v
	}
	return p
}

// Actor returns the user acting on the request and records it on the
// request's log attributes.
func Actor(r *http.Request) string {
	actor := strings.TrimSpace(r.Header.Get(ActorHeader))
	if actor == "" {
		actor = DefaultActor
	}
	clog.AddActor(r.Context(), actor)
	return actor
}

// RequiredViolation is the detail reported for a missing field.
func RequiredViolation(field string) proto.Message {
	return cerr.NewViolation(fmt.Sprintf("%s is required", field), "required")
}
