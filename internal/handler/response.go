package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/forgo/ascend/api/internal/model"
)

// maxBodyBytes bounds request bodies. Activity events and proposals are small.
const maxBodyBytes = 64 << 10

// DataResponse wraps a successful response with optional HATEOAS links
type DataResponse struct {
	Data  interface{}       `json:"data"`
	Links map[string]string `json:"_links,omitempty"`
}

// CollectionResponse wraps a list. Pagination is present only for paged lists.
type CollectionResponse struct {
	Data       interface{}       `json:"data"`
	Pagination *PaginationInfo   `json:"pagination,omitempty"`
	Links      map[string]string `json:"_links,omitempty"`
}

// PaginationInfo describes one offset page. HasMore is set when the page
// came back full.
type PaginationInfo struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// WriteJSON writes v as the response body
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteData writes a single resource in the data envelope
func WriteData(w http.ResponseWriter, status int, data interface{}, links map[string]string) {
	WriteJSON(w, status, DataResponse{Data: data, Links: links})
}

// WriteCollection writes a list in the data envelope
func WriteCollection(w http.ResponseWriter, status int, data interface{}, page *PaginationInfo, links map[string]string) {
	WriteJSON(w, status, CollectionResponse{Data: data, Pagination: page, Links: links})
}

// WriteError writes an RFC 9457 problem
func WriteError(w http.ResponseWriter, problem *model.ProblemDetails) {
	problem.WriteJSON(w)
}

var errTrailingData = errors.New("unexpected data after JSON body")

// DecodeJSON strictly decodes exactly one JSON value from the request body.
// Unknown fields, trailing data and bodies over maxBodyBytes are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

// pageParams reads limit and offset. A missing or non-positive limit falls
// back to def, a limit above maxLimit is clamped, and a negative offset becomes 0.
// A malformed value writes a 400 and returns ok=false.
func pageParams(w http.ResponseWriter, r *http.Request, def, maxLimit int) (page PaginationInfo, ok bool) {
	limit, ok := queryInt(w, r, "limit", def)
	if !ok {
		return page, false
	}
	offset, ok := queryInt(w, r, "offset", 0)
	if !ok {
		return page, false
	}

	switch {
	case limit <= 0:
		limit = def
	case limit > maxLimit:
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return PaginationInfo{Limit: limit, Offset: offset}, true
}

// queryInt parses an optional integer query parameter. On a malformed
// value it writes a 400 and returns ok=false.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		WriteError(w, model.NewBadRequestError(name+" must be an integer"))
		return 0, false
	}
	return v, true
}
