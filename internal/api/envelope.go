package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readingnook/readingnook-server/internal/errors"
)

// envelopeVersion is bumped on breaking changes to the envelope shape.
const envelopeVersion = 1

// Envelope is the JSON shape of every response body.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps huma response bodies. Errors become
// {success:false, error, code}; anything else lands under data.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if _, already := v.(*Envelope); already {
		return v, nil
	}

	switch e := v.(type) {
	case *APIError:
		return &Envelope{
			Version: envelopeVersion,
			Error:   e.Message,
			Code:    e.Code,
			Details: e.Details,
		}, nil
	case *errors.Error:
		msg := e.Message
		if e.HTTPStatus() >= http.StatusInternalServerError {
			// Internal causes stay in the logs.
			msg = http.StatusText(e.HTTPStatus())
		}
		return &Envelope{
			Version: envelopeVersion,
			Error:   msg,
			Code:    string(e.Code),
			Details: e.Details,
		}, nil
	case *huma.ErrorModel:
		return &Envelope{
			Version: envelopeVersion,
			Error:   e.Detail,
			Code:    statusToCode(e.Status),
			Details: e.Errors,
		}, nil
	}

	return &Envelope{
		Version: envelopeVersion,
		Success: !strings.HasPrefix(status, "4") && !strings.HasPrefix(status, "5"),
		Data:    v,
	}, nil
}

// writeRateLimited answers a request rejected before reaching huma.
func writeRateLimited(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(Envelope{
		Version: envelopeVersion,
		Error:   "Too many catalog requests, slow down",
		Code:    string(errors.CodeRateLimited),
	})
}
