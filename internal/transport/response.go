package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rpggio/worklog/internal/mcp"
)

// errBadRequest marks request bodies and parameters that could not be read.
var errBadRequest = errors.New("bad request")

// statusByCode maps API error codes onto HTTP statuses.
var statusByCode = map[string]int{
	"LOG_NOT_FOUND":          http.StatusNotFound,
	"PROJECT_NOT_FOUND":      http.StatusNotFound,
	"REPORT_NOT_FOUND":       http.StatusNotFound,
	"NO_LOGS":                http.StatusNotFound,
	"DUPLICATE_CODE":         http.StatusConflict,
	"TAG_SEQUENCE_EXHAUSTED": http.StatusConflict,
	"PROJECT_REQUIRED":       http.StatusUnprocessableEntity,
	"INVALID_STATE":          http.StatusUnprocessableEntity,
	"UNKNOWN_PROJECT_CODE":   http.StatusUnprocessableEntity,
	"EMPTY_INPUT":            http.StatusBadRequest,
	"INVALID_INPUT":          http.StatusBadRequest,
	"MODEL_RESPONSE_INVALID": http.StatusBadGateway,
	"NOT_CONFIGURED":         http.StatusNotImplemented,
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": mcp.APIError{Code: code, Message: message},
	})
}

// writeError renders err with the same codes the MCP tools use.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadRequest) {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	apiErr := mcp.MapError(err)
	if apiErr == nil {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	status, ok := statusByCode[apiErr.Code]
	if !ok {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]any{"error": apiErr})
}
