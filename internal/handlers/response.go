package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xelth-com/facilitymap/internal/layout"
	"go.uber.org/zap"
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondData wraps a successful payload as {"data": ...}
func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, map[string]interface{}{"data": data})
}

// respondError sends {"error": {"code", "message"}}
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{"code": code, "message": message},
	})
}

func statusFor(code layout.Code) int {
	switch code {
	case layout.CodeValidation:
		return http.StatusBadRequest
	case layout.CodeNotFound:
		return http.StatusNotFound
	case layout.CodeConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondErr translates an engine error into the error envelope. Anything
// that is not a layout error is logged and reported without detail.
func (r *Router) respondErr(w http.ResponseWriter, req *http.Request, err error) {
	le, ok := layout.AsError(err)
	if !ok {
		r.log.Error("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	body := map[string]interface{}{
		"code":    le.Code,
		"message": le.Message,
	}
	details := map[string]interface{}{}
	for k, v := range le.Details {
		details[k] = v
	}
	if le.Field != "" {
		details["field"] = le.Field
	}
	if le.ItemID != "" {
		details["itemId"] = le.ItemID
	}
	if len(details) > 0 {
		body["details"] = details
	}
	respondJSON(w, statusFor(le.Code), map[string]interface{}{"error": body})
}

// decode reads a JSON body into v
func decode(req *http.Request, v interface{}) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		var syntax *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr):
			return layout.Validation(typeErr.Field, "must be %s", typeErr.Type)
		case errors.As(err, &syntax):
			return layout.Validation("body", "malformed JSON at offset %d", syntax.Offset)
		default:
			return layout.Validation("body", "invalid request payload: %v", err)
		}
	}
	return nil
}
