package web

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/away0419/eunoia/internal/errors"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// renderError writes a JSON error envelope. Internal errors are reduced to a
// generic message so paths and SQL never reach the client.
func renderError(w http.ResponseWriter, err error) {
	var eErr *errors.EunoiaError
	if !stderrors.As(err, &eErr) {
		eErr = errors.NewInternal(err)
	}

	errorObj := map[string]any{
		"code":    string(eErr.Code),
		"message": eErr.Message,
		"status":  eErr.Status,
	}
	if eErr.Code == errors.ErrInternal {
		errorObj["message"] = "an internal error occurred"
	} else if eErr.Details != nil {
		errorObj["details"] = eErr.Details
	}

	renderJSON(w, eErr.Status, map[string]any{"error": errorObj})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}

// respond writes out with the given status, or the error envelope.
func respond[T any](w http.ResponseWriter, status int, out T, err error) {
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, status, out)
}

// decodeBody strictly decodes a JSON request body into v. An empty body
// leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return errors.NewInvalidRequest("invalid request body: " + err.Error())
	}
	return nil
}
