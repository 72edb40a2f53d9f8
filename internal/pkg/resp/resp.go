/*
Package resp provides helpers for the two response shapes the web client produces:
the JSON envelope used by script-driven requests (pagination, live counters) and
redirects that work for both classic form posts and fetch calls.
*/
package resp

import (
	"encoding/json"
	"net/http"
	"strings"

	"arzweb/internal/pkg/errs"
	"arzweb/internal/pkg/logx"
)

// JSONResponse is the envelope returned to script-driven requests.
type JSONResponse struct {
	// Code is 0 for success, otherwise an errs code.
	Code int `json:"code"`

	// Message is the user-facing status text.
	Message string `json:"message"`

	// Data is the optional payload.
	Data any `json:"data,omitempty"`
}

// redirectPayload tells a fetch caller where the browser should go next.
type redirectPayload struct {
	Redirect string `json:"redirect"`
}

// WantsJSON reports whether the request came from the page script rather than a form post.
func WantsJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "fetch" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// RespondJSON sets the content type and writes payload with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.FromContext(r.Context()).Error().
			Err(err).
			Int("http_status", httpStatus).
			Msg("Error encoding JSON response")

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	w.Write(response)
}

// RespondSuccess writes a 200 envelope carrying data.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// RespondError writes an error envelope with the error's HTTP status.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}

// Redirect sends the browser to location. Script callers receive the target in the
// envelope and navigate themselves, since fetch follows redirects silently.
func Redirect(w http.ResponseWriter, r *http.Request, location string) {
	if WantsJSON(r) {
		RespondSuccess(w, r, redirectPayload{Redirect: location})
		return
	}

	status := http.StatusFound
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		status = http.StatusSeeOther
	}
	http.Redirect(w, r, location, status)
}
