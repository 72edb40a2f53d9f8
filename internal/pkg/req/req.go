/*
Package req provides helpers for HTTP request parsing and data binding.

It wraps JSON decoding and multipart parsing with body size limits and maps
failures to errs codes so handlers can report them uniformly.
*/
package req

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"arzweb/internal/pkg/errs"
)

const (
	// MaxFormMemory is the in-memory part of a parsed multipart form; larger files spill to disk.
	MaxFormMemory int64 = 8 << 20

	// DefaultMaxBody caps request bodies when the caller does not pass a limit.
	DefaultMaxBody int64 = 25 << 20

	maxJSONBody int64 = 64 << 10
)

// Upload is a file received in a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the number of bytes received.
func (u *Upload) Size() int64 {
	return int64(len(u.Data))
}

// BindJSON decodes a JSON request body into dst, rejecting unknown fields and trailing data.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	return nil
}

// SetupMultipart parses a multipart or URL-encoded body no larger than maxBody bytes.
// A non-positive maxBody uses DefaultMaxBody.
func SetupMultipart(w http.ResponseWriter, r *http.Request, maxBody int64) *errs.CustomError {
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(MaxFormMemory)
	} else {
		err = r.ParseForm()
	}

	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}

// FormFile reads the named file of a parsed multipart form into memory.
// It returns nil without error when the field is absent or empty.
func FormFile(r *http.Request, field string) (*Upload, *errs.CustomError) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil
	}

	header := r.MultipartForm.File[field][0]
	if header.Size == 0 {
		return nil, nil
	}

	f, err := header.Open()
	if err != nil {
		return nil, errs.NewError(errs.ErrFormParseFailed)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errs.NewError(errs.ErrFormParseFailed)
	}

	return &Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// Checked reports whether a checkbox-style form value is set.
func Checked(r *http.Request, field string) bool {
	switch strings.ToLower(r.FormValue(field)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}
