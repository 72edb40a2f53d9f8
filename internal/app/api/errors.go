package api

import (
	"errors"
	"net/http"

	"arzweb/internal/pkg/errs"
)

// AsCustomError maps an API failure to the message shown to the user: transport
// failures become a generic connection error and server messages are passed through.
func AsCustomError(err error) *errs.CustomError {
	if err == nil {
		return nil
	}

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		return customErr
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return errs.NewError(errs.ErrUnknown, err)
	}

	switch {
	case reqErr.Transport:
		return errs.NewError(errs.ErrConnection)
	case reqErr.ServerMessage != "":
		e := errs.NewError(errs.ErrRemote, reqErr.ServerMessage)
		if reqErr.StatusCode >= 400 && reqErr.StatusCode < 500 {
			e.Status = reqErr.StatusCode
		}
		return e
	case reqErr.StatusCode == http.StatusUnauthorized:
		return errs.NewError(errs.ErrUnauthorized)
	default:
		return errs.NewError(errs.ErrRemoteGeneric)
	}
}
