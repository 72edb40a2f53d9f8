package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"arzweb/internal/app/market"
)

// File is an upload forwarded to the API.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Me returns the user behind creds ("who am I").
func (c *Client) Me(ctx context.Context, creds Credentials) (market.User, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, creds, request{op: "get current user", method: http.MethodGet, path: "/api/me"}, &raw); err != nil {
		return market.User{}, err
	}
	o, ok := decodeObject(raw)
	if !ok {
		return market.User{}, &RequestError{Op: "get current user", StatusCode: http.StatusOK, Err: errMalformed}
	}
	return toUser(o), nil
}

// Refresh asks the API to rotate the access token held in creds.
func (c *Client) Refresh(ctx context.Context, creds Credentials) error {
	return c.doJSON(ctx, creds, request{op: "refresh token", method: http.MethodPost, path: "/api/refresh"}, nil)
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
	ClientIP string `json:"client_ip,omitempty"`
}

// Login signs in. The API answers with session cookies stored into creds.
func (c *Client) Login(ctx context.Context, creds Credentials, in LoginRequest) error {
	req, err := jsonRequest("login", http.MethodPost, "/api/login", in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, req, nil)
}

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// RegisterResult reports whether the new account must confirm its email first.
type RegisterResult struct {
	RequiresVerify bool   `json:"requires_verify"`
	EmailSent      bool   `json:"email_sent"`
	Message        string `json:"message"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, creds Credentials, in RegisterRequest) (RegisterResult, error) {
	var out RegisterResult
	req, err := jsonRequest("register", http.MethodPost, "/api/register", in)
	if err != nil {
		return out, err
	}
	err = c.doJSON(ctx, creds, req, &out)
	return out, err
}

// VerifyEmailRequest is the body of POST /api/verify-email.
type VerifyEmailRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	ClientIP string `json:"client_ip,omitempty"`
}

// VerifyEmail confirms a registration code. On success the API signs the user in.
func (c *Client) VerifyEmail(ctx context.Context, creds Credentials, in VerifyEmailRequest) error {
	req, err := jsonRequest("verify email", http.MethodPost, "/api/verify-email", in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, req, nil)
}

// ResendCode asks for a new verification email.
func (c *Client) ResendCode(ctx context.Context, creds Credentials, email string) error {
	req, err := jsonRequest("resend code", http.MethodPost, "/api/resend-code", map[string]string{"email": email})
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, req, nil)
}

// Logout ends the remote session.
func (c *Client) Logout(ctx context.Context, creds Credentials) error {
	return c.doJSON(ctx, creds, request{op: "logout", method: http.MethodPost, path: "/api/logout"}, nil)
}

// ProfileField names a single-value profile setting.
type ProfileField string

const (
	FieldNickname    ProfileField = "nickname"
	FieldEmail       ProfileField = "email"
	FieldTelegram    ProfileField = "telegram"
	FieldDescription ProfileField = "description"
	FieldTheme       ProfileField = "theme"
)

// UpdateProfileField saves one setting through PUT /api/profile/update-{field}.
func (c *Client) UpdateProfileField(ctx context.Context, creds Credentials, field ProfileField, value string) error {
	req, err := jsonRequest("update "+string(field), http.MethodPut, "/api/profile/update-"+string(field), map[string]string{string(field): value})
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, req, nil)
}

// PasswordRequest is the body of PUT /api/profile/update-password.
type PasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UpdatePassword changes the account password.
func (c *Client) UpdatePassword(ctx context.Context, creds Credentials, in PasswordRequest) error {
	req, err := jsonRequest("update password", http.MethodPut, "/api/profile/update-password", in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, req, nil)
}

// UpdateAvatar uploads a new avatar.
func (c *Client) UpdateAvatar(ctx context.Context, creds Credentials, f File) error {
	req, err := multipartRequest("update avatar", http.MethodPost, "/api/profile/update-avatar", nil, map[string]File{"avatar": f})
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, req, nil)
}

// UpdateBackground uploads a new profile background.
func (c *Client) UpdateBackground(ctx context.Context, creds Credentials, f File) error {
	req, err := multipartRequest("update background", http.MethodPost, "/api/profile/update-background", nil, map[string]File{"background": f})
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, req, nil)
}

// DeleteBackground removes the profile background.
func (c *Client) DeleteBackground(ctx context.Context, creds Credentials) error {
	return c.doJSON(ctx, creds, request{op: "delete background", method: http.MethodDelete, path: "/api/profile/delete-background"}, nil)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// formField is an ordered multipart text field.
type formField struct {
	name  string
	value string
}

func multipartRequest(op, method, path string, fields []formField, files map[string]File) (request, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return request{}, &RequestError{Op: op, Err: err}
		}
	}

	for name, file := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(name), quoteEscaper.Replace(file.Name)))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return request{}, &RequestError{Op: op, Err: err}
		}
		if _, err := part.Write(file.Data); err != nil {
			return request{}, &RequestError{Op: op, Err: err}
		}
	}

	if err := mw.Close(); err != nil {
		return request{}, &RequestError{Op: op, Err: err}
	}

	return request{
		op:          op,
		method:      method,
		path:        path,
		contentType: mw.FormDataContentType(),
		body:        body.Bytes(),
	}, nil
}
