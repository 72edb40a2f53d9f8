package req

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"arzweb/internal/pkg/errs"
)

func multipartRequest(t *testing.T, fields map[string]string, fileField string, file []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+fileField+`"; filename="pic.png"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write(file)
	}
	mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/upload", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestSetupMultipartAndFormFile(t *testing.T) {
	t.Parallel()

	r := multipartRequest(t, map[string]string{"title": "hello", "confirm": "on"}, "image", []byte("pngdata"))
	w := httptest.NewRecorder()

	if err := SetupMultipart(w, r, 1<<20); err != nil {
		t.Fatalf("setup multipart: %v", err)
	}
	if r.FormValue("title") != "hello" || !Checked(r, "confirm") {
		t.Fatal("expected form values to be parsed")
	}

	up, err := FormFile(r, "image")
	if err != nil || up == nil {
		t.Fatalf("expected upload, got %v %v", up, err)
	}
	if up.ContentType != "image/png" || up.Size() != 7 || up.Filename != "pic.png" {
		t.Fatalf("unexpected upload: %+v", up)
	}

	missing, err := FormFile(r, "proof")
	if err != nil || missing != nil {
		t.Fatalf("expected nil upload for missing field, got %v %v", missing, err)
	}
}

func TestSetupMultipartTooLarge(t *testing.T) {
	t.Parallel()

	r := multipartRequest(t, nil, "image", bytes.Repeat([]byte("x"), 4096))
	err := SetupMultipart(httptest.NewRecorder(), r, 1024)
	if err == nil || err.Code != errs.ErrRequestEntityTooLarge {
		t.Fatalf("expected too large error, got %v", err)
	}
}

func TestSetupURLEncoded(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader("nickname=bob&password=secret"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := SetupMultipart(httptest.NewRecorder(), r, 0); err != nil {
		t.Fatalf("setup form: %v", err)
	}
	if r.FormValue("nickname") != "bob" {
		t.Fatal("expected url-encoded values")
	}
}

func TestBindJSON(t *testing.T) {
	t.Parallel()

	var dst struct {
		Theme string `json:"theme"`
	}

	r := httptest.NewRequest(http.MethodPost, "/settings/theme", strings.NewReader(`{"theme":"light"}`))
	r.Header.Set("Content-Type", "application/json")
	if err := BindJSON(httptest.NewRecorder(), r, &dst); err != nil || dst.Theme != "light" {
		t.Fatalf("unexpected bind result: %v %q", err, dst.Theme)
	}

	bad := httptest.NewRequest(http.MethodPost, "/settings/theme", strings.NewReader(`{"theme":"light","x":1}`))
	bad.Header.Set("Content-Type", "application/json")
	if err := BindJSON(httptest.NewRecorder(), bad, &dst); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}

	plain := httptest.NewRequest(http.MethodPost, "/settings/theme", strings.NewReader(`{}`))
	if err := BindJSON(httptest.NewRecorder(), plain, &dst); err == nil || err.Code != errs.ErrUnsupportedMediaType {
		t.Fatalf("expected media type error, got %v", err)
	}
}
