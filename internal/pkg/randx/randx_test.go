package randx

import (
	"strings"
	"testing"
)

func TestToken(t *testing.T) {
	t.Parallel()

	a, err := Token(FormTokenLength)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	b, _ := Token(FormTokenLength)

	if len(a) != FormTokenLength || !IsBase62(a) {
		t.Fatalf("unexpected token %q", a)
	}
	if a == b {
		t.Fatal("expected distinct tokens")
	}
}

func TestIsBase62(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want bool
	}{
		{"abcXYZ019", true},
		{"", false},
		{"abc-def", false},
		{"тест", false},
	}

	for _, tc := range testCases {
		if got := IsBase62(tc.in); got != tc.want {
			t.Fatalf("IsBase62(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSessionIDAndPreviewKey(t *testing.T) {
	t.Parallel()

	id := SessionID()
	if !IsValidSessionID(id) || IsValidSessionID("not-a-uuid") {
		t.Fatalf("unexpected session id validation for %q", id)
	}

	key := PreviewKey(id, ".PNG")
	if !strings.HasPrefix(key, "previews/"+id+"/") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("unexpected preview key %q", key)
	}
	if !strings.HasSuffix(PreviewKey(id, ""), ".bin") {
		t.Fatal("expected fallback extension")
	}
}
