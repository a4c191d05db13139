package pagination

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func TestFromRequestDefaults(t *testing.T) {
	req := httptest.NewRequest("GET", "/products", nil)

	params, err := FromRequest(req, Options{})
	if err != nil {
		t.Fatalf("FromRequest: %v", err)
	}
	if params.PageSize != DefaultPageSize {
		t.Fatalf("expected default page size %d, got %d", DefaultPageSize, params.PageSize)
	}
	if params.PageToken != "" {
		t.Fatalf("expected empty page token, got %q", params.PageToken)
	}
}

func TestFromRequestCapsPageSize(t *testing.T) {
	req := httptest.NewRequest("GET", "/products?pageSize=500", nil)

	params, err := FromRequest(req, Options{MaxPageSize: 25})
	if err != nil {
		t.Fatalf("FromRequest: %v", err)
	}
	if params.PageSize != 25 {
		t.Fatalf("expected capped page size 25, got %d", params.PageSize)
	}
}

func TestFromRequestRejectsBadPageSize(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-3"} {
		req := httptest.NewRequest("GET", "/products?pageSize="+raw, nil)
		if _, err := FromRequest(req, Options{}); !errors.Is(err, ErrInvalidPageSize) {
			t.Fatalf("pageSize=%s: expected ErrInvalidPageSize, got %v", raw, err)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := EncodeToken(Cursor{AfterSKU: "PAPER-STD-80"})
	if err != nil {
		t.Fatalf("EncodeToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	cursor, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("DecodeToken: %v", err)
	}
	if cursor.AfterSKU != "PAPER-STD-80" {
		t.Fatalf("expected cursor after PAPER-STD-80, got %q", cursor.AfterSKU)
	}
}

func TestDecodeTokenRejectsGarbage(t *testing.T) {
	if _, err := DecodeToken("!!not-base64!!"); !errors.Is(err, ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestEncodeTokenEmptyCursor(t *testing.T) {
	token, err := EncodeToken(Cursor{})
	if err != nil {
		t.Fatalf("EncodeToken: %v", err)
	}
	if token != "" {
		t.Fatalf("expected empty token for empty cursor, got %q", token)
	}
}
