package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSupabaseUpload(t *testing.T) {
	var gotPath, gotUpsert, gotAuth string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUpsert = r.Header.Get("x-upsert")
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]string{"Key": "course-pdfs/lessons/1.pdf"})
	}))
	defer srv.Close()

	s := NewSupabaseStorage(srv.URL, "service-key", "course-pdfs")

	path, err := s.Upload(context.Background(), "", "lessons/1.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if path != "lessons/1.pdf" {
		t.Errorf("path = %q, want lessons/1.pdf", path)
	}
	if gotPath != "/storage/v1/object/course-pdfs/lessons/1.pdf" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotUpsert != "true" {
		t.Errorf("x-upsert = %q, want true", gotUpsert)
	}
	if gotAuth != "Bearer service-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if string(gotBody) != "%PDF-1.4" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestSupabaseUploadBucketOverride(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSupabaseStorage(srv.URL, "k", "default-bucket")
	if _, err := s.Upload(context.Background(), "other-bucket", "a.pdf", nil); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if gotPath != "/storage/v1/object/other-bucket/a.pdf" {
		t.Errorf("request path = %q, want explicit bucket", gotPath)
	}
}

func TestSupabaseUploadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{"statusCode": 403, "message": "access denied"})
	}))
	defer srv.Close()

	s := NewSupabaseStorage(srv.URL, "k", "b")
	if _, err := s.Upload(context.Background(), "", "a.pdf", nil); err == nil {
		t.Fatal("expected error on 403 response")
	}
}

func TestSupabaseSignedURL(t *testing.T) {
	cases := []struct {
		name string
		body map[string]string
	}{
		{"camel key", map[string]string{"signedURL": "/object/sign/b/a.pdf?token=abc"}},
		{"snake key", map[string]string{"signed_url": "/object/sign/b/a.pdf?token=abc"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotExpires int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					ExpiresIn int `json:"expiresIn"`
				}
				_ = json.NewDecoder(r.Body).Decode(&req)
				gotExpires = req.ExpiresIn
				_ = json.NewEncoder(w).Encode(tc.body)
			}))
			defer srv.Close()

			s := NewSupabaseStorage(srv.URL, "k", "b")
			u, err := s.SignedURL(context.Background(), "", "a.pdf", 90*time.Second)
			if err != nil {
				t.Fatalf("SignedURL: %v", err)
			}
			want := srv.URL + "/storage/v1/object/sign/b/a.pdf?token=abc"
			if u != want {
				t.Errorf("url = %q, want %q", u, want)
			}
			if gotExpires != 90 {
				t.Errorf("expiresIn = %d, want 90", gotExpires)
			}
		})
	}
}

func TestSupabaseSignedURLAbsolute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"signedURL": "https://cdn.example.com/a.pdf?token=x"})
	}))
	defer srv.Close()

	s := NewSupabaseStorage(srv.URL, "k", "b")
	u, err := s.SignedURL(context.Background(), "", "a.pdf", time.Minute)
	if err != nil {
		t.Fatalf("SignedURL: %v", err)
	}
	if u != "https://cdn.example.com/a.pdf?token=x" {
		t.Errorf("absolute url rewritten: %q", u)
	}
}

func TestSupabaseSignedURLMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"unexpected": "value"})
	}))
	defer srv.Close()

	s := NewSupabaseStorage(srv.URL, "k", "b")
	_, err := s.SignedURL(context.Background(), "", "a.pdf", time.Minute)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestStorageArgumentValidation(t *testing.T) {
	s := NewSupabaseStorage("http://unused.invalid", "k", "b")

	if _, err := s.Upload(context.Background(), "", "", nil); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("Upload empty path: err = %v, want ErrEmptyPath", err)
	}
	if _, err := s.SignedURL(context.Background(), "", "", time.Minute); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("SignedURL empty path: err = %v, want ErrEmptyPath", err)
	}
	if _, err := s.SignedURL(context.Background(), "", "a.pdf", 0); !errors.Is(err, ErrInvalidTTL) {
		t.Errorf("SignedURL zero ttl: err = %v, want ErrInvalidTTL", err)
	}
}
