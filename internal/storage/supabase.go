package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrMalformedResponse is returned when the storage API answers a sign
// request without a signed URL under either key spelling.
var ErrMalformedResponse = errors.New("storage: response contains no signed url")

// SupabaseStorage implements Storage against the Supabase storage REST API
// using a service-role key. The key grants full bucket access, so this type
// must only be constructed server-side.
type SupabaseStorage struct {
	baseURL    string // project base, e.g. "https://abc.supabase.co"
	serviceKey string
	bucket     string // default bucket
	httpc      *http.Client
}

// NewSupabaseStorage returns a SupabaseStorage bound to a project URL,
// service-role key, and default bucket.
func NewSupabaseStorage(baseURL, serviceKey, bucket string) *SupabaseStorage {
	return &SupabaseStorage{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		httpc:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload sends data to bucket/path with upsert semantics and returns the
// path on success.
func (s *SupabaseStorage) Upload(ctx context.Context, bucket, path string, data []byte) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if bucket == "" {
		bucket = s.bucket
	}

	endpoint := s.objectURL("object", bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("x-upsert", "true")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload %s/%s: %s", bucket, path, apiError(resp))
	}
	return path, nil
}

// SignedURL requests a time-limited download URL for bucket/path. The API
// has answered with both "signedURL" and "signed_url" across versions, so
// both spellings are accepted.
func (s *SupabaseStorage) SignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	if err := validate(path, ttl); err != nil {
		return "", err
	}
	if bucket == "" {
		bucket = s.bucket
	}

	body, err := json.Marshal(map[string]int{"expiresIn": int(ttl.Seconds())})
	if err != nil {
		return "", fmt.Errorf("encode sign request: %w", err)
	}

	endpoint := s.objectURL("object/sign", bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build sign request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("sign %s/%s: %w", bucket, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("sign %s/%s: %s", bucket, path, apiError(resp))
	}

	var out struct {
		SignedURL  string `json:"signedURL"`
		SignedURL2 string `json:"signed_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode sign response: %w", err)
	}

	signed := out.SignedURL
	if signed == "" {
		signed = out.SignedURL2
	}
	if signed == "" {
		return "", ErrMalformedResponse
	}

	// The API returns a path relative to /storage/v1.
	if strings.HasPrefix(signed, "/") {
		signed = s.baseURL + "/storage/v1" + signed
	}
	return signed, nil
}

// objectURL builds {base}/storage/v1/{op}/{bucket}/{path} with each path
// segment escaped.
func (s *SupabaseStorage) objectURL(op, bucket, path string) string {
	segs := []string{}
	for _, p := range strings.Split(path, "/") {
		segs = append(segs, url.PathEscape(p))
	}
	return s.baseURL + "/storage/v1/" + op + "/" + url.PathEscape(bucket) + "/" + strings.Join(segs, "/")
}

// apiError extracts the error message from a non-2xx storage API response.
func apiError(resp *http.Response) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &e) == nil {
		if e.Message != "" {
			return fmt.Sprintf("status %d: %s", resp.StatusCode, e.Message)
		}
		if e.Error != "" {
			return fmt.Sprintf("status %d: %s", resp.StatusCode, e.Error)
		}
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
