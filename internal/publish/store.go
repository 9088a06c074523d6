// SPDX-License-Identifier: MIT

// Package publish uploads transcoded artifacts to the remote object
// store and returns a stable public locator.
package publish

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"
)

// UploadResult is the store's answer to a successful upload.
type UploadResult struct {
	// Locator is the public URL of the stored artifact.
	Locator string
	// Bytes is the store-reported size.
	Bytes int64
	// ID is the store-assigned identifier.
	ID string
}

// Store is the opaque remote-store capability. Implementations raise
// errors whose message text is phrase-classified by the publish stage.
type Store interface {
	Upload(ctx context.Context, path, publicID string) (*UploadResult, error)
}

// HTTPStore uploads via the store's signed multipart HTTP API.
type HTTPStore struct {
	CloudName string
	APIKey    string
	APISecret string
	// UploadURL overrides the derived endpoint (tests, proxies).
	UploadURL string

	Client *http.Client

	// now is injectable for signature tests.
	now func() time.Time
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Bytes     int64  `json:"bytes"`
	PublicID  string `json:"public_id"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *HTTPStore) endpoint() string {
	if s.UploadURL != "" {
		return s.UploadURL
	}
	return fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/video/upload", s.CloudName)
}

func (s *HTTPStore) httpClient() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return &http.Client{Timeout: 10 * time.Minute}
}

// Upload streams the file as a signed multipart request.
func (s *HTTPStore) Upload(ctx context.Context, path, publicID string) (*UploadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = file.Close() }()

	nowFn := s.now
	if nowFn == nil {
		nowFn = time.Now
	}
	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(nowFn().Unix(), 10),
		"overwrite": "true",
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		err := writeUpload(writer, file, params, s.APIKey, sign(params, s.APISecret))
		_ = writer.Close()
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(), pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("upload failed: HTTP %d: %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload failed: HTTP %d: %s", resp.StatusCode, parsed.Error.Message)
	}

	return &UploadResult{
		Locator: parsed.SecureURL,
		Bytes:   parsed.Bytes,
		ID:      parsed.PublicID,
	}, nil
}

func writeUpload(writer *multipart.Writer, file *os.File, params map[string]string, apiKey, signature string) error {
	for k, v := range params {
		if err := writer.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := writer.WriteField("api_key", apiKey); err != nil {
		return err
	}
	if err := writer.WriteField("signature", signature); err != nil {
		return err
	}

	part, err := writer.CreateFormFile("file", file.Name())
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

// sign builds the store's request signature: SHA-1 over the sorted
// k=v parameter string concatenated with the secret.
func sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	toSign := ""
	for i, k := range keys {
		if i > 0 {
			toSign += "&"
		}
		toSign += k + "=" + params[k]
	}
	sum := sha1.Sum([]byte(toSign + secret))
	return hex.EncodeToString(sum[:])
}
