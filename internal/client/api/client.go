// Package api is the HTTP client for the chat server's REST surface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	appErr "termchat/pkg/errors"
)

// FileInfo mirrors the server's upload listing entry.
type FileInfo struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	TraceID string          `json:"trace_id,omitempty"`
}

// Client wraps requests against the server REST API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokenProvider func() string
}

func New(baseURL string, timeout time.Duration, tokenProvider func() string) *Client {
	return &Client{
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: timeout},
		tokenProvider: tokenProvider,
	}
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   string `json:"expiresAt"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	var out loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/login", body, &out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// Register creates an account on the server.
func (c *Client) Register(ctx context.Context, username, password string) error {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	return c.doJSON(ctx, http.MethodPost, "/api/v1/auth/register", body, nil)
}

// ListFiles returns the server-side upload listing.
func (c *Client) ListFiles(ctx context.Context) ([]FileInfo, error) {
	var out struct {
		Files []FileInfo `json:"files"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/files", nil, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// Upload streams a local file to the server as multipart form data.
// onProgress, when non-nil, receives byte counts as the body is read.
func (c *Client) Upload(ctx context.Context, localPath string, onProgress io.Writer) (FileInfo, error) {
	var info FileInfo
	f, err := os.Open(localPath)
	if err != nil {
		return info, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return info, err
	}
	src := io.Reader(f)
	if onProgress != nil {
		src = io.TeeReader(f, onProgress)
	}
	if _, err := io.Copy(part, src); err != nil {
		return info, fmt.Errorf("read %s: %w", localPath, err)
	}
	if err := mw.Close(); err != nil {
		return info, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/upload", &buf)
	if err != nil {
		return info, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return info, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := decodeEnvelope(resp, &info); err != nil {
		return FileInfo{}, err
	}
	return info, nil
}

// Download streams a server file into destDir. onProgress, when non-nil,
// receives byte counts as the body arrives. Returns the local path written
// and the total size reported by the server.
func (c *Client) Download(ctx context.Context, name, destDir string, onProgress func(total int64) io.Writer) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/files/"+url.PathEscape(name), nil)
	if err != nil {
		return "", 0, err
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		var discard any
		return "", 0, decodeEnvelope(resp, &discard)
	}

	local := filepath.Join(destDir, filepath.Base(name))
	f, err := os.Create(local)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", local, err)
	}
	dst := io.Writer(f)
	if onProgress != nil {
		dst = io.MultiWriter(f, onProgress(resp.ContentLength))
	}
	written, err := io.Copy(dst, resp.Body)
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(local)
		return "", 0, fmt.Errorf("download %s: %w", name, err)
	}
	if closeErr != nil {
		_ = os.Remove(local)
		return "", 0, closeErr
	}
	return local, written, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeEnvelope(resp, out)
}

func (c *Client) setAuth(req *http.Request) {
	if c.tokenProvider != nil {
		if token := c.tokenProvider(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

func decodeEnvelope(resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response failed: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(raw))
	}
	if env.Code != int(appErr.Success) {
		return appErr.Newf(appErr.ErrorCode(env.Code), "%s", env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data failed: %w", err)
		}
	}
	return nil
}
