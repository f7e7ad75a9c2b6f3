// Package woundapi is the HTTP client for the remote wound-care REST backend.
package woundapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"woundtrack-backend/internal/reference"
)

const maxErrorBody = 64 << 10

// Client calls the backend on behalf of a signed-in user. The caller's access
// token is forwarded as a bearer token on every request. Calls are never retried.
type Client struct {
	baseURL string
	base    http.RoundTripper
	timeout time.Duration
}

// New constructs a Client for baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		base:    http.DefaultTransport,
		timeout: timeout,
	}
}

// WithTransport swaps the underlying transport, mainly for tests.
func (c *Client) WithTransport(rt http.RoundTripper) *Client {
	cp := *c
	cp.base = rt
	return &cp
}

// FetchReferenceEnumeration loads the picker entries of a reference table.
func (c *Client) FetchReferenceEnumeration(ctx context.Context, token, name string) ([]reference.Option, error) {
	var out []reference.Option
	path := "/reference/" + url.PathEscape(name)
	if err := c.doJSON(ctx, token, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadImage posts a photo as multipart/form-data under the "file" field.
func (c *Client) UploadImage(ctx context.Context, token, fileName, contentType string, r io.Reader) (UploadedImage, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return UploadedImage{}, fmt.Errorf("woundapi: create form part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return UploadedImage{}, fmt.Errorf("woundapi: copy image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return UploadedImage{}, fmt.Errorf("woundapi: close multipart: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/images", body)
	if err != nil {
		return UploadedImage{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var out UploadedImage
	if err := c.do(token, req, &out); err != nil {
		return UploadedImage{}, err
	}
	if out.ImageID == 0 {
		return UploadedImage{}, errors.New("woundapi: upload response missing image_id")
	}
	return out, nil
}

// CreateTrackingRecord persists one complete wound observation.
func (c *Client) CreateTrackingRecord(ctx context.Context, token string, in TrackingRecordInput) (TrackingRecord, error) {
	var out TrackingRecord
	if err := c.doJSON(ctx, token, http.MethodPost, "/tracking-records", in, &out); err != nil {
		return TrackingRecord{}, err
	}
	return out, nil
}

// PatchWound applies a partial update to a wound.
func (c *Client) PatchWound(ctx context.Context, token string, woundID int64, patch WoundPatch) error {
	path := "/wounds/" + strconv.FormatInt(woundID, 10)
	return c.doJSON(ctx, token, http.MethodPatch, path, patch, nil)
}

// CreateWound registers a new wound for a patient.
func (c *Client) CreateWound(ctx context.Context, token string, in WoundInput) (Wound, error) {
	var out Wound
	if err := c.doJSON(ctx, token, http.MethodPost, "/wounds", in, &out); err != nil {
		return Wound{}, err
	}
	if out.ID == 0 {
		return Wound{}, errors.New("woundapi: create wound response missing id")
	}
	return out, nil
}

// Me returns the profile of the token's owner.
func (c *Client) Me(ctx context.Context, token string) (Profile, error) {
	var out Profile
	if err := c.doJSON(ctx, token, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return Profile{}, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, token, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("woundapi: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(token, req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("woundapi: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(token string, req *http.Request, out any) error {
	resp, err := c.httpClient(token).Do(req)
	if err != nil {
		return fmt.Errorf("woundapi: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeStatusError(req, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("woundapi: decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func (c *Client) httpClient(token string) *http.Client {
	rt := c.base
	if token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.base,
		}
	}
	return &http.Client{Transport: rt, Timeout: c.timeout}
}

func decodeStatusError(req *http.Request, resp *http.Response) error {
	se := &StatusError{Method: req.Method, Path: req.URL.Path, Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &envelope) == nil {
		if envelope.Error != nil {
			se.Code = envelope.Error.Code
			se.Message = envelope.Error.Message
		} else {
			se.Message = envelope.Message
		}
	}
	return se
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}
