// Package api implements the typed HTTP client for the Pixido API. All
// requests run through the shared authenticated transport, so the bearer
// credential is attached without any per-call wiring.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
)

// Client represents an HTTP client for the Pixido API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client. The HTTP client should be the shared
// authenticated transport client (see the transport package).
func New(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// User represents the authenticated user's profile
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	IsSuperuser bool   `json:"is_superuser"`
	CreatedAt   string `json:"created_at"`
}

// AuthResponse represents a combined auth response: token pair plus profile
type AuthResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user"`
}

// TokenResponse represents a token-only auth response
type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// credentials is the request body shared by both login endpoints
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new account and returns tokens plus the profile
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.postJSON(ctx, "/api/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates against the combined endpoint, which returns the token
// pair and the user profile in a single response
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.postJSON(ctx, "/api/auth/login", credentials{Username: username, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Token authenticates against the token-only endpoint. Servers exposing only
// the split contract accept this even when the combined endpoint is absent.
func (c *Client) Token(ctx context.Context, username, password string) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.postJSON(ctx, "/api/token", credentials{Username: username, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RefreshToken exchanges a refresh token for a fresh access token
func (c *Client) RefreshToken(ctx context.Context, refresh string) (string, error) {
	var resp struct {
		Access string `json:"access"`
	}
	body := map[string]string{"refresh": refresh}
	if err := c.postJSON(ctx, "/api/token/refresh", body, &resp); err != nil {
		return "", err
	}
	return resp.Access, nil
}

// CurrentUser fetches the authenticated user's profile
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.getJSON(ctx, "/api/auth/user", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// PromoteUser promotes a user to admin (admin only)
func (c *Client) PromoteUser(ctx context.Context, userID string) error {
	return c.postJSON(ctx, "/api/auth/promote/"+userID, nil, nil)
}

// Image represents an image returned by the API
type Image struct {
	ID         string `json:"id"`
	User       string `json:"user"`
	Filename   string `json:"filename"`
	Label      string `json:"label"`
	ImageURL   string `json:"image_url"`
	Indexed    bool   `json:"indexed"`
	UploadedAt string `json:"uploaded_at"`
}

// UploadImage uploads an image file for indexing. The label is optional and
// tags seeded dataset images.
func (c *Client) UploadImage(ctx context.Context, filename string, data io.Reader, label string) (*Image, error) {
	extra := map[string]string{}
	if label != "" {
		extra["label"] = label
	}
	body, contentType, err := imageForm(filename, data, extra)
	if err != nil {
		return nil, err
	}

	var img Image
	if err := c.postMultipart(ctx, "/api/images/upload", body, contentType, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// ListImages returns the caller's images (all images for admins)
func (c *Client) ListImages(ctx context.Context) ([]Image, error) {
	var images []Image
	if err := c.getJSON(ctx, "/api/images/list", &images); err != nil {
		return nil, err
	}
	return images, nil
}

// DeleteImage deletes an image by ID
func (c *Client) DeleteImage(ctx context.Context, imageID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/images/"+imageID, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, nil)
}

// SearchResult represents one ranked search match
type SearchResult struct {
	ImageID  string  `json:"image_id"`
	Filename string  `json:"filename"`
	Label    string  `json:"label"`
	ImageURL string  `json:"image_url"`
	Score    float64 `json:"score"`
}

// SearchResponse represents the search endpoint response
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// Search ranks indexed images by similarity to the query image
func (c *Client) Search(ctx context.Context, filename string, data io.Reader, topK int) (*SearchResponse, error) {
	extra := map[string]string{}
	if topK > 0 {
		extra["top_k"] = strconv.Itoa(topK)
	}
	body, contentType, err := imageForm(filename, data, extra)
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := c.postMultipart(ctx, "/api/search", body, contentType, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats fetches usage statistics (admin only). The response shape is passed
// through as-is for display.
func (c *Client) Stats(ctx context.Context) (map[string]interface{}, error) {
	var stats map[string]interface{}
	if err := c.getJSON(ctx, "/api/stats", &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// imageForm builds a multipart body with an "image" file part and any extra
// string fields
func imageForm(filename string, data io.Reader, extra map[string]string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := createImagePart(writer, filepath.Base(filename))
	if err != nil {
		return nil, "", fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}

	for key, value := range extra {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to build form: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to build form: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// createImagePart writes the file part with a content type sniffed from the
// extension, since the server rejects parts without an image/* type
func createImagePart(writer *multipart.Writer, filename string) (io.Writer, error) {
	contentType := "image/jpeg"
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		contentType = "image/png"
	case ".gif":
		contentType = "image/gif"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	return writer.CreatePart(header)
}

func (c *Client) postJSON(ctx context.Context, path string, reqBody, out interface{}) error {
	var body io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) postMultipart(ctx context.Context, path string, body *bytes.Buffer, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

// do dispatches the request and decodes the response. Non-2xx statuses are
// returned as *Error with the parsed body.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return parseError(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
