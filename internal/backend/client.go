package backend

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
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"propertyhub/web/internal/models"
)

// TokenSource supplies the current bearer credential, or "" when logged out.
// The session store satisfies this.
type TokenSource interface {
	Token() string
}

// Client handles communication with the backend property service. It attaches
// the session's bearer token to every request that has one and normalizes all
// failures into *APIError. It never decides to log the session out; that call
// belongs to page-level code.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *logrus.Logger
}

func NewClient(baseURL string, tokens TokenSource, timeout time.Duration, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger,
	}
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	User        models.User `json:"user"`
}

// Login exchanges credentials for a token and user identity.
func (c *Client) Login(ctx context.Context, email, password string) (string, models.User, error) {
	body, err := c.request(ctx, http.MethodPost, "/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", models.User{}, err
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", models.User{}, &APIError{
			Kind:    KindServer,
			Message: "The login response could not be read",
		}
	}
	return resp.AccessToken, resp.User, nil
}

// Register creates an account with one of the self-service roles.
func (c *Client) Register(ctx context.Context, name, email, password string, role models.Role) error {
	_, err := c.request(ctx, http.MethodPost, "/auth/register", nil, map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     string(role),
	})
	return err
}

// ListProperties fetches listings matching the given query parameters.
func (c *Client) ListProperties(ctx context.Context, query url.Values) ([]models.Property, error) {
	body, err := c.request(ctx, http.MethodGet, "/properties", query, nil)
	if err != nil {
		return nil, err
	}

	var properties []models.Property
	if err := json.Unmarshal(body, &properties); err != nil {
		return nil, &APIError{
			Kind:    KindServer,
			Message: "The property list could not be read",
		}
	}
	return properties, nil
}

// GetProperty fetches a single listing.
func (c *Client) GetProperty(ctx context.Context, id string) (models.Property, error) {
	body, err := c.request(ctx, http.MethodGet, "/properties/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return models.Property{}, err
	}

	var property models.Property
	if err := json.Unmarshal(body, &property); err != nil {
		return models.Property{}, &APIError{
			Kind:    KindServer,
			Message: "The property could not be read",
		}
	}
	return property, nil
}

// ImageUpload is one attached listing photo.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// CreatePropertyInput is the multipart payload for a new listing. Zero
// attached images is valid and yields an empty image list server-side.
type CreatePropertyInput struct {
	Title       string
	Description string
	Price       int
	Location    string
	Images      []ImageUpload
}

// CreateProperty submits a new listing as a multipart form.
func (c *Client) CreateProperty(ctx context.Context, input CreatePropertyInput) (models.Property, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":       input.Title,
		"description": input.Description,
		"price":       strconv.Itoa(input.Price),
		"location":    input.Location,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return models.Property{}, fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}
	for _, image := range input.Images {
		part, err := writer.CreateFormFile("images", image.Filename)
		if err != nil {
			return models.Property{}, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, image.Content); err != nil {
			return models.Property{}, fmt.Errorf("failed to write image %s: %w", image.Filename, err)
		}
	}
	if err := writer.Close(); err != nil {
		return models.Property{}, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/properties", &buf)
	if err != nil {
		return models.Property{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return models.Property{}, err
	}

	var property models.Property
	if err := json.Unmarshal(body, &property); err != nil {
		return models.Property{}, &APIError{
			Kind:    KindServer,
			Message: "The created property could not be read",
		}
	}
	return property, nil
}

// SetFavorite reports a favorite flip to the backend.
func (c *Client) SetFavorite(ctx context.Context, propertyID string, favorite bool) error {
	path := "/properties/" + url.PathEscape(propertyID) + "/favorite"
	_, err := c.request(ctx, http.MethodPut, path, nil, map[string]bool{
		"favorite": favorite,
	})
	return err
}

// request issues a JSON request and returns the raw response body.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	return c.do(req)
}

// do sends the request with the ambient credential attached and normalizes
// the outcome.
func (c *Client) do(req *http.Request) ([]byte, error) {
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("User-Agent", "propertyhub-web/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"method": req.Method,
			"path":   req.URL.Path,
		}).Error("Backend request failed")
		return nil, &APIError{
			Kind:    KindNetwork,
			Message: "Could not reach the server. Please try again.",
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{
			Kind:    KindNetwork,
			Message: "Could not read the server response. Please try again.",
		}
	}

	if resp.StatusCode >= 400 {
		return nil, c.normalizeFailure(req, resp.StatusCode, body)
	}
	return body, nil
}

// normalizeFailure maps an error response onto the client's taxonomy,
// carrying the backend's message and structured payload when present.
func (c *Client) normalizeFailure(req *http.Request, status int, body []byte) *APIError {
	apiErr := &APIError{
		Status:  status,
		Message: fmt.Sprintf("The request failed (status %d)", status),
	}

	var details map[string]interface{}
	if err := json.Unmarshal(body, &details); err == nil && details != nil {
		apiErr.Details = details
		if message, ok := details["message"].(string); ok && message != "" {
			apiErr.Message = message
		}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		apiErr.Kind = KindAuth
	case status == http.StatusNotFound:
		apiErr.Kind = KindNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		apiErr.Kind = KindValidation
	default:
		apiErr.Kind = KindServer
	}

	c.logger.WithFields(logrus.Fields{
		"method": req.Method,
		"path":   req.URL.Path,
		"status": status,
	}).Warn("Backend returned an error")

	return apiErr
}
