package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const registryTimeout = 5 * time.Second

// RegistryClient resolves Confluent Schema Registry subjects to schema IDs
// over the registry's REST API.
type RegistryClient struct {
	baseURL string
	client  *http.Client
}

// NewRegistryClient constructs a client for the registry at baseURL.
func NewRegistryClient(baseURL string) *RegistryClient {
	return &RegistryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: registryTimeout},
	}
}

// EnsureSchema returns the ID registered for subject, registering schema
// under it on first use.
func (c *RegistryClient) EnsureSchema(ctx context.Context, subject, schema string) (int, error) {
	if id, err := c.latestID(ctx, subject); err == nil {
		return id, nil
	}
	return c.registerSchema(ctx, subject, schema)
}

func (c *RegistryClient) latestID(ctx context.Context, subject string) (int, error) {
	return c.schemaID(ctx, http.MethodGet, "/subjects/"+subject+"/versions/latest", nil)
}

func (c *RegistryClient) registerSchema(ctx context.Context, subject, schema string) (int, error) {
	body, err := json.Marshal(struct {
		SchemaType string `json:"schemaType"`
		Schema     string `json:"schema"`
	}{SchemaType: "JSON", Schema: schema})
	if err != nil {
		return 0, err
	}
	return c.schemaID(ctx, http.MethodPost, "/subjects/"+subject+"/versions", bytes.NewReader(body))
}

// schemaID performs one registry call; both endpoints answer {"id": n}.
func (c *RegistryClient) schemaID(ctx context.Context, method, path string, body io.Reader) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/vnd.schemaregistry.v1+json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("schema registry %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("schema registry %s %s: status %d: %s", method, path, resp.StatusCode, detail)
	}

	var payload struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("schema registry %s %s: decode response: %w", method, path, err)
	}
	return payload.ID, nil
}
