package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Client provides HTTP client functionality to communicate with a proctor daemon
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Logger   *slog.Logger // Optional logger for client operations
	TLS      *TLSClientConfig
	Insecure bool // Skip TLS verification
}

// TLSClientConfig holds TLS configuration for client
type TLSClientConfig struct {
	Enabled    bool   // Enable TLS
	CACert     string // CA certificate file path
	ClientCert string // Client certificate file
	ClientKey  string // Client private key file
	ServerName string // Server name for verification
	SkipVerify bool   // Skip certificate verification
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080/api",
		Timeout: 10 * time.Second,
	}
}

// DefaultTLSConfig returns default TLS client configuration
func DefaultTLSConfig() Config {
	return Config{
		BaseURL: "https://localhost:8080/api",
		Timeout: 10 * time.Second,
		TLS: &TLSClientConfig{
			Enabled: true,
		},
	}
}

// InsecureConfig returns insecure client configuration (skip TLS verification)
func InsecureConfig() Config {
	return Config{
		BaseURL:  "https://localhost:8080/api",
		Timeout:  10 * time.Second,
		Insecure: true,
	}
}

// New creates a new proctor API client with TLS support
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8080/api"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	transport := &http.Transport{}
	if config.TLS != nil && config.TLS.Enabled || config.Insecure {
		tlsConfig, err := setupClientTLS(config)
		if err != nil {
			config.Logger.Error("TLS setup failed", "error", err)
		} else {
			transport.TLSClientConfig = tlsConfig
		}
	}

	return &Client{
		baseURL: config.BaseURL,
		logger:  config.Logger,
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}
}

// IsReachable checks if the daemon is running and reachable
func (c *Client) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/list", nil)
	if err != nil {
		c.logger.Debug("Failed to create request for reachability check", "error", err)
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("Daemon unreachable", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	isReachable := resp.StatusCode != http.StatusNotFound
	c.logger.Debug("Daemon reachability check", "reachable", isReachable, "status", resp.StatusCode)
	return isReachable
}

// List returns the names of all registered processes
func (c *Client) List(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.getJSON(ctx, c.baseURL+"/list", &names); err != nil {
		return nil, err
	}
	return names, nil
}

// Records returns all process entries with their stored records
func (c *Client) Records(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := c.getJSON(ctx, c.baseURL+"/records", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetRecord returns the entry stored under name
func (c *Client) GetRecord(ctx context.Context, name string) (Entry, error) {
	var entry Entry
	u := c.endpoint("/records", url.Values{"name": {name}})
	if err := c.getJSON(ctx, u, &entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Stats returns resource usage samples for live processes
func (c *Client) Stats(ctx context.Context) ([]ProcessStats, error) {
	var stats []ProcessStats
	if err := c.getJSON(ctx, c.baseURL+"/stats", &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// SendSignal delivers the numbered signal to the named process
func (c *Client) SendSignal(ctx context.Context, name string, signum int) error {
	c.logger.Debug("Sending signal via API", "name", name, "signal", signum)
	u := c.endpoint("/signal", url.Values{"name": {name}, "signal": {strconv.Itoa(signum)}})
	return c.doRequest(ctx, "POST", u, nil)
}

// Terminate sends SIGTERM to the named process
func (c *Client) Terminate(ctx context.Context, name string) error {
	c.logger.Debug("Terminating process via API", "name", name)
	u := c.endpoint("/terminate", url.Values{"name": {name}})
	return c.doRequest(ctx, "POST", u, nil)
}

// Kill force-kills the named process
func (c *Client) Kill(ctx context.Context, name string) error {
	c.logger.Debug("Killing process via API", "name", name)
	u := c.endpoint("/kill", url.Values{"name": {name}})
	return c.doRequest(ctx, "POST", u, nil)
}

// Remove deletes the named entry; force kills a live process first
func (c *Client) Remove(ctx context.Context, name string, force bool) error {
	c.logger.Debug("Removing process entry via API", "name", name, "force", force)
	params := url.Values{"name": {name}}
	if force {
		params.Set("force", "true")
	}
	return c.doRequest(ctx, "POST", c.endpoint("/remove", params), nil)
}

// Cleanup removes all terminated entries; force removes live ones too
func (c *Client) Cleanup(ctx context.Context, force bool) error {
	c.logger.Debug("Cleaning up process entries via API", "force", force)
	params := url.Values{}
	if force {
		params.Set("force", "true")
	}
	return c.doRequest(ctx, "POST", c.endpoint("/cleanup", params), nil)
}

// Submit asks the daemon to build a task descriptor for the command
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (Signature, error) {
	c.logger.Debug("Submitting command via API", "name", req.Name, "task", req.Task)

	data, err := json.Marshal(req)
	if err != nil {
		return Signature{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/submit", bytes.NewReader(data))
	if err != nil {
		return Signature{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("HTTP request failed", "error", err, "url", c.baseURL+"/submit")
		return Signature{}, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.checkStatus(resp); err != nil {
		return Signature{}, err
	}
	var sig Signature
	if err := json.NewDecoder(resp.Body).Decode(&sig); err != nil {
		return Signature{}, fmt.Errorf("decode response: %w", err)
	}
	return sig, nil
}

// setupClientTLS configures TLS settings for HTTP client
func setupClientTLS(config Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{}

	// Handle insecure mode (skip verification)
	if config.Insecure {
		tlsConfig.InsecureSkipVerify = true
		return tlsConfig, nil
	}

	if config.TLS != nil {
		if config.TLS.SkipVerify {
			tlsConfig.InsecureSkipVerify = true
		}
		if config.TLS.ServerName != "" {
			tlsConfig.ServerName = config.TLS.ServerName
		}
		if config.TLS.CACert != "" {
			if err := loadCACert(tlsConfig, config.TLS.CACert); err != nil {
				return nil, fmt.Errorf("failed to load CA certificate: %w", err)
			}
		}
		if config.TLS.ClientCert != "" && config.TLS.ClientKey != "" {
			cert, err := tls.LoadX509KeyPair(config.TLS.ClientCert, config.TLS.ClientKey)
			if err != nil {
				return nil, fmt.Errorf("failed to load client certificate: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}
	}

	return tlsConfig, nil
}

// loadCACert loads CA certificate from file and adds it to TLS config
func loadCACert(tlsConfig *tls.Config, caCertPath string) error {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return fmt.Errorf("failed to read CA certificate file: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return fmt.Errorf("failed to parse CA certificate")
	}

	tlsConfig.RootCAs = caCertPool
	return nil
}

// endpoint joins the base URL with a path and encoded query parameters.
func (c *Client) endpoint(path string, params url.Values) string {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// doRequest performs HTTP request with common error handling
func (c *Client) doRequest(ctx context.Context, method, u string, body []byte) error {
	var bodyReader *bytes.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	var req *http.Request
	var err error
	if bodyReader != nil {
		req, err = http.NewRequestWithContext(ctx, method, u, bodyReader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u, nil)
	}
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", "error", err, "url", u)
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	return c.checkStatus(resp)
}

// getJSON performs a GET request and decodes the JSON response into out
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", "error", err, "url", u)
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// checkStatus handles HTTP error responses
func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var errorResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
		c.logger.Error("Failed to decode error response", "status", resp.StatusCode)
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	c.logger.Error("API request failed", "error", errorResp.Error, "status", resp.StatusCode)
	return fmt.Errorf("API error: %s", errorResp.Error)
}
