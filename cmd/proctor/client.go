package main

import (
	"context"
	"time"

	"github.com/loykin/proctor/pkg/client"
)

// APIClient adapts the public client package for one-shot CLI calls.
// Each CLI invocation is short-lived, so requests run on a background context
// bounded by the client timeout.
type APIClient struct {
	api *client.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	cfg := client.DefaultConfig()
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	return &APIClient{api: client.New(cfg)}
}

// IsReachable checks if the daemon is running and reachable
func (c *APIClient) IsReachable() bool {
	return c.api.IsReachable(context.Background())
}

func (c *APIClient) List() ([]string, error) {
	return c.api.List(context.Background())
}

func (c *APIClient) Records() ([]client.Entry, error) {
	return c.api.Records(context.Background())
}

func (c *APIClient) GetRecord(name string) (client.Entry, error) {
	return c.api.GetRecord(context.Background(), name)
}

func (c *APIClient) Stats() ([]client.ProcessStats, error) {
	return c.api.Stats(context.Background())
}

func (c *APIClient) SendSignal(name string, signum int) error {
	return c.api.SendSignal(context.Background(), name, signum)
}

func (c *APIClient) Terminate(name string) error {
	return c.api.Terminate(context.Background(), name)
}

func (c *APIClient) Kill(name string) error {
	return c.api.Kill(context.Background(), name)
}

func (c *APIClient) Remove(name string, force bool) error {
	return c.api.Remove(context.Background(), name, force)
}

func (c *APIClient) Cleanup(force bool) error {
	return c.api.Cleanup(context.Background(), force)
}

func (c *APIClient) Submit(req client.SubmitRequest) (client.Signature, error) {
	return c.api.Submit(context.Background(), req)
}
