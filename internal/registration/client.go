package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	registerTimeout   = 10 * time.Second
	heartbeatTimeout  = 5 * time.Second
	deregisterTimeout = 5 * time.Second
)

// RegisterPayload is the body of POST /api/v1/nodes/register.
type RegisterPayload struct {
	NodeID       string   `json:"node_id"`
	Hostname     string   `json:"hostname"`
	IPAddress    string   `json:"ip_address"`
	Port         int      `json:"port"`
	Capabilities []string `json:"capabilities"`
}

// Client talks to the orchestrator's node lifecycle API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(orchestratorURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(orchestratorURL, "/"),
		httpClient: &http.Client{},
		logger:     logger.Named("registration"),
	}
}

// Register announces this node to the orchestrator. Failure is returned
// to the caller; the gateway keeps serving either way.
func (c *Client) Register(ctx context.Context, payload RegisterPayload) error {
	c.logger.Info("registering with orchestrator",
		zap.String("node_id", payload.NodeID),
		zap.String("url", c.baseURL))

	ctx, cancel := context.WithTimeout(ctx, registerTimeout)
	defer cancel()

	resp, err := c.post(ctx, "/api/v1/nodes/register", payload)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("register: orchestrator returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	c.logger.Info("registered with orchestrator")
	return nil
}

// Heartbeat sends one liveness ping.
func (c *Client) Heartbeat(ctx context.Context, nodeID string) error {
	ctx, cancel := context.WithTimeout(ctx, heartbeatTimeout)
	defer cancel()

	resp, err := c.post(ctx, "/api/v1/nodes/heartbeat", map[string]string{"node_id": nodeID})
	if err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("heartbeat: orchestrator returned %s", resp.Status)
	}
	return nil
}

// Deregister tells the orchestrator this node is going away. Best
// effort; errors are logged and swallowed so shutdown never blocks on an
// unreachable orchestrator.
func (c *Client) Deregister(ctx context.Context, nodeID string) {
	c.logger.Info("deregistering from orchestrator", zap.String("node_id", nodeID))

	ctx, cancel := context.WithTimeout(ctx, deregisterTimeout)
	defer cancel()

	resp, err := c.post(ctx, "/api/v1/nodes/deregister", map[string]string{"node_id": nodeID})
	if err != nil {
		c.logger.Warn("deregister failed", zap.Error(err))
		return
	}
	_ = resp.Body.Close()
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}
