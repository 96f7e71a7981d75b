package api

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/signal-slot/mcp-screenshot/internal/backend"
	"github.com/signal-slot/mcp-screenshot/internal/config"
)

type stubBackend struct{}

func (stubBackend) Variant() backend.Variant { return backend.VariantKMS }

func (stubBackend) ListMonitors() ([]backend.MonitorInfo, error) {
	return []backend.MonitorInfo{{ID: 0, Name: "HDMI-A-1", Width: 4, Height: 4, IsPrimary: true}}, nil
}

func (stubBackend) CaptureMonitor(id int) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func (stubBackend) CaptureRegion(id, x, y, width, height int) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, width, height)), nil
}

func (stubBackend) Close() error { return nil }

const initializeMsg = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`

func newTestServer() *Server {
	return New(config.Default(), stubBackend{}, "1.2.3")
}

func TestNewServerInfo(t *testing.T) {
	s := newTestServer()

	raw := s.mcp.HandleMessage(context.Background(), json.RawMessage(initializeMsg))
	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}

	var resp struct {
		Result struct {
			ServerInfo struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			} `json:"serverInfo"`
			Instructions string `json:"instructions"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("unmarshal response %s: %v", data, err)
	}

	if resp.Result.ServerInfo.Name != "mcp-screenshot" {
		t.Errorf("server name = %q", resp.Result.ServerInfo.Name)
	}
	if resp.Result.ServerInfo.Version != "1.2.3" {
		t.Errorf("server version = %q", resp.Result.ServerInfo.Version)
	}
	if resp.Result.Instructions == "" {
		t.Error("no instructions advertised")
	}
}

func TestRouterHealth(t *testing.T) {
	ts := httptest.NewServer(newTestServer().router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("body = %v", body)
	}
}

func TestRouterMountsMCP(t *testing.T) {
	ts := httptest.NewServer(newTestServer().router())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/mcp", strings.NewReader(initializeMsg))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /mcp: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	// The endpoint may frame the result as JSON or as an event stream;
	// either way the initialize response names the server.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "mcp-screenshot") {
		t.Errorf("initialize response does not name the server:\n%s", body)
	}
}

func TestRunUnknownTransport(t *testing.T) {
	cfg := config.Default()
	cfg.Transport = "carrier-pigeon"
	s := New(cfg, stubBackend{}, "0.0.0")

	if err := s.Run(context.Background()); err == nil {
		t.Fatal("unknown transport accepted")
	}
}
