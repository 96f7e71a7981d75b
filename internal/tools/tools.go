// Package tools defines the MCP tool surface over a capture backend. The
// tool set is fixed at registration time: window tools exist only when the
// backend can see windows, and are absent rather than present-but-failing
// everywhere else.
package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/signal-slot/mcp-screenshot/internal/backend"
	"github.com/signal-slot/mcp-screenshot/internal/logger"
)

// Tool names as clients see them.
const (
	ToolTakeScreenshot       = "take_screenshot"
	ToolTakeScreenshotRegion = "take_screenshot_region"
	ToolTakeScreenshotWindow = "take_screenshot_window"
	ToolListWindows          = "list_windows"
	ToolListMonitors         = "list_monitors"
)

// Names reports the tool set a backend variant serves.
func Names(v backend.Variant) []string {
	names := []string{ToolTakeScreenshot, ToolTakeScreenshotRegion, ToolListMonitors}
	if v == backend.VariantDesktop {
		names = append(names, ToolTakeScreenshotWindow, ToolListWindows)
	}
	return names
}

// Registry binds the capture tools to one backend instance.
type Registry struct {
	backend backend.Backend
	log     *zerolog.Logger
}

func NewRegistry(b backend.Backend) *Registry {
	return &Registry{backend: b, log: logger.WithComponent("tools")}
}

// Register adds every tool the backend can serve onto the MCP server. The
// window tools register only when the backend actually implements them, so
// a framebuffer-backed server never lists them.
func (r *Registry) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool(ToolTakeScreenshot,
		mcp.WithDescription("Take a full-screen screenshot. Returns a base64-encoded PNG image. Optionally specify a monitor and/or a file path to save."),
		mcp.WithNumber("monitor_id",
			mcp.Description("Monitor ID to capture (omit for primary monitor)")),
		mcp.WithString("save_path",
			mcp.Description("File path to save the screenshot PNG")),
	), r.takeScreenshot)

	s.AddTool(mcp.NewTool(ToolTakeScreenshotRegion,
		mcp.WithDescription("Take a screenshot of a specific screen region. Captures the full screen then crops to the specified rectangle. Returns a base64-encoded PNG image."),
		mcp.WithNumber("x", mcp.Required(),
			mcp.Description("X coordinate of the top-left corner")),
		mcp.WithNumber("y", mcp.Required(),
			mcp.Description("Y coordinate of the top-left corner")),
		mcp.WithNumber("width", mcp.Required(),
			mcp.Description("Width of the region in pixels")),
		mcp.WithNumber("height", mcp.Required(),
			mcp.Description("Height of the region in pixels")),
		mcp.WithNumber("monitor_id",
			mcp.Description("Monitor ID to capture from (omit for primary monitor)")),
		mcp.WithString("save_path",
			mcp.Description("File path to save the screenshot PNG")),
	), r.takeScreenshotRegion)

	s.AddTool(mcp.NewTool(ToolListMonitors,
		mcp.WithDescription("List all monitors with their ID, name, position, resolution, and whether they are the primary monitor."),
	), r.listMonitors)

	wb, ok := r.backend.(backend.WindowBackend)
	if !ok {
		r.log.Info().Str("backend", string(r.backend.Variant())).Msg("window tools not registered")
		return
	}

	s.AddTool(mcp.NewTool(ToolTakeScreenshotWindow,
		mcp.WithDescription("Take a screenshot of a specific window by its ID. Use list_windows to find window IDs. Returns a base64-encoded PNG image."),
		mcp.WithNumber("window_id", mcp.Required(),
			mcp.Description("Window ID to capture (use list_windows to find IDs)")),
		mcp.WithString("save_path",
			mcp.Description("File path to save the screenshot PNG")),
	), r.takeScreenshotWindow(wb))

	s.AddTool(mcp.NewTool(ToolListWindows,
		mcp.WithDescription("List all visible windows with their ID, title, app name, position, size, and minimized/maximized state."),
	), r.listWindows(wb))
}
