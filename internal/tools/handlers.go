package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/signal-slot/mcp-screenshot/internal/backend"
)

func (r *Registry) takeScreenshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetInt("monitor_id", -1)
	r.log.Debug().Int("monitor", id).Msg("take_screenshot")

	img, err := r.backend.CaptureMonitor(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return screenshotResult(img, req.GetString("save_path", ""))
}

func (r *Registry) takeScreenshotRegion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	x, err := req.RequireInt("x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := req.RequireInt("y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	width, err := req.RequireInt("width")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	height, err := req.RequireInt("height")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetInt("monitor_id", -1)
	r.log.Debug().Int("monitor", id).
		Int("x", x).Int("y", y).Int("width", width).Int("height", height).
		Msg("take_screenshot_region")

	img, err := r.backend.CaptureRegion(id, x, y, width, height)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return screenshotResult(img, req.GetString("save_path", ""))
}

func (r *Registry) listMonitors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := r.backend.ListMonitors()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(infos)
}

func (r *Registry) takeScreenshotWindow(wb backend.WindowBackend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("window_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		r.log.Debug().Int("window", id).Msg("take_screenshot_window")

		img, err := wb.CaptureWindow(uint32(id))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return screenshotResult(img, req.GetString("save_path", ""))
	}
}

func (r *Registry) listWindows(wb backend.WindowBackend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		infos, err := wb.ListWindows()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(infos)
	}
}

// screenshotResult encodes a capture as PNG, optionally saves it, and
// builds the MCP content: the image itself plus a note when a file was
// written.
func screenshotResult(img *image.RGBA, savePath string) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode PNG: %v", err)), nil
	}

	if savePath != "" {
		if err := os.WriteFile(savePath, buf.Bytes(), 0o644); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("save screenshot to %s: %v", savePath, err)), nil
		}
	}

	content := []mcp.Content{
		mcp.ImageContent{
			Type:     "image",
			Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
			MIMEType: "image/png",
		},
	}
	if savePath != "" {
		content = append(content, mcp.TextContent{
			Type: "text",
			Text: fmt.Sprintf("Screenshot saved to %s", savePath),
		})
	}
	return &mcp.CallToolResult{Content: content}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("serialize result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
