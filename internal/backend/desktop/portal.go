package desktop

import (
	"errors"
	"fmt"
	"image"
	_ "image/png" // the portal hands back PNG files
	"net/url"
	"os"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
)

// Portal D-Bus constants.
const (
	portalService   = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	screenshotIface = "org.freedesktop.portal.Screenshot"
	requestIface    = "org.freedesktop.portal.Request"
)

const portalTimeout = 30 * time.Second

// portalClient asks xdg-desktop-portal for full-desktop screenshots. It is
// the capture path for Wayland sessions with no XWayland: the compositor
// takes the shot and hands back a file URI.
type portalClient struct {
	conn *dbus.Conn
	log  *zerolog.Logger
}

func newPortalClient(log *zerolog.Logger) (*portalClient, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect to session bus: %w", err)
	}
	return &portalClient{conn: conn, log: log}, nil
}

func (p *portalClient) close() error {
	return p.conn.Close()
}

// capture performs one Screenshot portal round trip and decodes the
// resulting file.
func (p *portalClient) capture() (*image.RGBA, error) {
	obj := p.conn.Object(portalService, portalPath)

	options := map[string]dbus.Variant{
		"handle_token": dbus.MakeVariant(fmt.Sprintf("mcpscreenshot%d", os.Getpid())),
		"interactive":  dbus.MakeVariant(false),
	}

	// Subscribe before calling so the response cannot slip past us.
	responseChan := make(chan *dbus.Signal, 10)
	matchRule := fmt.Sprintf("type='signal',interface='%s',member='Response'", requestIface)
	if err := p.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchRule).Err; err != nil {
		p.log.Warn().Err(err).Msg("failed to add portal match rule")
	}
	p.conn.Signal(responseChan)
	defer p.conn.RemoveSignal(responseChan)

	var requestPath dbus.ObjectPath
	if err := obj.Call(screenshotIface+".Screenshot", 0, "", options).Store(&requestPath); err != nil {
		return nil, fmt.Errorf("Screenshot portal call failed: %w", err)
	}
	p.log.Debug().Str("request", string(requestPath)).Msg("waiting for portal response")

	uri, err := awaitURI(responseChan, requestPath)
	if err != nil {
		return nil, err
	}
	return loadPortalShot(uri)
}

// awaitURI waits for the Response signal of our request and extracts the
// screenshot file URI from it.
func awaitURI(signals <-chan *dbus.Signal, requestPath dbus.ObjectPath) (string, error) {
	timeout := time.After(portalTimeout)
	for {
		select {
		case <-timeout:
			return "", errors.New("timeout waiting for the screenshot portal response")
		case sig := <-signals:
			if sig.Path != requestPath || sig.Name != requestIface+".Response" {
				continue
			}
			if len(sig.Body) < 2 {
				return "", errors.New("malformed portal response")
			}
			code, _ := sig.Body[0].(uint32)
			if code != 0 {
				return "", fmt.Errorf("screenshot portal request denied (code %d)", code)
			}
			results, _ := sig.Body[1].(map[string]dbus.Variant)
			if v, ok := results["uri"]; ok {
				if uri, ok := v.Value().(string); ok {
					return uri, nil
				}
			}
			return "", errors.New("portal response carried no uri")
		}
	}
}

// loadPortalShot reads the portal's PNG and converts it to RGBA. The file
// is ours to clean up once decoded.
func loadPortalShot(uri string) (*image.RGBA, error) {
	path, err := uriToPath(uri)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open portal screenshot: %w", err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	os.Remove(path)
	if err != nil {
		return nil, fmt.Errorf("decode portal screenshot: %w", err)
	}
	return toRGBA(img), nil
}

// uriToPath converts the portal's file:// URI into a filesystem path.
func uriToPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse portal uri %q: %w", uri, err)
	}
	if u.Scheme != "file" || u.Path == "" {
		return "", fmt.Errorf("portal returned a non-file uri %q", uri)
	}
	return u.Path, nil
}

// toRGBA re-draws a decoded image into RGBA unless it already is one.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(rgba, image.Point{}, img, b, draw.Src, nil)
	return rgba
}
