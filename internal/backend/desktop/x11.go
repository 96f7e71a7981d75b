package desktop

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/rs/zerolog"

	"github.com/signal-slot/mcp-screenshot/internal/backend"
)

// x11Session is one connection to the X server, shared by window
// enumeration and window capture.
type x11Session struct {
	conn        *xgb.Conn
	root        xproto.Window
	screen      *xproto.ScreenInfo
	compositeOK bool
	mu          sync.Mutex
	log         *zerolog.Logger
}

func newX11Session(log *zerolog.Logger) (*x11Session, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	s := &x11Session{
		conn:   conn,
		root:   screen.Root,
		screen: screen,
		log:    log,
	}

	if err := composite.Init(conn); err != nil {
		log.Warn().Err(err).Msg("Composite extension unavailable, captures of obscured windows may be blank")
	} else {
		s.compositeOK = true
	}
	return s, nil
}

func (s *x11Session) close() {
	s.conn.Close()
}

// listWindows enumerates user windows, preferring the window manager's EWMH
// client list and falling back to walking the window tree when no EWMH
// manager is running.
func (s *x11Session) listWindows() ([]backend.WindowInfo, error) {
	ids, err := s.clientList()
	if err != nil {
		s.log.Debug().Err(err).Msg("_NET_CLIENT_LIST unavailable, walking the window tree")
		ids, err = s.topLevelWindows()
		if err != nil {
			return nil, fmt.Errorf("enumerate windows: %w", err)
		}
	}

	windows := make([]backend.WindowInfo, 0, len(ids))
	for _, id := range ids {
		info, ok := s.windowInfo(id)
		if !ok {
			continue
		}
		// Windows with neither a title nor a class are frames and helper
		// surfaces, not user windows.
		if info.Title == "" && info.AppName == "" {
			continue
		}
		windows = append(windows, info)
	}
	return windows, nil
}

// captureWindow grabs a window's pixels, redirecting it through the
// Composite extension when possible so obscured content still captures.
func (s *x11Session) captureWindow(id uint32) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	win := xproto.Window(id)
	attrs, err := xproto.GetWindowAttributes(s.conn, win).Reply()
	if err != nil {
		return nil, fmt.Errorf("%w: window %#x", backend.ErrNoSuchWindow, id)
	}

	// Unmapped and input-only windows have no pixels; a viewable child
	// usually does, since toolkits nest their content windows.
	if attrs.Class != xproto.WindowClassInputOutput || attrs.MapState != xproto.MapStateViewable {
		child, err := s.capturableChild(win)
		if err != nil {
			return nil, fmt.Errorf("window %#x has no viewable surface: %w", id, err)
		}
		win = child
	}

	geom, err := xproto.GetGeometry(s.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return nil, fmt.Errorf("window geometry: %w", err)
	}
	return s.captureDrawable(win, geom)
}

// clientList reads the EWMH _NET_CLIENT_LIST property from the root.
func (s *x11Session) clientList() ([]xproto.Window, error) {
	atom, err := s.atom("_NET_CLIENT_LIST")
	if err != nil {
		return nil, err
	}
	reply, err := xproto.GetProperty(s.conn, false, s.root, atom,
		xproto.GetPropertyTypeAny, 0, (1<<32)-1).Reply()
	if err != nil {
		return nil, err
	}
	if reply.ValueLen == 0 {
		return nil, errors.New("_NET_CLIENT_LIST is empty")
	}
	return decodeWindowList(reply.Value), nil
}

func (s *x11Session) topLevelWindows() ([]xproto.Window, error) {
	tree, err := xproto.QueryTree(s.conn, s.root).Reply()
	if err != nil {
		return nil, err
	}
	return tree.Children, nil
}

func (s *x11Session) windowInfo(win xproto.Window) (backend.WindowInfo, bool) {
	info := backend.WindowInfo{ID: uint32(win)}

	geom, err := xproto.GetGeometry(s.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		// The window vanished between listing and inspection.
		return info, false
	}
	info.X = int(geom.X)
	info.Y = int(geom.Y)
	info.Width = int(geom.Width)
	info.Height = int(geom.Height)

	// Re-express the position relative to the root so every window shares
	// one coordinate space regardless of how the manager reparents.
	if tr, err := xproto.TranslateCoordinates(s.conn, win, s.root, 0, 0).Reply(); err == nil {
		info.X = int(tr.DstX)
		info.Y = int(tr.DstY)
	}

	info.Title = s.windowTitle(win)
	info.AppName = s.windowClass(win)
	info.IsMinimized, info.IsMaximized = s.windowState(win)
	return info, true
}

func (s *x11Session) windowTitle(win xproto.Window) string {
	for _, name := range []string{"_NET_WM_NAME", "WM_NAME"} {
		atom, err := s.atom(name)
		if err != nil {
			continue
		}
		if title, err := s.stringProperty(win, atom); err == nil && title != "" {
			return title
		}
	}
	return ""
}

// windowClass reads WM_CLASS, which packs instance and class as two
// NUL-terminated strings; the class half names the application.
func (s *x11Session) windowClass(win xproto.Window) string {
	atom, err := s.atom("WM_CLASS")
	if err != nil {
		return ""
	}
	raw, err := s.stringProperty(win, atom)
	if err != nil {
		return ""
	}
	return parseWMClass(raw)
}

// windowState derives minimized/maximized from the _NET_WM_STATE atom list.
func (s *x11Session) windowState(win xproto.Window) (minimized, maximized bool) {
	stateAtom, err := s.atom("_NET_WM_STATE")
	if err != nil {
		return false, false
	}
	reply, err := xproto.GetProperty(s.conn, false, win, stateAtom,
		xproto.AtomAtom, 0, 32).Reply()
	if err != nil {
		return false, false
	}

	hidden, _ := s.atom("_NET_WM_STATE_HIDDEN")
	maxVert, _ := s.atom("_NET_WM_STATE_MAXIMIZED_VERT")
	maxHorz, _ := s.atom("_NET_WM_STATE_MAXIMIZED_HORZ")

	var vert, horz bool
	for _, a := range decodeAtomList(reply.Value) {
		switch a {
		case hidden:
			minimized = true
		case maxVert:
			vert = true
		case maxHorz:
			horz = true
		}
	}
	return minimized, vert && horz
}

// capturableChild recursively searches for a viewable child window to
// capture in place of an unmapped parent.
func (s *x11Session) capturableChild(parent xproto.Window) (xproto.Window, error) {
	tree, err := xproto.QueryTree(s.conn, parent).Reply()
	if err != nil {
		return 0, err
	}

	for _, child := range tree.Children {
		attrs, err := xproto.GetWindowAttributes(s.conn, child).Reply()
		if err != nil {
			continue
		}
		geom, err := xproto.GetGeometry(s.conn, xproto.Drawable(child)).Reply()
		if err != nil {
			continue
		}
		if attrs.Class == xproto.WindowClassInputOutput &&
			attrs.MapState == xproto.MapStateViewable &&
			geom.Width > 10 && geom.Height > 10 {
			return child, nil
		}
		if grandchild, err := s.capturableChild(child); err == nil {
			return grandchild, nil
		}
	}
	return 0, errors.New("no viewable child window")
}

func (s *x11Session) captureDrawable(win xproto.Window, geom *xproto.GetGeometryReply) (*image.RGBA, error) {
	drawable := xproto.Drawable(win)

	if s.compositeOK {
		if err := composite.RedirectWindowChecked(s.conn, win, composite.RedirectAutomatic).Check(); err == nil {
			defer composite.UnredirectWindow(s.conn, win, composite.RedirectAutomatic)
			if pixmap, err := xproto.NewPixmapId(s.conn); err == nil {
				if composite.NameWindowPixmapChecked(s.conn, win, pixmap).Check() == nil {
					drawable = xproto.Drawable(pixmap)
					defer xproto.FreePixmap(s.conn, pixmap)
				}
			}
		} else {
			s.log.Debug().Err(err).Uint32("window", uint32(win)).Msg("composite redirect failed, capturing directly")
		}
	}

	reply, err := xproto.GetImage(s.conn, xproto.ImageFormatZPixmap, drawable,
		0, 0, geom.Width, geom.Height, 0xffffffff).Reply()
	if err != nil {
		return nil, fmt.Errorf("read window image: %w", err)
	}
	return bgraToRGBA(reply.Data, int(geom.Width), int(geom.Height)), nil
}

func (s *x11Session) atom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(s.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}

func (s *x11Session) stringProperty(win xproto.Window, atom xproto.Atom) (string, error) {
	reply, err := xproto.GetProperty(s.conn, false, win, atom,
		xproto.GetPropertyTypeAny, 0, (1<<32)-1).Reply()
	if err != nil {
		return "", err
	}
	if reply.ValueLen == 0 {
		return "", errors.New("empty property")
	}
	return string(reply.Value), nil
}

// parseWMClass extracts the application class from a raw WM_CLASS value,
// falling back to the instance name when the class half is empty.
func parseWMClass(raw string) string {
	parts := strings.Split(raw, "\x00")
	if len(parts) >= 2 && parts[1] != "" {
		return parts[1]
	}
	if len(parts) >= 1 {
		return parts[0]
	}
	return ""
}

// decodeWindowList parses a property value holding packed 32-bit window IDs.
func decodeWindowList(value []byte) []xproto.Window {
	ids := make([]xproto.Window, 0, len(value)/4)
	for i := 0; i+4 <= len(value); i += 4 {
		ids = append(ids, xproto.Window(binary.LittleEndian.Uint32(value[i:])))
	}
	return ids
}

func decodeAtomList(value []byte) []xproto.Atom {
	atoms := make([]xproto.Atom, 0, len(value)/4)
	for i := 0; i+4 <= len(value); i += 4 {
		atoms = append(atoms, xproto.Atom(binary.LittleEndian.Uint32(value[i:])))
	}
	return atoms
}

// bgraToRGBA converts ZPixmap data (BGRx on 24 and 32 bit visuals) into an
// opaque RGBA image. Short data leaves the remaining pixels zeroed rather
// than failing, matching how partial server replies behave.
func bgraToRGBA(data []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	n := width * height
	if len(data)/4 < n {
		n = len(data) / 4
	}
	for i := 0; i < n; i++ {
		img.Pix[i*4+0] = data[i*4+2]
		img.Pix[i*4+1] = data[i*4+1]
		img.Pix[i*4+2] = data[i*4+0]
		img.Pix[i*4+3] = 0xff
	}
	return img
}
