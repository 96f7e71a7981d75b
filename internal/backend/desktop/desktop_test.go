package desktop

import (
	"image"
	"image/color"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

func TestParseWMClass(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"instance and class", "navigator\x00Firefox\x00", "Firefox"},
		{"class without trailing nul", "kitty\x00kitty", "kitty"},
		{"empty class falls back to instance", "xterm\x00", "xterm"},
		{"bare instance", "xclock", "xclock"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseWMClass(tt.raw); got != tt.want {
				t.Errorf("parseWMClass(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeWindowList(t *testing.T) {
	value := []byte{
		0x01, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x20, 0x04,
		0xff, 0xff, // trailing partial entry is ignored
	}
	got := decodeWindowList(value)
	want := []xproto.Window{1, 0x04200000}
	if len(got) != len(want) {
		t.Fatalf("got %d ids, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("id[%d] = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestDecodeAtomList(t *testing.T) {
	got := decodeAtomList([]byte{0x2a, 0x00, 0x00, 0x00, 0x07, 0x01, 0x00, 0x00})
	if len(got) != 2 || got[0] != 42 || got[1] != 263 {
		t.Errorf("decodeAtomList = %v, want [42 263]", got)
	}
	if got := decodeAtomList(nil); len(got) != 0 {
		t.Errorf("decodeAtomList(nil) = %v, want empty", got)
	}
}

func TestBGRAToRGBA(t *testing.T) {
	// Two pixels: pure blue, then pure red, in BGRx order.
	data := []byte{
		0xff, 0x00, 0x00, 0x00,
		0x00, 0x00, 0xff, 0x00,
	}
	img := bgraToRGBA(data, 2, 1)

	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 0xff, 0xff}) {
		t.Errorf("pixel (0,0) = %v, want blue", got)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{0xff, 0, 0, 0xff}) {
		t.Errorf("pixel (1,0) = %v, want red", got)
	}
}

func TestBGRAToRGBAShortData(t *testing.T) {
	img := bgraToRGBA([]byte{0x01, 0x02, 0x03, 0x00}, 2, 1)

	if got := img.RGBAAt(0, 0); got != (color.RGBA{0x03, 0x02, 0x01, 0xff}) {
		t.Errorf("pixel (0,0) = %v", got)
	}
	// The pixel the data ran out for stays zeroed.
	if got := img.RGBAAt(1, 0); got != (color.RGBA{}) {
		t.Errorf("pixel (1,0) = %v, want zero", got)
	}
}

func TestURIToPath(t *testing.T) {
	path, err := uriToPath("file:///tmp/Screenshot%20From%202025.png")
	if err != nil {
		t.Fatalf("uriToPath() error = %v", err)
	}
	if path != "/tmp/Screenshot From 2025.png" {
		t.Errorf("path = %q", path)
	}

	if _, err := uriToPath("https://example.com/shot.png"); err == nil {
		t.Error("non-file uri accepted")
	}
	if _, err := uriToPath("file://"); err == nil {
		t.Error("pathless uri accepted")
	}
}

func TestToRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if got := toRGBA(src); got != src {
		t.Error("RGBA input should pass through unchanged")
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	nrgba.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	got := toRGBA(nrgba)
	if got.RGBAAt(0, 0) != (color.RGBA{10, 20, 30, 255}) {
		t.Errorf("converted pixel = %v", got.RGBAAt(0, 0))
	}
}
