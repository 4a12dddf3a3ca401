package ocr

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

// noisyDocument draws dark "text" bars on a light background with an uneven
// lighting gradient and salt noise.
func noisyDocument(r image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			v := uint8(170 + (x-r.Min.X)*60/r.Dx())
			if (y-r.Min.Y)%12 < 4 && (x-r.Min.X)%9 < 6 {
				v = 30
			}
			if (x*7+y*13)%97 == 0 {
				v = 255
			}
			img.Set(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	return img
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := imaging.Save(img, p); err != nil {
		t.Fatalf("save %s: %v", p, err)
	}
	return p
}

func TestPreprocessKeepsDimensions(t *testing.T) {
	for _, r := range []image.Rectangle{
		image.Rect(0, 0, 120, 80),
		image.Rect(10, 10, 73, 51),
		image.Rect(0, 0, 3, 2),
		image.Rect(0, 0, 1, 1),
	} {
		out := Preprocess(noisyDocument(r))
		if out.Bounds().Dx() != r.Dx() || out.Bounds().Dy() != r.Dy() {
			t.Fatalf("dimensions changed for %v: got %v", r, out.Bounds())
		}
	}
}

func TestPreprocessIsBinary(t *testing.T) {
	out := Preprocess(noisyDocument(image.Rect(0, 0, 90, 60)))
	for _, p := range out.Pix {
		if p != 0 && p != 255 {
			t.Fatalf("expected only 0/255 pixels, found %d", p)
		}
	}
}

func TestOtsuSplitsBimodal(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 20, 10))
	for i := range g.Pix {
		if i%2 == 0 {
			g.Pix[i] = 40
		} else {
			g.Pix[i] = 200
		}
	}
	th := otsuThreshold(g)
	if th < 40 || th >= 200 {
		t.Fatalf("threshold %d does not separate 40 and 200", th)
	}
	bin := binarize(g, th)
	if bin.Pix[0] != 0 || bin.Pix[1] != 255 {
		t.Fatalf("unexpected binarization %v", bin.Pix[:2])
	}
}

func TestEqualizeAdaptiveStretchesContrast(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range g.Pix {
		g.Pix[i] = uint8(100 + i%20)
	}
	out := equalizeAdaptive(g, 8, 8, 2.0)
	lo, hi := uint8(255), uint8(0)
	for _, p := range out.Pix {
		lo = min(lo, p)
		hi = max(hi, p)
	}
	if int(hi)-int(lo) <= 19 {
		t.Fatalf("expected wider range than input, got %d..%d", lo, hi)
	}
}

func TestPreprocessFileDecodeError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.png")
	if err := os.WriteFile(p, []byte("definitely not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := PreprocessFile(p)
	if !errors.Is(err, ErrImageDecode) {
		t.Fatalf("expected ErrImageDecode got %v", err)
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.Name != p {
		t.Fatalf("expected DecodeError for %s got %v", p, err)
	}
}

func TestPreprocessFallsBackToGrayscale(t *testing.T) {
	saved := stages
	defer func() { stages = saved }()
	stages = []func(*image.Gray) *image.Gray{
		medianDenoise,
		func(*image.Gray) *image.Gray { panic("clahe blew up") },
	}

	src := noisyDocument(image.Rect(0, 0, 90, 60))
	out := Preprocess(src)
	if out.Bounds().Dx() != 90 || out.Bounds().Dy() != 60 {
		t.Fatalf("dimensions changed: %v", out.Bounds())
	}
	want := toGray(src)
	intermediate := false
	for i, p := range out.Pix {
		if p != want.Pix[i] {
			t.Fatalf("pixel %d: got %d want plain grayscale %d", i, p, want.Pix[i])
		}
		if p != 0 && p != 255 {
			intermediate = true
		}
	}
	if !intermediate {
		t.Fatalf("fallback output looks binarized")
	}
}

func TestMedian9(t *testing.T) {
	for _, tc := range []struct {
		win  [9]uint8
		want uint8
	}{
		{[9]uint8{9, 8, 7, 6, 5, 4, 3, 2, 1}, 5},
		{[9]uint8{255, 0, 255, 0, 255, 0, 255, 0, 10}, 10},
		{[9]uint8{3, 3, 3, 3, 3, 3, 3, 3, 3}, 3},
		{[9]uint8{0, 0, 0, 0, 0, 200, 200, 200, 200}, 0},
	} {
		win := tc.win
		if got := median9(&win); got != tc.want {
			t.Errorf("median9(%v) = %d, want %d", tc.win, got, tc.want)
		}
	}
}

func TestMedianDenoiseRemovesSaltNoise(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 5, 5))
	for i := range g.Pix {
		g.Pix[i] = 100
	}
	g.Pix[2*g.Stride+2] = 255
	out := medianDenoise(g)
	for i, p := range out.Pix {
		if p != 100 {
			t.Fatalf("pixel %d = %d, want 100", i, p)
		}
	}
}

func TestDecodeRejectsOversizedImages(t *testing.T) {
	saved := MaxPixels
	defer func() { MaxPixels = saved }()
	MaxPixels = 100 * 100

	dir := t.TempDir()
	big := writePNG(t, dir, "huge.png", imaging.New(200, 120, color.NRGBA{255, 255, 255, 255}))
	_, err := DecodeFile(big)
	if !errors.Is(err, ErrImageDecode) {
		t.Fatalf("expected ErrImageDecode got %v", err)
	}
	if !strings.Contains(err.Error(), "200x120") {
		t.Fatalf("error should name the dimensions: %v", err)
	}
	data, err := os.ReadFile(big)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeBytes("huge.png", data); !errors.Is(err, ErrImageDecode) {
		t.Fatalf("expected ErrImageDecode from bytes got %v", err)
	}

	small := writePNG(t, dir, "small.png", imaging.New(50, 40, color.NRGBA{255, 255, 255, 255}))
	img, err := DecodeFile(small)
	if err != nil {
		t.Fatalf("small image rejected: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 40 {
		t.Fatalf("unexpected bounds %v", b)
	}
}

type stubRecognizer struct {
	calls   []Options
	paths   []string
	primary func() (string, error)
	raw     func() (string, error)
}

func (s *stubRecognizer) Recognize(path string, opts Options) (string, error) {
	s.calls = append(s.calls, opts)
	s.paths = append(s.paths, path)
	if opts.SingleBlock {
		return s.primary()
	}
	return s.raw()
}

func ok(text string) func() (string, error) { return func() (string, error) { return text, nil } }

func fail() func() (string, error) {
	return func() (string, error) { return "", errors.New("tesseract unavailable") }
}

func TestExtractTextPrimaryPass(t *testing.T) {
	src := writePNG(t, t.TempDir(), "ticket.png", noisyDocument(image.Rect(0, 0, 60, 40)))
	work := t.TempDir()
	rec := &stubRecognizer{primary: ok("TICKET: AB12345\r\n\n  Fine:\t$85.00 "), raw: fail()}
	got := NewExtractor(rec, work).ExtractText(src)
	if got != "TICKET: AB12345\nFine: $85.00" {
		t.Fatalf("unexpected text %q", got)
	}
	if len(rec.calls) != 1 || rec.calls[0].Whitelist == "" {
		t.Fatalf("expected one whitelisted pass, got %+v", rec.calls)
	}
	if rec.paths[0] == src {
		t.Fatalf("primary pass should read the preprocessed copy")
	}
	entries, _ := os.ReadDir(work)
	if len(entries) != 0 {
		t.Fatalf("temporary binary image left behind: %d entries", len(entries))
	}
}

func TestExtractTextFallsBackToRawImage(t *testing.T) {
	src := writePNG(t, t.TempDir(), "ticket.png", noisyDocument(image.Rect(0, 0, 60, 40)))
	rec := &stubRecognizer{primary: fail(), raw: ok("raw text")}
	got := NewExtractor(rec, t.TempDir()).ExtractText(src)
	if got != "raw text" {
		t.Fatalf("expected fallback text got %q", got)
	}
	if len(rec.calls) != 2 || rec.calls[1] != (Options{}) || rec.paths[1] != src {
		t.Fatalf("fallback should run default options on the original file: %+v %v", rec.calls, rec.paths)
	}
}

func TestExtractTextSentinel(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.jpg")
	_ = os.WriteFile(bad, []byte{0xff, 0xd8, 0x00}, 0o644)
	good := writePNG(t, dir, "ok.png", noisyDocument(image.Rect(0, 0, 30, 30)))

	panicky := &stubRecognizer{primary: func() (string, error) { panic("segfault") }, raw: func() (string, error) { panic("again") }}
	for _, tc := range []struct {
		name string
		path string
		rec  Recognizer
	}{
		{"both fail", good, &stubRecognizer{primary: fail(), raw: fail()}},
		{"undecodable", bad, &stubRecognizer{primary: fail(), raw: fail()}},
		{"missing file", filepath.Join(dir, "nope.png"), &stubRecognizer{primary: fail(), raw: fail()}},
		{"panics", good, panicky},
		{"no recognizer", good, nil},
	} {
		got := NewExtractor(tc.rec, dir).ExtractText(tc.path)
		if got != ManualEntryText || !IsManualEntry(got) {
			t.Errorf("%s: expected sentinel got %q", tc.name, got)
		}
	}
}

func TestMakePreview(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, "lease.png", imaging.New(800, 600, color.NRGBA{200, 200, 200, 255}))
	out := MakePreview(src, 400, 300)
	if out != filepath.Join(dir, "lease_preview.png") {
		t.Fatalf("unexpected preview path %s", out)
	}
	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("open preview: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Fatalf("preview size %v", b)
	}

	missing := filepath.Join(dir, "missing.png")
	if got := MakePreview(missing, 400, 300); got != missing {
		t.Fatalf("failure should return original path, got %s", got)
	}
}

func TestPreviewBytesDecodeError(t *testing.T) {
	_, err := PreviewBytes("x.png", []byte("nope"), 0, 0)
	if !errors.Is(err, ErrImageDecode) {
		t.Fatalf("expected ErrImageDecode got %v", err)
	}
	if strings.TrimSpace(Snippet("abcdef", 3)) != "abc…" {
		t.Fatalf("Snippet mismatch")
	}
}
