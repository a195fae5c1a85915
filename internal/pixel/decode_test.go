package pixel

import (
	"errors"
	"image"
	"testing"
)

const (
	testW = 6
	testH = 4
)

// pixelAt returns the RGB triple of one pixel.
func pixelAt(img *image.RGBA, x, y int) [3]uint8 {
	i := img.PixOffset(x, y)
	return [3]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
}

// synth builds a known colour for pixel index i.
func synth(i int) [3]uint8 {
	return [3]uint8{uint8(i * 7), uint8(i*13 + 1), uint8(i*29 + 2)}
}

// encode writes synthetic pixels in the given layout.
func encode(p Profile, w, h int) []byte {
	n := w * h
	out := make([]byte, 0, p.ExpectedSize(w, h))
	for i := 0; i < n; i++ {
		c := synth(i)
		switch p {
		case RGBA8888:
			out = append(out, c[0], c[1], c[2], 0x80)
		case BGRA8888:
			out = append(out, c[2], c[1], c[0], 0x80)
		case RGB888:
			out = append(out, c[0], c[1], c[2])
		case BGR888:
			out = append(out, c[2], c[1], c[0])
		case RGB565:
			v := uint16(c[0]>>3)<<11 | uint16(c[1]>>2)<<5 | uint16(c[2]>>3)
			out = append(out, byte(v), byte(v>>8))
		}
	}
	return out
}

// want565 returns the colour a 565 round trip produces.
func want565(c [3]uint8) [3]uint8 {
	return [3]uint8{c[0] >> 3 << 3, c[1] >> 2 << 2, c[2] >> 3 << 3}
}

// TestDecode_ExplicitProfilesRoundTrip checks each layout against a synthetic buffer.
func TestDecode_ExplicitProfilesRoundTrip(t *testing.T) {
	for _, p := range Profiles {
		res := Decode(encode(p, testW, testH), p, testW, testH)
		if !res.OK() {
			t.Fatalf("%s: unexpected error %v", p, res.Err)
		}
		if res.Profile != p {
			t.Fatalf("%s: profile=%s", p, res.Profile)
		}
		b := res.Image.Bounds()
		if b.Dx() != testW || b.Dy() != testH {
			t.Fatalf("%s: size=%v", p, b)
		}
		for i := 0; i < testW*testH; i++ {
			want := synth(i)
			if p == RGB565 {
				want = want565(want)
			}
			got := pixelAt(res.Image, i%testW, i/testW)
			if got != want {
				t.Fatalf("%s pixel %d: got %v want %v", p, i, got, want)
			}
		}
	}
}

// TestDecode_AlphaIsOpaque checks that source alpha is discarded.
func TestDecode_AlphaIsOpaque(t *testing.T) {
	res := Decode(encode(BGRA8888, testW, testH), BGRA8888, testW, testH)
	for i := 3; i < len(res.Image.Pix); i += 4 {
		if res.Image.Pix[i] != 0xFF {
			t.Fatalf("alpha at %d = %d", i, res.Image.Pix[i])
		}
	}
}

// TestDecode_AutoOnBGRA checks that Auto accepts a 4-byte buffer holding BGRA data.
func TestDecode_AutoOnBGRA(t *testing.T) {
	res := Decode(encode(BGRA8888, testW, testH), Auto, testW, testH)
	if !res.OK() {
		t.Fatalf("auto decode failed: %v", res.Err)
	}
	if res.Profile != RGBA8888 {
		t.Fatalf("expected first candidate RGBA8888, got %s", res.Profile)
	}
	if res.Image.Bounds().Dx() != testW || res.Image.Bounds().Dy() != testH {
		t.Fatalf("size=%v", res.Image.Bounds())
	}
}

// TestCandidates_Order checks class selection and straight-before-swapped order.
func TestCandidates_Order(t *testing.T) {
	cases := []struct {
		n    int
		want []Profile
	}{
		{4 * testW * testH, []Profile{RGBA8888, BGRA8888}},
		{3 * testW * testH, []Profile{RGB888, BGR888}},
		{2 * testW * testH, []Profile{RGB565}},
		{2*testW*testH - 1, nil},
	}
	for _, tc := range cases {
		got := Candidates(tc.n, testW, testH)
		if len(got) != len(tc.want) {
			t.Fatalf("n=%d: got %d candidates want %d", tc.n, len(got), len(tc.want))
		}
		for i := range got {
			if got[i].Profile != tc.want[i] {
				t.Fatalf("n=%d[%d]: got %s want %s", tc.n, i, got[i].Profile, tc.want[i])
			}
		}
	}
}

// TestDecode_ShortBufferYieldsErrorFrame checks every profile on a too-short buffer.
func TestDecode_ShortBufferYieldsErrorFrame(t *testing.T) {
	short := make([]byte, 2*testW*testH-1)
	for _, p := range append([]Profile{Auto}, Profiles...) {
		res := Decode(short, p, testW, testH)
		if res.OK() {
			t.Fatalf("%s: expected failure", p)
		}
		if res.Image.Bounds().Dx() != testW || res.Image.Bounds().Dy() != testH {
			t.Fatalf("%s: error frame size=%v", p, res.Image.Bounds())
		}
		if got := pixelAt(res.Image, testW-1, testH-1); got != [3]uint8{255, 0, 0} {
			t.Fatalf("%s: error frame colour %v", p, got)
		}
	}
	if res := Decode(short, Auto, testW, testH); !errors.Is(res.Err, ErrNoCandidate) {
		t.Fatalf("auto err=%v", res.Err)
	}
	if res := Decode(short, RGB565, testW, testH); !errors.Is(res.Err, ErrShortBuffer) {
		t.Fatalf("rgb565 err=%v", res.Err)
	}
}

// TestDecode_LongerBufferUsesPrefix checks that trailing bytes are ignored.
func TestDecode_LongerBufferUsesPrefix(t *testing.T) {
	data := append(encode(RGB565, testW, testH), 0xAA, 0xBB, 0xCC)
	res := Decode(data, RGB565, testW, testH)
	if !res.OK() {
		t.Fatalf("unexpected error %v", res.Err)
	}
	if got, want := pixelAt(res.Image, 0, 0), want565(synth(0)); got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

// TestDecode_Deterministic checks that repeated decodes match byte for byte.
func TestDecode_Deterministic(t *testing.T) {
	data := encode(BGR888, testW, testH)
	a := Decode(data, Auto, testW, testH)
	b := Decode(data, Auto, testW, testH)
	if string(a.Image.Pix) != string(b.Image.Pix) || a.Profile != b.Profile {
		t.Fatalf("decode not deterministic")
	}
}

// TestParseProfile checks name resolution.
func TestParseProfile(t *testing.T) {
	p, err := ParseProfile(" bgra8888 ")
	if err != nil || p != BGRA8888 {
		t.Fatalf("got %s err=%v", p, err)
	}
	if _, err := ParseProfile("YUV"); err == nil {
		t.Fatalf("expected error")
	}
	if RGB888.BytesPerPixel() != 3 || !BGR888.Swapped() || RGBA8888.Swapped() {
		t.Fatalf("profile metadata mismatch")
	}
}
