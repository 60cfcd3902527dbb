package vision

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeBase64(t *testing.T) {
	payload := []byte("face-bytes")
	std := base64.StdEncoding.EncodeToString(payload)
	raw := base64.RawStdEncoding.EncodeToString(payload)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", std, false},
		{"data uri", "data:image/jpeg;base64," + std, false},
		{"unpadded", raw, false},
		{"surrounding whitespace", "  " + std + "\n", false},
		{"empty", "", true},
		{"empty data uri", "data:image/png;base64,", true},
		{"garbage", "!!!not base64!!!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBase64(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeBase64() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, payload) {
				t.Errorf("DecodeBase64() = %q, want %q", got, payload)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img, err := Decode(encodePNG(t, src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}

	if _, err := Decode(nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := Decode([]byte("definitely not an image")); err == nil {
		t.Error("expected error for undecodable payload")
	}
}

func TestToGray(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 14, 12))
	src.Set(10, 10, color.RGBA{255, 255, 255, 255})

	gray := ToGray(src)
	if gray.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Fatalf("expected origin-anchored bounds, got %v", gray.Bounds())
	}
	if gray.GrayAt(0, 0).Y != 255 {
		t.Errorf("expected white top-left pixel, got %d", gray.GrayAt(0, 0).Y)
	}
	if gray.GrayAt(1, 0).Y != 0 {
		t.Errorf("expected black pixel, got %d", gray.GrayAt(1, 0).Y)
	}

	already := image.NewGray(image.Rect(0, 0, 2, 2))
	if ToGray(already) != already {
		t.Error("expected origin-anchored gray image to be returned as is")
	}
}

func TestCrop(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			src.SetGray(x, y, color.Gray{Y: uint8(y*10 + x)})
		}
	}

	tests := []struct {
		name     string
		rect     image.Rectangle
		wantSize image.Point
		wantTL   uint8
	}{
		{"inside", image.Rect(2, 3, 5, 7), image.Pt(3, 4), 32},
		{"clipped", image.Rect(8, 8, 20, 20), image.Pt(2, 2), 88},
		{"negative origin", image.Rect(-5, -5, 2, 2), image.Pt(2, 2), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Crop(src, tt.rect)
			if got == nil {
				t.Fatal("expected crop, got nil")
			}
			if got.Bounds().Size() != tt.wantSize {
				t.Errorf("size = %v, want %v", got.Bounds().Size(), tt.wantSize)
			}
			if got.GrayAt(0, 0).Y != tt.wantTL {
				t.Errorf("top-left = %d, want %d", got.GrayAt(0, 0).Y, tt.wantTL)
			}
		})
	}

	if Crop(src, image.Rect(20, 20, 30, 30)) != nil {
		t.Error("expected nil for a rectangle outside the image")
	}
}

func TestPixels_SubImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = uint8(i)
	}
	sub := src.SubImage(image.Rect(1, 1, 3, 3)).(*image.Gray)

	got := Pixels(sub)
	want := []uint8{5, 6, 9, 10}
	if !bytes.Equal(got, want) {
		t.Errorf("Pixels() = %v, want %v", got, want)
	}
}

func TestPigoDetector_EmptyImage(t *testing.T) {
	d := &PigoDetector{}
	faces, err := d.Detect(image.NewGray(image.Rectangle{}), DetectParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("expected no faces, got %v", faces)
	}
}

func TestLoadPigoDetector_MissingFile(t *testing.T) {
	if _, err := LoadPigoDetector(filepath.Join(t.TempDir(), "facefinder")); err == nil {
		t.Error("expected error for missing cascade")
	}
}

func TestPigoDetector_FacefinderCascade(t *testing.T) {
	d, err := LoadPigoDetector(filepath.Join("testdata", "facefinder"))
	if err != nil {
		t.Fatalf("failed to load cascade: %v", err)
	}

	data, err := os.ReadFile(filepath.Join("testdata", "sample.jpg"))
	if err != nil {
		t.Fatalf("failed to read sample: %v", err)
	}
	img, err := Decode(data)
	if err != nil {
		t.Fatalf("failed to decode sample: %v", err)
	}
	gray := ToGray(img)
	params := DetectParams{ScaleFactor: 1.1, ShiftFactor: 0.2, MinSize: 20}

	faces, err := d.Detect(gray, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(faces) == 0 {
		t.Fatal("expected at least one face in sample.jpg")
	}
	for _, f := range faces {
		if f.Empty() || !f.In(gray.Bounds()) {
			t.Errorf("face %v outside image bounds %v", f, gray.Bounds())
		}
	}

	blank := image.NewGray(image.Rect(0, 0, 200, 200))
	faces, err = d.Detect(blank, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("expected no faces on a blank frame, got %v", faces)
	}
}
