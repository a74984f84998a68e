package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestExtractRegion_CentersAndClamps(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 100, 100))
	roi, rect, err := ExtractRegion(frame, 50, 50, 40, 20)
	if err != nil || roi == nil {
		t.Fatalf("expected region, got err=%v", err)
	}
	if rect != image.Rect(30, 40, 70, 60) {
		t.Fatalf("unexpected rect %v", rect)
	}
	if roi.Bounds() != image.Rect(0, 0, 40, 20) {
		t.Fatalf("copy should have zero origin, got %v", roi.Bounds())
	}
}

func TestExtractRegion_ShiftsAtEdge(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 20, 20))
	frame.SetRGBA(19, 19, color.RGBA{255, 0, 0, 255})
	roi, rect, err := ExtractRegion(frame, 18, 18, 10, 10)
	if err != nil {
		t.Fatalf("region error: %v", err)
	}
	if rect != image.Rect(10, 10, 20, 20) {
		t.Fatalf("expected shift inside frame, got %v", rect)
	}
	if got := roi.RGBAAt(9, 9); got.R != 255 {
		t.Fatalf("pixel not copied: %v", got)
	}
}

func TestExtractRegion_SizeLimits(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 30, 30))
	_, rect, _ := ExtractRegion(frame, 5, 5, 50, 50)
	if rect != frame.Bounds() {
		t.Fatalf("oversized request should cover frame, got %v", rect)
	}
	_, rect, _ = ExtractRegion(frame, 0, 0, 0, 0)
	if rect.Dx() != 1 || rect.Dy() != 1 {
		t.Fatalf("expected 1x1 got %dx%d", rect.Dx(), rect.Dy())
	}
	if _, _, err := ExtractRegion(nil, 0, 0, 1, 1); err == nil {
		t.Fatalf("nil frame should fail")
	}
}

func TestScaleToFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	if got := ScaleToFit(src, 500, 500); got != image.Image(src) {
		t.Fatalf("fitting image should be returned as is")
	}
	got := ScaleToFit(src, 100, 100).Bounds()
	if got.Dx() != 100 || got.Dy() != 50 {
		t.Fatalf("scaled to %v, want 100x50", got)
	}
}

func TestOutline(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	red := color.RGBA{255, 0, 0, 255}
	out := Outline(src, image.Rect(2, 2, 8, 8), red, 1)
	if out.RGBAAt(2, 5) != red || out.RGBAAt(7, 2) != red {
		t.Fatalf("border not drawn")
	}
	if out.RGBAAt(5, 5) == red {
		t.Fatalf("interior should be untouched")
	}
	if src.RGBAAt(2, 2) == red {
		t.Fatalf("source modified")
	}
	// Clipped rectangles must not panic.
	Outline(src, image.Rect(-5, -5, 20, 20), red, 2)
}

func TestEncodePNG(t *testing.T) {
	if EncodePNG(nil) != nil {
		t.Fatalf("nil image should encode to nil")
	}
	raw := EncodePNG(image.NewRGBA(image.Rect(0, 0, 3, 2)))
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil || img.Bounds().Dx() != 3 {
		t.Fatalf("round trip failed: %v", err)
	}
}
