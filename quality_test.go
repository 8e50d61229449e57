package colopresso

import "testing"

func TestSSIMIdenticalImagesIsOne(t *testing.T) {
	data := genGradientPNG(t, 64, 48)
	img, err := decodePNGImage("test", data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := SSIM(img, img)
	if got < 0.999 {
		t.Fatalf("SSIM of an image against itself = %v, want ~1.0", got)
	}
}

func TestMeasureQualityIdenticalBytesIsOne(t *testing.T) {
	data := genFewColorsPNG(t, 40, 40)
	ssim, err := MeasureQuality(data, data)
	if err != nil {
		t.Fatalf("MeasureQuality: %v", err)
	}
	if ssim < 0.999 {
		t.Fatalf("SSIM of identical bytes = %v, want ~1.0", ssim)
	}
}

func TestMSSSIMIdenticalImagesIsOne(t *testing.T) {
	data := genGradientPNG(t, 64, 64)
	img, err := decodePNGImage("test", data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := MSSSIM(img, img)
	if got < 0.99 {
		t.Fatalf("MSSSIM of an image against itself = %v, want ~1.0", got)
	}
}
