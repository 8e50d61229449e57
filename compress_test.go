package colopresso

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestCompressBytesPNGXNeverGrowsPalettizableInput(t *testing.T) {
	data := genFewColorsPNG(t, 60, 60)
	result, err := CompressBytes(context.Background(), data, CompressOptions{
		Format: FormatPNGX,
		Config: DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("CompressBytes: %v", err)
	}
	if result.Format != FormatPNGX {
		t.Fatalf("got format %v, want FormatPNGX", result.Format)
	}
	if result.CompressedSize >= result.OriginalSize {
		t.Fatalf("compressed size %d >= original size %d", result.CompressedSize, result.OriginalSize)
	}
}

func TestCompressBytesAutoPicksSmallestAvailableCandidate(t *testing.T) {
	data := genFewColorsPNG(t, 60, 60)
	result, err := CompressBytes(context.Background(), data, CompressOptions{
		Format: FormatAuto,
		Config: DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("CompressBytes: %v", err)
	}
	if len(result.Data) == 0 {
		t.Fatalf("expected non-empty compressed data")
	}
	if px, err := EncodePNGX(data, DefaultConfig().PNGX); err == nil && result.CompressedSize > len(px.PNG) {
		t.Fatalf("auto result is %d bytes, larger than the PNGX candidate's %d bytes", result.CompressedSize, len(px.PNG))
	}
	if wp, err := EncodeWebP(data, DefaultConfig().WebP); err == nil && result.CompressedSize > len(wp) {
		t.Fatalf("auto result is %d bytes, larger than the WebP candidate's %d bytes", result.CompressedSize, len(wp))
	}
}

func TestCompressBytesProgressReportsAllStages(t *testing.T) {
	data := genFewColorsPNG(t, 32, 32)
	var seen []Stage
	_, err := CompressBytes(context.Background(), data, CompressOptions{
		Format: FormatPNGX,
		Config: DefaultConfig(),
		OnProgress: func(stage Stage, frac float64) {
			seen = append(seen, stage)
		},
	})
	if err != nil {
		t.Fatalf("CompressBytes: %v", err)
	}
	want := []Stage{StageAnalyzing, StageEncoding, StageSelecting, StageWriting}
	if len(seen) != len(want) {
		t.Fatalf("got %d progress calls, want %d: %v", len(seen), len(want), seen)
	}
	for i, s := range want {
		if seen[i] != s {
			t.Fatalf("progress call %d = %v, want %v", i, seen[i], s)
		}
	}
}

func TestCompressBytesCanceledContext(t *testing.T) {
	data := genFewColorsPNG(t, 16, 16)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CompressBytes(ctx, data, CompressOptions{Format: FormatPNGX, Config: DefaultConfig()})
	if err == nil {
		t.Fatalf("expected an error from a canceled context")
	}
}

func TestCompressBytesRejectsInvalidFormat(t *testing.T) {
	data := genFewColorsPNG(t, 16, 16)
	_, err := CompressBytes(context.Background(), data, CompressOptions{Format: Format(99), Config: DefaultConfig()})
	var ce *Error
	if !errors.As(err, &ce) || ce.Code != ErrInvalidFormat {
		t.Fatalf("got err=%v, want ErrInvalidFormat", err)
	}
}

func TestCompressBytesRejectsOversizedInput(t *testing.T) {
	oversized := make([]byte, maxInputSize+1)
	_, err := CompressBytes(context.Background(), oversized, CompressOptions{Format: FormatPNGX, Config: DefaultConfig()})
	var ce *Error
	if !errors.As(err, &ce) || ce.Code != ErrInvalidParameter {
		t.Fatalf("got err=%v, want ErrInvalidParameter", err)
	}
}

func TestCompressFileMissingSourceReturnsFileNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := CompressFile(context.Background(), filepath.Join(dir, "missing.png"), filepath.Join(dir, "out.webp"), CompressOptions{
		Format: FormatPNGX,
		Config: DefaultConfig(),
	})
	var ce *Error
	if !errors.As(err, &ce) || ce.Code != ErrFileNotFound {
		t.Fatalf("got err=%v, want ErrFileNotFound", err)
	}
}

func TestCompressBytesRejectsNonPNGInput(t *testing.T) {
	_, err := CompressBytes(context.Background(), []byte("not a png"), CompressOptions{
		Format: FormatPNGX,
		Config: DefaultConfig(),
	})
	var ce *Error
	if !errors.As(err, &ce) || ce.Code != ErrInvalidPNG {
		t.Fatalf("got err=%v, want ErrInvalidPNG", err)
	}
}
