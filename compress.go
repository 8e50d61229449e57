package colopresso

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Stage identifies where CompressFile/CompressBytes currently are, for
// progress reporting on large batches.
type Stage int

const (
	StageAnalyzing Stage = iota
	StageEncoding
	StageSelecting
	StageWriting
)

func (s Stage) String() string {
	switch s {
	case StageAnalyzing:
		return "analyzing"
	case StageEncoding:
		return "encoding"
	case StageSelecting:
		return "selecting"
	case StageWriting:
		return "writing"
	default:
		return "unknown"
	}
}

// Format selects which encoder edge(s) CompressFile/CompressBytes use.
type Format int

const (
	// FormatAuto tries every wired edge (WebP and PNGX; AVIF is skipped
	// since it always returns ErrAVIFUnavailable) and keeps the smallest.
	FormatAuto Format = iota
	FormatWebP
	FormatAVIF
	FormatPNGX
)

// CompressOptions configures a single compress call.
type CompressOptions struct {
	Format     Format
	Config     Config
	OnProgress func(stage Stage, frac float64)
}

// CompressResult reports which format won and the encoded bytes.
type CompressResult struct {
	Format         Format
	Data           []byte
	OriginalSize   int
	CompressedSize int
	SSIM           float64
	PNGX           *PNGXResult
}

func reportProgress(ctx context.Context, onProgress func(Stage, float64), stage Stage, frac float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if onProgress != nil {
		onProgress(stage, frac)
	}
	return nil
}

// CompressBytes picks the smallest of the requested encoder outputs for
// a PNG byte slice. When the PNGX candidate wins, it also measures SSIM
// against the source to report quality; otherwise SSIM is left at zero.
func CompressBytes(ctx context.Context, pngData []byte, opts CompressOptions) (*CompressResult, error) {
	if err := validatePNGInput("CompressBytes", pngData); err != nil {
		return nil, err
	}
	switch opts.Format {
	case FormatAuto, FormatWebP, FormatAVIF, FormatPNGX:
	default:
		return nil, newError("CompressBytes", ErrInvalidFormat, fmt.Errorf("unrecognized format %d", opts.Format))
	}

	if err := reportProgress(ctx, opts.OnProgress, StageAnalyzing, 0); err != nil {
		return nil, err
	}

	type candidate struct {
		format Format
		data   []byte
		pngx   *PNGXResult
	}
	var candidates []candidate

	tryFormat := func(f Format) error {
		switch f {
		case FormatWebP:
			data, err := EncodeWebP(pngData, opts.Config.WebP)
			if err != nil {
				return err
			}
			candidates = append(candidates, candidate{format: FormatWebP, data: data})
		case FormatAVIF:
			data, err := EncodeAVIF(pngData, opts.Config.AVIF)
			if err != nil {
				return err
			}
			candidates = append(candidates, candidate{format: FormatAVIF, data: data})
		case FormatPNGX:
			r, err := EncodePNGX(pngData, opts.Config.PNGX)
			if err != nil {
				return err
			}
			candidates = append(candidates, candidate{format: FormatPNGX, data: r.PNG, pngx: &r})
		}
		return nil
	}

	if err := reportProgress(ctx, opts.OnProgress, StageEncoding, 0.2); err != nil {
		return nil, err
	}

	switch opts.Format {
	case FormatAuto:
		if err := tryFormat(FormatWebP); err != nil {
			logf(LevelWarning, "compress: webp candidate failed: %v", err)
		}
		if err := tryFormat(FormatPNGX); err != nil {
			logf(LevelWarning, "compress: pngx candidate failed: %v", err)
		}
	default:
		if err := tryFormat(opts.Format); err != nil {
			return nil, err
		}
	}

	if len(candidates) == 0 {
		return nil, newError("CompressBytes", ErrEncodeFailed, fmt.Errorf("no candidate encoder produced output"))
	}

	if err := reportProgress(ctx, opts.OnProgress, StageSelecting, 0.8); err != nil {
		return nil, err
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if len(c.data) < len(best.data) {
			best = c
		}
	}

	result := &CompressResult{
		Format:         best.format,
		Data:           best.data,
		OriginalSize:   len(pngData),
		CompressedSize: len(best.data),
		PNGX:           best.pngx,
	}

	if best.format == FormatPNGX {
		if ssim, err := MeasureQuality(pngData, best.data); err == nil {
			result.SSIM = ssim
		}
	}

	if err := reportProgress(ctx, opts.OnProgress, StageWriting, 1.0); err != nil {
		return nil, err
	}

	return result, nil
}

// CompressFile reads a PNG from src, compresses it per opts, and writes
// the winning candidate to dst.
func CompressFile(ctx context.Context, src, dst string, opts CompressOptions) (*CompressResult, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError("CompressFile", ErrFileNotFound, err)
		}
		return nil, newError("CompressFile", ErrIO, err)
	}

	result, err := CompressBytes(ctx, data, opts)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(dst, result.Data, 0644); err != nil {
		return nil, newError("CompressFile", ErrIO, err)
	}

	return result, nil
}
