// Command colopresso compresses PNG images into WebP or an optimized
// PNG variant, keeping whichever is smallest.
//
// Usage:
//
//	colopresso [flags] <input.png> [output]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shamspias/colopresso"
)

func main() {
	var (
		format      string
		quality     float64
		lossyType   string
		maxColors   int
		targetSize  string
		speed       int
	)

	flag.StringVar(&format, "format", "auto", "Output format: auto|webp|avif|pngx")
	flag.Float64Var(&quality, "quality", 0, "WebP quality 0-100 (0 = use default)")
	flag.StringVar(&lossyType, "pngx-lossy", "", "PNGX lossy strategy: palette256|limited4444|reduced32 (empty = default, palette256)")
	flag.IntVar(&maxColors, "pngx-max-colors", 0, "PNGX palette256 max colors (0 = use default)")
	flag.StringVar(&targetSize, "webp-target-size", "", "WebP target size (e.g. 100KB, 2MB)")
	flag.IntVar(&speed, "pngx-speed", 0, "PNGX quantizer speed 1-10 (0 = use default)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: colopresso [flags] <input.png> [output]")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}

	input := args[0]
	output := ""
	if len(args) >= 2 {
		output = args[1]
	} else {
		ext := filepath.Ext(input)
		base := strings.TrimSuffix(input, ext)
		output = base + "_compressed"
	}

	cfg := colopresso.DefaultConfig()
	if quality > 0 {
		cfg.WebP.Quality = float32(quality)
	}
	if speed > 0 {
		cfg.PNGX.LossySpeed = speed
	}
	if maxColors > 0 {
		cfg.PNGX.LossyMaxColors = maxColors
	}
	if targetSize != "" {
		n, err := parseSize(targetSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid webp-target-size %q: %v\n", targetSize, err)
			os.Exit(1)
		}
		cfg.WebP.TargetSize = n
	}
	switch strings.ToLower(lossyType) {
	case "":
	case "palette256":
		cfg.PNGX.LossyType = 0
	case "limited4444":
		cfg.PNGX.LossyType = 1
	case "reduced32":
		cfg.PNGX.LossyType = 2
	default:
		fmt.Fprintf(os.Stderr, "Unknown pngx-lossy: %s\n", lossyType)
		os.Exit(1)
	}

	opts := colopresso.CompressOptions{Config: cfg}
	switch strings.ToLower(format) {
	case "auto":
		opts.Format = colopresso.FormatAuto
	case "webp":
		opts.Format = colopresso.FormatWebP
	case "avif":
		opts.Format = colopresso.FormatAVIF
	case "pngx":
		opts.Format = colopresso.FormatPNGX
	default:
		fmt.Fprintf(os.Stderr, "Unknown format: %s\n", format)
		os.Exit(1)
	}

	result, err := colopresso.CompressFile(context.Background(), input, output, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("saved %s -> %s (%s, %d -> %d bytes, %.1f%% smaller)\n",
		input, output, formatName(result.Format),
		result.OriginalSize, result.CompressedSize,
		100*(1-float64(result.CompressedSize)/float64(result.OriginalSize)))
	if result.SSIM > 0 {
		fmt.Printf("SSIM: %.4f\n", result.SSIM)
	}
}

func parseSize(s string) (int, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	multiplier := 1
	switch {
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return int(n * float64(multiplier)), nil
}

func formatName(f colopresso.Format) string {
	switch f {
	case colopresso.FormatWebP:
		return "webp"
	case colopresso.FormatAVIF:
		return "avif"
	case colopresso.FormatPNGX:
		return "pngx"
	default:
		return "auto"
	}
}
