package colopresso

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCompressBatchPreservesOrderAndWritesFiles(t *testing.T) {
	dir := t.TempDir()
	var items []BatchItem
	for i := 0; i < 4; i++ {
		src := filepath.Join(dir, fileNameN("in", i))
		data := genFewColorsPNG(t, 20+i, 20+i)
		if err := os.WriteFile(src, data, 0644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		items = append(items, BatchItem{
			Src: src,
			Dst: filepath.Join(dir, fileNameN("out", i)),
		})
	}

	results := CompressBatch(context.Background(), items, BatchOptions{
		Workers:     2,
		DefaultOpts: CompressOptions{Format: FormatPNGX, Config: DefaultConfig()},
	})

	if len(results) != len(items) {
		t.Fatalf("got %d results, want %d", len(results), len(items))
	}
	for i, r := range results {
		if r.Index != i {
			t.Fatalf("result %d has Index=%d, want %d", i, r.Index, i)
		}
		if r.Err != nil {
			t.Fatalf("item %d failed: %v", i, r.Err)
		}
		if _, err := os.Stat(items[i].Dst); err != nil {
			t.Fatalf("item %d output not written: %v", i, err)
		}
	}

	summary := Summarize(results)
	if summary.Succeeded != len(items) {
		t.Fatalf("summary.Succeeded=%d, want %d", summary.Succeeded, len(items))
	}
}

func fileNameN(prefix string, n int) string {
	return prefix + "_" + string(rune('0'+n)) + ".png"
}
