package colopresso

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// BatchItem is one file to compress in a batch operation.
type BatchItem struct {
	Src  string
	Dst  string
	Opts *CompressOptions
}

// BatchResult holds the outcome for a single batch item.
type BatchResult struct {
	Item   BatchItem
	Result *CompressResult
	Err    error
	Index  int
}

// BatchOptions configures batch compression.
type BatchOptions struct {
	Workers     int
	DefaultOpts CompressOptions
	OnItem      func(completed, total int)
}

// CompressBatch compresses multiple PNG files concurrently with a worker
// pool, preserving input order in the returned slice. Cancelling ctx lets
// in-flight items finish but stops new ones from starting.
func CompressBatch(ctx context.Context, items []BatchItem, batchOpts BatchOptions) []BatchResult {
	if len(items) == 0 {
		return nil
	}

	workers := batchOpts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(items) {
		workers = len(items)
	}

	results := make([]BatchResult, len(items))
	workCh := make(chan int, len(items))
	var wg sync.WaitGroup
	var completed int
	var completedMu sync.Mutex

	for i := range items {
		workCh <- i
	}
	close(workCh)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				select {
				case <-ctx.Done():
					results[idx] = BatchResult{Item: items[idx], Err: ctx.Err(), Index: idx}
					continue
				default:
				}

				item := items[idx]
				opts := batchOpts.DefaultOpts
				if item.Opts != nil {
					opts = *item.Opts
				}

				result, err := CompressFile(context.WithoutCancel(ctx), item.Src, item.Dst, opts)
				results[idx] = BatchResult{Item: item, Result: result, Err: err, Index: idx}

				if batchOpts.OnItem != nil {
					completedMu.Lock()
					completed++
					c := completed
					completedMu.Unlock()
					batchOpts.OnItem(c, len(items))
				}
			}
		}()
	}

	wg.Wait()
	return results
}

// BatchSummary aggregates statistics across a batch run.
type BatchSummary struct {
	Total      int
	Succeeded  int
	Failed     int
	TotalSaved int64
	AvgSSIM    float64
}

// Summarize computes aggregate statistics from batch results.
func Summarize(results []BatchResult) BatchSummary {
	s := BatchSummary{Total: len(results)}
	var ssimSum float64
	var ssimCount int
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		if r.Result != nil {
			s.TotalSaved += int64(r.Result.OriginalSize - r.Result.CompressedSize)
			if r.Result.SSIM > 0 {
				ssimSum += r.Result.SSIM
				ssimCount++
			}
		}
	}
	if ssimCount > 0 {
		s.AvgSSIM = ssimSum / float64(ssimCount)
	}
	return s
}

// String returns a human-readable batch summary.
func (s BatchSummary) String() string {
	return fmt.Sprintf(
		"Batch: %d/%d succeeded | %s saved | Avg SSIM: %.4f",
		s.Succeeded, s.Total, humanBytes(s.TotalSaved), s.AvgSSIM,
	)
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
