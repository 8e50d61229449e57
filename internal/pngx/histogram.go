package pngx

import "sort"

// buildHistogram folds every pixel into a weighted color histogram,
// weighting each occurrence by its importance-map value so perceptually
// salient colors survive median-cut splitting longer. Entries are returned
// sorted by packed RGBA value.
func buildHistogram(buf *Buffer, importance *ImportanceMap) []HistogramEntry {
	counts := make(map[Color]*HistogramEntry, 4096)

	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			c := buf.At(x, y)
			weight := 1.0
			if importance != nil {
				weight = 1.0 + float64(importance.Values[y*buf.Width+x])/ImportanceScale
			}
			if e, ok := counts[c]; ok {
				e.Weight += weight
			} else {
				counts[c] = &HistogramEntry{Color: c, Weight: weight}
			}
		}
	}

	out := make([]HistogramEntry, 0, len(counts))
	for _, e := range counts {
		out = append(out, *e)
	}
	sortHistogram(out)
	return out
}

// sortHistogram orders entries by packed RGBA value, so callers see the
// same entry order regardless of map iteration order.
func sortHistogram(entries []HistogramEntry) {
	key := func(c Color) uint32 {
		return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
	}
	sort.Slice(entries, func(i, j int) bool { return key(entries[i].Color) < key(entries[j].Color) })
}

// deriveAnchorColors buckets the histogram into a 16x16x16 chroma grid and
// returns the mean color of the most heavily populated buckets, capped at
// maxDerivedColors. These anchors seed the quantize engine's fixed-color
// list so vibrant, underrepresented hues are not lost to larger clusters.
func deriveAnchorColors(entries []HistogramEntry, max int) []Color {
	if max <= 0 {
		max = maxDerivedColors
	}

	var grid ChromaBucketGrid
	for _, e := range entries {
		idx := chromaBucketIndex(e.Color)
		grid.Counts[idx]++
		grid.Sum[idx][0] += uint64(e.Color.R)
		grid.Sum[idx][1] += uint64(e.Color.G)
		grid.Sum[idx][2] += uint64(e.Color.B)
	}

	type bucketRank struct {
		idx   int
		count uint32
	}
	ranked := make([]bucketRank, 0, chromaBucketCount)
	for i, cnt := range grid.Counts {
		if cnt > 0 {
			ranked = append(ranked, bucketRank{i, cnt})
		}
	}

	// Simple selection of the top-N buckets by population; N is small
	// (<=48) so an O(n*N) partial selection is cheap relative to the
	// O(n log n) histogram build that precedes it.
	anchors := make([]Color, 0, max)
	used := make(map[int]bool, max)
	for len(anchors) < max && len(anchors) < len(ranked) {
		bestIdx := -1
		var bestCount uint32
		for _, r := range ranked {
			if used[r.idx] {
				continue
			}
			if r.count > bestCount {
				bestCount = r.count
				bestIdx = r.idx
			}
		}
		if bestIdx == -1 {
			break
		}
		used[bestIdx] = true
		anchors = append(anchors, grid.Mean(bestIdx))
	}

	return anchors
}
