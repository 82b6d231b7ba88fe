package imports

// Window is the half-open slice [Start, End) of the source chapter list
// selected for one sync attempt.
type Window struct {
	Start int
	End   int
}

func (w Window) Empty() bool {
	return w.Start >= w.End
}

func (w Window) Size() int {
	if w.Empty() {
		return 0
	}
	return w.End - w.Start
}

// ComputeWindow derives the fetch window for one sync attempt. It is a
// pure function of its inputs, so replaying the same message against an
// unchanged list and cursor yields the same window.
//
// lastSynced counts source chapters already synced and therefore doubles
// as the 0-based index of the next list entry to pull. startChapter and
// endChapter are 1-based inclusive positions in source numbering. Both
// bounds are clamped into [0, listSize].
func ComputeWindow(listSize int, lastSynced int, fullImport bool, startChapter, endChapter *int) Window {
	start, end := 0, listSize

	if !fullImport {
		start = max(0, lastSynced)
		if startChapter != nil {
			start = max(start, *startChapter-1)
		}
		if endChapter != nil {
			end = min(end, *endChapter)
		}
	} else if startChapter != nil || endChapter != nil {
		if startChapter != nil {
			start = *startChapter - 1
		}
		if endChapter != nil {
			end = *endChapter
		}
	}

	start = clamp(start, 0, listSize)
	end = clamp(end, 0, listSize)
	if end < start {
		end = start
	}

	return Window{Start: start, End: end}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
