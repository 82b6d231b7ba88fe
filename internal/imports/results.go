package imports

import "github.com/novelvip/novelsync/internal/crawler"

// ChapterResult records the outcome of one item of the window. The
// orchestrator decides cursor advancement and the final status message
// from the accumulated list instead of burying failures in logs.
type ChapterResult struct {
	Chapter      crawler.ChapterInfo
	TargetNumber int
	Err          error
}

func (r ChapterResult) Failed() bool {
	return r.Err != nil
}

// RunResult accumulates per-item outcomes of one sync attempt.
type RunResult struct {
	Results []ChapterResult
}

func (r *RunResult) Add(result ChapterResult) {
	r.Results = append(r.Results, result)
}

// Processed counts items that imported successfully.
func (r *RunResult) Processed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Failed() {
			n++
		}
	}
	return n
}

// Failed counts items that were attempted and failed.
func (r *RunResult) Failed() int {
	return len(r.Results) - r.Processed()
}

// Cursor returns the source-relative number the sync cursor should
// advance to: the last successful item in window order. ok is false when
// nothing succeeded, in which case the cursor must stay where it was.
func (r *RunResult) Cursor() (int, bool) {
	cursor, ok := 0, false
	for _, res := range r.Results {
		if !res.Failed() {
			cursor, ok = res.Chapter.ChapterNumber, true
		}
	}
	return cursor, ok
}
