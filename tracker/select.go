package tracker

// Selection is the outcome of one selection pass.
type Selection struct {
	URLs    []string
	Skipped int
}

// Select returns the content of every tracker that should fire this cycle, in input order,
// and marks each of them as tracked before returning. Nil entries are ignored. A
// non-repeatable tracker which is already tracked is skipped.
//
// Marking happens here rather than after delivery: a non-repeatable tracker is never
// offered again even if its request later fails.
func Select[T Tracker](trackers []T) Selection {
	selection := Selection{URLs: make([]string, 0, len(trackers))}
	for _, t := range trackers {
		if isNil(t) {
			continue
		}
		if !t.MarkTracked() {
			selection.Skipped++
			continue
		}
		selection.URLs = append(selection.URLs, t.Content())
	}
	return selection
}

func isNil[T Tracker](t T) bool {
	switch v := any(t).(type) {
	case nil:
		return true
	case *VastTracker:
		return v == nil
	case *VastTrackerTwo:
		return v == nil
	}
	return false
}
