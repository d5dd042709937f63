package pipeline

import (
	"os"
	"strings"
	"time"

	"trendpulse-go/pkg/dataset"
)

// RunGuard enforces the once-per-calendar-day execution policy through a
// sentinel file holding the last successful run date (YYYY-MM-DD).
type RunGuard struct {
	path string
	now  func() time.Time
}

func NewRunGuard(path string) *RunGuard {
	return &RunGuard{path: path, now: time.Now}
}

// AlreadyRanToday reports whether the sentinel records today's date. A
// missing or unreadable sentinel means the run may proceed.
func (g *RunGuard) AlreadyRanToday() bool {
	data, err := os.ReadFile(g.path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == g.today()
}

// MarkRanToday records today's date in the sentinel. It is called at the
// end of a run attempt, never on an early already-ran exit, and never after
// a fatal error.
func (g *RunGuard) MarkRanToday() error {
	return os.WriteFile(g.path, []byte(g.today()), 0644)
}

func (g *RunGuard) today() string {
	return g.now().Format(dataset.DateFormat)
}
