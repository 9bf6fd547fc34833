package sync

import (
	"fmt"
	"strings"
	"time"
)

// maxSummaryErrors bounds how many per-record errors a rendered summary
// shows before truncating with a "+N more" suffix. Deliberate UX
// contract: the full list stays available on the result itself.
const maxSummaryErrors = 5

// PhaseResult reports one phase's work for one entity kind.
type PhaseResult struct {
	// Count is the number of records the phase acted on.
	Count int

	// Errors holds per-record failure messages. The phase continued
	// past each of these.
	Errors []string
}

// CycleResult aggregates a full Push/Pull/Prune cycle across all
// entity kinds.
type CycleResult struct {
	Pushed int
	Pulled int
	Pruned int

	// Errors collects per-record failures plus at most one fatal
	// cycle-level error (local store, credentials).
	Errors []string

	// Offline is set when connectivity failed; remaining phases were
	// skipped and no per-record errors were recorded for them.
	Offline bool

	Duration time.Duration
}

// Success reports whether the cycle completed with an empty error list.
func (r *CycleResult) Success() bool {
	return !r.Offline && len(r.Errors) == 0
}

// Merge folds a phase result into the cycle totals using add to route
// the count.
func (r *CycleResult) merge(pr *PhaseResult, counter *int) {
	if pr == nil {
		return
	}
	*counter += pr.Count
	r.Errors = append(r.Errors, pr.Errors...)
}

// Summary renders a human-readable multi-line report: counts first,
// then a truncated error list.
func (r *CycleResult) Summary() string {
	var b strings.Builder
	if r.Offline {
		b.WriteString("sync cycle aborted: offline\n")
	}
	fmt.Fprintf(&b, "pushed=%d pulled=%d pruned=%d", r.Pushed, r.Pulled, r.Pruned)
	if r.Duration > 0 {
		fmt.Fprintf(&b, " (%s)", r.Duration.Round(time.Millisecond))
	}
	b.WriteString("\n")
	writeTruncatedErrors(&b, r.Errors)
	return strings.TrimSuffix(b.String(), "\n")
}

// writeTruncatedErrors appends the first maxSummaryErrors messages and
// a "+N more" line for the rest.
func writeTruncatedErrors(b *strings.Builder, errs []string) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(b, "errors (%d):\n", len(errs))
	shown := errs
	if len(shown) > maxSummaryErrors {
		shown = shown[:maxSummaryErrors]
	}
	for _, e := range shown {
		fmt.Fprintf(b, "  - %s\n", e)
	}
	if extra := len(errs) - len(shown); extra > 0 {
		fmt.Fprintf(b, "  ... +%d more\n", extra)
	}
}
