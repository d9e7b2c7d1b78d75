package types

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/exp/maps"
)

// PhaseRun is the timing phase covering a whole pump run
const PhaseRun = "run"

type Timing struct {
	Start time.Time
	End   time.Time
}

func (t Timing) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// TimingMap records the time spent in each named phase of a run
type TimingMap map[string]Timing

// Start begins timing the named phase
func (m TimingMap) Start(phase string) {
	m[phase] = Timing{Start: time.Now()}
}

// End stops timing the named phase. It is a no-op if the phase was never started.
func (m TimingMap) End(phase string) {
	t, ok := m[phase]
	if !ok {
		return
	}
	t.End = time.Now()
	m[phase] = t
}

func (m TimingMap) String() string {
	var sb strings.Builder
	sb.WriteString("Timing:\n")

	keys := maps.Keys(m)
	slices.Sort(keys)

	// get max label length
	maxLabelLen := 0
	for _, k := range keys {
		if len(k) > maxLabelLen {
			maxLabelLen = len(k)
		}
	}

	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(":")
		// pad label to max length
		sb.WriteString(strings.Repeat(" ", maxLabelLen-len(k)))
		sb.WriteString(m[k].Duration().String())
		sb.WriteString("\n")
	}
	return sb.String()
}
