package combat

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
)

// Meter accumulates damage by human-readable source label.
// A nil Meter is valid and records nothing.
type Meter map[string]float64

// Add records amount under label. A no-op on a nil Meter.
func (m Meter) Add(label string, amount float64) {
	if m == nil {
		return
	}
	m[label] += amount
}

// Total returns the sum of all recorded damage.
func (m Meter) Total() float64 {
	total := 0.0
	for _, label := range m.labels() {
		total += m[label]
	}
	return total
}

// Entry is one row of a sorted Meter.
type Entry struct {
	Label  string
	Damage float64
}

// Sorted returns the meter rows by descending damage, ties by label.
func (m Meter) Sorted() []Entry {
	out := make([]Entry, 0, len(m))
	for _, label := range m.labels() {
		out = append(out, Entry{Label: label, Damage: m[label]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Damage > out[j].Damage })
	return out
}

// Merge adds every row of other into m.
func (m Meter) Merge(other Meter) {
	for _, label := range other.labels() {
		m.Add(label, other[label])
	}
}

func (m Meter) labels() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// WriteTable renders the meter as an aligned table of source, damage, share
// of total, and damage per second over seconds, followed by a total row.
func (m Meter) WriteTable(w io.Writer, seconds float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	total := m.Total()
	fmt.Fprintln(tw, "SOURCE\tDAMAGE\tSHARE\tDPS\t")
	for _, e := range m.Sorted() {
		share := 0.0
		if total > 0 {
			share = e.Damage / total * 100
		}
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f%%\t%.1f\t\n", e.Label, e.Damage, share, perSecond(e.Damage, seconds))
	}
	fmt.Fprintf(tw, "TOTAL\t%.1f\t100.0%%\t%.1f\t\n", total, perSecond(total, seconds))
	return tw.Flush()
}

func perSecond(v, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return v / seconds
}
