package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// DefaultChannelOrder is the order the dashboard lists channels in. Channels
// not listed here serialize after these, alphabetically.
var DefaultChannelOrder = []string{
	"Edisons", "Mytopia", "eBay", "BigW", "Mydeals", "Kogan", "Bunnings", "Amazon DF", "Everyday Market",
}

type cells struct {
	counts  [BucketCount]int
	present [BucketCount]bool
}

// Tally is an immutable channel × bucket count table. Absent cells read as
// zero but are distinguishable through Lookup.
type Tally struct {
	rows map[string]*cells
}

// Lookup returns the count for a cell and whether the cell was recorded.
func (t Tally) Lookup(channel string, b Bucket) (int, bool) {
	r, ok := t.rows[channel]
	if !ok || !b.Valid() || !r.present[b] {
		return 0, false
	}
	return r.counts[b], true
}

// Count returns the count for a cell, zero when absent.
func (t Tally) Count(channel string, b Bucket) int {
	n, _ := t.Lookup(channel, b)
	return n
}

// HasChannel reports whether any cell was recorded for channel.
func (t Tally) HasChannel(channel string) bool {
	_, ok := t.rows[channel]
	return ok
}

// Channels returns the recorded channels in serialization order.
func (t Tally) Channels() []string {
	out := make([]string, 0, len(t.rows))
	for ch := range t.rows {
		out = append(out, ch)
	}
	SortChannels(out)
	return out
}

// Total sums every recorded cell.
func (t Tally) Total() int {
	total := 0
	for _, r := range t.rows {
		for b := range r.counts {
			total += r.counts[b]
		}
	}
	return total
}

// Empty reports whether nothing was recorded.
func (t Tally) Empty() bool { return len(t.rows) == 0 }

// MarshalJSON writes {"channel": {"bucket label": n}} with channels and
// buckets in dashboard order; absent cells are omitted.
func (t Tally) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ch := range t.Channels() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ch)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(":{")
		r := t.rows[ch]
		first := true
		for _, b := range Buckets() {
			if !r.present[b] {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			fmt.Fprintf(&buf, "%q:%d", b.Label(), r.counts[b])
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the MarshalJSON layout. Unknown bucket labels are
// rejected so that a cached value from an older schedule is not misread.
func (t *Tally) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tb := NewTallyBuilder()
	for ch, row := range raw {
		tb.Touch(ch)
		for label, n := range row {
			b, ok := ParseBucket(label)
			if !ok {
				return fmt.Errorf("tally: unknown bucket label %q", label)
			}
			tb.Set(ch, b, n)
		}
	}
	*t = tb.Build()
	return nil
}

// TallyBuilder accumulates cells before freezing them into a Tally.
type TallyBuilder struct {
	rows map[string]*cells
}

func NewTallyBuilder() *TallyBuilder {
	return &TallyBuilder{rows: make(map[string]*cells)}
}

func (tb *TallyBuilder) row(channel string) *cells {
	r, ok := tb.rows[channel]
	if !ok {
		r = &cells{}
		tb.rows[channel] = r
	}
	return r
}

// Touch records channel without any cells.
func (tb *TallyBuilder) Touch(channel string) *TallyBuilder {
	tb.row(channel)
	return tb
}

// Add increments a cell by n, marking it present.
func (tb *TallyBuilder) Add(channel string, b Bucket, n int) *TallyBuilder {
	if !b.Valid() {
		return tb
	}
	r := tb.row(channel)
	r.counts[b] += n
	r.present[b] = true
	return tb
}

// Set overwrites a cell, marking it present.
func (tb *TallyBuilder) Set(channel string, b Bucket, n int) *TallyBuilder {
	if !b.Valid() {
		return tb
	}
	r := tb.row(channel)
	r.counts[b] = n
	r.present[b] = true
	return tb
}

// Build freezes the builder. The builder is reset and may be reused.
func (tb *TallyBuilder) Build() Tally {
	t := Tally{rows: tb.rows}
	tb.rows = make(map[string]*cells)
	return t
}

// SortChannels orders channels in place: DefaultChannelOrder first, the rest
// alphabetically.
func SortChannels(channels []string) {
	rank := make(map[string]int, len(DefaultChannelOrder))
	for i, ch := range DefaultChannelOrder {
		rank[ch] = i
	}
	sort.SliceStable(channels, func(i, j int) bool {
		ri, iok := rank[channels[i]]
		rj, jok := rank[channels[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		default:
			return channels[i] < channels[j]
		}
	})
}

// DailyAggregate is the tally of one business day.
type DailyAggregate struct {
	Tally
}

// ForecastResult holds a predicted count for every channel × bucket cell.
type ForecastResult struct {
	Tally
}
