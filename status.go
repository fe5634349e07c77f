package ttyarb

import (
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Status is a point-in-time diagnostic snapshot of a Handle's connection.
// It has no effect on arbitration and exists purely for introspection,
// in the same spirit as the teacher's Commands.String() table.
type Status struct {
	Path          string
	Open          bool
	CoolingOff    bool
	CoolRemaining time.Duration
}

// String renders the status as a small two-column table.
func (s Status) String() string {
	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"field", "value"})
	table.Append([]string{"path", s.Path})
	table.Append([]string{"open", strconv.FormatBool(s.Open)})
	table.Append([]string{"cooling off", strconv.FormatBool(s.CoolingOff)})
	if s.CoolingOff {
		table.Append([]string{"cool remaining", s.CoolRemaining.String()})
	}
	table.Render()
	return buf.String()
}
