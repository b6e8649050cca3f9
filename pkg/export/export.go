// Package export renders an extracted schedule as JSON, CSV or a console
// report.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/kilianp07/rotation/core/model"
	"github.com/kilianp07/rotation/core/schedule"
)

// Formats accepted by Write.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// Write renders s in the named format.
func Write(w io.Writer, format string, s *schedule.Schedule) error {
	switch format {
	case FormatTable, "":
		return WriteTable(w, s)
	case FormatJSON:
		return WriteJSON(w, s)
	case FormatCSV:
		return WriteCSV(w, s)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteJSON writes the schedule to w in JSON format.
func WriteJSON(w io.Writer, s *schedule.Schedule) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteCSV writes one row per day: date, week, total, group_a and the
// attending ids separated by spaces.
func WriteCSV(w io.Writer, s *schedule.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "week", "total", "group_a", "children"}); err != nil {
		return err
	}
	for _, d := range s.Days {
		rec := []string{
			d.Date.Format(model.DateLayout),
			string(d.Week),
			strconv.Itoa(d.Total),
			strconv.Itoa(d.GroupA),
			joinIDs(d.Children),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable prints the attendance of each day, a blank line between weeks,
// followed by the summary figures.
func WriteTable(w io.Writer, s *schedule.Schedule) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tWEEK\tTOTAL\tGROUP A\tCHILDREN")
	var week model.WeekID
	for i, d := range s.Days {
		if i > 0 && d.Week != week {
			fmt.Fprintln(tw, "\t\t\t\t")
		}
		week = d.Week
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			d.Date.Format(model.DateLayout), d.Week, d.Total, d.GroupA, joinIDs(d.Children))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nStatus: %s\nTotal score: %s\nWeekly interaction: %s\nGender balance: %s\nLeast number of children: %s\n",
		s.Status,
		formatValue(s.Objective),
		formatValue(s.WeeklyInteraction),
		formatValue(s.GenderBalance),
		formatValue(s.MinAttendance))
	return err
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}

func formatValue(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
