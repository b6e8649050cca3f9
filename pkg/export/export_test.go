package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rotation/core/milp"
	"github.com/kilianp07/rotation/core/schedule"
)

func sample() *schedule.Schedule {
	mon := time.Date(2020, 9, 7, 0, 0, 0, 0, time.UTC)
	return &schedule.Schedule{
		Status: milp.StatusOptimal,
		Days: []schedule.DayAttendance{
			{Date: mon, Week: "2020-W37", Children: []int{1, 3, 5}, Total: 3, GroupA: 3},
			{Date: mon.AddDate(0, 0, 7), Week: "2020-W38", Children: []int{2, 4}, Total: 2, GroupA: 0},
		},
		Objective:         7,
		WeeklyInteraction: 5,
		GenderBalance:     0,
		MinAttendance:     2,
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))
	want := "date,week,total,group_a,children\n" +
		"2020-09-07,2020-W37,3,3,1 3 5\n" +
		"2020-09-14,2020-W38,2,0,2 4\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sample()))
	var got schedule.Schedule
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []int{1, 3, 5}, got.Days[0].Children)
	assert.Equal(t, 7.0, got.Objective)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "", sample()))
	out := buf.String()
	assert.Contains(t, out, "1 3 5")
	assert.Contains(t, out, "Total score: 7\n")
	assert.Contains(t, out, "Least number of children: 2\n")
	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "DATE"))
	assert.Empty(t, strings.TrimSpace(lines[2]), "weeks are separated by a blank row")
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "xml", sample()))
}
