package schedule

import (
	"github.com/kilianp07/rotation/core/milp"
	"github.com/kilianp07/rotation/core/model"
)

// Constraint families emitted by Build.
const (
	FamilyCapacity        = "capacity"
	FamilyAttendanceFloor = "attendance_floor"
	FamilyFrequencyMin    = "frequency_min"
	FamilyFrequencyMax    = "frequency_max"
	FamilyCoverage        = "coverage"
	FamilyDailyLink       = "daily_link"
	FamilyWeeklyLink      = "weekly_link"
	FamilyBalanceFloor    = "balance_floor"
)

// Variable families.
const (
	VarAssign        = "x"
	VarPairDay       = "p"
	VarWeekly        = "w"
	VarGenderBalance = "gender_balance"
	VarMinAttendance = "z"
)

// Plan is a built model together with the index sets it was generated from.
type Plan struct {
	Model    *milp.Model
	Config   Config
	Days     model.Calendar
	Children model.Population
	Pairs    []model.Pair
	Weeks    []model.WeekID
	// WeekDays lists day indexes per week, consistent with Weeks.
	WeekDays map[model.WeekID][]int
	// DayWeek is the week each day was assigned to, by day index.
	DayWeek []model.WeekID

	Assign  [][]milp.VarRef // [day][child]
	PairDay [][]milp.VarRef // [day][pair]
	Weekly  [][]milp.VarRef // [week][pair]

	GenderBalance milp.VarRef
	MinAttendance milp.VarRef
}

// weekOf returns the week day d was built with.
func (p *Plan) weekOf(d int) model.WeekID {
	if d < len(p.DayWeek) {
		return p.DayWeek[d]
	}
	return p.Days[d].Week
}

// Stats is a shortcut for Model.Stats.
func (p *Plan) Stats() milp.Stats { return p.Model.Stats() }
