package schedule

import (
	"fmt"

	"github.com/kilianp07/rotation/core/milp"
	"github.com/kilianp07/rotation/core/model"
)

// ModelName names every model produced by Build.
const ModelName = "school_rotation"

// Input gathers the resolved calendar and population.
type Input struct {
	Days     model.Calendar
	Children model.Population
	Pairs    []model.Pair
	// WeekOf maps a day to its week. Nil uses Day.Week.
	WeekOf func(model.Day) model.WeekID
}

// Build generates variables, constraints and the objective. It checks inputs
// and settings but never feasibility: an infeasible model is returned as is.
func Build(in Input, cfg Config) (*Plan, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if in.WeekOf == nil {
		in.WeekOf = func(d model.Day) model.WeekID { return d.Week }
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}

	b := &builder{
		m: milp.NewModel(ModelName),
		plan: &Plan{
			Config:   cfg,
			Days:     in.Days,
			Children: in.Children,
			Pairs:    in.Pairs,
			Weeks:    in.Days.Weeks(in.WeekOf),
			WeekDays: in.Days.DaysByWeek(in.WeekOf),
			DayWeek:  make([]model.WeekID, len(in.Days)),
		},
	}
	for d, day := range in.Days {
		b.plan.DayWeek[d] = in.WeekOf(day)
	}
	b.plan.Model = b.m
	b.declare()
	b.capacity(cfg.DailyCapacity)
	b.attendanceFloor()
	b.frequency(cfg)
	b.coverage()
	b.dailyLink()
	b.weeklyLink()
	b.balanceFloor()
	b.objective()
	if b.err != nil {
		return nil, b.err
	}
	return b.plan, nil
}

func checkInput(in Input) error {
	if len(in.Days) == 0 {
		return &ConfigError{Field: "days", Reason: "calendar has no days"}
	}
	seenDay := make(map[string]bool, len(in.Days))
	for _, d := range in.Days {
		if seenDay[d.Key()] {
			return &ConfigError{Field: "days", Reason: "duplicate day " + d.Key()}
		}
		seenDay[d.Key()] = true
		if in.WeekOf(d) == "" {
			return &ConfigError{Field: "days", Reason: "no week for day " + d.Key()}
		}
	}
	known := make(map[int]bool, len(in.Children))
	for _, c := range in.Children {
		if known[c.ID] {
			return &ConfigError{Field: "children", Reason: fmt.Sprintf("duplicate child %d", c.ID)}
		}
		known[c.ID] = true
	}
	if len(in.Pairs) > 0 && len(in.Children) < 2 {
		return &ConfigError{Field: "pairs", Reason: fmt.Sprintf("%d pairs given for a population of %d", len(in.Pairs), len(in.Children))}
	}
	seenPair := make(map[model.Pair]bool, len(in.Pairs))
	for _, p := range in.Pairs {
		if p.First == p.Second {
			return &ConfigError{Field: "pairs", Reason: fmt.Sprintf("pair %s repeats a child", p.Key())}
		}
		if !known[p.First] || !known[p.Second] {
			return &ConfigError{Field: "pairs", Reason: fmt.Sprintf("pair %s references an unknown child", p.Key())}
		}
		if seenPair[p] || seenPair[model.Pair{First: p.Second, Second: p.First}] {
			return &ConfigError{Field: "pairs", Reason: fmt.Sprintf("duplicate pair %s", p.Key())}
		}
		seenPair[p] = true
	}
	return nil
}

// builder keeps the first error so that family generators stay linear.
type builder struct {
	m    *milp.Model
	plan *Plan
	err  error
}

func (b *builder) newVar(name string, d milp.Domain) milp.VarRef {
	if b.err != nil {
		return 0
	}
	ref, err := b.m.AddVar(name, d)
	if err != nil {
		b.err = err
	}
	return ref
}

func (b *builder) add(family, name string, e milp.Expr, s milp.Sense, rhs float64) {
	if b.err != nil {
		return
	}
	b.err = b.m.AddConstraint(milp.Constraint{Name: name, Family: family, Expr: e, Sense: s, RHS: rhs})
}

func (b *builder) declare() {
	p := b.plan
	p.Assign = make([][]milp.VarRef, len(p.Days))
	for d, day := range p.Days {
		p.Assign[d] = make([]milp.VarRef, len(p.Children))
		for c, child := range p.Children {
			p.Assign[d][c] = b.newVar(fmt.Sprintf("%s[%s,%d]", VarAssign, day.Key(), child.ID), milp.Binary)
		}
	}
	p.PairDay = make([][]milp.VarRef, len(p.Days))
	for d, day := range p.Days {
		p.PairDay[d] = make([]milp.VarRef, len(p.Pairs))
		for k, pair := range p.Pairs {
			p.PairDay[d][k] = b.newVar(fmt.Sprintf("%s[%s,%s]", VarPairDay, day.Key(), pair.Key()), milp.Binary)
		}
	}
	p.Weekly = make([][]milp.VarRef, len(p.Weeks))
	for w, week := range p.Weeks {
		p.Weekly[w] = make([]milp.VarRef, len(p.Pairs))
		for k, pair := range p.Pairs {
			p.Weekly[w][k] = b.newVar(fmt.Sprintf("%s[%s,%s]", VarWeekly, week, pair.Key()), milp.Binary)
		}
	}
	p.GenderBalance = b.newVar(VarGenderBalance, milp.NonNegativeInteger)
	p.MinAttendance = b.newVar(VarMinAttendance, milp.NonNegativeReal)
}

func (b *builder) dayTotal(d int) milp.Expr { return milp.Sum(b.plan.Assign[d]...) }

func (b *builder) capacity(limit int) {
	for d, day := range b.plan.Days {
		b.add(FamilyCapacity, fmt.Sprintf("%s[%s]", FamilyCapacity, day.Key()),
			b.dayTotal(d), milp.LessEq, float64(limit))
	}
}

// attendanceFloor makes z a lower bound of every daily total.
func (b *builder) attendanceFloor() {
	for d, day := range b.plan.Days {
		e := milp.Expr{{Var: b.plan.MinAttendance, Coef: 1}}.Add(b.dayTotal(d).Scale(-1))
		b.add(FamilyAttendanceFloor, fmt.Sprintf("%s[%s]", FamilyAttendanceFloor, day.Key()), e, milp.LessEq, 0)
	}
}

func (b *builder) frequency(cfg Config) {
	p := b.plan
	for c, child := range p.Children {
		for _, week := range p.Weeks {
			days := p.WeekDays[week]
			lo, hi, skip := cfg.frequencyBounds(len(days))
			if skip {
				continue
			}
			refs := make([]milp.VarRef, len(days))
			for i, d := range days {
				refs[i] = p.Assign[d][c]
			}
			key := fmt.Sprintf("%d,%s", child.ID, week)
			b.add(FamilyFrequencyMin, fmt.Sprintf("%s[%s]", FamilyFrequencyMin, key), milp.Sum(refs...), milp.GreaterEq, float64(lo))
			b.add(FamilyFrequencyMax, fmt.Sprintf("%s[%s]", FamilyFrequencyMax, key), milp.Sum(refs...), milp.LessEq, float64(hi))
		}
	}
}

// coverage requires every pair to meet at least once over the horizon.
func (b *builder) coverage() {
	p := b.plan
	for k, pair := range p.Pairs {
		refs := make([]milp.VarRef, len(p.Days))
		for d := range p.Days {
			refs[d] = p.PairDay[d][k]
		}
		b.add(FamilyCoverage, fmt.Sprintf("%s[%s]", FamilyCoverage, pair.Key()), milp.Sum(refs...), milp.GreaterEq, 1)
	}
}

// dailyLink bounds p[day,pair] by the attendance of both children. It only
// forces p to zero; the objective lifts it when both attend.
func (b *builder) dailyLink() {
	p := b.plan
	pos := make(map[int]int, len(p.Children))
	for c, child := range p.Children {
		pos[child.ID] = c
	}
	for d, day := range p.Days {
		for k, pair := range p.Pairs {
			e := milp.Expr{
				{Var: p.PairDay[d][k], Coef: 2},
				{Var: p.Assign[d][pos[pair.First]], Coef: -1},
				{Var: p.Assign[d][pos[pair.Second]], Coef: -1},
			}
			b.add(FamilyDailyLink, fmt.Sprintf("%s[%s,%s]", FamilyDailyLink, day.Key(), pair.Key()), e, milp.LessEq, 0)
		}
	}
}

func (b *builder) weeklyLink() {
	p := b.plan
	for w, week := range p.Weeks {
		for k, pair := range p.Pairs {
			e := milp.Expr{{Var: p.Weekly[w][k], Coef: 1}}
			for _, d := range p.WeekDays[week] {
				e = e.Plus(-1, p.PairDay[d][k])
			}
			b.add(FamilyWeeklyLink, fmt.Sprintf("%s[%s,%s]", FamilyWeeklyLink, week, pair.Key()), e, milp.LessEq, 0)
		}
	}
}

// balanceFloor makes gender_balance a lower bound of daily group A attendance.
func (b *builder) balanceFloor() {
	p := b.plan
	for d, day := range p.Days {
		e := milp.Expr{{Var: p.GenderBalance, Coef: 1}}
		for c, child := range p.Children {
			if child.Group == model.GroupA {
				e = e.Plus(-1, p.Assign[d][c])
			}
		}
		b.add(FamilyBalanceFloor, fmt.Sprintf("%s[%s]", FamilyBalanceFloor, day.Key()), e, milp.LessEq, 0)
	}
}

func (b *builder) objective() {
	if b.err != nil {
		return
	}
	p := b.plan
	var e milp.Expr
	for w := range p.Weeks {
		e = e.Add(milp.Sum(p.Weekly[w]...))
	}
	e = e.Plus(1, p.GenderBalance).Plus(1, p.MinAttendance)
	b.err = b.m.SetObjective(milp.Maximize, e)
}
