// Package schedule assembles the school rotation model and reads solved
// values back into per-day attendance.
//
// Build turns a calendar, a population and its pairs into a milp.Model:
// one binary assignment per (day, child), pair-day and weekly interaction
// indicators, and two minmax auxiliaries (group A attendance floor and total
// attendance floor). Indicators are linked by upper bounds only; the
// maximizing objective is what lifts them to one.
//
// Extract maps a complete milp.Solution onto the Plan returned by Build.
package schedule
