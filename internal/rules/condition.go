package rules

import (
	"strings"
	"time"
)

// OSQuery is the injected collaborator for conditions that need to ask the
// operating system something. The implementation lives in internal/dispatch
// (OSQuery): AppRunning is backed by gopsutil, AppFrontmost by the
// internal/profile frontmost-window watcher's last-known value.
type OSQuery interface {
	IsAppRunning(name string) bool
	FrontmostApp() string
}

// EvalContext carries the state a Condition tree needs to evaluate, plus a
// per-dispatch memoization cache for OS queries (spec.md §3: "OS queries...
// MUST be cached for the duration of one action dispatch").
type EvalContext struct {
	Now         time.Time
	CurrentMode string
	OS          OSQuery

	runningCache  map[string]bool
	frontmostOnce bool
	frontmostVal  string
}

// NewEvalContext builds a fresh, unmemoized evaluation context.
func NewEvalContext(now time.Time, currentMode string, os OSQuery) *EvalContext {
	return &EvalContext{
		Now:          now,
		CurrentMode:  currentMode,
		OS:           os,
		runningCache: make(map[string]bool),
	}
}

func (ctx *EvalContext) isAppRunning(name string) bool {
	key := strings.ToLower(name)
	if v, ok := ctx.runningCache[key]; ok {
		return v
	}
	v := ctx.OS != nil && ctx.OS.IsAppRunning(name)
	ctx.runningCache[key] = v
	return v
}

func (ctx *EvalContext) frontmostApp() string {
	if ctx.frontmostOnce {
		return ctx.frontmostVal
	}
	ctx.frontmostOnce = true
	if ctx.OS != nil {
		ctx.frontmostVal = ctx.OS.FrontmostApp()
	}
	return ctx.frontmostVal
}

// Evaluate walks the condition tree per spec.md §4.3.
func (c Condition) Evaluate(ctx *EvalContext) bool {
	switch c.Type {
	case CondAlways:
		return true
	case CondNever:
		return false
	case CondTimeRange:
		return evalTimeRange(c.Start, c.End, ctx.Now)
	case CondDayOfWeek:
		return evalDayOfWeek(c.Days, ctx.Now)
	case CondAppRunning:
		return ctx.isAppRunning(c.Name)
	case CondAppFrontmost:
		return strings.Contains(strings.ToLower(ctx.frontmostApp()), strings.ToLower(c.Name))
	case CondModeIs:
		return ctx.CurrentMode == c.Name
	case CondAnd:
		for _, sub := range c.Conds {
			if !sub.Evaluate(ctx) {
				return false
			}
		}
		return true
	case CondOr:
		for _, sub := range c.Conds {
			if sub.Evaluate(ctx) {
				return true
			}
		}
		return false
	case CondNot:
		if c.Cond == nil {
			return true
		}
		return !c.Cond.Evaluate(ctx)
	default:
		return false
	}
}

// evalTimeRange handles midnight wrap per spec.md §3/§8: if start > end, the
// range is active iff now >= start OR now <= end.
func evalTimeRange(start, end string, now time.Time) bool {
	s, sok := parseHHMM(start)
	e, eok := parseHHMM(end)
	if !sok || !eok {
		return false
	}
	n := now.Hour()*60 + now.Minute()

	if s <= e {
		return n >= s && n <= e
	}
	return n >= s || n <= e
}

func parseHHMM(v string) (int, bool) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// evalDayOfWeek checks now's ISO weekday (1=Mon...7=Sun) against days.
func evalDayOfWeek(days []int, now time.Time) bool {
	wd := int(now.Weekday())
	if wd == 0 {
		wd = 7 // time.Sunday == 0; spec uses 7=Sun
	}
	for _, d := range days {
		if d == wd {
			return true
		}
	}
	return false
}
