package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeOSQuery struct {
	running   map[string]bool
	frontmost string
	calls     int
}

func (f *fakeOSQuery) IsAppRunning(name string) bool {
	f.calls++
	return f.running[name]
}

func (f *fakeOSQuery) FrontmostApp() string {
	f.calls++
	return f.frontmost
}

func TestConditionAlwaysNever(t *testing.T) {
	ctx := NewEvalContext(time.Now(), "Default", nil)
	assert.True(t, Condition{Type: CondAlways}.Evaluate(ctx))
	assert.False(t, Condition{Type: CondNever}.Evaluate(ctx))
}

func TestConditionTimeRangeNormal(t *testing.T) {
	now := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	ctx := NewEvalContext(now, "Default", nil)
	c := Condition{Type: CondTimeRange, Start: "09:00", End: "17:00"}
	assert.True(t, c.Evaluate(ctx))

	c = Condition{Type: CondTimeRange, Start: "18:00", End: "22:00"}
	assert.False(t, c.Evaluate(ctx))
}

func TestConditionTimeRangeMidnightWrap(t *testing.T) {
	c := Condition{Type: CondTimeRange, Start: "22:00", End: "02:00"}

	late := time.Date(2026, 7, 30, 23, 30, 0, 0, time.UTC)
	ctx := NewEvalContext(late, "Default", nil)
	assert.True(t, c.Evaluate(ctx), "23:30 should be inside a 22:00-02:00 wrap range")

	early := time.Date(2026, 7, 30, 1, 0, 0, 0, time.UTC)
	ctx = NewEvalContext(early, "Default", nil)
	assert.True(t, c.Evaluate(ctx), "01:00 should be inside a 22:00-02:00 wrap range")

	midday := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	ctx = NewEvalContext(midday, "Default", nil)
	assert.False(t, c.Evaluate(ctx), "noon should be outside a 22:00-02:00 wrap range")
}

func TestConditionDayOfWeekSundayRemap(t *testing.T) {
	// 2026-08-02 is a Sunday.
	sunday := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)
	ctx := NewEvalContext(sunday, "Default", nil)
	c := Condition{Type: CondDayOfWeek, Days: []int{7}}
	assert.True(t, c.Evaluate(ctx))

	c = Condition{Type: CondDayOfWeek, Days: []int{1, 2, 3, 4, 5}}
	assert.False(t, c.Evaluate(ctx))
}

func TestConditionAndOrNot(t *testing.T) {
	ctx := NewEvalContext(time.Now(), "Default", nil)

	and := Condition{Type: CondAnd, Conds: []Condition{{Type: CondAlways}, {Type: CondNever}}}
	assert.False(t, and.Evaluate(ctx))

	or := Condition{Type: CondOr, Conds: []Condition{{Type: CondAlways}, {Type: CondNever}}}
	assert.True(t, or.Evaluate(ctx))

	not := Condition{Type: CondNot, Cond: &Condition{Type: CondNever}}
	assert.True(t, not.Evaluate(ctx))
}

func TestConditionModeIs(t *testing.T) {
	ctx := NewEvalContext(time.Now(), "Editing", nil)
	assert.True(t, Condition{Type: CondModeIs, Name: "Editing"}.Evaluate(ctx))
	assert.False(t, Condition{Type: CondModeIs, Name: "Default"}.Evaluate(ctx))
}

func TestConditionAppRunningIsMemoizedPerDispatch(t *testing.T) {
	os := &fakeOSQuery{running: map[string]bool{"Ableton": true}}
	ctx := NewEvalContext(time.Now(), "Default", os)

	c := Condition{Type: CondAnd, Conds: []Condition{
		{Type: CondAppRunning, Name: "Ableton"},
		{Type: CondAppRunning, Name: "Ableton"},
	}}
	assert.True(t, c.Evaluate(ctx))
	assert.Equal(t, 1, os.calls, "a repeated AppRunning query within one dispatch must hit the OS only once")
}

func TestConditionAppFrontmostIsMemoizedPerDispatch(t *testing.T) {
	os := &fakeOSQuery{frontmost: "Ableton Live"}
	ctx := NewEvalContext(time.Now(), "Default", os)

	c := Condition{Type: CondAnd, Conds: []Condition{
		{Type: CondAppFrontmost, Name: "ableton"},
		{Type: CondAppFrontmost, Name: "live"},
	}}
	assert.True(t, c.Evaluate(ctx))
	assert.Equal(t, 1, os.calls, "a repeated AppFrontmost query within one dispatch must hit the OS only once")
}
