package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PixPMusic/gopher-automate/internal/rules"
)

func TestRuleSetHolderSwapReplacesLoadedValue(t *testing.T) {
	a := &rules.RuleSet{SourcePath: "a.toml"}
	b := &rules.RuleSet{SourcePath: "b.toml"}

	h := NewRuleSetHolder(a)
	assert.Same(t, a, h.Load())

	h.Swap(b)
	assert.Same(t, b, h.Load())
}
