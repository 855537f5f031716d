package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstringCondition(t *testing.T) {
	m := Default().Condition

	assert.True(t, m.Match("type 2 diabetes mellitus", "diabetes"))
	assert.True(t, m.Match("asthma", "asthma"))
	assert.True(t, m.Match("tb", "tb"), "short terms still match exactly")
	assert.False(t, m.Match("diabetes", "dia"), "short terms never match as substrings")
	assert.False(t, m.Match("diabetes", "type 2 diabetes"), "condition matching is one-directional")
	assert.False(t, m.Match("", "diabetes"))
}

func TestSubstringCategory(t *testing.T) {
	m := Default().Category

	assert.True(t, m.Match("icu", "icu"))
	assert.True(t, m.Match("icu", "icu_charges"))
	assert.True(t, m.Match("room_rent", "room"))
	assert.False(t, m.Match("pharmacy", "icu"))
	assert.False(t, m.Match("icu", ""))
}

func TestNew(t *testing.T) {
	set, err := New(StrategyExact, 3)
	require.NoError(t, err)
	assert.False(t, set.Condition.Match("type 2 diabetes", "diabetes"))
	assert.True(t, set.Category.Match("icu", "icu"))

	set, err = New(StrategyFuzzy, 10)
	require.NoError(t, err)
	assert.False(t, set.Condition.Match("type 2 diabetes", "diabetes"), "threshold is configurable")

	_, err = New("ontology", 3)
	assert.Error(t, err)
}
