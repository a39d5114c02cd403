package components

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
)

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func TestMultiChoice_LetterJumpThenEnter(t *testing.T) {
	mc := NewMultiChoice([]string{"apple", "banana", "cherry"})

	mc, chose := mc.Update(key('c'))
	assert.False(t, chose)
	assert.Equal(t, 2, mc.Selected)

	mc, chose = mc.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.True(t, chose)
	assert.Equal(t, "cherry", mc.Chosen())

	mc, chose = mc.Update(key('a'))
	assert.False(t, chose, "input after submission is ignored")
	assert.Equal(t, 2, mc.ChosenIndex)
}

func TestMultiChoice_OutOfRangeKeysIgnored(t *testing.T) {
	mc := NewMultiChoice([]string{"yes", "no"})
	mc, _ = mc.Update(key('d'))
	mc, _ = mc.Update(key('9'))
	assert.Equal(t, 0, mc.Selected)

	mc, _ = mc.Update(key('2'))
	assert.Equal(t, 1, mc.Selected)
	assert.Equal(t, "", mc.Chosen())
}

func TestOptionLabel(t *testing.T) {
	assert.Equal(t, "A", OptionLabel(0))
	assert.Equal(t, "D", OptionLabel(3))
}
