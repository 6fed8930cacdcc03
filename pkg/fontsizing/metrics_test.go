package fontsizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCharacterAdvanceTable_BoldWidensAdvance(t *testing.T) {
	table := NewCharacterAdvanceTable()
	regular := table.Advance("Inter", "", 'x', 16)
	bold := table.Advance("Inter", "bold", 'x', 16)
	assert.Greater(t, bold, regular)
}

func TestCharacterAdvanceTable_SpaceNarrowerThanLetter(t *testing.T) {
	table := NewCharacterAdvanceTable()
	letter := table.Advance("Inter", "", 'm', 16)
	space := table.Advance("Inter", "", ' ', 16)
	assert.Less(t, space, letter)
}

func TestCharacterAdvanceTable_UnknownFamilyUsesDefaultRatio(t *testing.T) {
	table := NewCharacterAdvanceTable()
	got := table.Advance("Some Unlisted Font", "", 'a', 10)
	assert.Equal(t, defaultRatio*10, got)
}

func TestCharacterAdvanceTable_LineHeightScalesWithSize(t *testing.T) {
	table := NewCharacterAdvanceTable()
	assert.Equal(t, 19.2, table.LineHeight("Inter", "", 16))
}
