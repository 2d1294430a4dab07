package slack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserInputModal(t *testing.T) {
	view := UserInputModal([]string{"U1", "U2"}, "")

	assert.Equal(t, "modal", view.Type)
	assert.Equal(t, UserInputViewID, view.CallbackID)
	assert.Equal(t, "Name draw", view.Title.Text)
	assert.Equal(t, "Choose!", view.Submit.Text)

	require.Len(t, view.Blocks, 4)
	assert.Equal(t, UserSelectBlockID, view.Blocks[0].BlockID)
	assert.Equal(t, UserSelectActionID, view.Blocks[0].Element.ActionID)
	assert.Equal(t, []string{"U1", "U2"}, view.Blocks[0].Element.InitialUsers)
	assert.Equal(t, SwitchToManualActionID, view.Blocks[1].Accessory.ActionID)
	assert.Equal(t, ReasonInputBlockID, view.Blocks[2].BlockID)
	assert.True(t, view.Blocks[2].Optional)
	assert.Equal(t, ConversationSelectBlockID, view.Blocks[3].BlockID)
	assert.True(t, view.Blocks[3].Element.DefaultToCurrentConversation)
}

func TestManualInputModal(t *testing.T) {
	view := ManualInputModal([]string{"Mabel", "Hugo"}, "")

	assert.Equal(t, ManualInputViewID, view.CallbackID)
	require.Len(t, view.Blocks, 4)
	assert.Equal(t, ManualInputBlockID, view.Blocks[0].BlockID)
	assert.True(t, view.Blocks[0].Element.Multiline)
	assert.Equal(t, "Mabel\r\nHugo", view.Blocks[0].Element.InitialValue)
	assert.Equal(t, SwitchToUserActionID, view.Blocks[1].Accessory.ActionID)
}

func TestModalWarningBlock(t *testing.T) {
	view := UserInputModal(nil, "You have 1 draw remaining this month. Paid plans with unlimited draws coming soon!")

	require.Len(t, view.Blocks, 5)
	last := view.Blocks[4]
	assert.Equal(t, "section", last.Type)
	assert.Contains(t, last.Text.Text, "⚠️ You have 1 draw remaining")

	// No warning, no extra block.
	assert.Len(t, ManualInputModal(nil, "").Blocks, 4)
}
