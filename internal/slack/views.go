package slack

// Block, action and callback ids. Slack routes interaction payloads by
// these, so they are part of the app's contract with its manifest.
const (
	UserSelectBlockID          = "multi_user_select_block"
	UserSelectActionID         = "multi_users_select_action"
	ManualInputBlockID         = "manual_text_input_block"
	ManualInputActionID        = "manual_text_input_action"
	SwitchToManualActionID     = "switch_to_manual_button_action"
	SwitchToUserActionID       = "switch_to_user_button_action"
	ReasonInputBlockID         = "reason_input_block"
	ReasonInputActionID        = "reason_input_action"
	ConversationSelectBlockID  = "conversation_select_block"
	ConversationSelectActionID = "conversation_select_action"

	UserInputViewID   = "user_input_view"
	ManualInputViewID = "manual_input_view"

	UserChooseShortcutID  = "user_choose_shortcut"
	ManualInputShortcutID = "manual_input_shortcut"
)

func plainText(text string) *TextObject {
	return &TextObject{Type: "plain_text", Text: text}
}

func mrkdwn(text string) *TextObject {
	return &TextObject{Type: "mrkdwn", Text: text}
}

func userSelectBlock(prefill []string) Block {
	return Block{
		Type:    "input",
		BlockID: UserSelectBlockID,
		Element: &Element{
			Type:         "multi_users_select",
			ActionID:     UserSelectActionID,
			Placeholder:  plainText("Select users"),
			InitialUsers: prefill,
		},
		Label: plainText("Pick the users you want to be in the draw"),
	}
}

func manualInputBlock(initialValue string) Block {
	return Block{
		Type:    "input",
		BlockID: ManualInputBlockID,
		Element: &Element{
			Type:         "plain_text_input",
			ActionID:     ManualInputActionID,
			Multiline:    true,
			Placeholder:  plainText("Mabel\nTheresa\nHugo"),
			InitialValue: initialValue,
		},
		Label: plainText("Add the names or values one per line"),
	}
}

func switchButton(actionID, label, value string) Block {
	return Block{
		Type: "section",
		Text: mrkdwn(" "),
		Accessory: &Element{
			Type:     "button",
			ActionID: actionID,
			Text:     &TextObject{Type: "plain_text", Text: label, Emoji: true},
			Value:    value,
		},
	}
}

func reasonBlock() Block {
	return Block{
		Type:     "input",
		BlockID:  ReasonInputBlockID,
		Optional: true,
		Element: &Element{
			Type:        "plain_text_input",
			ActionID:    ReasonInputActionID,
			Placeholder: plainText("eg. to run the next meeting"),
		},
		Label: plainText("What are you choosing them for?"),
	}
}

func conversationBlock() Block {
	return Block{
		Type:    "input",
		BlockID: ConversationSelectBlockID,
		Element: &Element{
			Type:                         "conversations_select",
			ActionID:                     ConversationSelectActionID,
			Placeholder:                  &TextObject{Type: "plain_text", Text: "Find a conversation", Emoji: true},
			DefaultToCurrentConversation: true,
			Filter: &ConversationFilter{
				Include:         []string{"public", "private"},
				ExcludeBotUsers: true,
			},
		},
		Label: plainText("Select a conversation to post the result to"),
	}
}

func warningBlock(warning string) Block {
	return Block{Type: "section", Text: mrkdwn("⚠️ " + warning)}
}

// UserInputModal builds the user-select variant of the draw modal.
// prefill seeds the member picker; a non-empty warning appends a usage
// notice below the form.
func UserInputModal(prefill []string, warning string) View {
	blocks := []Block{
		userSelectBlock(prefill),
		switchButton(SwitchToManualActionID, "Switch to manual input", "switch_to_manual"),
		reasonBlock(),
		conversationBlock(),
	}
	if warning != "" {
		blocks = append(blocks, warningBlock(warning))
	}
	return View{
		Type:       "modal",
		CallbackID: UserInputViewID,
		Title:      plainText("Name draw"),
		Blocks:     blocks,
		Submit:     plainText("Choose!"),
	}
}

// ManualInputModal builds the free-text variant, one name per line.
func ManualInputModal(prefill []string, warning string) View {
	var initial string
	if len(prefill) > 0 {
		initial = joinLines(prefill)
	}
	blocks := []Block{
		manualInputBlock(initial),
		switchButton(SwitchToUserActionID, "Switch to user input", "switch_to_user"),
		reasonBlock(),
		conversationBlock(),
	}
	if warning != "" {
		blocks = append(blocks, warningBlock(warning))
	}
	return View{
		Type:       "modal",
		CallbackID: ManualInputViewID,
		Title:      plainText("Name draw"),
		Blocks:     blocks,
		Submit:     plainText("Choose!"),
	}
}

func joinLines(lines []string) string {
	out := lines[0]
	for _, line := range lines[1:] {
		out += "\r\n" + line
	}
	return out
}
