package slack

// Block Kit payloads. One Element struct covers every element kind the
// app emits; omitempty keeps the wire shape per-kind.

type TextObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type ConversationFilter struct {
	Include         []string `json:"include,omitempty"`
	ExcludeBotUsers bool     `json:"exclude_bot_users,omitempty"`
}

type Element struct {
	Type                         string              `json:"type"`
	ActionID                     string              `json:"action_id,omitempty"`
	Placeholder                  *TextObject         `json:"placeholder,omitempty"`
	Multiline                    bool                `json:"multiline,omitempty"`
	InitialValue                 string              `json:"initial_value,omitempty"`
	InitialUsers                 []string            `json:"initial_users,omitempty"`
	DefaultToCurrentConversation bool                `json:"default_to_current_conversation,omitempty"`
	Filter                       *ConversationFilter `json:"filter,omitempty"`
	Text                         *TextObject         `json:"text,omitempty"`
	Value                        string              `json:"value,omitempty"`
}

type Block struct {
	Type      string       `json:"type"`
	BlockID   string       `json:"block_id,omitempty"`
	Optional  bool         `json:"optional,omitempty"`
	Element   *Element     `json:"element,omitempty"`
	Label     *TextObject  `json:"label,omitempty"`
	Text      *TextObject  `json:"text,omitempty"`
	Accessory *Element     `json:"accessory,omitempty"`
	Elements  []TextObject `json:"elements,omitempty"`
}

type View struct {
	Type            string      `json:"type"`
	CallbackID      string      `json:"callback_id"`
	Title           *TextObject `json:"title"`
	Blocks          []Block     `json:"blocks"`
	Submit          *TextObject `json:"submit,omitempty"`
	PrivateMetadata string      `json:"private_metadata,omitempty"`
}

type Message struct {
	Channel string  `json:"channel"`
	Text    string  `json:"text"`
	Blocks  []Block `json:"blocks,omitempty"`
}

// Inbound payloads.

// SlashCommand is the form Slack posts for a slash command invocation.
type SlashCommand struct {
	Command     string
	Text        string
	TriggerID   string
	UserID      string
	TeamID      string
	ChannelID   string
	ResponseURL string
}

// InteractionPayload is the decoded `payload` form field of an
// interactivity request: shortcuts, block actions and view submissions
// share the envelope.
type InteractionPayload struct {
	Type       string `json:"type"`
	CallbackID string `json:"callback_id,omitempty"`
	TriggerID  string `json:"trigger_id,omitempty"`
	User       struct {
		ID string `json:"id"`
	} `json:"user"`
	Team struct {
		ID string `json:"id"`
	} `json:"team"`
	View    PayloadView `json:"view"`
	Actions []Action    `json:"actions,omitempty"`
}

type PayloadView struct {
	ID         string    `json:"id"`
	Hash       string    `json:"hash"`
	CallbackID string    `json:"callback_id"`
	State      ViewState `json:"state"`
}

type Action struct {
	ActionID string `json:"action_id"`
	Value    string `json:"value,omitempty"`
}

type ViewState struct {
	Values map[string]map[string]BlockState `json:"values"`
}

// BlockState is the per-element submission state. Fields are populated
// according to the element kind that produced them.
type BlockState struct {
	Value                string   `json:"value,omitempty"`
	SelectedUsers        []string `json:"selected_users,omitempty"`
	SelectedConversation string   `json:"selected_conversation,omitempty"`
}

// Interaction payload type discriminators.
const (
	InteractionShortcut       = "shortcut"
	InteractionBlockActions   = "block_actions"
	InteractionViewSubmission = "view_submission"
)
