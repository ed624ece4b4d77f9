package domain

import "time"

// Verb is a recognized interactive command.
type Verb string

const (
	VerbNone    Verb = ""
	VerbFix     Verb = "fix"
	VerbExplain Verb = "explain"
	VerbSuggest Verb = "suggest"
	VerbIgnore  Verb = "ignore"
	VerbHelp    Verb = "help"
)

// Command is the parsed form of an inbound comment, a verb plus its
// free-text arguments.
type Command struct {
	Verb Verb
	Args string
}

// ConversationEntry is one exchange between a developer and the bot,
// kept as context for subsequent dialogue on the same thread.
type ConversationEntry struct {
	Message   string
	Response  string
	Timestamp time.Time
}
