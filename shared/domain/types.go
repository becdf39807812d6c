package domain

type (
	BoardShortName = string

	ThreadId = string
	ReplyId  = string
	MsgText  = string

	// SecretHash is the stored form of a delete password. The plain secret
	// never leaves the service layer.
	SecretHash = string
)

// TombstoneText replaces the text of a reply deleted by its author.
const TombstoneText MsgText = "[deleted]"
