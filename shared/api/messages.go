package api

// Plain-text bodies returned by moderation endpoints.
const (
	MsgSuccess  = "success"
	MsgReported = "reported"
)
