package domain

import (
	"time"
)

// to iterate thru layers: service -> storage
type ThreadCreationData struct {
	Board      BoardShortName
	Text       MsgText
	SecretHash SecretHash
}

type Thread struct {
	Id         ThreadId
	Board      BoardShortName
	Text       MsgText
	SecretHash SecretHash
	CreatedOn  time.Time
	BumpedOn   time.Time
	Reported   bool
	Replies    []*Reply // insertion order
}

// Credentials is what moderation needs to know about a thread or reply.
type Credentials struct {
	Board      BoardShortName
	SecretHash SecretHash
}

// ThreadRef identifies a created thread or reply for the caller.
type ThreadRef struct {
	Board    BoardShortName
	ThreadId ThreadId
	ReplyId  ReplyId // empty for threads
}
