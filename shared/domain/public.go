package domain

import "time"

// PublicThread is the client-facing projection of a Thread. It has no field
// for the secret or the reported flag.
type PublicThread struct {
	Id         ThreadId      `json:"_id"`
	Text       MsgText       `json:"text"`
	CreatedOn  time.Time     `json:"created_on"`
	BumpedOn   time.Time     `json:"bumped_on"`
	Replies    []PublicReply `json:"replies"`
	ReplyCount *int          `json:"replycount,omitempty"` // only set in board listings
}

type PublicReply struct {
	Id        ReplyId   `json:"_id"`
	Text      MsgText   `json:"text"`
	CreatedOn time.Time `json:"created_on"`
}
