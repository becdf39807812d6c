package domain

import "time"

type ReplyCreationData struct {
	ThreadId   ThreadId
	Text       MsgText
	SecretHash SecretHash
}

type Reply struct {
	Id         ReplyId
	ThreadId   ThreadId
	Board      BoardShortName
	Text       MsgText
	SecretHash SecretHash
	CreatedOn  time.Time
	Reported   bool
}

func (r *Reply) Deleted() bool {
	return r.Text == TombstoneText
}
