package domain

import (
	"fmt"
	"strings"
	"time"
)

// for debug. Secrets are left out on purpose.
func (r *Reply) String() string {
	return fmt.Sprintf("[id:%s, thread:%s, text:%q, created:%s, reported:%t]",
		r.Id, r.ThreadId, r.Text, r.CreatedOn.Format(time.StampMilli), r.Reported)
}

func (t *Thread) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[id:%s, board:%s, text:%q, bumped:%s, reported:%t, replies:[",
		t.Id, t.Board, t.Text, t.BumpedOn.Format(time.StampMilli), t.Reported)
	for i, r := range t.Replies {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.String())
	}
	b.WriteString("]]")
	return b.String()
}
