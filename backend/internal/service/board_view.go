package service

import (
	"cmp"
	"slices"

	"github.com/itchan-dev/msgboard/shared/domain"
)

// Board page policy. Changing these is a deployment decision, clients can't
// ask for more.
const (
	ThreadsPerBoard   = 10
	RepliesPerPreview = 3
)

// ProjectListing builds the board page: secrets and report flags dropped,
// each thread cut down to its RepliesPerPreview most recent replies.
func ProjectListing(threads []domain.Thread) []domain.PublicThread {
	result := make([]domain.PublicThread, 0, len(threads))
	for _, thread := range threads {
		public := project(thread, latestReplies(thread.Replies, RepliesPerPreview))
		count := len(thread.Replies)
		public.ReplyCount = &count
		result = append(result, public)
	}
	return result
}

// ProjectFull is the thread page: all replies, same field stripping.
func ProjectFull(thread domain.Thread) domain.PublicThread {
	return project(thread, thread.Replies)
}

func project(thread domain.Thread, replies []*domain.Reply) domain.PublicThread {
	public := domain.PublicThread{
		Id:        thread.Id,
		Text:      thread.Text,
		CreatedOn: thread.CreatedOn,
		BumpedOn:  thread.BumpedOn,
		Replies:   make([]domain.PublicReply, 0, len(replies)),
	}
	for _, r := range replies {
		public.Replies = append(public.Replies, domain.PublicReply{
			Id:        r.Id,
			Text:      r.Text,
			CreatedOn: r.CreatedOn,
		})
	}
	return public
}

// latestReplies picks the n newest replies by creation time and returns them
// oldest first. On equal timestamps the later-inserted reply counts as newer.
func latestReplies(replies []*domain.Reply, n int) []*domain.Reply {
	if len(replies) <= n {
		return replies
	}

	idx := make([]int, len(replies))
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int {
		if c := replies[b].CreatedOn.Compare(replies[a].CreatedOn); c != 0 {
			return c
		}
		return cmp.Compare(b, a)
	})

	idx = idx[:n]
	slices.Sort(idx)

	latest := make([]*domain.Reply, 0, n)
	for _, i := range idx {
		latest = append(latest, replies[i])
	}
	return latest
}
