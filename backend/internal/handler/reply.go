package handler

import (
	"net/http"
	"net/url"

	"github.com/itchan-dev/msgboard/shared/api"
	"github.com/itchan-dev/msgboard/shared/errors"
	"github.com/itchan-dev/msgboard/shared/utils"
)

func (h *Handler) CreateReply(w http.ResponseWriter, r *http.Request) {
	var body api.CreateReplyRequest
	if err := utils.DecodeRequest(r, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	ref, err := h.thread.Reply(r.Context(), body.ThreadId, body.Text, body.DeletePassword)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if utils.WantsJSON(r) {
		writeJSON(w, http.StatusCreated, api.CreateReplyResponse{ReplyId: ref.ReplyId, ThreadId: ref.ThreadId, Board: ref.Board})
		return
	}
	target := threadPath(ref.Board, ref.ThreadId) + "?new_reply_id=" + url.QueryEscape(ref.ReplyId)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	threadId := r.URL.Query().Get("thread_id")
	if threadId == "" {
		utils.WriteErrorAndStatusCode(w, errors.Validation("thread_id is required"))
		return
	}

	thread, err := h.thread.Get(r.Context(), threadId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

func (h *Handler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	var body api.DeleteReplyRequest
	if err := utils.DecodeRequest(r, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.thread.DeleteReply(r.Context(), body.ThreadId, body.ReplyId, body.DeletePassword); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeText(w, api.MsgSuccess)
}

func (h *Handler) ReportReply(w http.ResponseWriter, r *http.Request) {
	var body api.ReportReplyRequest
	if err := utils.DecodeRequest(r, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.thread.ReportReply(r.Context(), body.ThreadId, body.ReplyId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeText(w, api.MsgReported)
}
