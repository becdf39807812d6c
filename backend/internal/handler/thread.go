package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/msgboard/shared/api"
	"github.com/itchan-dev/msgboard/shared/utils"
)

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	board := chi.URLParam(r, "board")
	var body api.CreateThreadRequest
	if err := utils.DecodeRequest(r, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	ref, err := h.thread.Create(r.Context(), board, body.Text, body.DeletePassword)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if utils.WantsJSON(r) {
		writeJSON(w, http.StatusCreated, api.CreateThreadResponse{ThreadId: ref.ThreadId, Board: ref.Board})
		return
	}
	http.Redirect(w, r, threadPath(ref.Board, ref.ThreadId), http.StatusSeeOther)
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	board := chi.URLParam(r, "board")

	threads, err := h.thread.List(r.Context(), board)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	var body api.DeleteThreadRequest
	if err := utils.DecodeRequest(r, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.thread.Delete(r.Context(), body.ThreadId, body.DeletePassword); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeText(w, api.MsgSuccess)
}

func (h *Handler) ReportThread(w http.ResponseWriter, r *http.Request) {
	var body api.ReportThreadRequest
	if err := utils.DecodeRequest(r, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.thread.Report(r.Context(), body.ThreadId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeText(w, api.MsgReported)
}

// threadPath is the page the browser lands on after posting.
func threadPath(board, threadId string) string {
	return "/b/" + url.PathEscape(board) + "/" + url.PathEscape(threadId)
}
