package api

// Request DTOs. Field names follow the public board API: delete_password is
// the per-post secret.

type CreateThreadRequest struct {
	Text           string `json:"text" validate:"required"`
	DeletePassword string `json:"delete_password" validate:"required"`
}

type DeleteThreadRequest struct {
	ThreadId       string `json:"thread_id" validate:"required"`
	DeletePassword string `json:"delete_password" validate:"required"`
}

type ReportThreadRequest struct {
	ThreadId string `json:"thread_id" validate:"required"`
}

// Response DTOs

type CreateThreadResponse struct {
	ThreadId string `json:"thread_id"`
	Board    string `json:"board"`
}
