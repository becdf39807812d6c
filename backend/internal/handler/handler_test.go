package handler

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/itchan-dev/msgboard/shared/logger"
	"github.com/stretchr/testify/assert"
)

func init() {
	logger.InitializeWithWriter(io.Discard, "error", false)
}

func createRequest(t *testing.T, method, url string, body []byte, headers ...string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, url, bytes.NewBuffer(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return req
}

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name             string
		input            interface{}
		status           int
		expected         string
		expectedStatus   int
		checkContentType bool
	}{
		{
			name:             "Valid JSON",
			input:            map[string]string{"message": "hello"},
			status:           http.StatusOK,
			expected:         `{"message":"hello"}`,
			expectedStatus:   http.StatusOK,
			checkContentType: true,
		},
		{
			name:             "Custom status",
			input:            map[string]string{"thread_id": "t1"},
			status:           http.StatusCreated,
			expected:         `{"thread_id":"t1"}`,
			expectedStatus:   http.StatusCreated,
			checkContentType: true,
		},
		{
			name:           "Invalid JSON (channel)", // Test for encoding errors
			input:          make(chan int),
			status:         http.StatusOK,
			expected:       "Internal error",
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			writeJSON(rr, tt.status, tt.input)

			assert.Equal(t, tt.expectedStatus, rr.Code, "handler returned wrong status code")
			if tt.checkContentType {
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"), "handler returned wrong content type")
			}
			assert.Equal(t, tt.expected+"\n", rr.Body.String(), "handler returned unexpected body")
		})
	}
}
