package utils

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/itchan-dev/msgboard/shared/errors"
	"github.com/itchan-dev/msgboard/shared/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// MaxBodyBytes caps request bodies. A post of the longest allowed text still
// fits after form or JSON escaping.
const MaxBodyBytes = 128 << 10

var errBodyTooLarge = &errors.ErrorWithStatusCode{Message: "Body is too large", StatusCode: http.StatusRequestEntityTooLarge, Kind: errors.ErrValidation}

// WriteErrorAndStatusCode renders err as a plain-text response. Client errors
// keep their message, server-side failures are logged and replaced by a
// generic text.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	status := errors.StatusCode(err)
	switch {
	case status == http.StatusServiceUnavailable:
		logger.Log.Error("storage unavailable", "error", err)
		http.Error(w, "Service unavailable", status)
	case status >= http.StatusInternalServerError:
		logger.Log.Error("internal error", "error", err)
		http.Error(w, "Internal server error", status)
	default:
		http.Error(w, err.Error(), status)
	}
}

func DecodeValidate(r io.ReadCloser, body any) error {
	if err := Decode(r, body); err != nil {
		return err
	}
	return Validate(body)
}

func Decode(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		if tooLarge(err) {
			return errBodyTooLarge
		}
		logger.Log.Debug("invalid json body", "error", err)
		return &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: 400, Kind: errors.ErrValidation}
	}
	return nil
}

func Validate(body any) error {
	if err := validate.Struct(body); err != nil {
		logger.Log.Debug("request validation failed", "error", err)
		return &errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: 400, Kind: errors.ErrValidation}
	}
	return nil
}

// DecodeRequest reads a JSON or url-encoded form body into body and
// validates it. Form fields are matched by the json tag names of body, which
// must only have string fields.
func DecodeRequest(r *http.Request, body any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/x-www-form-urlencoded" {
		return DecodeValidate(r.Body, body)
	}

	// r.ParseForm ignores DELETE bodies, so the form is parsed by hand.
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		if tooLarge(err) {
			return errBodyTooLarge
		}
		return &errors.ErrorWithStatusCode{Message: "Body is invalid form", StatusCode: 400, Kind: errors.ErrValidation}
	}
	form, err := url.ParseQuery(string(raw))
	if err != nil {
		return &errors.ErrorWithStatusCode{Message: "Body is invalid form", StatusCode: 400, Kind: errors.ErrValidation}
	}
	fields := make(map[string]string, len(form))
	for key := range form {
		fields[key] = form.Get(key)
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(encoded, body); err != nil {
		return &errors.ErrorWithStatusCode{Message: "Body is invalid form", StatusCode: 400, Kind: errors.ErrValidation}
	}
	return Validate(body)
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return stderrors.As(err, &maxErr)
}

// WantsJSON reports whether the client asked for a JSON response instead of
// the browser redirect flow.
func WantsJSON(r *http.Request) bool {
	for _, header := range r.Header.Values("Accept") {
		for _, accept := range strings.Split(header, ",") {
			mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(accept))
			if err == nil && mediaType == "application/json" {
				return true
			}
		}
	}
	return false
}
