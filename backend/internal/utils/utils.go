package utils

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/itchan-dev/msgboard/shared/domain"
	"github.com/itchan-dev/msgboard/shared/errors"
	"github.com/microcosm-cc/bluemonday"
)

const (
	maxBoardLen  = 64
	maxTextLen   = 10_000
	maxSecretLen = 72 // bcrypt ignores anything past 72 bytes
)

type PostValidator struct{}

func New() *PostValidator {
	return &PostValidator{}
}

// Board names become path segments, so no slashes or whitespace.
func (v *PostValidator) Board(board domain.BoardShortName) error {
	if board == "" {
		return errors.Validation("Board is required")
	}
	if utf8.RuneCountInString(board) > maxBoardLen {
		return errors.Validation("Board name is too long")
	}
	for _, r := range board {
		if r == '/' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return errors.Validation("Board name contains invalid characters")
		}
	}
	return nil
}

func (v *PostValidator) Text(text domain.MsgText) error {
	if len(text) == 0 {
		return errors.Validation("Text is too short")
	}
	if utf8.RuneCountInString(text) > maxTextLen {
		return errors.Validation("Text is too long")
	}
	return nil
}

func (v *PostValidator) Secret(secret string) error {
	if secret == "" {
		return errors.Validation("Delete password is required")
	}
	if len(secret) > maxSecretLen {
		return errors.Validation("Delete password is too long")
	}
	return nil
}

// TextSanitizer strips markup from post text. What remains is plain text, so
// entities are decoded and clients escape on render. Decoding can expose
// markup that was entity-encoded, so stripping repeats until the text stops
// changing.
type TextSanitizer struct {
	policy *bluemonday.Policy
}

const maxSanitizeRounds = 8

func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *TextSanitizer) Sanitize(text domain.MsgText) domain.MsgText {
	for i := 0; i < maxSanitizeRounds; i++ {
		stripped := html.UnescapeString(s.policy.Sanitize(text))
		if stripped == text {
			return strings.TrimSpace(text)
		}
		text = stripped
	}
	// still changing: keep the escaped form, it renders as inert text
	return strings.TrimSpace(s.policy.Sanitize(text))
}
