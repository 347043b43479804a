package model

import (
	"errors"
	"strings"
)

// Session identifies the signed-in user. It is passed to components that
// need identity instead of living in process-wide state.
type Session struct {
	UserID string
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return errors.New("model: session user id is required")
	}
	return nil
}
