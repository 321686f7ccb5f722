// internal/session/notice.go
package session

import "github.com/sirupsen/logrus"

// NoticeKind separates informational messages from errors.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeError
)

// Notice is a user-facing message produced by the controller.
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error
}

// notify pushes a notice without blocking the loop. Notices are dropped when nobody reads them.
func (c *Controller) notify(kind NoticeKind, msg string, err error) {
	n := Notice{Kind: kind, Message: msg, Err: err}
	select {
	case c.notices <- n:
	default:
		c.logger.WithFields(logrus.Fields{"message": msg}).Warn("notice queue full, dropping notice")
	}
}
