package graph

import (
	"github.com/sirupsen/logrus"

	"github.com/kidtango/need2reefbackend/internal/apierror"
)

// Error is a resolver failure as presented to GraphQL clients. Its message is
// the human-readable message and its extensions carry the error code and
// category.
type Error struct {
	err error
}

func (e *Error) Error() string {
	if apierror.Code(e.err) == apierror.CodeInternal {
		return "internal server error"
	}
	return apierror.Message(e.err)
}

func (e *Error) Unwrap() error { return e.err }

// Extensions implements gqlerrors.ExtendedError.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code":     apierror.Code(e.err),
		"category": apierror.Category(e.err),
	}
}

// presentError logs err and wraps it for the client. Store and unexpected
// failures are logged with their cause; expected outcomes at debug level.
func presentError(logger logrus.FieldLogger, field string, err error) error {
	entry := logger.WithFields(logrus.Fields{
		"field": field,
		"code":  apierror.Code(err),
	})
	switch apierror.Code(err) {
	case apierror.CodeDataAccess, apierror.CodeInternal:
		if e, ok := apierror.As(err); ok && e.Source != nil {
			entry = entry.WithField("cause", e.Source.Error())
		}
		entry.WithError(err).Error("resolver failed")
	default:
		entry.Debug(apierror.Message(err))
	}
	return &Error{err: err}
}
