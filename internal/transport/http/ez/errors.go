package ez

import (
	"context"
	"errors"

	"luxauction-api/internal/domain"
	resp "luxauction-api/internal/transport/http/response"
)

// Map turns a service error into the envelope it is answered with. Server-side
// failures get a generic message; their detail only goes to the log.
func Map(err error) *AErr {
	if ae, ok := asAErr(err); ok {
		return ae
	}
	var (
		verr *domain.ValidationError
		merr *domain.MediaError
		serr *domain.StorageError
	)
	switch {
	case errors.As(err, &verr):
		return &AErr{Code: resp.CodeBadRequest, Msg: "validation failed", Data: verr.Fields, Err: err}
	case errors.Is(err, domain.ErrInvalidOwner):
		return &AErr{Code: resp.CodeUnauthorized, Msg: "invalid seller id", Err: err}
	case errors.Is(err, domain.ErrNotFoundOrForbidden):
		return &AErr{Code: resp.CodeNotFound, Msg: domain.ErrNotFoundOrForbidden.Error(), Err: err}
	case errors.Is(err, domain.ErrNotFound):
		return &AErr{Code: resp.CodeNotFound, Msg: domain.ErrNotFound.Error(), Err: err}
	case errors.As(err, &merr):
		return &AErr{Code: resp.CodeServerError, Msg: merr.Msg, Err: err}
	case errors.As(err, &serr):
		return &AErr{Code: resp.CodeServerError, Msg: "internal error", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &AErr{Code: resp.CodeTimeout, Msg: "timeout", Err: err}
	}
	return &AErr{Code: resp.CodeServerError, Msg: "internal error", Err: err}
}
