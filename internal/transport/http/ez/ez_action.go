package ez

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mdw "luxauction-api/internal/transport/http/middleware"
	resp "luxauction-api/internal/transport/http/response"
)

// EZ registers actions on one router group.
type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l}
}

type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindURI   Binder = "uri"
	BindNone  Binder = "none" // handler reads c.Param / c.PostForm itself
)

// Action is one endpoint: I is bound from the request, O goes into the envelope's data.
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Auth    bool     // require a Principal from AuthJWT
	Roles   []string // optional, implies Auth
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		if a.Auth || len(a.Roles) > 0 {
			p, ok := mdw.PrincipalFrom(c)
			if !ok {
				e.fail(c, Unauthorized("unauthorized"))
				return
			}
			if len(a.Roles) > 0 && !slices.ContainsFunc(a.Roles, p.HasRole) {
				e.fail(c, Forbidden("forbidden"))
				return
			}
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindURI:
			bindErr = c.ShouldBindUri(&in)
		}
		if bindErr != nil {
			e.fail(c, BadRequest(bindErr.Error()))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			e.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

// fail answers with the envelope Map picks for err. Server errors are logged.
func (e EZ) fail(c *gin.Context, err error) {
	ae := Map(err)
	if ae.Code >= resp.CodeServerError {
		e.log.Error("action failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("rid", c.GetString(mdw.KeyRequestID)),
			zap.Error(err))
	}
	c.JSON(http.StatusOK, resp.ErrorWithData(ae.Code, ae.Msg, ae.Data))
}

// AErr is an error that already knows its envelope code and public message.
type AErr struct {
	Code int
	Msg  string
	Data any
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }

func asAErr(err error) (*AErr, bool) {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
