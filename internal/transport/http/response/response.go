package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Resp is the envelope every JSON endpoint answers with. The outcome is in
// Code; the HTTP status stays 200.
type Resp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func New(code int, msg string, data any) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data any) Resp { return New(CodeOK, CodeMsgMap[CodeOK], data) }

// Error uses the default message for code unless msg is set.
func Error(code int, msg string) Resp { return ErrorWithData(code, msg, nil) }

// ErrorWithData is Error with a payload, e.g. per-field validation messages.
func ErrorWithData(code int, msg string, data any) Resp {
	if msg == "" {
		msg = CodeMsgMap[code]
	}
	return New(code, msg, data)
}

// Abort stops the handler chain with an error envelope.
func Abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(http.StatusOK, Error(code, msg))
}
