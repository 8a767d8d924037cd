package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONResponse is the envelope every API handler answers with.
type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondError answers with the error text and attaches err to the context so the
// request logger can report it. A nil err falls back to the status text.
func RespondError(c *gin.Context, code int, err error) {
	message := http.StatusText(code)
	if err != nil {
		message = err.Error()
		_ = c.Error(err)
	}
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: message,
	})
}
