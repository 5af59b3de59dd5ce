package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

// Response is the uniform envelope every endpoint returns.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SuccessResponse sends a success response
func SuccessResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, &Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreatedResponse sends a 201 created response
func CreatedResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, &Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse sends an error response
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, &Response{
		Success: false,
		Message: message,
	})
}

// BadRequestError sends a 400 error
func BadRequestError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message)
}

// NotFoundError sends a 404 error
func NotFoundError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, message)
}

// ConflictError sends a 409 error
func ConflictError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusConflict, message)
}

// UnauthorizedError sends a 401 error
func UnauthorizedError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, message)
}

// TooManyRequestsError sends a 429 error
func TooManyRequestsError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusTooManyRequests, message)
}

// PayloadTooLargeError sends a 413 error
func PayloadTooLargeError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusRequestEntityTooLarge, message)
}

// InternalError sends a 500 error
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, message)
}

// RoutineError maps a routine failure onto the HTTP status its error
// kind implies, carrying the human-readable message through unchanged.
func RoutineError(c *gin.Context, err error) {
	switch ftserr.KindOf(err) {
	case ftserr.NoSuchIndex, ftserr.NoSuchRelation, ftserr.NoSuchField, ftserr.NoSuchAnalyzer:
		NotFoundError(c, err.Error())
	case ftserr.IndexAlreadyExists, ftserr.IndexBusy, ftserr.IndexNotBuilt:
		ConflictError(c, err.Error())
	case ftserr.ArgumentNull, ftserr.MalformedKey, ftserr.UnsupportedKeyType,
		ftserr.CompositePKRequiresKey, ftserr.BaseAnalyzerLacksStopWords,
		ftserr.CannotModifySystemAnalyzer, ftserr.FragmentSizeOutOfRange,
		ftserr.TermTooLong, ftserr.FragmentTooLong:
		BadRequestError(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}
