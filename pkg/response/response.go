package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	CodeSuccess     = 0
	CodeBadRequest  = 400
	CodeServerError = 500

	CodeRateLimited         = 1001
	CodeUserNotFound        = 1002
	CodeUsernameTaken       = 1003
	CodeInvalidReferralCode = 1004

	CodeInvalidNode        = 2001
	CodeNodeAlreadyRunning = 2002
	CodeTxAlreadyUsed      = 2003
	CodeVerificationFailed = 2004

	CodeInsufficientBalance = 3001
	CodeBelowMinimum        = 3002
	CodeGateNotMet          = 3003
	CodeInvalidAddress      = 3004
	CodeWithdrawalNotFound  = 3005
)

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeBadRequest, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeServerError, message)
}
