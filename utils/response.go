package utils

import "github.com/gin-gonic/gin"

// ErrorMessage writes the generic error body used for 401/404/429/500
// responses: a single localized message, nothing else.
func ErrorMessage(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"message": message})
}

// ValidationFailed writes a 400 response whose body is the bare array of
// field errors, each carrying the rule violated, the field name, and a
// localized human message.
func ValidationFailed(ctx *gin.Context, errs []FieldError) {
	ctx.JSON(400, errs)
}
