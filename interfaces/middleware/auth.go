package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const authorizationKey = "authorization"

// Bearer requires an Authorization header and keeps it on the context for the
// handler to forward. message is the body returned when it is missing.
func Bearer(message string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authorization := strings.TrimSpace(ctx.GetHeader("Authorization"))
		if authorization == "" || authorization == "Bearer" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
			return
		}
		ctx.Set(authorizationKey, authorization)
		ctx.Next()
	}
}

// Authorization returns the header stored by Bearer, or the raw request header.
func Authorization(ctx *gin.Context) string {
	if v := ctx.GetString(authorizationKey); v != "" {
		return v
	}
	return strings.TrimSpace(ctx.GetHeader("Authorization"))
}

// Preflight answers every OPTIONS request with 204.
func Preflight() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}
}
