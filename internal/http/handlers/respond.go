package handlers

import "github.com/gin-gonic/gin"

// respondOK writes the uniform success envelope, merging extra fields into
// the body.
func respondOK(c *gin.Context, status int, message string, extra gin.H) {
	body := gin.H{
		"status":  "success",
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// respondError writes the uniform error envelope.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"status":  "error",
		"message": message,
	})
}
