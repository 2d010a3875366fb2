package utils

import "github.com/gin-gonic/gin"

// Success wraps data in the portal's response envelope: code 0, msg "ok".
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, gin.H{
		"code": 0,
		"msg":  "ok",
		"data": data,
	})
}

// Fail writes the error envelope, code -1 with the error message as msg.
func Fail(c *gin.Context, err error) {
	c.JSON(400, gin.H{
		"code": -1,
		"msg":  err.Error(),
	})
}
