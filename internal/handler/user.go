package handler

import (
	"datahub/internal/repo"
	"datahub/model"
	"datahub/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetUserInfo returns the caller's account, served from cache when warm.
func GetUserInfo(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetUint64("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if cached, ok := utils.GetUserInfoFromCache(ctx, userID); ok {
		utils.Success(c, cached)
		return
	}

	var user model.User
	if err := repo.Db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	_ = utils.SetUserInfoToCache(ctx, userID, &user, 10*time.Minute)
	utils.Success(c, &user)
}
