package gacha

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yctsai/dish-gacha-backend/internal/user"
)

// --- API请求模型 ---

type drawRequest struct {
	GroupID uint `json:"group_id" binding:"required"`
}

// --- 错误码 ---
// 前端依赖稳定的错误码来区分“没得抽”（不重试）和“撞上并发”（可重试）

const (
	codeNoCandidates = "NO_CANDIDATES"
	codeItemVanished = "ITEM_VANISHED"
	codeInvalidGroup = "INVALID_GROUP"
	codeDailyLimit   = "DAILY_LIMIT_REACHED"
)

// --- Gin处理器 ---

// DrawHandler 执行一次抽卡
func DrawHandler(c *gin.Context) {
	var body drawRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": codeInvalidGroup, "error": "请求格式错误: " + err.Error()})
		return
	}

	userID := c.GetString(user.UserIDKey)
	result, err := DrawDish(userID, body.GroupID)
	if err != nil {
		respondDrawError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HistoryHandler 返回当前用户的抽卡历史
func HistoryHandler(c *gin.Context) {
	userID := c.GetString(user.UserIDKey)
	entries, err := GetHistory(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// StatsHandler 返回当前用户的抽卡汇总，支持?groupId=过滤
func StatsHandler(c *gin.Context) {
	userID := c.GetString(user.UserIDKey)

	var groupID *uint
	if raw := c.Query("groupId"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": codeInvalidGroup, "error": "无效的群组ID"})
			return
		}
		gid := uint(parsed)
		groupID = &gid
	}

	totals, err := GetTotals(userID, groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, totals)
}

// respondDrawError 把抽卡的服务层错误映射为HTTP状态码和稳定错误码
func respondDrawError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNoCandidates):
		c.JSON(http.StatusNotFound, gin.H{"code": codeNoCandidates, "error": err.Error()})
	case errors.Is(err, ErrDishVanished):
		c.JSON(http.StatusConflict, gin.H{"code": codeItemVanished, "error": err.Error(), "retryable": true})
	case errors.Is(err, ErrInvalidGroup):
		c.JSON(http.StatusBadRequest, gin.H{"code": codeInvalidGroup, "error": err.Error()})
	case errors.Is(err, ErrDailyLimitReached):
		c.JSON(http.StatusForbidden, gin.H{"code": codeDailyLimit, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
