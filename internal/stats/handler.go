package stats

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// userIDKey 与user模块的上下文键保持一致
// 直接引用user包会造成user→stats→user的循环导入
const userIDKey = "userID"

// GetVisitsHandler 返回累计总访问量
func GetVisitsHandler(c *gin.Context) {
	count, err := GetTotalVisits()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

// IncrementVisitsHandler 记录一次访问并返回累计总访问量
func IncrementVisitsHandler(c *gin.Context) {
	count, err := IncrementVisit()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

// GetMyStatsHandler 返回当前用户的参与度统计
func GetMyStatsHandler(c *gin.Context) {
	userID := c.GetString(userIDKey)
	s, err := GetUserStats(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s)
}
