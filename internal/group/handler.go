package group

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yctsai/dish-gacha-backend/internal/dish"
	"github.com/yctsai/dish-gacha-backend/internal/user"
)

// --- API请求模型 ---

type createGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

type updateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
}

type addDishRequest struct {
	DishID uint `json:"dish_id" binding:"required"`
}

// --- Gin处理器 ---

// ListGroupsHandler 返回当前用户创建和收藏的群组
func ListGroupsHandler(c *gin.Context) {
	userID := c.GetString(user.UserIDKey)
	views, err := ListGroups(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, views)
}

// ExploreHandler 返回所有公开群组
func ExploreHandler(c *gin.Context) {
	userID := c.GetString(user.UserIDKey)
	views, err := Explore(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetGroupHandler 返回单个群组及其餐厅
func GetGroupHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	g, err := GetGroup(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	dishes, err := ListDishes(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": g, "dishes": dishes})
}

// CreateGroupHandler 创建群组
func CreateGroupHandler(c *gin.Context) {
	var body createGroupRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	userID := c.GetString(user.UserIDKey)
	g, err := CreateGroup(userID, CreateGroupInput{
		Name:        body.Name,
		Slug:        body.Slug,
		Description: body.Description,
		IsPublic:    body.IsPublic,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// UpdateGroupHandler 部分更新群组
func UpdateGroupHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body updateGroupRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	userID := c.GetString(user.UserIDKey)
	g, err := UpdateGroup(id, userID, UpdateGroupInput{
		Name:        body.Name,
		Description: body.Description,
		IsPublic:    body.IsPublic,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// DeleteGroupHandler 删除群组
func DeleteGroupHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := c.GetString(user.UserIDKey)
	if err := DeleteGroup(id, userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "群组已删除"})
}

// AddDishHandler 把餐厅加入群组
func AddDishHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body addDishRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	userID := c.GetString(user.UserIDKey)
	if err := AddDish(id, body.DishID, userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已加入群组"})
}

// RemoveDishHandler 把餐厅移出群组
func RemoveDishHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	dishID, err := strconv.ParseUint(c.Param("dishId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的餐厅ID"})
		return
	}
	userID := c.GetString(user.UserIDKey)
	if err := RemoveDish(id, uint(dishID), userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已移出群组"})
}

// SaveGroupHandler 收藏公开群组
func SaveGroupHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := c.GetString(user.UserIDKey)
	if err := SaveGroup(userID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已收藏"})
}

// UnsaveGroupHandler 取消收藏
func UnsaveGroupHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := c.GetString(user.UserIDKey)
	if err := UnsaveGroup(userID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已取消收藏"})
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的群组ID"})
		return 0, false
	}
	return uint(id), true
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrGroupNotFound), errors.Is(err, dish.ErrDishNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotPublic):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
