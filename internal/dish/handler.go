package dish

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yctsai/dish-gacha-backend/internal/user"
)

// RegisterValidations 向gin的binding验证器注册自定义规则
// "rarity"规则限制字段只能是四个合法的稀有度之一
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("rarity", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || IsValidRarity(s)
		})
	}
}

// --- API请求/响应模型 ---

type createDishRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	ImageURL     string   `json:"image_url"`
	Address      *string  `json:"address"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	PlaceID      *string  `json:"place_id"`
	Rating       *float64 `json:"rating" binding:"omitempty,gte=0,lte=5"`
	ReviewCount  *int     `json:"review_count"`
	Phone        *string  `json:"phone"`
	OpeningHours *string  `json:"opening_hours"`
	Rarity       string   `json:"rarity" binding:"rarity"`
}

type updateDishRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	ImageURL     *string  `json:"image_url"`
	Address      *string  `json:"address"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	PlaceID      *string  `json:"place_id"`
	Rating       *float64 `json:"rating" binding:"omitempty,gte=0,lte=5"`
	ReviewCount  *int     `json:"review_count"`
	Phone        *string  `json:"phone"`
	OpeningHours *string  `json:"opening_hours"`
	Rarity       *string  `json:"rarity" binding:"omitempty,rarity"`
}

// --- Gin处理器 ---

// ListDishesHandler 返回当前用户的全部餐厅
func ListDishesHandler(c *gin.Context) {
	userID := c.GetString(user.UserIDKey)
	dishes, err := ListDishes(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dishes)
}

// GetDishHandler 返回单条餐厅记录
func GetDishHandler(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		return
	}
	d, err := GetDish(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// CreateDishHandler 创建一条餐厅记录
func CreateDishHandler(c *gin.Context) {
	var body createDishRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	userID := c.GetString(user.UserIDKey)
	d, err := CreateDish(userID, CreateDishInput{
		Name:         body.Name,
		Description:  body.Description,
		ImageURL:     body.ImageURL,
		Address:      body.Address,
		Lat:          body.Lat,
		Lng:          body.Lng,
		PlaceID:      body.PlaceID,
		Rating:       body.Rating,
		ReviewCount:  body.ReviewCount,
		Phone:        body.Phone,
		OpeningHours: body.OpeningHours,
		Rarity:       body.Rarity,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// UpdateDishHandler 部分更新一条餐厅记录
func UpdateDishHandler(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		return
	}
	var body updateDishRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	userID := c.GetString(user.UserIDKey)
	d, err := UpdateDish(id, userID, UpdateDishInput{
		Name:         body.Name,
		Description:  body.Description,
		ImageURL:     body.ImageURL,
		Address:      body.Address,
		Lat:          body.Lat,
		Lng:          body.Lng,
		PlaceID:      body.PlaceID,
		Rating:       body.Rating,
		ReviewCount:  body.ReviewCount,
		Phone:        body.Phone,
		OpeningHours: body.OpeningHours,
		Rarity:       body.Rarity,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// DeleteDishHandler 删除一条餐厅记录
func DeleteDishHandler(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		return
	}
	userID := c.GetString(user.UserIDKey)
	if err := DeleteDish(id, userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "餐厅已删除"})
}

// ImportDishHandler 把他人的餐厅导入当前用户的清单
func ImportDishHandler(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		return
	}
	userID := c.GetString(user.UserIDKey)
	d, isNew, err := ImportDish(userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"dish": d, "is_new": isNew})
}

// ImportFromGroupHandler 把一个群组的全部餐厅导入当前用户的清单
func ImportFromGroupHandler(c *gin.Context) {
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的群组ID"})
		return
	}
	userID := c.GetString(user.UserIDKey)
	imported, skipped, err := ImportFromGroup(userID, uint(groupID))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": imported, "skipped": skipped})
}

// parseIDParam 解析路径中的:id参数，失败时直接写入400响应
func parseIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的餐厅ID"})
		return 0, err
	}
	return uint(id), nil
}

// respondServiceError 把服务层错误映射为HTTP状态码
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrDishNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrDuplicateDish):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
