package gacha

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func recordDrawError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondDrawError(c, err)
	return w
}

func TestRespondDrawErrorMapping(t *testing.T) {
	w := recordDrawError(t, ErrNoCandidates)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), codeNoCandidates)

	// 并发竞争的冲突必须标记为可重试，前端据此整体重试一次
	w = recordDrawError(t, ErrDishVanished)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), codeItemVanished)
	assert.Contains(t, w.Body.String(), `"retryable":true`)

	w = recordDrawError(t, ErrInvalidGroup)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), codeInvalidGroup)

	w = recordDrawError(t, ErrDailyLimitReached)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), codeDailyLimit)
}
