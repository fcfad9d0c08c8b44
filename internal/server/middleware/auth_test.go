package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func authEngine(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Auth(token))
	engine.GET("/secure", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func doAuth(engine *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuth_DisabledWhenNoTokenConfigured(t *testing.T) {
	engine := authEngine("")

	assert.Equal(t, http.StatusOK, doAuth(engine, "").Code)
	assert.Equal(t, http.StatusOK, doAuth(engine, "Bearer anything").Code)
}

func TestAuth_ValidToken(t *testing.T) {
	engine := authEngine("secret-token")

	assert.Equal(t, http.StatusOK, doAuth(engine, "Bearer secret-token").Code)
}

func TestAuth_MissingHeader(t *testing.T) {
	engine := authEngine("secret-token")

	w := doAuth(engine, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestAuth_WrongToken(t *testing.T) {
	engine := authEngine("secret-token")

	assert.Equal(t, http.StatusUnauthorized, doAuth(engine, "Bearer wrong").Code)
}

func TestAuth_MalformedHeader(t *testing.T) {
	engine := authEngine("secret-token")

	assert.Equal(t, http.StatusUnauthorized, doAuth(engine, "secret-token").Code)
	assert.Equal(t, http.StatusUnauthorized, doAuth(engine, "Basic secret-token").Code)
}
