package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func setupGinTest() (*gin.Engine, *observer.ObservedLogs) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	router := gin.New()
	router.Use(GinMiddleware(log))
	return router, logs
}

func TestGinMiddleware(t *testing.T) {
	t.Run("logs successful requests at info level", func(t *testing.T) {
		router, logs := setupGinTest()
		router.GET("/ok", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zap.InfoLevel, entry.Level)
		assert.Equal(t, int64(http.StatusOK), entry.ContextMap()["status"])
		assert.Equal(t, "/ok", entry.ContextMap()["path"])
	})

	t.Run("logs client errors at warn level", func(t *testing.T) {
		router, logs := setupGinTest()
		router.GET("/missing", func(c *gin.Context) {
			c.Status(http.StatusNotFound)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zap.WarnLevel, logs.All()[0].Level)
	})

	t.Run("logs server errors at error level", func(t *testing.T) {
		router, logs := setupGinTest()
		router.GET("/boom", func(c *gin.Context) {
			c.Status(http.StatusInternalServerError)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/boom", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zap.ErrorLevel, logs.All()[0].Level)
	})

	t.Run("exposes a request-scoped logger to handlers", func(t *testing.T) {
		router, _ := setupGinTest()
		var handlerLogger *zap.Logger
		router.GET("/scoped", func(c *gin.Context) {
			handlerLogger = GetGinLogger(c)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/scoped", nil)
		router.ServeHTTP(w, req)

		assert.NotNil(t, handlerLogger)
	})
}

func TestRecovery(t *testing.T) {
	t.Run("recovers from panics and responds 500", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		core, logs := observer.New(zap.InfoLevel)

		router := gin.New()
		router.Use(Recovery(zap.New(core)))
		router.GET("/panic", func(c *gin.Context) {
			panic("boom")
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "Panic recovered", logs.All()[0].Message)
	})
}
