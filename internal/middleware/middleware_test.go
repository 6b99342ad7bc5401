package middleware

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performRequest(engine *gin.Engine, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestRateLimiterIsPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 2})
	engine := gin.New()
	engine.Use(rl.RateLimit())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		resp := performRequest(engine, "10.0.0.1:1234", nil)
		assert.Equal(t, http.StatusOK, resp.Code)
	}

	// Third request from the same client exceeds the burst.
	resp := performRequest(engine, "10.0.0.1:1234", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))

	// A different client has its own bucket.
	resp = performRequest(engine, "10.0.0.2:1234", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1})

	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		rl.allow(ip, now)
	}
	require.Len(t, rl.clients, 3)

	// A request past the eviction window sweeps the idle buckets.
	rl.allow("10.0.0.4", now.Add(2*limiterIdleEviction))
	assert.Len(t, rl.clients, 1)
}

func TestRequestIDKeepsWellFormedClientID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	supplied := uuid.NewString()
	resp := performRequest(engine, "", map[string]string{HeaderXRequestID: supplied})
	assert.Equal(t, supplied, resp.Header().Get(HeaderXRequestID))
}

func TestRequestIDReplacesMalformedClientID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	resp := performRequest(engine, "", map[string]string{HeaderXRequestID: "not a uuid\n<script>"})
	echoed := resp.Header().Get(HeaderXRequestID)
	_, err := uuid.Parse(echoed)
	assert.NoError(t, err)
	assert.NotEqual(t, "not a uuid\n<script>", echoed)
}

func TestTimeoutSetsRequestDeadline(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(Timeout(30 * time.Second))
	engine.GET("/ping", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})

	resp := performRequest(engine, "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestTimeoutExpiredWithoutResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(Timeout(time.Millisecond))
	engine.GET("/ping", func(c *gin.Context) {
		// Cooperative handler: waits out the deadline, writes nothing.
		<-c.Request.Context().Done()
	})

	resp := performRequest(engine, "", nil)
	assert.Equal(t, http.StatusGatewayTimeout, resp.Code)
	assert.Contains(t, resp.Body.String(), "timed out")
}

func TestTimeoutDisabledWhenZero(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(Timeout(0))
	engine.GET("/ping", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.False(t, ok)
		c.Status(http.StatusOK)
	})

	resp := performRequest(engine, "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(RequestID(), Recovery())
	engine.GET("/ping", func(c *gin.Context) {
		panic("boom")
	})

	resp := performRequest(engine, "", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "internal server error")
	assert.Contains(t, resp.Body.String(), "trace_id")
}

func TestIsBrokenPipe(t *testing.T) {
	pipeErr := &net.OpError{
		Op:  "write",
		Err: os.NewSyscallError("write", syscall.EPIPE),
	}
	assert.True(t, isBrokenPipe(pipeErr))
	assert.False(t, isBrokenPipe("boom"))
	assert.False(t, isBrokenPipe(context.DeadlineExceeded))
}
