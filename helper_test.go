package zensegur

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRunIDRoundTrip(t *testing.T) {
	id := uuid.New()

	ctx := WithRunID(context.Background(), id)

	assert.Equal(t, id.String(), RunID(ctx))
	assert.Equal(t, "", RunID(context.Background()))
	assert.Equal(t, "", GetContextHeader(ctx, XCORRELATIONID))
}

func TestGetContextHeaderFromGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/recipes", nil)
	c.Request.Header.Set(XCORRELATIONID, "abc")

	assert.Equal(t, "abc", GetContextHeader(c, XRUNID, XCORRELATIONID))
	assert.Equal(t, c.Request.Context(), getContext(c))
}
