package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinevault/cinevault/config"
)

func jwtTestConfig(secret string) *config.EnvConfig {
	cfg := &config.EnvConfig{}
	cfg.JWT.SecretKey = secret
	cfg.JWT.Expire = 3600
	return cfg
}

func testGinContext() (*gin.Context, *http.Request) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request = req
	return c, req
}

func TestGenerateAndParseToken(t *testing.T) {
	cfg := jwtTestConfig("secret-under-test")
	userID := uuid.New()

	token, err := GenerateToken(userID, "viewer@example.com", cfg)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := ParseToken(token, cfg)
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, userID.String(), claims["user_id"])
	assert.Equal(t, "viewer@example.com", claims["email"])
}

func TestGenerateTokenWithoutSecret(t *testing.T) {
	_, err := GenerateToken(uuid.New(), "viewer@example.com", jwtTestConfig(""))
	assert.Error(t, err)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "viewer@example.com", jwtTestConfig("right"))
	require.NoError(t, err)

	_, err = ParseToken(token, jwtTestConfig("wrong"))
	assert.Error(t, err)
}

func TestExtractTokenFromBearerHeader(t *testing.T) {
	c, req := testGinContext()
	req.Header.Set("Authorization", "Bearer some-token")

	assert.Equal(t, "some-token", ExtractToken(c))
}

func TestExtractTokenPrefersCookie(t *testing.T) {
	c, req := testGinContext()
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie-token"})
	req.Header.Set("Authorization", "Bearer header-token")

	assert.Equal(t, "cookie-token", ExtractToken(c))
}

func TestExtractTokenMissing(t *testing.T) {
	c, _ := testGinContext()
	assert.Empty(t, ExtractToken(c))
}

func TestInjectAndGetUserID(t *testing.T) {
	c, _ := testGinContext()
	userID := uuid.New()

	claims := jwt.MapClaims{"user_id": userID.String(), "email": "viewer@example.com"}
	require.NoError(t, InjectClaimsToContext(c, claims))

	got, err := GetUserIDFromContext(c)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.Equal(t, "viewer@example.com", c.GetString("email"))
}

func TestInjectClaimsRejectsBadUserID(t *testing.T) {
	c, _ := testGinContext()

	assert.Error(t, InjectClaimsToContext(c, jwt.MapClaims{"user_id": "not-a-uuid"}))
	assert.Error(t, InjectClaimsToContext(c, jwt.MapClaims{"user_id": 42}))
}

func TestGetUserIDFromContextMissing(t *testing.T) {
	c, _ := testGinContext()

	_, err := GetUserIDFromContext(c)
	assert.Error(t, err)
}
