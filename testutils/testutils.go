package testutils

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/forumhub/forumhub/config"
	"github.com/forumhub/forumhub/utils"
)

// SetupTestDB opens a gorm connection over a sqlmock driver. The returned
// cleanup closes the underlying connection.
func SetupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock connection: %s", err)
	}

	silent := logger.New(
		log.New(io.Discard, "", log.LstdFlags),
		logger.Config{LogLevel: logger.Silent},
	)

	dialector := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{Logger: silent})
	if err != nil {
		t.Fatalf("failed to open gorm connection: %s", err)
	}

	cleanup := func() {
		_ = sqlDB.Close()
	}

	return gormDB, mock, cleanup
}

// SignToken issues a bearer token signed with the configured secret. Token
// issuance is test-only: production code verifies tokens minted elsewhere.
func SignToken(t *testing.T, userID uint, username string, ttl time.Duration) string {
	t.Helper()

	claims := utils.Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.Get().JWT.Secret))
	if err != nil {
		t.Fatalf("failed to sign token: %s", err)
	}
	return signed
}

// SetupTestRouter returns a bare gin engine for handler tests.
func SetupTestRouter() *gin.Engine {
	return gin.New()
}

// InitTestMain puts gin into test mode; call from TestMain.
func InitTestMain() {
	gin.SetMode(gin.TestMode)
}
