// internals/features/users/auth/service/token_service.go
package service

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	authModel "barangayku_backend/internals/features/users/auth/model"
	authRepo "barangayku_backend/internals/features/users/auth/repository"
	helpers "barangayku_backend/internals/helpers"
)

// RefreshToken rotates the refresh token and issues a fresh access token.
// POST /api/auth/refresh-token
func RefreshToken(db *gorm.DB, c *fiber.Ctx) error {
	// cookie-based endpoint, CSRF is mandatory
	if err := helpers.CheckCSRFCookieHeader(c); err != nil {
		return helpers.JsonError(c, fiber.StatusForbidden, err.Error())
	}
	refreshCookie := helpers.GetRefreshTokenFromCookie(c)
	if refreshCookie == "" {
		return helpers.JsonError(c, fiber.StatusUnauthorized, "Refresh token missing")
	}

	refreshSecret, err := getRefreshSecret()
	if err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	tok, err := jwt.Parse(refreshCookie, func(t *jwt.Token) (any, error) {
		return []byte(refreshSecret), nil
	})
	if err != nil || !tok.Valid {
		return helpers.JsonError(c, fiber.StatusUnauthorized, "Refresh token invalid")
	}
	claims, _ := tok.Claims.(jwt.MapClaims)
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return helpers.JsonError(c, fiber.StatusUnauthorized, "Refresh token invalid")
	}

	// the stored hash must still exist and be unrevoked
	oldHash := computeRefreshHash(refreshCookie, refreshSecret)
	exists, err := authRepo.RefreshTokenHashExists(db, oldHash)
	if err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "DB error")
	}
	if !exists {
		return helpers.JsonError(c, fiber.StatusUnauthorized, "Refresh token not recognized")
	}

	userFull, err := authRepo.FindUserByID(db, userID)
	if err != nil {
		return helpers.JsonError(c, fiber.StatusUnauthorized, "User not found")
	}
	if !userFull.IsActive {
		return helpers.JsonError(c, fiber.StatusForbidden, "Account deactivated")
	}

	// ROTATE: drop the old token before issuing the new pair
	if err := authRepo.DeleteRefreshTokenByHash(db, oldHash); err != nil {
		log.Printf("[refresh] delete old hash failed: %v", err)
	}

	jwtSecret, err := getJWTSecret()
	if err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	now := nowUTC()
	newAccess, err := jwt.NewWithClaims(jwt.SigningMethodHS256, buildAccessClaims(*userFull, now)).
		SignedString([]byte(jwtSecret))
	if err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to sign access token")
	}
	newRefresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, buildRefreshClaims(userFull.ID, now)).
		SignedString([]byte(refreshSecret))
	if err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to sign refresh token")
	}

	ua, ip := c.Get("User-Agent"), c.IP()
	if err := createRefreshTokenFast(db, &authModel.RefreshToken{
		UserID:    userFull.ID,
		TokenHash: computeRefreshHash(newRefresh, refreshSecret),
		ExpiresAt: now.Add(refreshTTLDefault),
		UserAgent: strptr(strings.TrimSpace(ua)),
		IP:        strptr(ip),
	}); err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to store refresh token")
	}

	setAuthCookies(c, newAccess, newRefresh, now)

	return helpers.JsonOK(c, "Token refreshed", fiber.Map{
		"access_token": newAccess,
	})
}
