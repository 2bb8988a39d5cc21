// internal/middleware/auth.go
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/GabrielVictorica/inmogestor-backend/internal/i18n"
	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
	"github.com/GabrielVictorica/inmogestor-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errInvalidRole = errors.New("invalid actor role")

// AuthRequired resolves the actor descriptor from the bearer token issued by
// the upstream authentication collaborator and places it in the context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.GetHeader("Accept-Language")
		if lang == "" {
			lang = "es"
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthRequired),
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthInvalidToken),
			})
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthTokenExpired),
			})
			c.Abort()
			return
		}

		actor, err := actorFromClaims(claims)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthInvalidToken),
			})
			c.Abort()
			return
		}

		utils.SetActorInContext(c, actor)
		c.Next()
	}
}

// GodRequired gates platform-admin-only routes. Must run after AuthRequired.
func GodRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.GetHeader("Accept-Language")
		if lang == "" {
			lang = "es"
		}

		actor, exists := utils.GetActorFromContext(c)
		if !exists || actor.Role != models.RoleGod {
			c.JSON(http.StatusForbidden, gin.H{
				"error": i18n.T(lang, i18n.KeyAccessDenied),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func actorFromClaims(claims *utils.JWTClaims) (models.Actor, error) {
	id, err := uuid.Parse(claims.ProfileID)
	if err != nil {
		return models.Actor{}, err
	}

	actor := models.Actor{
		ID:   id,
		Role: models.ProfileRole(claims.Role),
	}
	if !actor.Role.Valid() {
		return models.Actor{}, errInvalidRole
	}

	if claims.OrganizationID != "" {
		orgID, err := uuid.Parse(claims.OrganizationID)
		if err != nil {
			return models.Actor{}, err
		}
		actor.OrganizationID = &orgID
	}

	return actor, nil
}
