package middleware

import (
	"errors"
	"net/http"
	"strings"

	"pvcaisse/internal/apierror"
	"pvcaisse/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const ClaimsKey = "claims"

// JWTClaims are the custom claims embedded in every access token.
// Utilisateur and Agence are filled from UserID and AgenceID once the token
// has been accepted.
type JWTClaims struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Role     string  `json:"role"`
	AgenceID *string `json:"agence_id"`
	jwt.RegisteredClaims

	Utilisateur uuid.UUID  `json:"-"`
	Agence      *uuid.UUID `json:"-"`
}

var errIdentite = errors.New("identité du jeton incohérente")

// identifier parses the identity claims. Agents and responsables always act
// within one agency, so their tokens must carry it.
func (c *JWTClaims) identifier() error {
	id, err := uuid.Parse(c.UserID)
	if err != nil || id == uuid.Nil {
		return errIdentite
	}
	c.Utilisateur = id

	switch c.Role {
	case model.RoleAgent, model.RoleResponsable, model.RoleAdmin:
	default:
		return errIdentite
	}

	c.Agence = nil
	if c.AgenceID != nil && *c.AgenceID != "" {
		ag, err := uuid.Parse(*c.AgenceID)
		if err != nil {
			return errIdentite
		}
		c.Agence = &ag
	}
	if c.Agence == nil && c.Role != model.RoleAdmin {
		return errIdentite
	}
	return nil
}

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Authentification requise"))
			return
		}

		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Jeton invalide ou expiré"))
			return
		}
		if err := claims.identifier(); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Jeton invalide: "+err.Error()))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !allowed[claims.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permissions insuffisantes"))
			return
		}
		c.Next()
	}
}

// GetClaims returns the accepted claims, nil on routes without JWTAuth.
func GetClaims(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}
