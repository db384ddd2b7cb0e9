package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"pvcaisse/internal/apierror"
	"pvcaisse/internal/caisse"
	"pvcaisse/internal/middleware"
	"pvcaisse/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// decimal.Decimal is validated as a number so min=0 and friends work.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// report JSON names rather than Go field names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// bindAndValidate binds the JSON body and runs validator tags. On failure it
// writes the response and returns false; the caller returns immediately.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalide: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Namespace()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps service errors to HTTP statuses. Unknown errors are
// logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrConflit):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, caisse.ErrValidation):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	default:
		log.Error().
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Err(err).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, apierror.New("Erreur interne du serveur"))
	}
}

// acteur builds the caller identity from the JWT claims.
func acteur(c *gin.Context) service.Acteur {
	claims := middleware.GetClaims(c)
	return service.Acteur{UtilisateurID: claims.Utilisateur, Role: claims.Role, AgenceID: claims.Agence}
}

// queryDate reads a YYYY-MM-DD query parameter, today when absent.
func queryDate(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return caisse.Day(time.Now()), true
	}
	d, err := caisse.ParseDay(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.Newf("%s invalide, format attendu AAAA-MM-JJ", key))
		return time.Time{}, false
	}
	return d, true
}

// queryUUID reads an optional UUID query parameter.
func queryUUID(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.Newf("%s invalide", key))
		return nil, false
	}
	return &id, true
}

func paramUUID(c *gin.Context, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(key))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalide"))
		return uuid.Nil, false
	}
	return id, true
}

// queryPeriode reads du/au, defaulting to the last 30 days.
func queryPeriode(c *gin.Context) (time.Time, time.Time, bool) {
	au, ok := queryDate(c, "au")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	if c.Query("du") == "" {
		return au.AddDate(0, 0, -30), au, true
	}
	du, ok := queryDate(c, "du")
	return du, au, ok
}
