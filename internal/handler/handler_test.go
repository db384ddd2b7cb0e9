package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pvcaisse/internal/caisse"
	"pvcaisse/internal/dto"
	"pvcaisse/internal/middleware"
	"pvcaisse/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret_32_chars_minimum!"

func init() { gin.SetMode(gin.TestMode) }

var (
	testUserID   = uuid.MustParse("5a3e8d52-1c2b-4f8e-9a61-3b7d2c4e5f60")
	testAgenceID = uuid.MustParse("0b8f6c2e-4d1a-4f59-8a8e-2c5d7e9f1a3b")
)

func signToken(t *testing.T, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id":   testUserID.String(),
		"username":  "testuser",
		"role":      role,
		"agence_id": testAgenceID.String(),
		"exp":       time.Now().Add(time.Hour).Unix(),
		"iat":       time.Now().Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── Fakes ─────────────────────────────────────────────────────────────────────

// fakePV records the last call. Methods not overridden panic on the nil
// embedded interface.
type fakePV struct {
	service.PVService
	err    error
	acteur service.Acteur
	cible  *uuid.UUID
	date   time.Time
	du, au time.Time
}

func (f *fakePV) Courant(_ context.Context, a service.Acteur, uid *uuid.UUID, date time.Time) (*dto.PVResponse, error) {
	f.acteur, f.cible, f.date = a, uid, date
	if f.err != nil {
		return nil, f.err
	}
	return &dto.PVResponse{Date: date.Format(time.DateOnly), Brouillon: true}, nil
}

func (f *fakePV) Historique(_ context.Context, a service.Acteur, uid *uuid.UUID, du, au time.Time) (*dto.HistoriqueResponse, error) {
	f.acteur, f.cible, f.du, f.au = a, uid, du, au
	return &dto.HistoriqueResponse{Jours: []dto.PVResponse{}}, f.err
}

func (f *fakePV) Enregistrer(_ context.Context, a service.Acteur, req dto.EnregistrerPVRequest) (*dto.PVResponse, error) {
	f.acteur = a
	if f.err != nil {
		return nil, f.err
	}
	return &dto.PVResponse{ID: uuid.NewString(), Date: req.Date, SoldeDepart: req.SoldeDepart}, nil
}

func (f *fakePV) ConsolidationAgence(_ context.Context, a service.Acteur, agenceID uuid.UUID, date time.Time) (*dto.ConsolidationResponse, error) {
	f.acteur, f.date = a, date
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ConsolidationResponse{AgenceID: agenceID.String(), Date: date.Format(time.DateOnly)}, nil
}

func pvRouter(f *fakePV) *gin.Engine {
	r := gin.New()
	h := NewPVHandler(f)
	v1 := r.Group("/v1", middleware.JWTAuth(testSecret))
	v1.GET("/pv/courant", h.Courant)
	v1.GET("/pv/historique", h.Historique)
	v1.POST("/pv", h.Enregistrer)
	v1.GET("/pv/agence/:id", h.ConsolidationAgence)
	return r
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCourant_ActeurDepuisLeJeton(t *testing.T) {
	f := &fakePV{}
	w := do(t, pvRouter(f), http.MethodGet, "/v1/pv/courant?date=2026-03-10", nil, signToken(t, "agent"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testUserID, f.acteur.UtilisateurID)
	assert.Equal(t, "agent", f.acteur.Role)
	require.NotNil(t, f.acteur.AgenceID)
	assert.Equal(t, testAgenceID, *f.acteur.AgenceID)
	assert.Nil(t, f.cible)
	assert.Equal(t, "2026-03-10", f.date.Format(time.DateOnly))
}

func TestCourant_ParametresInvalides(t *testing.T) {
	f := &fakePV{}
	r := pvRouter(f)
	tok := signToken(t, "admin")

	w := do(t, r, http.MethodGet, "/v1/pv/courant?date=10-03-2026", nil, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/v1/pv/courant?utilisateur_id=abc", nil, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	cible := uuid.New()
	w = do(t, r, http.MethodGet, "/v1/pv/courant?utilisateur_id="+cible.String(), nil, tok)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, f.cible)
	assert.Equal(t, cible, *f.cible)
	assert.Equal(t, caisse.Day(time.Now()), f.date, "date defaults to today")
}

func TestCourant_SansJeton(t *testing.T) {
	w := do(t, pvRouter(&fakePV{}), http.MethodGet, "/v1/pv/courant", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRespondError_Statuts(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: PV d'un autre utilisateur", service.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("utilisateur %w", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: doublon", service.ErrConflit), http.StatusConflict},
		{fmt.Errorf("%w: date invalide", caisse.ErrValidation), http.StatusBadRequest},
		{errors.New("connexion perdue"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := do(t, pvRouter(&fakePV{err: tc.err}), http.MethodGet, "/v1/pv/courant", nil, signToken(t, "agent"))
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
		if tc.want == http.StatusInternalServerError {
			assert.NotContains(t, w.Body.String(), "connexion perdue", "internal errors are not exposed")
		}
	}
}

func TestHistorique_PeriodeParDefaut(t *testing.T) {
	f := &fakePV{}
	w := do(t, pvRouter(f), http.MethodGet, "/v1/pv/historique?au=2026-03-31", nil, signToken(t, "agent"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-03-01", f.du.Format(time.DateOnly))
	assert.Equal(t, "2026-03-31", f.au.Format(time.DateOnly))
}

func TestEnregistrer_Validation(t *testing.T) {
	f := &fakePV{}
	r := pvRouter(f)
	tok := signToken(t, "agent")

	w := do(t, r, http.MethodPost, "/v1/pv", "{pas du json", tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/v1/pv", map[string]interface{}{"solde_depart": "10"}, tok)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var verr struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verr))
	assert.Contains(t, verr.Fields, "EnregistrerPVRequest.date")

	w = do(t, r, http.MethodPost, "/v1/pv", map[string]interface{}{"date": "2026-03-10", "solde_depart": "-5"}, tok)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodPost, "/v1/pv", map[string]interface{}{"date": "2026-03-10", "solde_depart": "125.50"}, tok)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp dto.PVResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "125.5", resp.SoldeDepart.String())
}

func TestConsolidationAgence_IDInvalide(t *testing.T) {
	w := do(t, pvRouter(&fakePV{}), http.MethodGet, "/v1/pv/agence/pas-un-uuid", nil, signToken(t, "responsable"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ── Rapports ──────────────────────────────────────────────────────────────────

type fakeRapport struct {
	path string
	req  dto.RapportRequest
}

func (f *fakeRapport) ExporterPDF(context.Context, service.Acteur, uuid.UUID, time.Time) (string, error) {
	return f.path, nil
}

func (f *fakeRapport) Demander(_ context.Context, _ service.Acteur, _ uuid.UUID, req dto.RapportRequest) (*dto.RapportResponse, error) {
	f.req = req
	return &dto.RapportResponse{ID: uuid.NewString(), Statut: service.RapportEnAttente}, nil
}

func TestRapport_PDFEnPieceJointe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pv_test.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.3"), 0o600))

	r := gin.New()
	h := NewRapportHandler(&fakeRapport{path: path})
	r.GET("/v1/pv/agence/:id/pdf", middleware.JWTAuth(testSecret), h.PDF)
	r.POST("/v1/pv/agence/:id/rapport", middleware.JWTAuth(testSecret), h.Envoyer)

	w := do(t, r, http.MethodGet, "/v1/pv/agence/"+testAgenceID.String()+"/pdf?date=2026-03-10", nil, signToken(t, "responsable"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "pv_test.pdf")

	w = do(t, r, http.MethodPost, "/v1/pv/agence/"+testAgenceID.String()+"/rapport",
		map[string]string{"date": "2026-03-10", "destinataire": "pas-un-email"}, signToken(t, "responsable"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodPost, "/v1/pv/agence/"+testAgenceID.String()+"/rapport",
		map[string]string{"date": "2026-03-10"}, signToken(t, "responsable"))
	assert.Equal(t, http.StatusAccepted, w.Code)
}

// ── Utilisateurs ──────────────────────────────────────────────────────────────

type fakeAuth struct {
	service.AuthService
	desactive uuid.UUID
}

func (f *fakeAuth) DesactiverUtilisateur(_ context.Context, id uuid.UUID) error {
	f.desactive = id
	return nil
}

func (f *fakeAuth) Login(context.Context, dto.LoginRequest) (*dto.LoginResponse, error) {
	return nil, errors.New("identifiants invalides")
}

func TestUtilisateurs_PasDAutoDesactivation(t *testing.T) {
	f := &fakeAuth{}
	r := gin.New()
	r.DELETE("/v1/utilisateurs/:id", middleware.JWTAuth(testSecret), NewUtilisateursHandler(f).Desactiver)

	w := do(t, r, http.MethodDelete, "/v1/utilisateurs/"+testUserID.String(), nil, signToken(t, "admin"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	autre := uuid.New()
	w = do(t, r, http.MethodDelete, "/v1/utilisateurs/"+autre.String(), nil, signToken(t, "admin"))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, autre, f.desactive)
}

func TestLogin_Echec(t *testing.T) {
	r := gin.New()
	r.POST("/v1/auth/login", NewAuthHandler(&fakeAuth{}).Login)

	w := do(t, r, http.MethodPost, "/v1/auth/login", dto.LoginRequest{Username: "agent", Password: "mauvais"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/v1/auth/login", dto.LoginRequest{Username: "agent", Password: "12"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// ── Catégories ────────────────────────────────────────────────────────────────

type fakeCategories struct {
	service.CategorieService
	typ string
}

func (f *fakeCategories) Lister(_ context.Context, typ string) ([]dto.CategorieResponse, error) {
	f.typ = typ
	return []dto.CategorieResponse{}, nil
}

func TestCategories_FiltreType(t *testing.T) {
	f := &fakeCategories{}
	r := gin.New()
	r.GET("/v1/categories", NewCategoriesHandler(f).Lister)

	w := do(t, r, http.MethodGet, "/v1/categories?type=retrait", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "retrait", f.typ)

	w = do(t, r, http.MethodGet, "/v1/categories?type=virement", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRapportsEchecs_Parametres(t *testing.T) {
	r := gin.New()
	r.GET("/v1/rapports/echecs", RapportsEchecs(nil))

	w := do(t, r, http.MethodGet, "/v1/rapports/echecs?limite=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, r, http.MethodGet, "/v1/rapports/echecs?limite=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, r, http.MethodGet, "/v1/rapports/echecs", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
