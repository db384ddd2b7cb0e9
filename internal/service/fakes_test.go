package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"pvcaisse/internal/caisse"
	"pvcaisse/internal/model"
	"pvcaisse/internal/repository"

	"github.com/google/uuid"
)

// ── Utilisateurs ──────────────────────────────────────────────────────────────

type fakeUtilisateurs struct {
	byID map[uuid.UUID]*model.Utilisateur
}

func newFakeUtilisateurs(users ...*model.Utilisateur) *fakeUtilisateurs {
	f := &fakeUtilisateurs{byID: make(map[uuid.UUID]*model.Utilisateur)}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUtilisateurs) Create(_ context.Context, u *model.Utilisateur) error {
	for _, o := range f.byID {
		if o.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	u.ID = uuid.New()
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUtilisateurs) FindByUsername(_ context.Context, username string) (*model.Utilisateur, error) {
	for _, u := range f.byID {
		email := u.Email != nil && strings.EqualFold(*u.Email, username)
		if u.Actif && (u.Username == username || email) {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUtilisateurs) FindByID(_ context.Context, id uuid.UUID) (*model.Utilisateur, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUtilisateurs) list(actifsSeuls bool) []model.Utilisateur {
	out := []model.Utilisateur{}
	for _, u := range f.byID {
		if u.Actif || !actifsSeuls {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (f *fakeUtilisateurs) List(context.Context) ([]model.Utilisateur, error) {
	return f.list(true), nil
}

func (f *fakeUtilisateurs) ListAll(context.Context) ([]model.Utilisateur, error) {
	return f.list(false), nil
}

func (f *fakeUtilisateurs) ListByAgence(_ context.Context, agenceID uuid.UUID) ([]model.Utilisateur, error) {
	out := []model.Utilisateur{}
	for _, u := range f.list(true) {
		if u.AgenceID != nil && *u.AgenceID == agenceID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUtilisateurs) Update(_ context.Context, u *model.Utilisateur) error {
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUtilisateurs) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Actif = false
	return nil
}

func (f *fakeUtilisateurs) Reactiver(_ context.Context, id uuid.UUID) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Actif = true
	return nil
}

// ── Agences ───────────────────────────────────────────────────────────────────

type fakeAgences struct {
	byID map[uuid.UUID]*model.Agence
}

func newFakeAgences(as ...*model.Agence) *fakeAgences {
	f := &fakeAgences{byID: make(map[uuid.UUID]*model.Agence)}
	for _, a := range as {
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeAgences) Create(_ context.Context, a *model.Agence) error {
	for _, o := range f.byID {
		if o.Code == a.Code {
			return repository.ErrDuplicate
		}
	}
	a.ID = uuid.New()
	f.byID[a.ID] = a
	return nil
}

func (f *fakeAgences) FindByID(_ context.Context, id uuid.UUID) (*model.Agence, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeAgences) List(_ context.Context, inclureInactives bool) ([]model.Agence, error) {
	out := []model.Agence{}
	for _, a := range f.byID {
		if a.Actif || inclureInactives {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakeAgences) Update(_ context.Context, a *model.Agence) error {
	f.byID[a.ID] = a
	return nil
}

func (f *fakeAgences) Desactiver(_ context.Context, id uuid.UUID) error {
	f.byID[id].Actif = false
	return nil
}

// ── PV ────────────────────────────────────────────────────────────────────────

type fakePVs struct {
	mu   sync.Mutex
	rows []model.PVCaisse
}

func (f *fakePVs) Create(_ context.Context, pv *model.PVCaisse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *pv)
	return nil
}

func (f *fakePVs) filter(keep func(model.PVCaisse) bool) []model.PVCaisse {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.PVCaisse{}
	for _, r := range f.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakePVs) ListByUtilisateurDate(_ context.Context, uid uuid.UUID, date time.Time) ([]model.PVCaisse, error) {
	day := caisse.Day(date)
	return f.filter(func(r model.PVCaisse) bool { return r.UtilisateurID == uid && r.Date.Equal(day) }), nil
}

func (f *fakePVs) ListByAgenceDate(_ context.Context, agenceID uuid.UUID, date time.Time) ([]model.PVCaisse, error) {
	day := caisse.Day(date)
	return f.filter(func(r model.PVCaisse) bool { return r.AgenceID == agenceID && r.Date.Equal(day) }), nil
}

func (f *fakePVs) ListByDate(_ context.Context, date time.Time) ([]model.PVCaisse, error) {
	day := caisse.Day(date)
	return f.filter(func(r model.PVCaisse) bool { return r.Date.Equal(day) }), nil
}

func entre(d, du, au time.Time) bool { return !d.Before(caisse.Day(du)) && !d.After(caisse.Day(au)) }

func (f *fakePVs) ListByUtilisateurPeriode(_ context.Context, uid uuid.UUID, du, au time.Time) ([]model.PVCaisse, error) {
	return f.filter(func(r model.PVCaisse) bool { return r.UtilisateurID == uid && entre(r.Date, du, au) }), nil
}

func (f *fakePVs) ListByPeriode(_ context.Context, du, au time.Time) ([]model.PVCaisse, error) {
	return f.filter(func(r model.PVCaisse) bool { return entre(r.Date, du, au) }), nil
}

func (f *fakePVs) ListDernierJourAvant(_ context.Context, uid uuid.UUID, date time.Time) ([]model.PVCaisse, error) {
	day := caisse.Day(date)
	var last time.Time
	for _, r := range f.filter(func(r model.PVCaisse) bool { return r.UtilisateurID == uid && r.Date.Before(day) }) {
		if r.Date.After(last) {
			last = r.Date
		}
	}
	if last.IsZero() {
		return []model.PVCaisse{}, nil
	}
	return f.filter(func(r model.PVCaisse) bool { return r.UtilisateurID == uid && r.Date.Equal(last) }), nil
}

// ── Configuration ─────────────────────────────────────────────────────────────

type fakeConfigRepo struct {
	row  *model.ConfigurationPV
	gets int
}

func (f *fakeConfigRepo) Get(context.Context) (*model.ConfigurationPV, error) {
	f.gets++
	if f.row == nil {
		return nil, repository.ErrNotFound
	}
	c := *f.row
	return &c, nil
}

func (f *fakeConfigRepo) Save(_ context.Context, c *model.ConfigurationPV) error {
	c.ID = model.ConfigurationSingletonID
	saved := *c
	f.row = &saved
	return nil
}

type memCache struct {
	value       *caisse.Catalog
	invalidated int
}

func (m *memCache) Get(context.Context) (*caisse.Catalog, bool, error) {
	return m.value, m.value != nil, nil
}

func (m *memCache) Set(_ context.Context, v *caisse.Catalog, _ time.Duration) error {
	c := *v
	m.value = &c
	return nil
}

func (m *memCache) Invalidate(context.Context) error {
	m.value = nil
	m.invalidated++
	return nil
}

// ── Rapports ──────────────────────────────────────────────────────────────────

type fakeRapports struct {
	byID map[uuid.UUID]*model.RapportEnvoi
}

func (f *fakeRapports) Create(_ context.Context, r *model.RapportEnvoi) error {
	if f.byID == nil {
		f.byID = make(map[uuid.UUID]*model.RapportEnvoi)
	}
	r.ID = uuid.New()
	f.byID[r.ID] = r
	return nil
}

func (f *fakeRapports) FindByID(_ context.Context, id uuid.UUID) (*model.RapportEnvoi, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r, nil
}

func (f *fakeRapports) Update(_ context.Context, r *model.RapportEnvoi) error {
	f.byID[r.ID] = r
	return nil
}

func (f *fakeRapports) ListPendingRetries(context.Context, time.Time, int) ([]model.RapportEnvoi, error) {
	return nil, nil
}

type fakeQueue struct {
	ids []uuid.UUID
	err error
}

func (q *fakeQueue) EnqueueRapport(_ context.Context, id uuid.UUID) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

// ── Catégories ────────────────────────────────────────────────────────────────

type fakeCategories struct {
	byID map[uuid.UUID]*model.Categorie
}

func newFakeCategories() *fakeCategories {
	return &fakeCategories{byID: make(map[uuid.UUID]*model.Categorie)}
}

func (f *fakeCategories) Creer(_ context.Context, c *model.Categorie) error {
	c.ID = uuid.New()
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCategories) Lister(_ context.Context, typ string) ([]model.Categorie, error) {
	out := []model.Categorie{}
	for _, c := range f.byID {
		if c.Actif && (typ == "" || c.Type == typ) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nom < out[j].Nom })
	return out, nil
}

func (f *fakeCategories) ObtenirParID(_ context.Context, id uuid.UUID) (*model.Categorie, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeCategories) ObtenirParNom(_ context.Context, nom, typ string) (*model.Categorie, error) {
	for _, c := range f.byID {
		if c.Nom == nom && c.Type == typ {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCategories) Modifier(_ context.Context, c *model.Categorie) error {
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCategories) Desactiver(_ context.Context, id uuid.UUID) error {
	f.byID[id].Actif = false
	return nil
}
