package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v3"

	"policysonar/backend/internal/access"
	"policysonar/backend/internal/auth"
	authhandler "policysonar/backend/internal/auth/handler"
	profiledomain "policysonar/backend/internal/profile/domain"
	"policysonar/backend/internal/security"
	"policysonar/backend/internal/simulation/domain"
	"policysonar/backend/internal/simulation/repository"
	simservice "policysonar/backend/internal/simulation/service"
	"policysonar/backend/internal/sonar"
)

type memProfileRepo struct {
	profiles map[string]*profiledomain.Profile
}

func (m *memProfileRepo) GetByID(_ context.Context, id string) (*profiledomain.Profile, error) {
	return m.profiles[id], nil
}

type memSimRepo struct {
	mu   sync.Mutex
	sims map[string]domain.Simulation
}

func (m *memSimRepo) Save(_ context.Context, s *domain.Simulation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sims[s.ID] = *s
	return nil
}

func (m *memSimRepo) GetByID(_ context.Context, id string) (*domain.Simulation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sims[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memSimRepo) List(_ context.Context, f repository.Filter) ([]domain.Simulation, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.Simulation
	for _, s := range m.sims {
		if s.PolicyID == f.PolicyID {
			all = append(all, s)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func (m *memSimRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sims, id)
	return nil
}

type stubAnalysisClient struct{}

func (stubAnalysisClient) AnalyzePolicy(_ context.Context, _, _ string) (*sonar.Analysis, error) {
	return &sonar.Analysis{}, nil
}

type testEnv struct {
	app    *fiber.App
	tokens *security.TokenProvider
	repo   *memSimRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tokens := security.NewTestTokenProvider()
	profiles := &memProfileRepo{profiles: map[string]*profiledomain.Profile{
		"admin-1":   {ID: "admin-1", Username: "root", Roles: []string{"admin"}},
		"analyst-1": {ID: "analyst-1", Username: "ana", Roles: []string{"analyst"}},
		"maker-1":   {ID: "maker-1", Username: "pol", Roles: []string{"policymaker"}},
	}}
	loader := auth.NewLoader(tokens, profiles)

	repo := &memSimRepo{sims: map[string]domain.Simulation{}}
	svc := simservice.NewService(repo, stubAnalysisClient{})

	app := fiber.New()
	h := NewHandler(svc, access.NewEngine(), nil)
	h.Register(app, authhandler.RequireUser(loader))
	return &testEnv{app: app, tokens: tokens, repo: repo}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := e.tokens.Issue(userID, "", "sess-1", security.TokenKindAccess)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, env *testEnv, method, path, userID, body string) (int, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+env.token(t, userID))
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	out := map[string]json.RawMessage{}
	if resp.StatusCode != fiber.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp.StatusCode, out
}

const runBody = `{"parameters":{"economic_model":"keynesian","time_horizon":5},"scenario_name":"baseline"}`

func TestRun_CreatesSimulation(t *testing.T) {
	env := newTestEnv(t)
	status, body := doJSON(t, env, "POST", "/api/simulations/pol-1", "analyst-1", runBody)
	if status != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201 (%v)", status, body)
	}
	var id string
	if err := json.Unmarshal(body["id"], &id); err != nil || id == "" {
		t.Fatalf("response id = %q, %v", id, err)
	}
	if _, ok := env.repo.sims[id]; !ok {
		t.Error("run not persisted")
	}
}

func TestRun_WriteDeniedForPolicymaker(t *testing.T) {
	env := newTestEnv(t)
	status, _ := doJSON(t, env, "POST", "/api/simulations/pol-1", "maker-1", runBody)
	if status != fiber.StatusForbidden {
		t.Errorf("status = %d, want 403", status)
	}
}

func TestRun_InvalidModel(t *testing.T) {
	env := newTestEnv(t)
	status, _ := doJSON(t, env, "POST", "/api/simulations/pol-1", "analyst-1",
		`{"parameters":{"economic_model":"austrian"}}`)
	if status != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestRun_EmptyParameters(t *testing.T) {
	env := newTestEnv(t)
	status, _ := doJSON(t, env, "POST", "/api/simulations/pol-1", "analyst-1", `{"scenario_name":"x"}`)
	if status != fiber.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", status)
	}
}

func TestList_ReadAllowedForAnyRole(t *testing.T) {
	env := newTestEnv(t)
	if status, _ := doJSON(t, env, "POST", "/api/simulations/pol-1", "analyst-1", runBody); status != fiber.StatusCreated {
		t.Fatalf("seed status = %d", status)
	}

	status, body := doJSON(t, env, "GET", "/api/simulations/pol-1", "maker-1", "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	var items []domain.Simulation
	if err := json.Unmarshal(body["items"], &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("items = %d, want 1", len(items))
	}
}

func TestGetAndDelete_RoleMatrix(t *testing.T) {
	env := newTestEnv(t)
	status, body := doJSON(t, env, "POST", "/api/simulations/pol-1", "analyst-1", runBody)
	if status != fiber.StatusCreated {
		t.Fatalf("seed status = %d", status)
	}
	var id string
	if err := json.Unmarshal(body["id"], &id); err != nil {
		t.Fatalf("id: %v", err)
	}

	if status, _ := doJSON(t, env, "GET", "/api/simulations/pol-1/"+id, "maker-1", ""); status != fiber.StatusOK {
		t.Errorf("get status = %d, want 200", status)
	}
	if status, _ := doJSON(t, env, "GET", "/api/simulations/pol-2/"+id, "maker-1", ""); status != fiber.StatusNotFound {
		t.Errorf("cross-policy get status = %d, want 404", status)
	}

	// Delete is admin-only.
	if status, _ := doJSON(t, env, "DELETE", "/api/simulations/pol-1/"+id, "analyst-1", ""); status != fiber.StatusForbidden {
		t.Errorf("analyst delete status = %d, want 403", status)
	}
	if status, _ := doJSON(t, env, "DELETE", "/api/simulations/pol-1/"+id, "admin-1", ""); status != fiber.StatusNoContent {
		t.Errorf("admin delete status = %d, want 204", status)
	}
	if status, _ := doJSON(t, env, "GET", "/api/simulations/pol-1/"+id, "admin-1", ""); status != fiber.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", status)
	}
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest("GET", "/api/simulations/pol-1", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
