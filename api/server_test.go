package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/railfortune/railfortune/game/config"
	"github.com/railfortune/railfortune/game/engine"
	"github.com/railfortune/railfortune/game/service"
	"github.com/railfortune/railfortune/game/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	backend, err := session.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	configs := config.NewManager(nil)
	sessions := session.NewManager(backend, configs, nil, nil)
	svc := service.NewGameService(sessions, configs, nil, nil)
	ts := httptest.NewServer(NewServer(svc, nil, nil).Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	var created struct {
		SessionID string            `json:"session_id"`
		State     *engine.GameState `json:"state"`
	}
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions", service.CreateGameRequest{
		Players: []engine.PlayerSpec{
			{Name: "Alice"},
			{Name: "Bob", Computer: true},
		},
		Seed: 9,
	}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if created.SessionID == "" || created.State == nil {
		t.Fatal("create response missing session or state")
	}
	return created.SessionID
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestListConfigs(t *testing.T) {
	ts := newTestServer(t)
	var body struct {
		Configs []string `json:"configs"`
	}
	doJSON(t, http.MethodGet, ts.URL+"/api/configs", nil, &body)
	if len(body.Configs) != 1 || body.Configs[0] != "classic" {
		t.Errorf("configs = %v", body.Configs)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions", service.CreateGameRequest{
		Players: []engine.PlayerSpec{{Name: "Solo"}},
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFullTurnOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + id

	var out engine.MoveOutcome
	resp := doJSON(t, http.MethodPost, base+"/roll", nil, &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("roll status = %d", resp.StatusCode)
	}
	for out.NeedsChoice {
		next := engine.MoveOutcome{}
		resp = doJSON(t, http.MethodPost, base+"/branch",
			map[string]string{"station_id": out.Choices[0]}, &next)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("branch status = %d", resp.StatusCode)
		}
		out = next
	}
	if out.Arrival == nil {
		t.Fatal("completed move should report an arrival")
	}

	// rolling twice in one turn conflicts with the phase machine
	resp = doJSON(t, http.MethodPost, base+"/roll", nil, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second roll status = %d, want 409", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, base+"/end-turn", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("end-turn status = %d", resp.StatusCode)
	}

	var state engine.GameState
	doJSON(t, http.MethodGet, base, nil, &state)
	if state.Current().Name != "Bob" {
		t.Errorf("current player = %s, want Bob", state.Current().Name)
	}

	resp = doJSON(t, http.MethodPost, base+"/computer-turn", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("computer-turn status = %d", resp.StatusCode)
	}
}

func TestEventsEndpointPagination(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)
	url := fmt.Sprintf("%s/api/sessions/%s/events", ts.URL, id)

	var page struct {
		Events []engine.Event `json:"events"`
		Next   int            `json:"next"`
	}
	doJSON(t, http.MethodGet, url, nil, &page)
	if len(page.Events) == 0 {
		t.Fatal("creation should have produced events")
	}

	var tail struct {
		Events []engine.Event `json:"events"`
		Next   int            `json:"next"`
	}
	doJSON(t, http.MethodGet, fmt.Sprintf("%s?since=%d", url, page.Next), nil, &tail)
	if len(tail.Events) != 0 {
		t.Errorf("tail should be empty, got %d events", len(tail.Events))
	}

	resp := doJSON(t, http.MethodGet, url+"?since=abc", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad cursor status = %d, want 400", resp.StatusCode)
	}
}

func TestSessionNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/sessions/nope", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/sessions/nope/roll", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("roll status = %d, want 404", resp.StatusCode)
	}
}

func TestDeleteSession(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)

	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/sessions/"+id, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+id, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", resp.StatusCode)
	}
}

func TestBranchValidation(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/branch",
		map[string]string{}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty branch status = %d, want 400", resp.StatusCode)
	}

	// no pending movement yet
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/branch",
		map[string]string{"station_id": "st_02"}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("no-pending branch status = %d, want 409", resp.StatusCode)
	}
}
