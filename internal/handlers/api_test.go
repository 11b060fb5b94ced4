package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"goalbingo/internal/database/dbtest"
	"goalbingo/internal/gamestate"
	"goalbingo/internal/repository"
	"goalbingo/internal/security"
	"goalbingo/internal/service"
	"goalbingo/internal/store"
)

type testAPI struct {
	t   *testing.T
	mux *http.ServeMux
}

func newTestAPI(t *testing.T, loginRate int) *testAPI {
	t.Helper()
	db := dbtest.New(t)

	users := repository.NewUserRepository(db)
	cards := repository.NewCardRepository(db)
	battles := repository.NewBattleRepository(db)
	friends := repository.NewFriendRepository(db)

	game := service.NewGameService(store.NewMemoryStore(), cards, battles, gamestate.SystemClock{}, false)
	auth := service.NewAuthService(users, security.NewTokenIssuer("jwt-secret", time.Hour), db, nil)
	cardSvc := service.NewCardService(cards, game, db)
	battleSvc := service.NewBattleService(battles, users, friends, game, nil)
	csrf := security.NewCSRFGenerator("csrf-secret")

	h := &Handlers{
		Auth:       NewAuthHandler(auth, game, csrf),
		Card:       NewCardHandler(cardSvc, game),
		Game:       NewGameHandler(game),
		Battle:     NewBattleHandler(battleSvc),
		Friend:     NewFriendHandler(service.NewFriendService(friends, users, game, false)),
		Analytics:  NewAnalyticsHandler(service.NewAnalyticsService(cards, game)),
		Middleware: NewMiddleware(auth, csrf, security.NewRateLimiter(loginRate, time.Minute)),
		DB:         db,
	}
	mux := http.NewServeMux()
	h.Register(mux)
	return &testAPI{t: t, mux: mux}
}

type requestOpts struct {
	bearer string
	cookie string
	csrf   string
}

func (a *testAPI) do(method, path string, body interface{}, opts requestOpts) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if opts.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+opts.bearer)
	}
	if opts.cookie != "" {
		req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: opts.cookie})
	}
	if opts.csrf != "" {
		req.Header.Set(security.CSRFHeader, opts.csrf)
	}
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func (a *testAPI) register(email string) sessionResponse {
	a.t.Helper()
	rec := a.do("POST", "/api/register", credentialsRequest{Email: email, Password: "correct-horse"}, requestOpts{})
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decode[sessionResponse](a.t, rec)
}

func TestPublicRoutes(t *testing.T) {
	api := newTestAPI(t, 10)

	tests := []struct {
		path string
		want int
	}{
		{"/healthz", http.StatusOK},
		{"/api/badges", http.StatusOK},
		{"/api/leaderboard", http.StatusOK},
		{"/api/me", http.StatusUnauthorized},
		{"/api/cards", http.StatusUnauthorized},
		{"/api/friends", http.StatusUnauthorized},
		{"/api/analytics", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if rec := api.do("GET", tt.path, nil, requestOpts{}); rec.Code != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
			}
		})
	}

	badges := decode[[]gamestate.Badge](t, api.do("GET", "/api/badges", nil, requestOpts{}))
	if len(badges) != len(gamestate.Catalog) {
		t.Errorf("badges = %d, want %d", len(badges), len(gamestate.Catalog))
	}
}

func TestCardFlowWithBearerToken(t *testing.T) {
	api := newTestAPI(t, 10)
	sess := api.register("alice@example.com")
	auth := requestOpts{bearer: sess.Token}

	rec := api.do("POST", "/api/cards", cardRequest{Title: "Spring", Size: 3, HasFreeCenter: true}, auth)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create card = %d, body %s", rec.Code, rec.Body.String())
	}
	card := decode[service.CardView](t, rec)
	if !card.IsActive || len(card.Cells) != 9 {
		t.Fatalf("card = %+v", card)
	}

	goal := service.GoalUpdate{GoalText: "Plant tomatoes", Category: "hobby", Difficulty: 2}
	if rec := api.do("PUT", fmt.Sprintf("/api/cards/%s/cells/0", card.ID), goal, auth); rec.Code != http.StatusOK {
		t.Fatalf("update goal = %d, body %s", rec.Code, rec.Body.String())
	}

	completePath := fmt.Sprintf("/api/cards/%s/cells/0/complete", card.ID)
	rec = api.do("POST", completePath, nil, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete = %d, body %s", rec.Code, rec.Body.String())
	}
	result := decode[service.CompletionResult](t, rec)
	if result.PointsAwarded != 100 || result.Cell.GoalText != "Plant tomatoes" {
		t.Errorf("result = %+v", result)
	}

	conflicts := []struct {
		name string
		path string
		want int
	}{
		{"again", completePath, http.StatusConflict},
		{"free centre", fmt.Sprintf("/api/cards/%s/cells/4/complete", card.ID), http.StatusConflict},
		{"off the card", fmt.Sprintf("/api/cards/%s/cells/42/complete", card.ID), http.StatusBadRequest},
		{"bad position", fmt.Sprintf("/api/cards/%s/cells/abc/complete", card.ID), http.StatusBadRequest},
		{"unknown card", "/api/cards/nope/cells/0/complete", http.StatusNotFound},
	}
	for _, tt := range conflicts {
		t.Run(tt.name, func(t *testing.T) {
			if rec := api.do("POST", tt.path, nil, auth); rec.Code != tt.want {
				t.Errorf("POST %s = %d, want %d (%s)", tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec = api.do("GET", "/api/me", nil, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("me = %d", rec.Code)
	}
	me := decode[meResponse](t, rec)
	if me.Profile.State.TotalPoints != 100 || len(me.Profile.Badges) != 1 {
		t.Errorf("profile = %+v", me.Profile)
	}
}

func TestCookieAuthRequiresCSRF(t *testing.T) {
	api := newTestAPI(t, 10)
	sess := api.register("alice@example.com")
	body := cardRequest{Title: "Cookie card", Size: 3}

	if rec := api.do("POST", "/api/cards", body, requestOpts{cookie: sess.Token}); rec.Code != http.StatusForbidden {
		t.Errorf("without CSRF = %d, want 403", rec.Code)
	}
	if rec := api.do("POST", "/api/cards", body, requestOpts{cookie: sess.Token, csrf: "forged"}); rec.Code != http.StatusForbidden {
		t.Errorf("forged CSRF = %d, want 403", rec.Code)
	}
	if rec := api.do("POST", "/api/cards", body, requestOpts{cookie: sess.Token, csrf: sess.CSRFToken}); rec.Code != http.StatusCreated {
		t.Errorf("valid CSRF = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	if rec := api.do("GET", "/api/cards", nil, requestOpts{cookie: sess.Token}); rec.Code != http.StatusOK {
		t.Errorf("cookie GET = %d, want 200", rec.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	api := newTestAPI(t, 10)
	sess := api.register("alice@example.com")
	auth := requestOpts{bearer: sess.Token}

	if rec := api.do("POST", "/api/logout", nil, auth); rec.Code != http.StatusNoContent {
		t.Fatalf("logout = %d", rec.Code)
	}
	if rec := api.do("GET", "/api/me", nil, auth); rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d, want 401", rec.Code)
	}
}

func TestLoginErrorsAndRateLimit(t *testing.T) {
	api := newTestAPI(t, 3)
	api.register("alice@example.com")

	wrong := credentialsRequest{Email: "alice@example.com", Password: "nope-nope"}
	if rec := api.do("POST", "/api/login", wrong, requestOpts{}); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password = %d, want 401", rec.Code)
	}
	if rec := api.do("POST", "/api/login", map[string]string{"mail": "x"}, requestOpts{}); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field = %d, want 400", rec.Code)
	}
	// register used the first request of the window, the two above the rest
	if rec := api.do("POST", "/api/login", wrong, requestOpts{}); rec.Code != http.StatusTooManyRequests {
		t.Errorf("over the limit = %d, want 429", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t, 10)
	rec := api.do("POST", "/api/register", credentialsRequest{Email: "not-an-email", Password: "correct-horse"}, requestOpts{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("register = %d, want 400", rec.Code)
	}
	body := decode[errorResponse](t, rec)
	if body.Field != "email" {
		t.Errorf("field = %q, want email", body.Field)
	}

	api.register("dup@example.com")
	if rec := api.do("POST", "/api/register", credentialsRequest{Email: "dup@example.com", Password: "correct-horse"}, requestOpts{}); rec.Code != http.StatusConflict {
		t.Errorf("duplicate register = %d, want 409", rec.Code)
	}
}

func TestBattleRoutes(t *testing.T) {
	api := newTestAPI(t, 10)
	alice := api.register("alice@example.com")
	bob := api.register("bob@example.com")

	if rec := api.do("POST", "/api/battles", createBattleRequest{OpponentEmail: "bob@example.com", DurationDays: 7}, requestOpts{bearer: alice.Token}); rec.Code != http.StatusForbidden {
		t.Fatalf("battle before friendship = %d, want 403", rec.Code)
	}
	api.befriend(alice, bob, "bob@example.com")

	rec := api.do("POST", "/api/battles", createBattleRequest{OpponentEmail: "bob@example.com", DurationDays: 7}, requestOpts{bearer: alice.Token})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create battle = %d, body %s", rec.Code, rec.Body.String())
	}
	b := decode[service.BattleView](t, rec)

	if rec := api.do("POST", "/api/battles/"+b.ID+"/accept", nil, requestOpts{bearer: alice.Token}); rec.Code != http.StatusForbidden {
		t.Errorf("creator accept = %d, want 403", rec.Code)
	}
	if rec := api.do("POST", "/api/battles/"+b.ID+"/accept", nil, requestOpts{bearer: bob.Token}); rec.Code != http.StatusOK {
		t.Errorf("opponent accept = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if rec := api.do("POST", "/api/battles/"+b.ID+"/cancel", nil, requestOpts{bearer: alice.Token}); rec.Code != http.StatusConflict {
		t.Errorf("cancel active = %d, want 409", rec.Code)
	}

	list := decode[[]service.BattleView](t, api.do("GET", "/api/battles", nil, requestOpts{bearer: bob.Token}))
	if len(list) != 1 || list[0].Stats.TotalDays != 7 {
		t.Errorf("battles = %+v", list)
	}

	if rec := api.do("POST", "/api/battles", createBattleRequest{OpponentEmail: "ghost@example.com", DurationDays: 7}, requestOpts{bearer: alice.Token}); rec.Code != http.StatusNotFound {
		t.Errorf("unknown opponent = %d, want 404", rec.Code)
	}
}

// befriend has from send a friend request to email and to accept it
func (a *testAPI) befriend(from, to sessionResponse, email string) {
	a.t.Helper()
	rec := a.do("POST", "/api/friends", friendRequest{Email: email}, requestOpts{bearer: from.Token})
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("friend request = %d, body %s", rec.Code, rec.Body.String())
	}
	f := decode[service.FriendView](a.t, rec)
	if rec := a.do("POST", "/api/friends/"+f.FriendshipID+"/accept", nil, requestOpts{bearer: to.Token}); rec.Code != http.StatusOK {
		a.t.Fatalf("accept friend = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestFriendRoutes(t *testing.T) {
	api := newTestAPI(t, 10)
	alice := api.register("alice@example.com")
	bob := api.register("bob@example.com")
	carol := api.register("carol@example.com")

	rec := api.do("POST", "/api/friends", friendRequest{Email: "bob@example.com"}, requestOpts{bearer: alice.Token})
	if rec.Code != http.StatusCreated {
		t.Fatalf("request = %d, body %s", rec.Code, rec.Body.String())
	}
	req := decode[service.FriendView](t, rec)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		token  string
		want   int
	}{
		{"duplicate request", "POST", "/api/friends", friendRequest{Email: "bob@example.com"}, alice.Token, http.StatusConflict},
		{"unknown player", "POST", "/api/friends", friendRequest{Email: "ghost@example.com"}, alice.Token, http.StatusNotFound},
		{"self", "POST", "/api/friends", friendRequest{Email: "alice@example.com"}, alice.Token, http.StatusBadRequest},
		{"requester cannot accept", "POST", "/api/friends/" + req.FriendshipID + "/accept", nil, alice.Token, http.StatusNotFound},
		{"stranger cannot reject", "POST", "/api/friends/" + req.FriendshipID + "/reject", nil, carol.Token, http.StatusNotFound},
		{"addressee accepts", "POST", "/api/friends/" + req.FriendshipID + "/accept", nil, bob.Token, http.StatusOK},
		{"answered twice", "POST", "/api/friends/" + req.FriendshipID + "/reject", nil, bob.Token, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := api.do(tt.method, tt.path, tt.body, requestOpts{bearer: tt.token}); rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	list := decode[service.FriendList](t, api.do("GET", "/api/friends", nil, requestOpts{bearer: bob.Token}))
	if len(list.Friends) != 1 || list.Friends[0].DisplayName == "" || len(list.Incoming) != 0 {
		t.Errorf("bob's friends = %+v", list)
	}
}

func TestAnalyticsRoute(t *testing.T) {
	api := newTestAPI(t, 10)
	sess := api.register("alice@example.com")
	auth := requestOpts{bearer: sess.Token}

	rec := api.do("POST", "/api/cards", cardRequest{Title: "Spring", Size: 3}, auth)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create card = %d", rec.Code)
	}
	card := decode[service.CardView](t, rec)
	goal := service.GoalUpdate{GoalText: "Plant tomatoes", Category: "hobby"}
	if rec := api.do("PUT", fmt.Sprintf("/api/cards/%s/cells/0", card.ID), goal, auth); rec.Code != http.StatusOK {
		t.Fatalf("update goal = %d", rec.Code)
	}
	if rec := api.do("POST", fmt.Sprintf("/api/cards/%s/cells/0/complete", card.ID), nil, auth); rec.Code != http.StatusOK {
		t.Fatalf("complete = %d", rec.Code)
	}

	rec = api.do("GET", "/api/analytics?days=7", nil, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("analytics = %d, body %s", rec.Code, rec.Body.String())
	}
	report := decode[service.Report](t, rec)
	if len(report.Categories) != 1 || report.Categories[0].Category != "hobby" || report.Categories[0].Completed != 1 {
		t.Errorf("categories = %+v", report.Categories)
	}
	if len(report.Daily) != 7 || report.Daily[6].Points != 100 {
		t.Errorf("daily = %+v", report.Daily)
	}

	for _, q := range []string{"days=abc", "days=0x", "days=9999", "days=-2"} {
		if rec := api.do("GET", "/api/analytics?"+q, nil, auth); rec.Code != http.StatusBadRequest {
			t.Errorf("GET /api/analytics?%s = %d, want 400", q, rec.Code)
		}
	}
}

func TestSyncRejectsNegativeCounters(t *testing.T) {
	api := newTestAPI(t, 10)
	sess := api.register("alice@example.com")

	rec := api.do("POST", "/api/sync", map[string]int{"total_points": -10}, requestOpts{bearer: sess.Token})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("sync = %d, want 400 (%s)", rec.Code, rec.Body.String())
	}
	if body := decode[errorResponse](t, rec); body.Field != "total_points" {
		t.Errorf("field = %q, want total_points", body.Field)
	}
}
