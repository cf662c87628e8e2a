package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/mealledger/internal/auth"
	"github.com/atinyakov/mealledger/internal/goal"
	"github.com/atinyakov/mealledger/internal/models"
	"github.com/atinyakov/mealledger/internal/service"
	"go.uber.org/zap"
)

type fakeMealService struct {
	meals    []models.MealEntry
	err      error
	affected int64
	gotUser  string
	gotID    string
	gotDate  string
	gotPatch models.MealEntryPatch
}

func (f *fakeMealService) List(ctx context.Context, userID, date string) ([]models.MealEntry, error) {
	f.gotUser, f.gotDate = userID, date
	return f.meals, f.err
}

func (f *fakeMealService) Create(ctx context.Context, userID string, m models.NewMealEntry) (*models.MealEntry, error) {
	f.gotUser = userID
	if f.err != nil {
		return nil, f.err
	}
	return &models.MealEntry{ID: "m1", UserID: userID, Name: m.Name, Nutrients: m.Nutrients, MealTime: m.MealTime}, nil
}

func (f *fakeMealService) Update(ctx context.Context, userID, id string, p models.MealEntryPatch) (int64, error) {
	f.gotUser, f.gotID, f.gotPatch = userID, id, p
	return f.affected, f.err
}

func (f *fakeMealService) Delete(ctx context.Context, userID, id string) (int64, error) {
	f.gotUser, f.gotID = userID, id
	return f.affected, f.err
}

func (f *fakeMealService) Totals(ctx context.Context, userID, date string) (models.DailyTotals, error) {
	f.gotDate = date
	return models.SumNutrients(f.meals), f.err
}

func (f *fakeMealService) Summary(ctx context.Context, userID, from, to string) ([]models.DaySummary, error) {
	return []models.DaySummary{{Date: from}, {Date: to}}, f.err
}

type fakeSavedMealService struct {
	meals    []models.SavedMeal
	affected int64
	err      error
}

func (f *fakeSavedMealService) List(ctx context.Context, userID string) ([]models.SavedMeal, error) {
	return f.meals, f.err
}

func (f *fakeSavedMealService) Create(ctx context.Context, userID string, m models.NewSavedMeal) (*models.SavedMeal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.SavedMeal{ID: "s1", UserID: userID, Name: m.Name, Tags: m.Tags}, nil
}

func (f *fakeSavedMealService) Update(ctx context.Context, userID, id string, p models.SavedMealPatch) (int64, error) {
	return f.affected, f.err
}

func (f *fakeSavedMealService) Delete(ctx context.Context, userID, id string) (int64, error) {
	return f.affected, f.err
}

type fakeProfileService struct {
	profile *models.Profile
	err     error
	goalErr error
}

func (f *fakeProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	return f.profile, f.err
}

func (f *fakeProfileService) Save(ctx context.Context, userID string, p models.ProfilePatch) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &models.Profile{UserID: userID}
	p.Apply(out)
	return out, nil
}

func (f *fakeProfileService) Goal(ctx context.Context, userID string, req service.GoalRequest) (*service.GoalResult, error) {
	if f.goalErr != nil {
		return nil, f.goalErr
	}
	return &service.GoalResult{Calories: 2556}, nil
}

type testServer struct {
	handler http.Handler
	token   string
	meals   *fakeMealService
	saved   *fakeSavedMealService
	profile *fakeProfileService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	iss := auth.NewIssuer("test-secret", 0)
	token, err := iss.Issue("u1", "alice")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	ts := &testServer{
		token:   token,
		meals:   &fakeMealService{},
		saved:   &fakeSavedMealService{},
		profile: &fakeProfileService{},
	}
	ts.handler = NewRouter(Handlers{
		Auth:      &AuthHandler{AuthService: &fakeAuthService{}},
		Meals:     &MealHandler{MealService: ts.meals},
		SavedMeal: &SavedMealHandler{SavedMealService: ts.saved},
		Profile:   &ProfileHandler{ProfileService: ts.profile},
	}, iss, zap.NewNop())
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+ts.token)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_RequiresBearer(t *testing.T) {
	ts := newTestServer(t)
	ts.token = "forged"
	for _, path := range []string{"/api/meals?date=2026-10-18", "/api/saved-meals", "/api/profile"} {
		if rec := ts.do("GET", path, ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestRouter_RejectsNonJSON(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest("POST", "/api/meals", bytes.NewBufferString("name=x"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+ts.token)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", rec.Code)
	}
}

func TestMeals_ListAndTotals(t *testing.T) {
	ts := newTestServer(t)
	ts.meals.meals = []models.MealEntry{
		{ID: "m1", Name: "Oatmeal", Nutrients: models.Nutrients{Calories: 350, Protein: 12}},
	}

	rec := ts.do("GET", "/api/meals?date=2026-10-18", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var meals []models.MealEntry
	if err := json.NewDecoder(rec.Body).Decode(&meals); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(meals) != 1 || meals[0].Name != "Oatmeal" {
		t.Errorf("unexpected meals %+v", meals)
	}
	if ts.meals.gotUser != "u1" || ts.meals.gotDate != "2026-10-18" {
		t.Errorf("service got user %q date %q", ts.meals.gotUser, ts.meals.gotDate)
	}

	rec = ts.do("GET", "/api/meals/totals?date=2026-10-18", "")
	var totals models.DailyTotals
	if err := json.NewDecoder(rec.Body).Decode(&totals); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if totals.Calories != 350 || totals.Protein != 12 {
		t.Errorf("unexpected totals %+v", totals)
	}

	rec = ts.do("GET", "/api/meals/summary?from=2026-10-12&to=2026-10-18", "")
	if rec.Code != http.StatusOK {
		t.Errorf("summary: expected 200, got %d", rec.Code)
	}
}

func TestMeals_Create(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do("POST", "/api/meals", `{"name":"Oatmeal","calories":350,"meal_time":"breakfast"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var m models.MealEntry
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.ID != "m1" || m.Calories != 350 || m.MealTime != models.Breakfast {
		t.Errorf("unexpected meal %+v", m)
	}

	ts.meals.err = errors.New("db down")
	if rec := ts.do("POST", "/api/meals", `{"name":"x","calories":1,"meal_time":"snack"}`); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	ts.meals.err = models.ErrValidation
	rec = ts.do("POST", "/api/meals", `{"name":"","calories":1,"meal_time":"snack"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if rec := ts.do("POST", "/api/meals", `{"name":`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad JSON, got %d", rec.Code)
	}
}

func TestMeals_PatchAndDelete(t *testing.T) {
	ts := newTestServer(t)
	ts.meals.affected = 1

	rec := ts.do("PATCH", "/api/meals/m9", `{"calories":400}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ts.meals.gotID != "m9" || ts.meals.gotPatch.Calories == nil || *ts.meals.gotPatch.Calories != 400 {
		t.Errorf("service got id %q patch %+v", ts.meals.gotID, ts.meals.gotPatch)
	}
	if ts.meals.gotPatch.Name != nil {
		t.Errorf("absent fields must stay nil")
	}
	var out affectedResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil || out.Affected != 1 {
		t.Errorf("unexpected body %+v, %v", out, err)
	}

	ts.meals.affected = 0
	rec = ts.do("DELETE", "/api/meals/m9", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil || out.Affected != 0 {
		t.Errorf("unexpected body %+v, %v", out, err)
	}
}

func TestSavedMeals_Routes(t *testing.T) {
	ts := newTestServer(t)
	ts.saved.meals = []models.SavedMeal{{ID: "s1", Name: "Chicken Bowl", Tags: []string{"Protein"}}}

	rec := ts.do("GET", "/api/saved-meals", "")
	var meals []models.SavedMeal
	if err := json.NewDecoder(rec.Body).Decode(&meals); err != nil || len(meals) != 1 {
		t.Fatalf("unexpected list %v, %v", meals, err)
	}

	rec = ts.do("POST", "/api/saved-meals", `{"name":"Toast","calories":180,"tags":["Breakfast"]}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	ts.saved.affected = 1
	if rec := ts.do("PATCH", "/api/saved-meals/s1", `{"notes":"extra"}`); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec := ts.do("DELETE", "/api/saved-meals/s1", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestProfile_Routes(t *testing.T) {
	ts := newTestServer(t)
	ts.profile.err = service.ErrNoProfile
	if rec := ts.do("GET", "/api/profile", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	ts.profile.err = nil
	rec := ts.do("PUT", "/api/profile", `{"weight":70.5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var p models.Profile
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Weight == nil || *p.Weight != 70.5 || p.Age != nil {
		t.Errorf("unexpected profile %+v", p)
	}

	rec = ts.do("POST", "/api/goal", `{"sex":"male","activity_level":"active","goal":"maintain"}`)
	var res service.GoalResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil || res.Calories != 2556 {
		t.Errorf("unexpected goal %+v, %v", res, err)
	}

	ts.profile.goalErr = goal.ErrUnsupportedSex
	if rec := ts.do("POST", "/api/goal", `{"sex":"x"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
