package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nutriplan/nutrition-app/internal/api"
	"nutriplan/nutrition-app/internal/domain"
	"nutriplan/nutrition-app/internal/repository/memory"
	"nutriplan/nutrition-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

type testServer struct {
	store  *memory.Store
	router *gin.Engine
	userID primitive.ObjectID
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	router := gin.New()
	api.SetupRoutes(
		router,
		testSecret,
		service.NewPlanService(store.Templates(), store.Schedules(), store.MealItems(), store.Catalog()),
		service.NewScheduleService(store.Schedules()),
		service.NewMealItemService(store.MealItems(), store.Schedules(), store.Catalog()),
		service.NewReportService(store.Schedules(), store.MealItems(), store.Templates()),
		service.NewNutritionService(store.Catalog()),
	)

	userID := primitive.NewObjectID()
	claims := jwt.MapClaims{
		"uid": userID.Hex(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	return &testServer{store: store, router: router, userID: userID, token: token}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) api.Envelope {
	t.Helper()
	var env api.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/ping", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/user-meal-schedules", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/ping", nil, false)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCalculateNutritionEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.store.Ingredients["oats"] = domain.NutrientVector{Calories: 50, Protein: 4}

	rec := ts.do(t, http.MethodPost, "/api/v1/nutrition/calculate", gin.H{
		"ingredients": []gin.H{{"ingredient_id": "oats", "amount": 200}},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	result := env.Result.(map[string]interface{})
	total := result["total_nutrition"].(map[string]interface{})
	assert.Equal(t, 100.0, total["calories"])
}

func TestCalculateNutritionValidationError(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/nutrition/calculate", gin.H{
		"ingredients": []gin.H{{"ingredient_id": "oats", "amount": -5}},
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
}

func TestTemplateLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	recipeID := primitive.NewObjectID()
	ts.store.Recipes[recipeID] = domain.NutrientVector{Calories: 420, Protein: 30}

	// Create a one-day template.
	rec := ts.do(t, http.MethodPost, "/api/v1/meal-plans", gin.H{
		"title": "HTTP Plan",
		"days": []gin.H{
			{"day_number": 1, "meals": []gin.H{
				{"recipe_id": recipeID.Hex(), "meal_type": "breakfast", "schedule_time": "08:00"},
			}},
		},
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	env := decodeEnvelope(t, rec)
	templateID := env.Result.(map[string]interface{})["id"].(string)

	// Apply it.
	rec = ts.do(t, http.MethodPost, "/api/v1/meal-plans/actions/apply", gin.H{
		"meal_plan_id": templateID,
		"start_date":   "2026-09-01",
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	env = decodeEnvelope(t, rec)
	scheduleID := env.Result.(map[string]interface{})["id"].(string)

	// The day listing shows the instantiated item.
	rec = ts.do(t, http.MethodGet, "/api/v1/user-meal-schedules/meal-items/day?schedule_id="+scheduleID+"&date=2026-09-01", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env = decodeEnvelope(t, rec)
	items := env.Result.([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "breakfast", item["mealType"])
	assert.Equal(t, "planned", item["state"])
}

func TestCompleteActionConflictMapsTo409(t *testing.T) {
	ts := newTestServer(t)
	recipeID := primitive.NewObjectID()
	ts.store.Recipes[recipeID] = domain.NutrientVector{Calories: 420}

	schedule := &domain.UserMealSchedule{
		OwnerUserID: ts.userID,
		Title:       "Direct",
		StartDate:   domain.DateOnly(time.Now()),
		Status:      domain.ScheduleActive,
	}
	_, err := ts.store.Schedules().Create(context.Background(), schedule)
	require.NoError(t, err)
	item := domain.MealItem{
		ScheduleID: schedule.ID,
		Date:       schedule.StartDate,
		MealType:   domain.MealLunch,
		RecipeID:   recipeID,
		State:      domain.ItemPlanned,
	}
	_, err = ts.store.MealItems().Create(context.Background(), &item)
	require.NoError(t, err)

	body := gin.H{"meal_item_id": item.ID.Hex()}
	rec := ts.do(t, http.MethodPost, "/api/v1/user-meal-schedules/meal-items/skip", body, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Completing a skipped item is an invalid transition, reported as 409.
	rec = ts.do(t, http.MethodPost, "/api/v1/user-meal-schedules/meal-items/complete", body, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "skipped")
}
