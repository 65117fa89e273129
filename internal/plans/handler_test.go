package plans_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/plans"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newPlansRouter(repo plans.Repo) *mux.Router {
	handler := plans.NewHandler(func(*auth.Session) plans.Repo {
		return repo
	}, nil)

	r := mux.NewRouter()
	r.HandleFunc("/plans", handler.HandleList).Methods("GET")
	r.HandleFunc("/plans", handler.HandleCreate).Methods("POST")
	r.HandleFunc("/plans/demo", handler.HandleDemo).Methods("GET")
	r.HandleFunc("/plans/validate", handler.HandleValidate).Methods("POST")
	r.HandleFunc("/plans/{id}", handler.HandleGet).Methods("GET")
	r.HandleFunc("/plans/{id}/day/{day}", handler.HandleDay).Methods("GET")
	return r
}

func serve(r *mux.Router, method, path, contentType, body string, signedIn bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if signedIn {
		req = req.WithContext(auth.WithSession(req.Context(), &auth.Session{UserID: "u1", Username: "ana"}))
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHandler_ListAndGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	r := newPlansRouter(repo)

	demo := plans.DemoPlan()
	repo.EXPECT().ListPlans(gomock.Any()).Return([]plans.WorkoutPlan{demo}, nil)
	repo.EXPECT().GetPlan(gomock.Any(), demo.ID).Return(&demo, nil).Times(3)
	repo.EXPECT().GetPlan(gomock.Any(), "missing").Return(nil, plans.ErrNotFound)

	rr := serve(r, "GET", "/plans", "", "", false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(r, "GET", "/plans", "", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	var list plans.PlansResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Plans, 1)
	assert.False(t, list.BackendUnavailable)

	rr = serve(r, "GET", "/plans/"+demo.ID, "", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = serve(r, "GET", "/plans/missing", "", "", true)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// 2025-01-06 is a monday
	rr = serve(r, "GET", "/plans/"+demo.ID+"/day/2025-01-06", "", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	var day plans.DayResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &day))
	assert.Equal(t, "monday", day.Day)
	require.NotNil(t, day.Template)
	assert.Equal(t, "push", day.Template.ID)
	require.Len(t, day.Prefill, 2)
	assert.Equal(t, "Barbell Bench Press", day.Prefill[0].Name)
	assert.Equal(t, 3, *day.Prefill[0].Sets)

	rr = serve(r, "GET", "/plans/"+demo.ID+"/day/Tuesday", "", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	day = plans.DayResponse{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &day))
	assert.Nil(t, day.Template)
	assert.Empty(t, day.Prefill)
}

func TestHandler_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	r := newPlansRouter(repo)

	rr := serve(r, "POST", "/plans", "application/json", `{"name":"x",`, true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(r, "POST", "/plans", "application/json",
		`{"name":"x","schedule":{"monday":{"dayTemplateId":"a"}},"dayTemplates":[]}`, true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `No template found for day "monday"`)

	yamlBody := "name: Full body\nschedule:\n  friday:\n    dayTemplateId: fb\ndayTemplates:\n  - id: fb\n    key: fb\n    name: FB\n    focus: Other\n    exercises: []\n"
	repo.EXPECT().CreatePlan(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, plan plans.WorkoutPlan) (*plans.WorkoutPlan, error) {
			plan.ID = "p-1"
			return &plan, nil
		})
	rr = serve(r, "POST", "/plans", "application/yaml", yamlBody, true)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created plans.WorkoutPlan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "p-1", created.ID)
	assert.Equal(t, "Full body", created.Name)

	repo.EXPECT().CreatePlan(gomock.Any(), gomock.Any()).Return(nil, errors.New("down"))
	rr = serve(r, "POST", "/plans", "application/yaml", yamlBody, true)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestHandler_ValidateAndDemo(t *testing.T) {
	r := newPlansRouter(nil)

	rr := serve(r, "POST", "/plans/validate", "application/json",
		`{"name":"x","schedule":{"monday":{"dayTemplateId":"a"}},"dayTemplates":[]}`, false)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp plans.ValidationResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{`No template found for day "monday" (expected id: a).`}, resp.Problems)

	rr = serve(r, "GET", "/plans/demo", "", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	var demo plans.WorkoutPlan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &demo))
	assert.Equal(t, "push-pull-legs-v1", demo.ID)

	rr = serve(r, "GET", "/plans", "", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"plans":[],"backendUnavailable":true}`, rr.Body.String())
}
