package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/cache"
	"github.com/Freeeeeet/consultation_scheduler/internal/notify"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Kind    string            `json:"kind"`
	Errors  map[string]string `json:"errors"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	today := func() schedule.Date { return schedule.NewDate(2024, time.January, 1) }
	logger := zap.NewNop()
	rules, bookings := memory.NewRuleStore(), memory.NewBookingStore()

	router := NewRouter(
		RouterConfig{JWTSecret: testSecret, AllowedOrigins: []string{"https://app.example"}},
		service.NewScheduleService(rules, cache.Nop{}, today, logger),
		service.NewSlotService(rules, bookings, cache.Nop{}, today, logger),
		service.NewBookingService(rules, bookings, notify.Nop{}, today, logger),
		logger,
	)
	return &testServer{t: t, router: router}
}

func (s *testServer) token(userID uuid.UUID, role string) string {
	tok, err := NewToken(testSecret, userID, role, time.Hour)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, path, token string, body any) (int, envelope) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func ruleBody() map[string]any {
	return map[string]any{
		"ruleData": map[string]any{
			"title":           "Weekday mornings",
			"startTime":       "09:00",
			"endTime":         "12:00",
			"startDate":       "2024-01-01",
			"endDate":         "2024-01-31",
			"availableDays":   []string{"Mon", "Wed"},
			"bufferTime":      15,
			"slotDuration":    60,
			"consultationFee": "1500.50",
			"exceptionDays":   []string{"2024-01-08"},
		},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodGet, "/user/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, KindUnauthorized, env.Kind)

	code, _ = s.do(http.MethodGet, "/user/bookings", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(http.MethodGet, "/lawyer/schedule/rules", s.token(uuid.New(), RoleClient), nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, KindForbidden, env.Kind)
}

func TestCreateRule_ValidationFailed(t *testing.T) {
	s := newTestServer(t)
	body := ruleBody()
	data := body["ruleData"].(map[string]any)
	data["endTime"] = "09:30"
	data["availableDays"] = []string{}

	code, env := s.do(http.MethodPost, "/lawyer/schedule/create", s.token(uuid.New(), RoleLawyer), body)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.False(t, env.Success)
	assert.Equal(t, KindValidationFailed, env.Kind)
	assert.Equal(t, schedule.MsgUnsatisfiable, env.Errors["endTime"])
	assert.Contains(t, env.Errors, "availableDays")
}

func TestCreateRule_WrongFieldTypes(t *testing.T) {
	s := newTestServer(t)
	lawyerToken := s.token(uuid.New(), RoleLawyer)

	for _, buffer := range []any{"15", 15.5} {
		body := ruleBody()
		data := body["ruleData"].(map[string]any)
		data["bufferTime"] = buffer
		data["title"] = "ab"

		code, env := s.do(http.MethodPost, "/lawyer/schedule/create", lawyerToken, body)
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Equal(t, KindValidationFailed, env.Kind)
		assert.Equal(t, "Buffer time must be an integer", env.Errors["bufferTime"])
		assert.Contains(t, env.Errors, "title")
	}

	code, env := s.do(http.MethodPost, "/lawyer/schedule/create", lawyerToken, map[string]any{"ruleData": []int{1}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, KindBadRequest, env.Kind)
}

func TestCreateRule_FeePrecision(t *testing.T) {
	s := newTestServer(t)
	lawyerToken := s.token(uuid.New(), RoleLawyer)

	for _, fee := range []string{"1500.555", "10000000000"} {
		body := ruleBody()
		body["ruleData"].(map[string]any)["consultationFee"] = fee

		code, env := s.do(http.MethodPost, "/lawyer/schedule/create", lawyerToken, body)
		assert.Equal(t, http.StatusUnprocessableEntity, code, fee)
		assert.Contains(t, env.Errors, "consultationFee", fee)
	}
}

func TestScheduleAndBookingFlow(t *testing.T) {
	s := newTestServer(t)
	lawyerID, clientID := uuid.New(), uuid.New()
	lawyerToken, clientToken := s.token(lawyerID, RoleLawyer), s.token(clientID, RoleClient)

	code, env := s.do(http.MethodPost, "/lawyer/schedule/create", lawyerToken, ruleBody())
	require.Equal(t, http.StatusCreated, code, env.Message)

	var rule struct {
		ID              string   `json:"id"`
		AvailableDays   []string `json:"availableDays"`
		ConsultationFee string   `json:"consultationFee"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rule))
	assert.Equal(t, []string{"Mon", "Wed"}, rule.AvailableDays)
	assert.Equal(t, "1500.5", rule.ConsultationFee)

	code, env = s.do(http.MethodPost, "/lawyer/schedule/create", lawyerToken, ruleBody())
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, KindConflict, env.Kind)

	slotsPath := "/user/lawyers/" + lawyerID.String() + "/slots?from=2024-01-03&to=2024-01-03"
	code, env = s.do(http.MethodGet, slotsPath, clientToken, nil)
	require.Equal(t, http.StatusOK, code)

	var slots []schedule.Slot
	require.NoError(t, json.Unmarshal(env.Data, &slots))
	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].StartTime.String())
	assert.False(t, slots[0].IsBooked)

	booking := map[string]any{"lawyerId": lawyerID.String(), "date": "2024-01-03", "startTime": "09:00"}
	code, env = s.do(http.MethodPost, "/user/bookings", clientToken, booking)
	require.Equal(t, http.StatusCreated, code, env.Message)

	var created struct {
		ID     string        `json:"id"`
		Status string        `json:"status"`
		Slot   schedule.Slot `json:"slot"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "confirmed", created.Status)
	assert.True(t, created.Slot.IsBooked)

	code, env = s.do(http.MethodPost, "/user/bookings", s.token(uuid.New(), RoleClient), booking)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, KindSlotAlreadyBooked, env.Kind)

	code, env = s.do(http.MethodGet, slotsPath, clientToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &slots))
	assert.True(t, slots[0].IsBooked)
	assert.Equal(t, created.ID, slots[0].BookingID)

	code, _ = s.do(http.MethodGet, "/user/bookings/"+created.ID, s.token(uuid.New(), RoleClient), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodGet, "/lawyer/bookings", lawyerToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodDelete, "/lawyer/schedule/rule/"+rule.ID, lawyerToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodGet, "/user/bookings/"+created.ID, clientToken, nil)
	require.Equal(t, http.StatusOK, code, "bookings survive rule deletion")

	code, env = s.do(http.MethodDelete, "/user/bookings/"+created.ID, clientToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "canceled", created.Status)
	assert.False(t, created.Slot.IsBooked)
}

func TestUpdateAndDeleteRule_Errors(t *testing.T) {
	s := newTestServer(t)
	lawyerToken := s.token(uuid.New(), RoleLawyer)

	code, env := s.do(http.MethodPost, "/lawyer/schedule/create", lawyerToken, ruleBody())
	require.Equal(t, http.StatusCreated, code)
	var rule struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rule))

	code, env = s.do(http.MethodPut, "/lawyer/schedule/update/"+rule.ID, s.token(uuid.New(), RoleLawyer), map[string]any{"title": "Evenings"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, KindForbidden, env.Kind)

	code, env = s.do(http.MethodPut, "/lawyer/schedule/update/"+uuid.NewString(), lawyerToken, map[string]any{"title": "Evenings"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, KindNotFound, env.Kind)

	code, env = s.do(http.MethodPut, "/lawyer/schedule/update/"+rule.ID, lawyerToken, map[string]any{"bufferTime": 90})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Errors, "bufferTime")

	code, env = s.do(http.MethodPut, "/lawyer/schedule/update/"+rule.ID, lawyerToken, map[string]any{"title": "Evenings"})
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodPut, "/lawyer/schedule/update/"+rule.ID, lawyerToken, map[string]any{"slotDuration": "45", "title": "ab"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "Slot duration must be an integer", env.Errors["slotDuration"])
	assert.Contains(t, env.Errors, "title")

	code, _ = s.do(http.MethodDelete, "/lawyer/schedule/rule/not-a-uuid", lawyerToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListSlots_BadQuery(t *testing.T) {
	s := newTestServer(t)
	path := "/user/lawyers/" + uuid.NewString() + "/slots?from=01-01-2024&to=2024-01-05"

	code, env := s.do(http.MethodGet, path, s.token(uuid.New(), RoleClient), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Errors, "from")

	path = "/user/lawyers/" + uuid.NewString() + "/slots?from=2024-01-01&to=2024-12-31"
	code, env = s.do(http.MethodGet, path, s.token(uuid.New(), RoleClient), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, KindValidationFailed, env.Kind)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/user/bookings", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
}
