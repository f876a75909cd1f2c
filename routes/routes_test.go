package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"appointly/config"
	memoryRepo "appointly/database/repository/memory"
	"appointly/handlers"
	"appointly/models"
	"appointly/services/booking"
	"appointly/services/schedule"
	"appointly/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC)

type apiResponse struct {
	Success bool            `json:"success"`
	Payload json.RawMessage `json:"payload"`
}

type testServer struct {
	router *gin.Engine
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prev := config.AppConfig
	t.Cleanup(func() { config.AppConfig = prev })
	config.AppConfig.JWTSecret = "routes-test-secret"
	token, err := utils.GenerateAdminToken("admin", time.Hour)
	require.NoError(t, err)

	st := memoryRepo.NewStore()
	schedules := memoryRepo.NewScheduleRepo(st)
	schedSvc := schedule.NewService(schedules, nil, zap.NewNop())
	schedSvc.Now = func() time.Time { return fixedNow }

	bookingSvc, err := booking.NewDefaultBookingService(
		memoryRepo.NewBookingRepo(st), schedules, memoryRepo.NewCustomerRepo(st),
		st, schedSvc, nil, zap.NewNop())
	require.NoError(t, err)
	bookingSvc.Now = func() time.Time { return fixedNow }

	r := gin.New()
	r.Use(utils.ErrorHandler())
	RegisterRoutes(r, &handlers.HandlerBundle{
		Schedules: handlers.NewScheduleHandler(schedSvc),
		Bookings:  handlers.NewBookingHandler(bookingSvc),
	})
	return &testServer{router: r, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, admin bool) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (s *testServer) createSchedule(t *testing.T) models.Schedule {
	t.Helper()
	code, resp := s.do(t, http.MethodPost, "/api/schedules", models.CreateScheduleRequest{
		Year: "2030", Month: "March", Day: "5", StartTime: "10:00am", EndTime: "14:00pm",
	}, true)
	require.Equal(t, http.StatusCreated, code)
	var sc models.Schedule
	require.NoError(t, json.Unmarshal(resp.Payload, &sc))
	return sc
}

func bookingBody(scheduleID, start string) models.CreateBookingRequest {
	return models.CreateBookingRequest{
		Name:       "Ada Lovelace",
		Phone:      "+254700000001",
		Email:      "ada@example.com",
		StartTime:  start,
		ScheduleID: scheduleID,
		Service:    models.ServiceInfo{Title: "Haircut", Price: 25, Duration: 90},
	}
}

func TestScheduleMutationsRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	code, resp := s.do(t, http.MethodPost, "/api/schedules", models.CreateScheduleRequest{}, false)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, resp.Success)
}

func TestScheduleEndpoints(t *testing.T) {
	s := newTestServer(t)
	sc := s.createSchedule(t)
	assert.Len(t, sc.AvailableSlots, 5)

	code, resp := s.do(t, http.MethodGet, "/api/schedules/date/2030-03-05", nil, false)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	code, _ = s.do(t, http.MethodGet, "/api/schedules/date/05-03-2030", nil, false)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = s.do(t, http.MethodGet, "/api/schedules/"+sc.ID+"/start-times?duration=120", nil, false)
	require.Equal(t, http.StatusOK, code)
	var starts struct {
		StartTimes []string `json:"startTimes"`
	}
	require.NoError(t, json.Unmarshal(resp.Payload, &starts))
	assert.Equal(t, []string{"10:00am", "11:00am", "12:00pm", "13:00pm"}, starts.StartTimes)

	code, _ = s.do(t, http.MethodDelete, "/api/schedules/"+sc.ID+"/slots/14:00pm", nil, true)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodDelete, "/api/schedules/"+sc.ID+"/slots/14:00pm", nil, true)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = s.do(t, http.MethodGet, "/api/schedules/missing", nil, false)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	sc := s.createSchedule(t)

	code, resp := s.do(t, http.MethodPost, "/api/bookings", bookingBody(sc.ID, "10:00am"), false)
	require.Equal(t, http.StatusCreated, code, string(resp.Payload))
	var b models.Booking
	require.NoError(t, json.Unmarshal(resp.Payload, &b))
	assert.Equal(t, models.StatusUpcoming, b.Status)

	code, resp = s.do(t, http.MethodPost, "/api/bookings", bookingBody(sc.ID, "11:00am"), false)
	assert.Equal(t, http.StatusConflict, code)
	var errPayload utils.ErrorPayload
	require.NoError(t, json.Unmarshal(resp.Payload, &errPayload))
	assert.Equal(t, "SlotConflict", errPayload.Kind)

	code, _ = s.do(t, http.MethodPost, "/api/bookings", bookingBody(sc.ID, "ten"), false)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/api/bookings/"+b.ID, nil, false)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(t, http.MethodGet, "/api/bookings/"+b.ID, nil, true)
	assert.Equal(t, http.StatusOK, code)

	code, resp = s.do(t, http.MethodGet, "/api/bookings/customer?name=Ada%20Lovelace&email=ada@example.com", nil, false)
	require.Equal(t, http.StatusOK, code)
	var mine []models.Booking
	require.NoError(t, json.Unmarshal(resp.Payload, &mine))
	assert.Len(t, mine, 1)

	code, resp = s.do(t, http.MethodGet, "/api/bookings?appointmentFrom=2030-03-05&pageSize=5", nil, true)
	require.Equal(t, http.StatusOK, code)
	var page models.BookingPage
	require.NoError(t, json.Unmarshal(resp.Payload, &page))
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 5, page.PageSize)

	code, _ = s.do(t, http.MethodGet, "/api/bookings?page=x", nil, true)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(t, http.MethodGet, "/api/bookings?status=Pending", nil, true)
	assert.Equal(t, http.StatusBadRequest, code)
	code, resp = s.do(t, http.MethodGet, "/api/bookings?status=Upcoming", nil, true)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Payload, &page))
	assert.EqualValues(t, 1, page.Total)

	completed := models.StatusCompleted
	code, resp = s.do(t, http.MethodPatch, "/api/bookings/"+b.ID, models.UpdateBookingRequest{Status: &completed}, true)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Payload, &b))
	assert.Equal(t, 25.0, b.Total)

	code, _ = s.do(t, http.MethodPost, "/api/bookings/"+b.ID+"/cancel", nil, false)
	assert.Equal(t, http.StatusBadRequest, code, "only upcoming bookings can be cancelled")

	code, resp = s.do(t, http.MethodGet, "/api/bookings/income?from=2030-03-01&to=2030-03-01", nil, true)
	require.Equal(t, http.StatusOK, code)
	var report models.IncomeReport
	require.NoError(t, json.Unmarshal(resp.Payload, &report))
	assert.Equal(t, 25.0, report.Total)

	code, resp = s.do(t, http.MethodGet, "/api/bookings/summary", nil, true)
	require.Equal(t, http.StatusOK, code)
	var sum models.StatusSummary
	require.NoError(t, json.Unmarshal(resp.Payload, &sum))
	assert.EqualValues(t, 1, sum.ByStatus[models.StatusCompleted])
}

func TestUnblockUnknownCustomer(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodPost, "/api/customers/unblock",
		models.UnblockRequest{Phone: "+254700000009", Email: "nobody@example.com"}, true)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	utils.CheckHealth(context.Background(), okPinger{}, okPinger{})
	code, resp := s.do(t, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }
