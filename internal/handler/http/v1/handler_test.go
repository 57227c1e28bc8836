package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/ems_dispatch_system/internal/access"
	"github.com/shenikar/ems_dispatch_system/internal/config"
	"github.com/shenikar/ems_dispatch_system/internal/models"
	"github.com/shenikar/ems_dispatch_system/internal/service"
	"github.com/shenikar/ems_dispatch_system/internal/service/mocks"
	"github.com/shenikar/ems_dispatch_system/internal/weather"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// stubWeather - заглушка погодного сервиса для тестов
type stubWeather struct {
	conditions *weather.Conditions
	err        error
}

func (s stubWeather) Current(ctx context.Context) (*weather.Conditions, error) {
	return s.conditions, s.err
}

type handlerMocks struct {
	incidents     *mocks.MockIncidentService
	registry      *mocks.MockRegistryService
	notifications *mocks.MockNotificationService
	weather       *stubWeather
}

// newTestHandler создает новый экземпляр Handler с мокированными сервисами
func newTestHandler(t *testing.T) (handlerMocks, *gin.Engine) {
	ctrl := gomock.NewController(t)

	m := handlerMocks{
		incidents:     mocks.NewMockIncidentService(ctrl),
		registry:      mocks.NewMockRegistryService(ctrl),
		notifications: mocks.NewMockNotificationService(ctrl),
		weather:       &stubWeather{},
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	handler := NewHandler(m.incidents, m.registry, m.notifications, m.weather, logger, &config.Config{})

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.RegisterRoutes(router, HeaderIdentityProvider{})

	return m, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// incidentForm собирает multipart-тело заявки об инциденте
func incidentForm(t *testing.T, fields map[string]string, fileName string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("photo", fileName)
		require.NoError(t, err)
		_, err = fw.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func validIncidentFields() map[string]string {
	return map[string]string{
		"type":        "fire",
		"location":    "123 Main St",
		"description": "Smoke from the second floor",
		"priority":    "high",
		"reported_by": "John Doe",
	}
}

func TestCreateIncident_AnonymousPublic(t *testing.T) {
	m, router := newTestHandler(t)
	body, contentType := incidentForm(t, validIncidentFields(), "", nil)

	// Анонимная отправка: роль есть, X-User-ID отсутствует
	m.incidents.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input service.CreateIncidentInput, ident access.Identity) (*models.Incident, error) {
			assert.Equal(t, access.RolePublic, ident.Role)
			assert.Nil(t, ident.UserID)
			return &models.Incident{
				ID:        42,
				Type:      input.Type,
				Location:  input.Location,
				Priority:  input.Priority,
				Status:    models.IncidentStatusActive,
				CreatedAt: time.Now().UTC(),
				UpdatedAt: time.Now().UTC(),
			}, nil
		}).Times(1)

	w := makeRequest(router, "POST", "/api/incidents", body, map[string]string{
		"Content-Type": contentType,
		"X-User-Role":  "public",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Incident created successfully", resp["message"])
	assert.Equal(t, float64(42), resp["incident_id"])
	require.Contains(t, resp, "incident")
}

func TestCreateIncident_MissingRequiredField(t *testing.T) {
	m, router := newTestHandler(t)
	fields := validIncidentFields()
	delete(fields, "description")
	body, contentType := incidentForm(t, fields, "", nil)

	m.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/api/incidents", body, map[string]string{
		"Content-Type": contentType,
		"X-User-Role":  "public",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateIncident_UnsupportedPhoto(t *testing.T) {
	m, router := newTestHandler(t)
	body, contentType := incidentForm(t, validIncidentFields(), "report.exe", []byte("payload"))

	m.incidents.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: file extension %q is not allowed", service.ErrUnsupportedMedia, "exe")).
		Times(1)

	w := makeRequest(router, "POST", "/api/incidents", body, map[string]string{
		"Content-Type": contentType,
		"X-User-Role":  "public",
	})

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestCreateIncident_NoAuthContext(t *testing.T) {
	m, router := newTestHandler(t)
	body, contentType := incidentForm(t, validIncidentFields(), "", nil)

	m.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// Без X-User-Role запрос отклоняется до обработчика
	w := makeRequest(router, "POST", "/api/incidents", body, map[string]string{
		"Content-Type": contentType,
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication context required")
}

func TestCreateIncident_UnknownRole(t *testing.T) {
	m, router := newTestHandler(t)
	body, contentType := incidentForm(t, validIncidentFields(), "", nil)

	m.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "POST", "/api/incidents", body, map[string]string{
		"Content-Type": contentType,
		"X-User-Role":  "supervisor",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListIncidents_ForwardsFilter(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().
		ListIncidents(gomock.Any(), service.IncidentFilter{Status: "active", Priority: "high"}, gomock.Any()).
		Return([]*models.Incident{{ID: 1}, {ID: 2}}, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/incidents?status=active&priority=high", nil, map[string]string{
		"X-User-Role": "dispatcher",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["count"])
}

func TestGetIncident_InvalidID(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().GetIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/incidents/abc", nil, map[string]string{
		"X-User-Role": "dispatcher",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestGetIncident_NotFound(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().
		GetIncident(gomock.Any(), int64(404), gomock.Any()).
		Return(nil, fmt.Errorf("incident 404: %w", service.ErrNotFound)).
		Times(1)

	w := makeRequest(router, "GET", "/api/incidents/404", nil, map[string]string{
		"X-User-Role": "dispatcher",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateIncident_InvalidTransition(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().
		UpdateIncident(gomock.Any(), int64(5), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: active -> resolved", service.ErrInvalidTransition)).
		Times(1)

	w := makeRequest(router, "PUT", "/api/incidents/5", bytes.NewBufferString(`{"status": "resolved"}`), map[string]string{
		"X-User-Role": "dispatcher",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Тело сравниваем после декодирования: gin экранирует ">" в JSON
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "active -> resolved")
}

func TestUpdateIncident_Forbidden(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().
		UpdateIncident(gomock.Any(), int64(5), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("role %q may not update incidents: %w", "public", service.ErrForbidden)).
		Times(1)

	w := makeRequest(router, "PUT", "/api/incidents/5", bytes.NewBufferString(`{"status": "closed"}`), map[string]string{
		"X-User-Role": "public",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient permissions")
}

func TestUpdateIncident_UnknownStatusRejected(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().UpdateIncident(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "PUT", "/api/incidents/5", bytes.NewBufferString(`{"status": "archived"}`), map[string]string{
		"X-User-Role": "dispatcher",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteIncident_Success(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().
		DeleteIncident(gomock.Any(), int64(9), gomock.Any()).
		Return(nil).
		Times(1)

	w := makeRequest(router, "DELETE", "/api/incidents/9", nil, map[string]string{
		"X-User-Role": "admin",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Incident deleted successfully")
}

func TestDeleteIncident_NotFound(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().
		DeleteIncident(gomock.Any(), int64(404), gomock.Any()).
		Return(fmt.Errorf("incident 404: %w", service.ErrNotFound)).
		Times(1)

	w := makeRequest(router, "DELETE", "/api/incidents/404", nil, map[string]string{
		"X-User-Role": "admin",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateResponder_Success(t *testing.T) {
	m, router := newTestHandler(t)
	reqBody := CreateResponderRequest{
		Name:          "Alice Smith",
		Role:          "paramedic",
		ContactNumber: "+1-555-0101",
	}

	m.registry.EXPECT().
		CreateResponder(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.Responder{ID: 1, Name: reqBody.Name, Status: models.ResponderStatusAvailable}, nil).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/responders", bytes.NewBuffer(bodyBytes), map[string]string{
		"X-User-Role": "dispatcher",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp ResponderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "available", resp.Status)
}

func TestCreateEquipment_Forbidden(t *testing.T) {
	m, router := newTestHandler(t)
	reqBody := CreateEquipmentRequest{Name: "Stretcher", Type: "medical", Quantity: 4}

	m.registry.EXPECT().
		CreateEquipment(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("role %q may not manage equipment: %w", "responder", service.ErrForbidden)).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/equipment", bytes.NewBuffer(bodyBytes), map[string]string{
		"X-User-Role": "responder",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListNotifications_Success(t *testing.T) {
	m, router := newTestHandler(t)

	m.notifications.EXPECT().
		ListNotifications(gomock.Any()).
		Return([]*models.Notification{{ID: 2, Title: "Newest"}, {ID: 1, Title: "Older"}}, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/notifications", nil, map[string]string{
		"X-User-Role": "responder",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["count"])
}

func TestCurrentWeather_Unavailable(t *testing.T) {
	m, router := newTestHandler(t)
	m.weather.err = weather.ErrUnavailable

	w := makeRequest(router, "GET", "/api/weather", nil, map[string]string{
		"X-User-Role": "dispatcher",
	})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Сбой погодного сервиса проходит через общую таксономию ошибок
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], service.ErrUpstreamUnavailable.Error())
	assert.Contains(t, resp["error"], "weather data unavailable")
}

func TestCurrentWeather_Success(t *testing.T) {
	m, router := newTestHandler(t)
	m.weather.conditions = &weather.Conditions{Temp: 28.5, Description: "Scattered Clouds", Humidity: 70}

	w := makeRequest(router, "GET", "/api/weather", nil, map[string]string{
		"X-User-Role": "dispatcher",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Scattered Clouds")
}

func TestHealthCheck_NoAuthRequired(t *testing.T) {
	_, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "EMS Dispatch System API", resp["service"])
}

func TestUploadedPhoto_NotFound(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().
		OpenPhoto(gomock.Any(), "missing.jpg").
		Return(nil, fmt.Errorf("object not found")).
		Times(1)

	w := makeRequest(router, "GET", "/uploads/missing.jpg", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadedPhoto_StreamsContent(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().
		OpenPhoto(gomock.Any(), "abc.png").
		Return(io.NopCloser(bytes.NewBufferString("image-bytes")), nil).
		Times(1)

	w := makeRequest(router, "GET", "/uploads/abc.png", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image-bytes", w.Body.String())
}
