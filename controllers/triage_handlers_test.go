package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoteile-schmidt/service-portal-api/models"
)

func TestTriageTransitions(t *testing.T) {
	app := newTestApp(t)
	id := createComplaint(t, app, validComplaint())
	cookie := app.login(t)
	path := "/api/v1/complaints/" + id

	steps := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
		wantCode   string
		wantState  string
	}{
		{"start work", map[string]interface{}{"status": "in_progress", "processorName": " Jana "}, http.StatusOK, "", models.ComplaintStatusInProgress},
		{"unknown status", map[string]interface{}{"status": "archived"}, http.StatusBadRequest, "INVALID_STATUS", models.ComplaintStatusInProgress},
		{"resolve", map[string]interface{}{"status": "resolved", "adminNotes": "Ersatz versandt"}, http.StatusOK, "", models.ComplaintStatusResolved},
		{"leave terminal", map[string]interface{}{"status": "in_progress"}, http.StatusConflict, "TERMINAL_STATUS", models.ComplaintStatusResolved},
		{"reopen", map[string]interface{}{"status": "in_progress", "reopen": true}, http.StatusOK, "", models.ComplaintStatusInProgress},
	}

	for _, step := range steps {
		w := app.request(t, http.MethodPatch, path, step.body, cookie)
		assert.Equal(t, step.wantStatus, w.Code, "%s: %s", step.name, w.Body.String())
		if step.wantCode != "" {
			assert.Equal(t, step.wantCode, decode(t, w).Error.Code, step.name)
		}

		var stored models.Complaint
		require.NoError(t, app.db.First(&stored, "id = ?", id).Error)
		assert.Equal(t, step.wantState, stored.Status, step.name)
	}

	var stored models.Complaint
	require.NoError(t, app.db.First(&stored, "id = ?", id).Error)
	require.NotNil(t, stored.ProcessorName)
	assert.Equal(t, "Jana", *stored.ProcessorName)
	require.NotNil(t, stored.AdminNotes)
	assert.Equal(t, "Ersatz versandt", *stored.AdminNotes)
	assert.Equal(t, "Kupplung rutscht nach 2000 km durch.", stored.Description)
}

func TestTriageIgnoresContentFields(t *testing.T) {
	app := newTestApp(t)
	w := app.request(t, http.MethodPost, "/api/v1/returns", validReturn())
	require.Equal(t, http.StatusOK, w.Code)
	var ret models.Return
	decodeData(t, w, &ret)

	w = app.request(t, http.MethodPut, "/api/v1/returns/"+ret.ID, map[string]interface{}{
		"status":       "approved",
		"customerName": "Jemand Anderes",
		"reason":       "überschrieben",
	}, app.login(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.Return
	require.NoError(t, app.db.First(&stored, "id = ?", ret.ID).Error)
	assert.Equal(t, models.ReturnStatusApproved, stored.Status)
	assert.Equal(t, "Autohaus Berger", stored.CustomerName)
	assert.Equal(t, "Falsches Teil geliefert, bitte Gutschrift.", stored.Reason)
}

func TestTriageUnknownRecord(t *testing.T) {
	app := newTestApp(t)

	w := app.request(t, http.MethodPut, "/api/v1/motor-inquiry/missing", map[string]interface{}{"status": "quoted"}, app.login(t))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListFiltersByStatus(t *testing.T) {
	app := newTestApp(t)
	for i := 0; i < 3; i++ {
		w := app.request(t, http.MethodPost, "/api/v1/contact", validContact())
		require.Equal(t, http.StatusOK, w.Code)
	}
	cookie := app.login(t)

	var all []models.ContactInquiry
	w := app.request(t, http.MethodGet, "/api/v1/contact", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &all)
	require.Len(t, all, 3)
	assert.Equal(t, "3", w.Header().Get("X-Total-Count"))

	w = app.request(t, http.MethodPatch, "/api/v1/contact/"+all[0].ID, map[string]interface{}{"status": "read"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var read []models.ContactInquiry
	w = app.request(t, http.MethodGet, "/api/v1/contact?status=read", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &read)
	assert.Len(t, read, 1)

	var page []models.ContactInquiry
	w = app.request(t, http.MethodGet, "/api/v1/contact?limit=2&offset=2", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &page)
	assert.Len(t, page, 1)

	w = app.request(t, http.MethodGet, "/api/v1/contact?status=bogus", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteMotorInquiry(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t)
	inquiry := models.MotorInquiry{
		Name: "Tom", Email: "tom@example.de", Phone: "0151 1", VehicleModel: "Golf",
		Description: "Austauschmotor gesucht",
	}
	require.NoError(t, app.db.Create(&inquiry).Error)

	w := app.request(t, http.MethodDelete, "/api/v1/motor-inquiry/"+inquiry.ID, nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.request(t, http.MethodDelete, "/api/v1/motor-inquiry/"+inquiry.ID, nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
