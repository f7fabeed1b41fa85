package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecotrackhq/ecotrack-api/databases/mocks"
	"github.com/ecotrackhq/ecotrack-api/models"
)

func TestSettingsHandlerCreatesDefaults(t *testing.T) {
	sdb := new(mocks.SettingsDatabase)
	s := Settings{DB: sdb}

	sdb.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	sdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(st models.Settings) bool {
		return st.Thresholds.CriticalCapacity == 85 && st.System.MaxReportsPerUser == 10
	})).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/settings", nil)
	rr := httptest.NewRecorder()
	s.SettingsHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	sdb.AssertExpectations(t)
}

func TestSettingsHandlerReturnsExisting(t *testing.T) {
	sdb := new(mocks.SettingsDatabase)
	s := Settings{DB: sdb}

	existing := models.DefaultSettings()
	existing.System.MaintenanceMode = true
	sdb.On("FindOne", mock.Anything, mock.Anything).Return(&existing, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/settings", nil)
	rr := httptest.NewRecorder()
	s.SettingsHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"maintenanceMode":true`)
	sdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestUpdateSettingsHandlerUnknownSectionRejected(t *testing.T) {
	sdb := new(mocks.SettingsDatabase)
	s := Settings{DB: sdb}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/settings",
		strings.NewReader(`{"bogus": {}}`))
	rr := httptest.NewRecorder()
	s.UpdateSettingsHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	sdb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestResetSettingsHandler(t *testing.T) {
	sdb := new(mocks.SettingsDatabase)
	s := Settings{DB: sdb}

	sdb.On("DeleteMany", mock.Anything, mock.Anything).Return(&mongo.DeleteResult{DeletedCount: 1}, nil)
	sdb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/settings/reset", nil)
	rr := httptest.NewRecorder()
	s.ResetSettingsHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Settings reset to defaults")
	sdb.AssertExpectations(t)
}

func TestResetSettingsHandlerDeleteError(t *testing.T) {
	sdb := new(mocks.SettingsDatabase)
	s := Settings{DB: sdb}

	sdb.On("DeleteMany", mock.Anything, mock.Anything).Return(nil, errors.New("write failed"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/settings/reset", nil)
	rr := httptest.NewRecorder()
	s.ResetSettingsHandler(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	sdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}
