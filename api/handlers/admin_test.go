package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecotrackhq/ecotrack-api/databases/mocks"
	"github.com/ecotrackhq/ecotrack-api/models"
)

func TestDashboardStatsHandler(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	udb := new(mocks.UserDatabase)
	bdb := new(mocks.WasteBinDatabase)
	a := Admin{RDB: rdb, UDB: udb, BDB: bdb, Notifier: NoopNotifier{}}

	rdb.On("CountDocuments", mock.Anything, bson.M{}).Return(int64(42), nil)
	rdb.On("CountDocuments", mock.Anything, bson.M{"admin_status": models.AdminPending}).Return(int64(7), nil)
	udb.On("CountDocuments", mock.Anything, bson.M{}).Return(int64(15), nil)
	udb.On("CountDocuments", mock.Anything, bson.M{"blacklisted": true}).Return(int64(2), nil)

	cursor := new(mocks.CursorHelper)
	cursor.On("Decode", mock.Anything).Return(nil)
	bdb.On("Aggregate", mock.Anything, mock.Anything).Return(cursor, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	rr := httptest.NewRecorder()
	a.DashboardStatsHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"totalReports":42`)
	assert.Contains(t, rr.Body.String(), `"pendingReports":7`)
	assert.Contains(t, rr.Body.String(), `"blacklistedUsers":2`)
}

func TestAdminUpdateUserHandlerNegativePoints(t *testing.T) {
	udb := new(mocks.UserDatabase)
	a := Admin{UDB: udb}

	id := primitive.NewObjectID().Hex()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/users/"+id,
		strings.NewReader(`{"points": -1}`))
	req = mux.SetURLVars(req, map[string]string{"user_id": id})
	rr := httptest.NewRecorder()
	a.AdminUpdateUserHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	udb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminUpdateUserHandlerNotFound(t *testing.T) {
	udb := new(mocks.UserDatabase)
	a := Admin{UDB: udb}

	udb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 0}, nil)

	id := primitive.NewObjectID().Hex()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/users/"+id,
		strings.NewReader(`{"blacklisted": false}`))
	req = mux.SetURLVars(req, map[string]string{"user_id": id})
	rr := httptest.NewRecorder()
	a.AdminUpdateUserHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBulkVerdictHandlerInvalidStatus(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	a := Admin{RDB: rdb}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/reports/bulk",
		strings.NewReader(`{"report_ids": ["abc"], "admin_status": "pending"}`))
	rr := httptest.NewRecorder()
	a.BulkVerdictHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rdb.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
}

func TestBulkVerdictHandlerPartialFailure(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	udb := new(mocks.UserDatabase)
	a := Admin{RDB: rdb, UDB: udb, Notifier: NoopNotifier{}}

	goodID := primitive.NewObjectID()
	missingID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	rdb.On("FindOne", mock.Anything, bson.M{"_id": goodID}).Return(&models.Report{ID: goodID, UserID: userID, AdminStatus: models.AdminPending}, nil)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": missingID}).Return(nil, mongo.ErrNoDocuments)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{ID: userID, Points: 1}, nil)
	rdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)
	udb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/reports/bulk",
		strings.NewReader(`{"report_ids": ["`+goodID.Hex()+`", "`+missingID.Hex()+`"], "admin_status": "approved"}`))
	rr := httptest.NewRecorder()
	a.BulkVerdictHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"updated":1`)
	assert.Contains(t, rr.Body.String(), "report not found")
}
