package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
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

type failingNotifier struct{}

func (failingNotifier) Broadcast(event string, payload interface{}) error {
	return errors.New("socket down")
}
func (failingNotifier) Unicast(userID, event string, payload interface{}) error {
	return errors.New("socket down")
}

func newReportForm(t *testing.T, fields map[string]string, withAttachment bool, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if withAttachment {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="attachment"; filename="photo.jpg"`)
		h.Set("Content-Type", contentType)
		part, err := writer.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte("fake image bytes"))
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func validReportFields(binID, userID primitive.ObjectID) map[string]string {
	return map[string]string{
		"bin":         binID.Hex(),
		"user_id":     userID.Hex(),
		"status":      models.ConditionFull,
		"description": "the bin near the market is overflowing badly",
	}
}

func TestCreateReportHandlerMissingAttachment(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	re := Report{RDB: rdb, Notifier: NoopNotifier{}}

	body, ct := newReportForm(t, validReportFields(primitive.NewObjectID(), primitive.NewObjectID()), false, "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()

	re.CreateReportHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "attachment is required")
	rdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestCreateReportHandlerShortDescription(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	re := Report{RDB: rdb, Notifier: NoopNotifier{}}

	fields := validReportFields(primitive.NewObjectID(), primitive.NewObjectID())
	fields["description"] = "   short   "
	body, ct := newReportForm(t, fields, true, "image/jpeg")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()

	re.CreateReportHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "description must be at least 10 characters")
	rdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestCreateReportHandlerBinNotFound(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	bdb := new(mocks.WasteBinDatabase)
	re := Report{RDB: rdb, BDB: bdb, Notifier: NoopNotifier{}}

	bdb.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	body, ct := newReportForm(t, validReportFields(primitive.NewObjectID(), primitive.NewObjectID()), true, "image/jpeg")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()

	re.CreateReportHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "bin not found")
	rdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestCreateReportHandlerInvalidStatus(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	udb := new(mocks.UserDatabase)
	bdb := new(mocks.WasteBinDatabase)
	re := Report{RDB: rdb, UDB: udb, BDB: bdb, Notifier: NoopNotifier{}}

	binID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	bdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.WasteBin{ID: binID, Ward: "Ward 12"}, nil)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{ID: userID, Name: "Asha"}, nil)

	fields := validReportFields(binID, userID)
	fields["status"] = "exploded"
	body, ct := newReportForm(t, fields, true, "image/jpeg")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()

	re.CreateReportHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid status value")
	rdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestCreateReportHandlerNonImageRejected(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	udb := new(mocks.UserDatabase)
	bdb := new(mocks.WasteBinDatabase)
	re := Report{RDB: rdb, UDB: udb, BDB: bdb, Notifier: NoopNotifier{}}

	binID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	bdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.WasteBin{ID: binID}, nil)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{ID: userID}, nil)

	body, ct := newReportForm(t, validReportFields(binID, userID), true, "application/pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()

	re.CreateReportHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "only image files are allowed")
	rdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestCreateReportHandlerSuccess(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	udb := new(mocks.UserDatabase)
	bdb := new(mocks.WasteBinDatabase)
	re := Report{RDB: rdb, UDB: udb, BDB: bdb, Notifier: NoopNotifier{}}

	binID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	bdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.WasteBin{ID: binID, Ward: "Ward 12", Zone: "North", BinType: "public"}, nil)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{ID: userID, Name: "Asha", Email: "asha@example.com"}, nil)
	rdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(r models.Report) bool {
		return r.AdminStatus == models.AdminPending &&
			r.WCStatus == models.WCPending &&
			r.Status == models.ConditionFull &&
			r.Urgency == models.UrgencyMedium
	})).Return(nil, nil)

	fields := validReportFields(binID, userID)
	fields["location"] = `{"latitude": 19.076, "longitude": 72.8777}`
	body, ct := newReportForm(t, fields, true, "image/jpeg")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()

	re.CreateReportHandler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "Report created successfully")
	rdb.AssertExpectations(t)
}

func adminUpdateRequest(reportID, verdict string) *http.Request {
	req := httptest.NewRequest(http.MethodPut,
		fmt.Sprintf("/api/v1/reports/%s/admin-status", reportID),
		strings.NewReader(fmt.Sprintf(`{"admin_status": %q}`, verdict)))
	return mux.SetURLVars(req, map[string]string{"report_id": reportID})
}

func TestUpdateReportAdminApproved(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	udb := new(mocks.UserDatabase)
	re := Report{RDB: rdb, UDB: udb, Notifier: NoopNotifier{}}

	reportID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	rdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Report{ID: reportID, UserID: userID, AdminStatus: models.AdminPending}, nil)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{ID: userID, Points: 2, Blacklisted: true, Email: "asha@example.com"}, nil)
	rdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)
	udb.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(u interface{}) bool {
		set := u.(bson.M)["$set"].(bson.M)
		return set["points"] == 3 && set["blacklisted"] == false
	})).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	rr := httptest.NewRecorder()
	re.UpdateReportAdminHandler(rr, adminUpdateRequest(reportID.Hex(), models.AdminApproved))

	assert.Equal(t, http.StatusOK, rr.Code)
	rdb.AssertExpectations(t)
	udb.AssertExpectations(t)
}

func TestUpdateReportAdminRejectedDecrementsToBlacklist(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	udb := new(mocks.UserDatabase)
	re := Report{RDB: rdb, UDB: udb, Notifier: NoopNotifier{}}

	reportID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	rdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Report{ID: reportID, UserID: userID, AdminStatus: models.AdminPending}, nil)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{ID: userID, Points: 1}, nil)
	rdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)
	udb.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(u interface{}) bool {
		set := u.(bson.M)["$set"].(bson.M)
		return set["points"] == 0 && set["blacklisted"] == true
	})).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	rr := httptest.NewRecorder()
	re.UpdateReportAdminHandler(rr, adminUpdateRequest(reportID.Hex(), models.AdminRejected))

	assert.Equal(t, http.StatusOK, rr.Code)
	udb.AssertExpectations(t)
}

func TestUpdateReportAdminRejectedAtZeroPointsLeavesUserUntouched(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	udb := new(mocks.UserDatabase)
	re := Report{RDB: rdb, UDB: udb, Notifier: NoopNotifier{}}

	reportID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	rdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Report{ID: reportID, UserID: userID, AdminStatus: models.AdminPending}, nil)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{ID: userID, Points: 0, Blacklisted: false}, nil)
	rdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)
	udb.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(u interface{}) bool {
		set := u.(bson.M)["$set"].(bson.M)
		return set["points"] == 0 && set["blacklisted"] == false
	})).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	rr := httptest.NewRecorder()
	re.UpdateReportAdminHandler(rr, adminUpdateRequest(reportID.Hex(), models.AdminRejected))

	assert.Equal(t, http.StatusOK, rr.Code)
	udb.AssertExpectations(t)
}

func TestUpdateReportAdminPendingVerdictRejected(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	re := Report{RDB: rdb, Notifier: NoopNotifier{}}

	rr := httptest.NewRecorder()
	re.UpdateReportAdminHandler(rr, adminUpdateRequest(primitive.NewObjectID().Hex(), models.AdminPending))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid admin_status value")
	rdb.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
}

func TestUpdateReportAdminReportNotFound(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	udb := new(mocks.UserDatabase)
	re := Report{RDB: rdb, UDB: udb, Notifier: NoopNotifier{}}

	rdb.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	rr := httptest.NewRecorder()
	re.UpdateReportAdminHandler(rr, adminUpdateRequest(primitive.NewObjectID().Hex(), models.AdminApproved))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "report not found")
	udb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateReportAdminUserWriteFailureRollsBackVerdict(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	udb := new(mocks.UserDatabase)
	re := Report{RDB: rdb, UDB: udb, Notifier: NoopNotifier{}}

	reportID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	rdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Report{ID: reportID, UserID: userID, AdminStatus: models.AdminPending}, nil)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{ID: userID, Points: 2}, nil)

	// verdict write succeeds, user write fails, then the verdict is reverted
	rdb.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(u interface{}) bool {
		set := u.(bson.M)["$set"].(bson.M)
		return set["admin_status"] == models.AdminApproved
	})).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil).Once()
	udb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("write failed"))
	rdb.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(u interface{}) bool {
		set := u.(bson.M)["$set"].(bson.M)
		return set["admin_status"] == models.AdminPending
	})).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil).Once()

	rr := httptest.NewRecorder()
	re.UpdateReportAdminHandler(rr, adminUpdateRequest(reportID.Hex(), models.AdminApproved))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to update user")
	rdb.AssertExpectations(t)
}

func wcUpdateRequest(reportID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPut,
		fmt.Sprintf("/api/v1/reports/%s/wc-status", reportID),
		strings.NewReader(body))
	return mux.SetURLVars(req, map[string]string{"report_id": reportID})
}

func TestUpdateReportWCDone(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	re := Report{RDB: rdb, Notifier: NoopNotifier{}}

	reportID := primitive.NewObjectID()
	rdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Report{ID: reportID, UserID: primitive.NewObjectID(), WCStatus: models.WCPending}, nil)
	rdb.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(u interface{}) bool {
		set := u.(bson.M)["$set"].(bson.M)
		return set["wc_status"] == models.WCDone
	})).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	rr := httptest.NewRecorder()
	re.UpdateReportWCHandler(rr, wcUpdateRequest(reportID.Hex(), `{"wc_status": "done"}`))

	assert.Equal(t, http.StatusOK, rr.Code)
	rdb.AssertExpectations(t)
}

func TestUpdateReportWCUnknownFieldRejected(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	re := Report{RDB: rdb, Notifier: NoopNotifier{}}

	rr := httptest.NewRecorder()
	re.UpdateReportWCHandler(rr, wcUpdateRequest(primitive.NewObjectID().Hex(),
		`{"wc_status": "done", "admin_status": "approved"}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rdb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateReportWCRecycledRejected(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	re := Report{RDB: rdb, Notifier: NoopNotifier{}}

	rr := httptest.NewRecorder()
	re.UpdateReportWCHandler(rr, wcUpdateRequest(primitive.NewObjectID().Hex(), `{"wc_status": "recycled"}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid wc_status value")
	rdb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecyclePendingReports(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	re := Report{RDB: rdb, Notifier: NoopNotifier{}}

	rdb.On("UpdateMany", mock.Anything, mock.MatchedBy(func(f interface{}) bool {
		return f.(bson.M)["wc_status"] == models.WCPending
	}), mock.MatchedBy(func(u interface{}) bool {
		set := u.(bson.M)["$set"].(bson.M)
		return set["status"] == models.StatusRecycled && set["wc_status"] == models.StatusRecycled
	})).Return(&mongo.UpdateResult{MatchedCount: 3, ModifiedCount: 3}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/reports/recycle-pending", nil)
	rr := httptest.NewRecorder()
	re.RecyclePendingReportsHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"matchedCount":3`)
	rdb.AssertExpectations(t)
}

func TestRecyclePendingReportsZeroMatchesIsOK(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	re := Report{RDB: rdb, Notifier: NoopNotifier{}}

	rdb.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/reports/recycle-pending", nil)
	rr := httptest.NewRecorder()
	re.RecyclePendingReportsHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"matchedCount":0`)
}

func TestPurgeRecycledReportsIdempotent(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	re := Report{RDB: rdb, Notifier: NoopNotifier{}}

	rdb.On("DeleteMany", mock.Anything, mock.MatchedBy(func(f interface{}) bool {
		return f.(bson.M)["wc_status"] == models.StatusRecycled
	})).Return(&mongo.DeleteResult{DeletedCount: 0}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reports/recycled", nil)
	rr := httptest.NewRecorder()
	re.PurgeRecycledReportsHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"deletedCount":0`)
}

func TestNotifierFailureDoesNotAffectResult(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	re := Report{RDB: rdb, Notifier: failingNotifier{}}

	reportID := primitive.NewObjectID()
	rdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Report{ID: reportID, UserID: primitive.NewObjectID(), WCStatus: models.WCPending}, nil)
	rdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	rr := httptest.NewRecorder()
	re.UpdateReportWCHandler(rr, wcUpdateRequest(reportID.Hex(), `{"wc_status": "done"}`))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestReportsByUserIDHandlerPagination(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	re := Report{RDB: rdb, Notifier: NoopNotifier{}}

	userID := primitive.NewObjectID()
	rdb.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Report{
		{ID: primitive.NewObjectID(), UserID: userID, Status: models.ConditionFull},
	}, nil)
	rdb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(11), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/user/"+userID.Hex()+"?page=2&limit=10", nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": userID.Hex()})
	rr := httptest.NewRecorder()
	re.ReportsByUserIDHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"totalPages":2`)
	assert.Contains(t, rr.Body.String(), `"hasPrev":true`)
}
