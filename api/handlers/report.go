package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ecotrackhq/ecotrack-api/api"
	"github.com/ecotrackhq/ecotrack-api/config"
	"github.com/ecotrackhq/ecotrack-api/databases"
	"github.com/ecotrackhq/ecotrack-api/models"
)

// maxAttachmentSize caps report photos at 5 MiB.
const maxAttachmentSize = 5 << 20

// Report owns the report lifecycle: citizen submission, the admin verdict
// with its reputation coupling, collector completion, and the bulk
// recycle/purge sweeps.
type Report struct {
	RDB      databases.ReportDatabase
	UDB      databases.UserDatabase
	BDB      databases.WasteBinDatabase
	Notifier Notifier
	Mailer   *VerdictMailer
	Uploads  *cloudinary.Cloudinary
}

// CreateReportHandler accepts a multipart citizen submission and creates the
// report in state (condition, admin pending, collector pending). Reputation
// is untouched at creation time.
func (re Report) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := r.ParseMultipartForm(maxAttachmentSize + 1<<20); err != nil {
		config.ErrorStatus("failed to parse multipart form", http.StatusBadRequest, w, err)
		return
	}

	file, header, err := r.FormFile("attachment")
	if err != nil {
		config.ErrorStatus("attachment is required", http.StatusBadRequest, w, err)
		return
	}
	defer file.Close()

	binID := r.FormValue("bin")
	userID := r.FormValue("user_id")
	status := r.FormValue("status")
	description := strings.TrimSpace(r.FormValue("description"))
	urgency := r.FormValue("urgency")
	location := r.FormValue("location")

	if binID == "" {
		config.ErrorStatus("bin ID is required", http.StatusBadRequest, w, fmt.Errorf("missing bin"))
		return
	}
	if userID == "" {
		config.ErrorStatus("user ID is required", http.StatusBadRequest, w, fmt.Errorf("missing user_id"))
		return
	}
	if status == "" {
		config.ErrorStatus("status is required", http.StatusBadRequest, w, fmt.Errorf("missing status"))
		return
	}
	if len(description) < 10 {
		config.ErrorStatus("description must be at least 10 characters long", http.StatusBadRequest, w, fmt.Errorf("description too short"))
		return
	}

	bID, err := primitive.ObjectIDFromHex(binID)
	if err != nil {
		config.ErrorStatus("invalid bin ID format", http.StatusBadRequest, w, err)
		return
	}
	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("invalid user ID format", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	bin, err := re.BDB.FindOne(ctx, bson.M{"_id": bID})
	if err != nil {
		config.ErrorStatus("bin not found", http.StatusNotFound, w, err)
		return
	}

	user, err := re.UDB.FindOne(ctx, bson.M{"_id": uID})
	if err != nil {
		config.ErrorStatus("user not found", http.StatusNotFound, w, err)
		return
	}

	if !models.ValidCondition(status) {
		config.ErrorStatus("invalid status value", http.StatusBadRequest, w, fmt.Errorf("status %q", status))
		return
	}

	if urgency == "" {
		urgency = models.UrgencyMedium
	} else if !models.ValidUrgency(urgency) {
		config.ErrorStatus("invalid urgency value", http.StatusBadRequest, w, fmt.Errorf("urgency %q", urgency))
		return
	}

	var loc *models.GeoPoint
	if location != "" {
		loc, err = parseLocation(location)
		if err != nil {
			config.ErrorStatus("invalid location format", http.StatusBadRequest, w, err)
			return
		}
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		config.ErrorStatus("only image files are allowed", http.StatusBadRequest, w, fmt.Errorf("content type %q", contentType))
		return
	}
	if header.Size > maxAttachmentSize {
		config.ErrorStatus("file size must be less than 5MB", http.StatusBadRequest, w, fmt.Errorf("size %d", header.Size))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentSize))
	if err != nil {
		config.ErrorStatus("failed to read attachment", http.StatusInternalServerError, w, err)
		return
	}

	attachment := models.Attachment{ContentType: contentType}
	if re.Uploads != nil {
		res, upErr := re.Uploads.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{Folder: "userReportImages"})
		if upErr != nil || res.SecureURL == "" {
			// fall back to inline storage rather than losing the submission
			zap.S().Warnw("cloudinary upload failed, storing attachment inline", "error", upErr)
			attachment.Data = data
		} else {
			attachment.URL = res.SecureURL
		}
	} else {
		attachment.Data = data
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	report := models.Report{
		ID:          primitive.NewObjectID(),
		BinID:       bID,
		UserID:      uID,
		Status:      status,
		AdminStatus: models.AdminPending,
		WCStatus:    models.WCPending,
		Description: description,
		Urgency:     urgency,
		Location:    loc,
		Attachment:  attachment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := re.RDB.InsertOne(ctx, report); err != nil {
		config.ErrorStatus("failed to create report", http.StatusInternalServerError, w, err)
		return
	}

	populated := models.PopulatedReport{
		Report: report,
		User:   &models.ReportAuthor{ID: user.ID, Name: user.Name, Email: user.Email},
		Bin:    &models.ReportBin{ID: bin.ID, Ward: bin.Ward, Zone: bin.Zone, BinType: bin.BinType},
	}

	re.broadcast("notification", map[string]interface{}{
		"type":      "new_report",
		"message":   fmt.Sprintf("New report submitted for %s", bin.Ward),
		"userId":    userID,
		"reportId":  report.ID.Hex(),
		"timestamp": time.Now(),
	})

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Report created successfully",
		"report":  populated,
	})
}

// UpdateReportAdminHandler applies an admin verdict to a pending report and
// adjusts the author's reputation. The two writes form one logical unit: if
// the user write fails the verdict is rolled back so points and blacklist
// can never diverge from the report status.
func (re Report) UpdateReportAdminHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("invalid report ID format", http.StatusBadRequest, w, err)
		return
	}

	var body struct {
		AdminStatus string `json:"admin_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	// pending is the starting state, not a verdict
	if body.AdminStatus != models.AdminApproved && body.AdminStatus != models.AdminRejected {
		config.ErrorStatus("invalid admin_status value", http.StatusBadRequest, w, fmt.Errorf("admin_status %q", body.AdminStatus))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := re.RDB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("report not found", http.StatusNotFound, w, err)
		return
	}

	user, err := re.UDB.FindOne(ctx, bson.M{"_id": report.UserID})
	if err != nil {
		config.ErrorStatus("user not found", http.StatusNotFound, w, err)
		return
	}

	switch body.AdminStatus {
	case models.AdminRejected:
		// A rejection at zero points leaves the user untouched; the
		// blacklist flag only flips when a decrement lands on zero.
		if user.Points > 0 {
			user.Points--
			if user.Points == 0 {
				user.Blacklisted = true
			}
		}
	case models.AdminApproved:
		user.Points++
		user.Blacklisted = false
	}

	prevStatus := report.AdminStatus
	now := primitive.NewDateTimeFromTime(time.Now())

	if _, err := re.RDB.UpdateOne(ctx, bson.M{"_id": rID}, bson.M{"$set": bson.M{"admin_status": body.AdminStatus, "updatedAt": now}}); err != nil {
		config.ErrorStatus("failed to update report", http.StatusInternalServerError, w, err)
		return
	}

	if _, err := re.UDB.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{"points": user.Points, "blacklisted": user.Blacklisted, "updatedAt": now}}); err != nil {
		// roll the verdict back so the pair stays consistent
		if _, rbErr := re.RDB.UpdateOne(ctx, bson.M{"_id": rID}, bson.M{"$set": bson.M{"admin_status": prevStatus, "updatedAt": now}}); rbErr != nil {
			zap.S().Errorw("failed to roll back report verdict", "reportId", reportID, "error", rbErr)
		}
		config.ErrorStatus("failed to update user", http.StatusInternalServerError, w, err)
		return
	}

	report.AdminStatus = body.AdminStatus
	report.UpdatedAt = now

	re.broadcast("reportUpdate", map[string]interface{}{
		"reportId": reportID,
		"updates":  map[string]string{"admin_status": body.AdminStatus},
		"userId":   report.UserID.Hex(),
		"message":  fmt.Sprintf("Report %s by admin", body.AdminStatus),
	})
	re.unicast(report.UserID.Hex(), "notification", map[string]interface{}{
		"type":      "report_status_update",
		"message":   fmt.Sprintf("Your report has been %s", body.AdminStatus),
		"userId":    report.UserID.Hex(),
		"reportId":  reportID,
		"timestamp": time.Now(),
	})
	if re.Mailer != nil {
		go re.Mailer.SendVerdict(user.Email, user.Name, body.AdminStatus, reportID)
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"msg":        "User report updated",
		"userReport": report,
		"user":       user,
	})
}

// UpdateReportWCHandler records collector progress on a report. The body is
// restricted to the wc_status field; anything else is rejected.
func (re Report) UpdateReportWCHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("invalid report ID format", http.StatusBadRequest, w, err)
		return
	}

	var body struct {
		WCStatus string `json:"wc_status"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if body.WCStatus != models.WCPending && body.WCStatus != models.WCDone {
		config.ErrorStatus("invalid wc_status value", http.StatusBadRequest, w, fmt.Errorf("wc_status %q", body.WCStatus))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := re.RDB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("report not found", http.StatusNotFound, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	if _, err := re.RDB.UpdateOne(ctx, bson.M{"_id": rID}, bson.M{"$set": bson.M{"wc_status": body.WCStatus, "updatedAt": now}}); err != nil {
		config.ErrorStatus("failed to update report", http.StatusInternalServerError, w, err)
		return
	}

	report.WCStatus = body.WCStatus
	report.UpdatedAt = now

	re.broadcast("reportUpdate", map[string]interface{}{
		"reportId": reportID,
		"updates":  map[string]string{"wc_status": body.WCStatus},
		"userId":   report.UserID.Hex(),
		"message":  "Report updated by waste collector",
	})

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"msg":        "User report updated",
		"userReport": report,
	})
}

// RecyclePendingReportsHandler sweeps every collector-pending report into the
// recycled terminal state, marking both the condition and collector axes.
// Zero matches is a normal result, not an error.
func (re Report) RecyclePendingReportsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := primitive.NewDateTimeFromTime(time.Now())
	res, err := re.RDB.UpdateMany(ctx,
		bson.M{"wc_status": models.WCPending},
		bson.M{"$set": bson.M{"status": models.StatusRecycled, "wc_status": models.StatusRecycled, "updatedAt": now}},
	)
	if err != nil {
		config.ErrorStatus("failed to update reports", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"msg":           "Reports updated successfully",
		"matchedCount":  res.MatchedCount,
		"modifiedCount": res.ModifiedCount,
	})
}

// PurgeRecycledReportsHandler deletes every recycled report. Idempotent:
// running it twice returns a zero count the second time.
func (re Report) PurgeRecycledReportsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := re.RDB.DeleteMany(ctx, bson.M{"wc_status": models.StatusRecycled})
	if err != nil {
		config.ErrorStatus("failed to delete reports", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"msg":          "Reports deleted successfully",
		"deletedCount": res.DeletedCount,
	})
}

// ReportsHandler returns every report still in an active condition state.
func (re Report) ReportsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := re.RDB.Find(ctx, bson.M{
		"status": bson.M{"$in": []string{
			models.ConditionFull,
			models.ConditionPartiallyFilled,
			models.ConditionDamaged,
			models.ConditionNeedsMaintenance,
			models.ConditionOverflowing,
		}},
	})
	if err != nil {
		config.ErrorStatus("failed to get user reports", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Report{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReportByIDHandler returns a report by ID
func (re Report) ReportByIDHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("invalid report ID format", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := re.RDB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("report not found", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(report)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReportsByUserIDHandler returns one citizen's reports, newest first, with
// page/limit pagination.
func (re Report) ReportsByUserIDHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID := mux.Vars(r)["user_id"]

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("invalid user ID format", http.StatusBadRequest, w, err)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = 10
	}
	limit64 := int64(limit)
	skip64 := int64((page - 1) * limit)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := bson.D{{Key: "createdAt", Value: -1}}
	dbResp, err := re.RDB.Find(ctx, bson.M{"user_id": uID}, &options.FindOptions{Limit: &limit64, Skip: &skip64, Sort: sort})
	if err != nil {
		config.ErrorStatus("failed to get user reports", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Report{}
	}

	total, err := re.RDB.CountDocuments(ctx, bson.M{"user_id": uID})
	if err != nil {
		config.ErrorStatus("failed to count user reports", http.StatusInternalServerError, w, err)
		return
	}

	totalPages := (total + limit64 - 1) / limit64
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"reports": dbResp,
		"count":   len(dbResp),
		"total":   total,
		"pagination": map[string]interface{}{
			"currentPage": page,
			"totalPages":  totalPages,
			"hasNext":     int64(page) < totalPages,
			"hasPrev":     page > 1,
		},
	})
}

// UserReportStatsHandler aggregates one citizen's report counts and the
// derived environmental impact figures for the dashboard.
func (re Report) UserReportStatsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID := mux.Vars(r)["user_id"]

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("invalid user ID format", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	pipeline := []bson.M{
		{"$match": bson.M{"user_id": uID}},
		{"$group": bson.M{
			"_id":          nil,
			"totalReports": bson.M{"$sum": 1},
			"approvedReports": bson.M{
				"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$admin_status", models.AdminApproved}}, 1, 0}},
			},
			"pendingReports": bson.M{
				"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$admin_status", models.AdminPending}}, 1, 0}},
			},
			"rejectedReports": bson.M{
				"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$admin_status", models.AdminRejected}}, 1, 0}},
			},
			"uniqueBins": bson.M{"$addToSet": "$bin"},
		}},
		{"$project": bson.M{
			"_id":             0,
			"totalReports":    1,
			"approvedReports": 1,
			"pendingReports":  1,
			"rejectedReports": 1,
			"uniqueLocations": bson.M{"$size": "$uniqueBins"},
		}},
	}

	cursor, err := re.RDB.Aggregate(ctx, pipeline)
	if err != nil {
		config.ErrorStatus("failed to aggregate report stats", http.StatusInternalServerError, w, err)
		return
	}

	var results []models.ReportStats
	if err := cursor.Decode(&results); err != nil {
		config.ErrorStatus("failed to decode report stats", http.StatusInternalServerError, w, err)
		return
	}

	var stats models.ReportStats
	if len(results) > 0 {
		stats = results[0]
	}

	// impact estimates per approved report: 0.5kg CO2, 2.5kg waste, 0.8kWh
	approved := float64(stats.ApprovedReports)
	stats.CO2Saved = roundTenth(approved * 0.5)
	stats.WasteDiverted = roundTenth(approved * 2.5)
	stats.EnergySaved = roundTenth(approved * 0.8)
	stats.TreesEquivalent = int(stats.CO2Saved / 22) // 22kg CO2 = 1 tree

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}

func roundTenth(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}

func parseLocation(raw string) (*models.GeoPoint, error) {
	var parsed struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, err
	}
	if parsed.Latitude == nil || parsed.Longitude == nil {
		return nil, fmt.Errorf("location requires latitude and longitude")
	}
	return &models.GeoPoint{Latitude: *parsed.Latitude, Longitude: *parsed.Longitude}, nil
}

// broadcast emits a best-effort event; failures are logged and never affect
// the calling operation.
func (re Report) broadcast(event string, payload interface{}) {
	if re.Notifier == nil {
		return
	}
	if err := re.Notifier.Broadcast(event, payload); err != nil {
		zap.S().Warnw("failed to broadcast event", "event", event, "error", err)
	}
}

// unicast emits a best-effort event to one user; failures are logged only.
func (re Report) unicast(userID, event string, payload interface{}) {
	if re.Notifier == nil {
		return
	}
	if err := re.Notifier.Unicast(userID, event, payload); err != nil {
		zap.S().Warnw("failed to send user notification", "event", event, "userId", userID, "error", err)
	}
}
