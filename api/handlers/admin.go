package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ecotrackhq/ecotrack-api/api"
	"github.com/ecotrackhq/ecotrack-api/config"
	"github.com/ecotrackhq/ecotrack-api/databases"
	"github.com/ecotrackhq/ecotrack-api/models"
)

// Admin exposes the moderation surface: dashboard counts, the user registry
// and bulk verdicts.
type Admin struct {
	RDB      databases.ReportDatabase
	UDB      databases.UserDatabase
	BDB      databases.WasteBinDatabase
	Notifier Notifier
	Mailer   *VerdictMailer
}

// DashboardStatsHandler aggregates the counts shown on the admin dashboard.
func (a Admin) DashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	totalReports, err := a.RDB.CountDocuments(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to count reports", http.StatusInternalServerError, w, err)
		return
	}
	pendingReports, err := a.RDB.CountDocuments(ctx, bson.M{"admin_status": models.AdminPending})
	if err != nil {
		config.ErrorStatus("failed to count reports", http.StatusInternalServerError, w, err)
		return
	}
	totalUsers, err := a.UDB.CountDocuments(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to count users", http.StatusInternalServerError, w, err)
		return
	}
	blacklistedUsers, err := a.UDB.CountDocuments(ctx, bson.M{"blacklisted": true})
	if err != nil {
		config.ErrorStatus("failed to count users", http.StatusInternalServerError, w, err)
		return
	}

	// bins grouped by derived status
	cursor, err := a.BDB.Aggregate(ctx, []bson.M{
		{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	})
	if err != nil {
		config.ErrorStatus("failed to aggregate bins", http.StatusInternalServerError, w, err)
		return
	}
	var grouped []struct {
		Status string `bson:"_id" json:"status"`
		Count  int64  `bson:"count" json:"count"`
	}
	if err := cursor.Decode(&grouped); err != nil {
		config.ErrorStatus("failed to decode bin counts", http.StatusInternalServerError, w, err)
		return
	}
	binsByStatus := map[string]int64{}
	var totalBins int64
	for _, g := range grouped {
		binsByStatus[g.Status] = g.Count
		totalBins += g.Count
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"totalReports":     totalReports,
		"pendingReports":   pendingReports,
		"totalUsers":       totalUsers,
		"blacklistedUsers": blacklistedUsers,
		"totalBins":        totalBins,
		"binsByStatus":     binsByStatus,
	})
}

// AdminUsersHandler lists users with paging and an optional name/email search.
func (a Admin) AdminUsersHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	filter := bson.M{}
	if q := r.URL.Query().Get("search"); q != "" {
		filter["$or"] = []bson.M{
			{"name": bson.M{"$regex": q, "$options": "i"}},
			{"email": bson.M{"$regex": q, "$options": "i"}},
		}
	}
	if v := r.URL.Query().Get("blacklisted"); v != "" {
		filter["blacklisted"] = v == "true"
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = 20
	}
	limit64 := int64(limit)
	skip64 := int64((page - 1) * limit)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	users, err := a.UDB.Find(ctx, filter, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get users", http.StatusNotFound, w, err)
		return
	}
	if len(users) == 0 {
		users = []models.User{}
	}

	total, err := a.UDB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count users", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"users": users,
		"total": total,
		"page":  page,
	})
}

// AdminUpdateUserHandler patches the moderation-controlled user fields.
func (a Admin) AdminUpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID := mux.Vars(r)["user_id"]

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("invalid user ID format", http.StatusBadRequest, w, err)
		return
	}

	var body struct {
		Points           *int  `json:"points"`
		Blacklisted      *bool `json:"blacklisted"`
		IsAdmin          *bool `json:"isAdmin"`
		IsWasteCollector *bool `json:"isWasteCollector"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"updatedAt": primitive.NewDateTimeFromTime(time.Now())}
	if body.Points != nil {
		if *body.Points < 0 {
			config.ErrorStatus("points cannot be negative", http.StatusBadRequest, w, fmt.Errorf("points %d", *body.Points))
			return
		}
		set["points"] = *body.Points
	}
	if body.Blacklisted != nil {
		set["blacklisted"] = *body.Blacklisted
	}
	if body.IsAdmin != nil {
		set["isAdmin"] = *body.IsAdmin
	}
	if body.IsWasteCollector != nil {
		set["isWasteCollector"] = *body.IsWasteCollector
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := a.UDB.UpdateOne(ctx, bson.M{"_id": uID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update user", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("user not found", http.StatusNotFound, w, fmt.Errorf("no user with id %s", userID))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "User updated successfully",
	})
}

// AdminDeleteUserHandler removes a user account.
func (a Admin) AdminDeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID := mux.Vars(r)["user_id"]

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("invalid user ID format", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := a.UDB.DeleteOne(ctx, bson.M{"_id": uID})
	if err != nil {
		config.ErrorStatus("failed to delete user", http.StatusInternalServerError, w, err)
		return
	}
	if res.DeletedCount == 0 {
		config.ErrorStatus("user not found", http.StatusNotFound, w, fmt.Errorf("no user with id %s", userID))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "User deleted successfully",
	})
}

// BulkVerdictHandler applies one verdict to a list of reports, running the
// same reputation coupling as the single-report path. Failures are reported
// per report; one bad report does not stop the batch.
func (a Admin) BulkVerdictHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		ReportIDs   []string `json:"report_ids"`
		AdminStatus string   `json:"admin_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.AdminStatus != models.AdminApproved && body.AdminStatus != models.AdminRejected {
		config.ErrorStatus("invalid admin_status value", http.StatusBadRequest, w, fmt.Errorf("admin_status %q", body.AdminStatus))
		return
	}
	if len(body.ReportIDs) == 0 {
		config.ErrorStatus("report_ids is required", http.StatusBadRequest, w, fmt.Errorf("empty report_ids"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated := 0
	failed := map[string]string{}
	now := primitive.NewDateTimeFromTime(time.Now())

	for _, id := range body.ReportIDs {
		rID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			failed[id] = "invalid report ID format"
			continue
		}
		report, err := a.RDB.FindOne(ctx, bson.M{"_id": rID})
		if err != nil {
			failed[id] = "report not found"
			continue
		}
		user, err := a.UDB.FindOne(ctx, bson.M{"_id": report.UserID})
		if err != nil {
			failed[id] = "user not found"
			continue
		}

		switch body.AdminStatus {
		case models.AdminRejected:
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

		if _, err := a.RDB.UpdateOne(ctx, bson.M{"_id": rID}, bson.M{"$set": bson.M{"admin_status": body.AdminStatus, "updatedAt": now}}); err != nil {
			failed[id] = "failed to update report"
			continue
		}
		if _, err := a.UDB.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{"points": user.Points, "blacklisted": user.Blacklisted, "updatedAt": now}}); err != nil {
			a.RDB.UpdateOne(ctx, bson.M{"_id": rID}, bson.M{"$set": bson.M{"admin_status": report.AdminStatus, "updatedAt": now}})
			failed[id] = "failed to update user"
			continue
		}
		updated++

		if a.Notifier != nil {
			a.Notifier.Unicast(report.UserID.Hex(), "notification", map[string]interface{}{
				"type":      "report_status_update",
				"message":   fmt.Sprintf("Your report has been %s", body.AdminStatus),
				"reportId":  id,
				"timestamp": time.Now(),
			})
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Bulk update finished",
		"updated": updated,
		"failed":  failed,
	})
}
