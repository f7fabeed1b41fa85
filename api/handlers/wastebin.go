package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ecotrackhq/ecotrack-api/api"
	"github.com/ecotrackhq/ecotrack-api/config"
	"github.com/ecotrackhq/ecotrack-api/databases"
	"github.com/ecotrackhq/ecotrack-api/models"
)

// WasteBin exposes the bin registry: CRUD for admins, filtered listings for
// everyone, and the sensor capacity feed.
type WasteBin struct {
	DB       databases.WasteBinDatabase
	Notifier Notifier
}

// WasteBinsHandler lists bins, optionally filtered by ward, zone, category or
// status query parameters.
func (wb WasteBin) WasteBinsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	filter := bson.M{}
	for _, key := range []string{"ward", "zone", "category", "status"} {
		if v := r.URL.Query().Get(key); v != "" {
			filter[key] = v
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := wb.DB.Find(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to get waste bins", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.WasteBin{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// WasteBinByIDHandler returns a waste bin by ID
func (wb WasteBin) WasteBinByIDHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	binID := mux.Vars(r)["bin_id"]

	bID, err := primitive.ObjectIDFromHex(binID)
	if err != nil {
		config.ErrorStatus("invalid bin ID format", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	bin, err := wb.DB.FindOne(ctx, bson.M{"_id": bID})
	if err != nil {
		config.ErrorStatus("bin not found", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(bin)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateWasteBinHandler registers a new bin.
func (wb WasteBin) CreateWasteBinHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var bin models.WasteBin
	if err := json.NewDecoder(r.Body).Decode(&bin); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if bin.Ward == "" || bin.Zone == "" || bin.BinType == "" {
		config.ErrorStatus("ward, zone and binType are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}
	if bin.TotalCapacity <= 0 {
		config.ErrorStatus("totalCapacity must be positive", http.StatusBadRequest, w, fmt.Errorf("totalCapacity %v", bin.TotalCapacity))
		return
	}

	bin.ID = primitive.NewObjectID()
	if bin.Status == "" {
		bin.Status = models.BinEmpty
	}
	now := primitive.NewDateTimeFromTime(time.Now())
	bin.CreatedAt = now
	bin.UpdatedAt = now

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := wb.DB.InsertOne(ctx, bin); err != nil {
		config.ErrorStatus("failed to create waste bin", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Waste bin created successfully",
		"bin":     bin,
	})
}

// UpdateWasteBinHandler updates bin registry fields.
func (wb WasteBin) UpdateWasteBinHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	binID := mux.Vars(r)["bin_id"]

	bID, err := primitive.ObjectIDFromHex(binID)
	if err != nil {
		config.ErrorStatus("invalid bin ID format", http.StatusBadRequest, w, err)
		return
	}

	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	// identity and timestamps are server controlled
	delete(updates, "_id")
	delete(updates, "createdAt")
	updates["updatedAt"] = primitive.NewDateTimeFromTime(time.Now())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := wb.DB.UpdateOne(ctx, bson.M{"_id": bID}, bson.M{"$set": updates})
	if err != nil {
		config.ErrorStatus("failed to update waste bin", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("bin not found", http.StatusNotFound, w, fmt.Errorf("no bin with id %s", binID))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":       "Waste bin updated successfully",
		"modifiedCount": res.ModifiedCount,
	})
}

// DeleteWasteBinHandler removes a bin from the registry.
func (wb WasteBin) DeleteWasteBinHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	binID := mux.Vars(r)["bin_id"]

	bID, err := primitive.ObjectIDFromHex(binID)
	if err != nil {
		config.ErrorStatus("invalid bin ID format", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := wb.DB.DeleteOne(ctx, bson.M{"_id": bID})
	if err != nil {
		config.ErrorStatus("failed to delete waste bin", http.StatusInternalServerError, w, err)
		return
	}
	if res.DeletedCount == 0 {
		config.ErrorStatus("bin not found", http.StatusNotFound, w, fmt.Errorf("no bin with id %s", binID))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Waste bin deleted successfully",
	})
}

// SimulateCapacityHandler ingests a sensor capacity reading, derives the bin
// status from the fill percentage and broadcasts the change. Bins flagged for
// maintenance keep their status.
func (wb WasteBin) SimulateCapacityHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	binID := mux.Vars(r)["bin_id"]

	bID, err := primitive.ObjectIDFromHex(binID)
	if err != nil {
		config.ErrorStatus("invalid bin ID format", http.StatusBadRequest, w, err)
		return
	}

	var body struct {
		RealTimeCapacity *float64 `json:"realTimeCapacity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.RealTimeCapacity == nil || *body.RealTimeCapacity < 0 {
		config.ErrorStatus("realTimeCapacity must be a non-negative number", http.StatusBadRequest, w, fmt.Errorf("invalid capacity"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	bin, err := wb.DB.FindOne(ctx, bson.M{"_id": bID})
	if err != nil {
		config.ErrorStatus("bin not found", http.StatusNotFound, w, err)
		return
	}

	capacity := *body.RealTimeCapacity
	if capacity > bin.TotalCapacity {
		capacity = bin.TotalCapacity
	}

	status := bin.Status
	if bin.Status != models.BinMaintenance && bin.TotalCapacity > 0 {
		status = models.StatusForCapacity(capacity / bin.TotalCapacity * 100)
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	if _, err := wb.DB.UpdateOne(ctx, bson.M{"_id": bID}, bson.M{"$set": bson.M{
		"realTimeCapacity": capacity,
		"status":           status,
		"updatedAt":        now,
	}}); err != nil {
		config.ErrorStatus("failed to update waste bin", http.StatusInternalServerError, w, err)
		return
	}

	bin.RealTimeCapacity = capacity
	bin.Status = status
	bin.UpdatedAt = now

	if wb.Notifier != nil {
		if err := wb.Notifier.Broadcast("binUpdate", map[string]interface{}{
			"binId":            binID,
			"status":           status,
			"realTimeCapacity": capacity,
			"ward":             bin.Ward,
		}); err != nil {
			zap.S().Warnw("failed to broadcast bin update", "binId", binID, "error", err)
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Bin capacity updated",
		"bin":     bin,
	})
}
