package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecotrackhq/ecotrack-api/api"
	"github.com/ecotrackhq/ecotrack-api/config"
	"github.com/ecotrackhq/ecotrack-api/databases"
	"github.com/ecotrackhq/ecotrack-api/models"
)

// Settings manages the single system settings document.
type Settings struct {
	DB databases.SettingsDatabase
}

// SettingsHandler returns the settings document, creating the defaults on
// first read.
func (s Settings) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	settings, err := s.DB.FindOne(ctx, bson.M{})
	if err != nil {
		defaults := models.DefaultSettings()
		defaults.ID = primitive.NewObjectID()
		defaults.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())
		if _, insErr := s.DB.InsertOne(ctx, defaults); insErr != nil {
			config.ErrorStatus("failed to create default settings", http.StatusInternalServerError, w, insErr)
			return
		}
		settings = &defaults
	}

	b, err := json.Marshal(settings)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateSettingsHandler merges the posted sections into the settings document.
func (s Settings) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Notifications *models.NotificationSettings `json:"notifications"`
		System        *models.SystemSettings       `json:"system"`
		Thresholds    *models.ThresholdSettings    `json:"thresholds"`
		Security      *models.SecuritySettings     `json:"security"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"updatedAt": primitive.NewDateTimeFromTime(time.Now())}
	if body.Notifications != nil {
		set["notifications"] = *body.Notifications
	}
	if body.System != nil {
		set["system"] = *body.System
	}
	if body.Thresholds != nil {
		set["thresholds"] = *body.Thresholds
	}
	if body.Security != nil {
		set["security"] = *body.Security
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := s.DB.UpdateOne(ctx, bson.M{}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update settings", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Settings updated successfully",
	})
}

// ResetSettingsHandler drops the stored document and recreates the defaults.
func (s Settings) ResetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := s.DB.DeleteMany(ctx, bson.M{}); err != nil {
		config.ErrorStatus("failed to reset settings", http.StatusInternalServerError, w, err)
		return
	}

	defaults := models.DefaultSettings()
	defaults.ID = primitive.NewObjectID()
	defaults.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())
	if _, err := s.DB.InsertOne(ctx, defaults); err != nil {
		config.ErrorStatus("failed to create default settings", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":  "Settings reset to defaults",
		"settings": defaults,
	})
}
