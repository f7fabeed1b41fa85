package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecotrackhq/ecotrack-api/api"
	"github.com/ecotrackhq/ecotrack-api/config"
	"github.com/ecotrackhq/ecotrack-api/databases"
	"github.com/ecotrackhq/ecotrack-api/models"
)

// User exposes registration, login and profile lookups.
type User struct {
	DB        databases.UserDatabase
	JWTSecret string
}

// signupStartingPoints seeds new accounts so a single early rejection does
// not blacklist them immediately.
const signupStartingPoints = 3

// tokenTTL is how long a login token stays valid.
const tokenTTL = 24 * time.Hour

// RegisterUserHandler creates a citizen account with a bcrypt password hash.
func (u User) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		PhoneNo  string `json:"phoneNo"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	if body.Name == "" || body.Email == "" || body.Password == "" {
		config.ErrorStatus("name, email and password are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}
	if len(body.Password) < 8 {
		config.ErrorStatus("password must be at least 8 characters long", http.StatusBadRequest, w, fmt.Errorf("password too short"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	count, err := u.DB.CountDocuments(ctx, bson.M{"email": body.Email})
	if err != nil {
		config.ErrorStatus("failed to check existing users", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("email is already registered", http.StatusConflict, w, fmt.Errorf("duplicate email"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      body.Name,
		Email:     body.Email,
		PhoneNo:   body.PhoneNo,
		Password:  string(hash),
		Points:    signupStartingPoints,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := u.DB.InsertOne(ctx, user); err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "User registered successfully",
		"user":    user,
	})
}

// LoginUserHandler checks credentials and issues a signed JWT carrying the
// role claims the route middleware checks.
func (u User) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, bson.M{"email": body.Email})
	if err != nil {
		config.ErrorStatus("invalid email or password", http.StatusUnauthorized, w, fmt.Errorf("unknown email"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		config.ErrorStatus("invalid email or password", http.StatusUnauthorized, w, fmt.Errorf("password mismatch"))
		return
	}

	if user.Blacklisted {
		config.ErrorStatus("account is blacklisted", http.StatusForbidden, w, fmt.Errorf("blacklisted user"))
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":              user.ID.Hex(),
		"email":            user.Email,
		"isAdmin":          user.IsAdmin,
		"isWasteCollector": user.IsWasteCollector,
		"exp":              time.Now().Add(tokenTTL).Unix(),
		"iat":              time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(u.JWTSecret))
	if err != nil {
		config.ErrorStatus("failed to sign token", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Login successful",
		"token":   signed,
		"user":    user,
	})
}

// UserByIDHandler returns a user by ID
func (u User) UserByIDHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID := mux.Vars(r)["user_id"]

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("invalid user ID format", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, bson.M{"_id": uID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(user)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
