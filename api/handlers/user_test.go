package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecotrackhq/ecotrack-api/databases/mocks"
	"github.com/ecotrackhq/ecotrack-api/models"
)

func TestRegisterUserHandlerSuccess(t *testing.T) {
	udb := new(mocks.UserDatabase)
	u := User{DB: udb, JWTSecret: "test-secret"}

	udb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	udb.On("InsertOne", mock.Anything, mock.MatchedBy(func(user models.User) bool {
		return user.Points == signupStartingPoints &&
			!user.Blacklisted &&
			user.Email == "asha@example.com" &&
			user.Password != "hunter2hunter2"
	})).Return(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register",
		strings.NewReader(`{"name": "Asha", "email": "Asha@Example.com", "password": "hunter2hunter2"}`))
	rr := httptest.NewRecorder()
	u.RegisterUserHandler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	udb.AssertExpectations(t)
}

func TestRegisterUserHandlerDuplicateEmail(t *testing.T) {
	udb := new(mocks.UserDatabase)
	u := User{DB: udb}

	udb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register",
		strings.NewReader(`{"name": "Asha", "email": "asha@example.com", "password": "hunter2hunter2"}`))
	rr := httptest.NewRecorder()
	u.RegisterUserHandler(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	udb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestRegisterUserHandlerShortPassword(t *testing.T) {
	udb := new(mocks.UserDatabase)
	u := User{DB: udb}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register",
		strings.NewReader(`{"name": "Asha", "email": "asha@example.com", "password": "short"}`))
	rr := httptest.NewRecorder()
	u.RegisterUserHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	udb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestLoginUserHandlerSuccess(t *testing.T) {
	udb := new(mocks.UserDatabase)
	u := User{DB: udb, JWTSecret: "test-secret"}

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	assert.NoError(t, err)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		ID:       primitive.NewObjectID(),
		Email:    "asha@example.com",
		Password: string(hash),
		Points:   3,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		strings.NewReader(`{"email": "asha@example.com", "password": "hunter2hunter2"}`))
	rr := httptest.NewRecorder()
	u.LoginUserHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"token"`)
}

func TestLoginUserHandlerWrongPassword(t *testing.T) {
	udb := new(mocks.UserDatabase)
	u := User{DB: udb, JWTSecret: "test-secret"}

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	assert.NoError(t, err)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		Email:    "asha@example.com",
		Password: string(hash),
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		strings.NewReader(`{"email": "asha@example.com", "password": "wrong-password"}`))
	rr := httptest.NewRecorder()
	u.LoginUserHandler(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginUserHandlerBlacklisted(t *testing.T) {
	udb := new(mocks.UserDatabase)
	u := User{DB: udb, JWTSecret: "test-secret"}

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	assert.NoError(t, err)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		Email:       "asha@example.com",
		Password:    string(hash),
		Blacklisted: true,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		strings.NewReader(`{"email": "asha@example.com", "password": "hunter2hunter2"}`))
	rr := httptest.NewRecorder()
	u.LoginUserHandler(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "blacklisted")
}

func TestUserByIDHandlerNotFound(t *testing.T) {
	udb := new(mocks.UserDatabase)
	u := User{DB: udb}

	udb.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	id := primitive.NewObjectID().Hex()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+id, nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": id})
	rr := httptest.NewRecorder()
	u.UserByIDHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
