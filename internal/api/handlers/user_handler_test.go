package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"

	"errdeck/internal/platform/models"
)

func TestCreateUser_Bootstrap(t *testing.T) {
	store := newFakeStorage()
	h := NewUserHandler(store, newTokenService(store))

	body := jsonapiBody(t, map[string]interface{}{
		"name":     "A",
		"email":    "a@x.com",
		"password": "p",
		"role":     "admin",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", body)
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	env := decodeEnvelope(t, rr.Body)
	if env.Data.Type != "users" {
		t.Errorf("Expected resource type users, got %s", env.Data.Type)
	}
	token, _ := env.Data.Attributes["token"].(string)
	if token == "" {
		t.Error("Expected a signed token in the response")
	}
	if !store.called("CreateUser") {
		t.Error("Expected CreateUser to be invoked")
	}
}

func TestCreateUser_ConflictWhenAccountExists(t *testing.T) {
	store := newFakeStorage()
	store.addUser("Admin", "admin@x.com", "p", models.RoleAdmin)
	h := NewUserHandler(store, newTokenService(store))

	body := jsonapiBody(t, map[string]interface{}{
		"email":    "b@x.com",
		"password": "p",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", body)
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", rr.Code)
	}
	env := decodeEnvelope(t, rr.Body)
	if len(env.Errors) != 1 || env.Errors[0].Error != "Conflict" {
		t.Fatalf("Expected a Conflict error, got %+v", env.Errors)
	}
	if env.Errors[0].Message != "Main account already created" {
		t.Errorf("Unexpected conflict message: %s", env.Errors[0].Message)
	}
	if store.called("CreateUser") {
		t.Error("CreateUser must not run once an account exists")
	}
}

func TestCreateUser_StorageError(t *testing.T) {
	store := newFakeStorage()
	store.userCountErr = errors.New("storage error")
	h := NewUserHandler(store, newTokenService(store))

	body := jsonapiBody(t, map[string]interface{}{"email": "a@x.com", "password": "p"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", body)
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rr.Code)
	}
	env := decodeEnvelope(t, rr.Body)
	if env.Errors[0].Message != "storage error" {
		t.Errorf("Expected the storage error message, got %s", env.Errors[0].Message)
	}
}

func TestLoginUser_MissingFields(t *testing.T) {
	store := newFakeStorage()
	h := NewUserHandler(store, newTokenService(store))

	body := jsonapiBody(t, map[string]interface{}{"email": "a@x.com"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", body)
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
	if len(store.calls) != 0 {
		t.Errorf("No storage call may happen before validation, got %v", store.calls)
	}
}

func TestLoginUser_InvalidCredentials(t *testing.T) {
	store := newFakeStorage()
	store.addUser("A", "a@x.com", "right", models.RoleAdmin)
	h := NewUserHandler(store, newTokenService(store))

	body := jsonapiBody(t, map[string]interface{}{"email": "a@x.com", "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", body)
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", rr.Code)
	}
}

func TestLoginUser_Success(t *testing.T) {
	store := newFakeStorage()
	store.addUser("A", "a@x.com", "p", models.RoleAdmin)
	h := NewUserHandler(store, newTokenService(store))

	body := jsonapiBody(t, map[string]interface{}{"email": "a@x.com", "password": "p"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", body)
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	env := decodeEnvelope(t, rr.Body)
	if token, _ := env.Data.Attributes["token"].(string); token == "" {
		t.Error("Expected a signed token in the response")
	}
}

func TestGetProfile_MissingPrincipal(t *testing.T) {
	store := newFakeStorage()
	h := NewUserHandler(store, newTokenService(store))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	rr := httptest.NewRecorder()

	h.GetProfile(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 without a principal, got %d", rr.Code)
	}
}

func TestAddUser_NonAdminForbidden(t *testing.T) {
	store := newFakeStorage()
	store.addUser("Admin", "admin@x.com", "p", models.RoleAdmin)
	store.addUser("User", "user@x.com", "p", models.RoleUser)
	h := NewUserHandler(store, newTokenService(store))

	body := jsonapiBody(t, map[string]interface{}{
		"email":    "new@x.com",
		"password": "p",
		"role":     "user",
	})
	req := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/users/add", body), "user@x.com")
	rr := httptest.NewRecorder()

	h.Add(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d", rr.Code)
	}
	if store.called("CreateUser") {
		t.Error("CreateUser must not run for a non-admin caller")
	}
}

func TestAddUser_AdminCreatesWithDefaultName(t *testing.T) {
	store := newFakeStorage()
	store.addUser("Admin", "admin@x.com", "p", models.RoleAdmin)
	h := NewUserHandler(store, newTokenService(store))

	body := jsonapiBody(t, map[string]interface{}{
		"email":    "new@x.com",
		"password": "p",
		"role":     "user",
	})
	req := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/users/add", body), "admin@x.com")
	rr := httptest.NewRecorder()

	h.Add(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	env := decodeEnvelope(t, rr.Body)
	if name, _ := env.Data.Attributes["name"].(string); name != "User" {
		t.Errorf("Expected default display name User, got %q", name)
	}
}

func TestRemoveUser_NonAdminForbidden(t *testing.T) {
	store := newFakeStorage()
	store.addUser("Admin", "admin@x.com", "p", models.RoleAdmin)
	target := store.addUser("User", "user@x.com", "p", models.RoleUser)
	h := NewUserHandler(store, newTokenService(store))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/"+target.ID, nil)
	req = withClaims(req, "user@x.com")
	req = withParams(req, httprouter.Params{{Key: "user_id", Value: target.ID}})
	rr := httptest.NewRecorder()

	h.Remove(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d", rr.Code)
	}
	if store.called("DeleteUser") {
		t.Error("DeleteUser must not run for a non-admin caller")
	}
}

func TestRemoveUser_DeleteFailure(t *testing.T) {
	store := newFakeStorage()
	store.addUser("Admin", "admin@x.com", "p", models.RoleAdmin)
	store.deleteUserErr = errors.New("delete failed")
	h := NewUserHandler(store, newTokenService(store))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/usr_x", nil)
	req = withClaims(req, "admin@x.com")
	req = withParams(req, httprouter.Params{{Key: "user_id", Value: "usr_x"}})
	rr := httptest.NewRecorder()

	h.Remove(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rr.Code)
	}
	env := decodeEnvelope(t, rr.Body)
	if env.Errors[0].Message != "An internal server error occurred" {
		t.Errorf("Expected the generic internal message, got %s", env.Errors[0].Message)
	}
}

func TestAdminName(t *testing.T) {
	store := newFakeStorage()
	store.addUser("User", "user@x.com", "p", models.RoleUser)
	store.addUser("Root", "admin@x.com", "p", models.RoleAdmin)
	h := NewUserHandler(store, newTokenService(store))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/admin-name", nil)
	rr := httptest.NewRecorder()

	h.AdminName(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	env := decodeEnvelope(t, rr.Body)
	if name, _ := env.Data.Attributes["name"].(string); name != "Root" {
		t.Errorf("Expected admin name Root, got %q", name)
	}
}

func TestAdminName_NoAdmin(t *testing.T) {
	store := newFakeStorage()
	store.addUser("User", "user@x.com", "p", models.RoleUser)
	h := NewUserHandler(store, newTokenService(store))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/admin-name", nil)
	rr := httptest.NewRecorder()

	h.AdminName(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	env := decodeEnvelope(t, rr.Body)
	if len(env.Data.Attributes) != 0 {
		t.Errorf("Expected empty attributes when no admin exists, got %v", env.Data.Attributes)
	}
}

func TestGetTotalUsers(t *testing.T) {
	store := newFakeStorage()
	store.addUser("A", "a@x.com", "p", models.RoleAdmin)
	store.addUser("B", "b@x.com", "p", models.RoleUser)
	h := NewUserHandler(store, newTokenService(store))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/count", nil)
	rr := httptest.NewRecorder()

	h.Count(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	env := decodeEnvelope(t, rr.Body)
	if count, _ := env.Data.Attributes["count"].(float64); count != 2 {
		t.Errorf("Expected count 2, got %v", env.Data.Attributes["count"])
	}
}

func TestGetTotalUsers_ErrorUsesStandardEnvelope(t *testing.T) {
	store := newFakeStorage()
	store.userCountErr = errors.New("storage down")
	h := NewUserHandler(store, newTokenService(store))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/count", nil)
	rr := httptest.NewRecorder()

	h.Count(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rr.Code)
	}
	env := decodeEnvelope(t, rr.Body)
	if len(env.Errors) != 1 || env.Errors[0].Error != "Internal Server Error" {
		t.Fatalf("Expected the standard errors envelope, got %s", rr.Body.String())
	}
}
