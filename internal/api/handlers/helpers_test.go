package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/julienschmidt/httprouter"

	apiContext "errdeck/internal/api/context"
	"errdeck/internal/platform/auth"
	"errdeck/internal/platform/config"
	"errdeck/internal/platform/models"
	"errdeck/internal/platform/storage"
)

// fakeStorage is an in-memory storage adapter recording every call so
// tests can assert which delegate methods ran.
type fakeStorage struct {
	configs   map[string]string
	users     []*models.User
	passwords map[string]string

	userCountErr  error
	createUserErr error
	deleteUserErr error

	calls []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		configs:   make(map[string]string),
		passwords: make(map[string]string),
	}
}

func (f *fakeStorage) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeStorage) called(name string) bool {
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (f *fakeStorage) Name() string               { return "fake" }
func (f *fakeStorage) Version() string            { return "0.0.1" }
func (f *fakeStorage) Dialect() string            { return "memory" }
func (f *fakeStorage) Ping(context.Context) error { return nil }
func (f *fakeStorage) Close() error               { return nil }

func (f *fakeStorage) GetConfig(_ context.Context, key string) (*models.ConfigItem, error) {
	f.record("GetConfig")
	value, ok := f.configs[key]
	if !ok {
		return nil, nil
	}
	return &models.ConfigItem{Key: key, Value: value}, nil
}

func (f *fakeStorage) SetConfig(_ context.Context, key, value string) (*models.ConfigItem, error) {
	f.record("SetConfig")
	f.configs[key] = value
	return &models.ConfigItem{Key: key, Value: value}, nil
}

func (f *fakeStorage) DeleteConfig(_ context.Context, key string) error {
	f.record("DeleteConfig")
	delete(f.configs, key)
	return nil
}

func (f *fakeStorage) GetUserCount(context.Context) (int, error) {
	f.record("GetUserCount")
	if f.userCountErr != nil {
		return 0, f.userCountErr
	}
	return len(f.users), nil
}

func (f *fakeStorage) CreateUser(_ context.Context, user *models.User, password string) (*models.User, error) {
	f.record("CreateUser")
	if f.createUserErr != nil {
		return nil, f.createUserErr
	}
	created := &models.User{
		ID:    "usr_" + user.Email,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
	f.users = append(f.users, created)
	f.passwords[user.Email] = password
	return created, nil
}

func (f *fakeStorage) VerifyUser(_ context.Context, email, password string) (*models.User, error) {
	f.record("VerifyUser")
	if f.passwords[email] != password {
		return nil, nil
	}
	return f.findUser(email), nil
}

func (f *fakeStorage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.record("GetUserByEmail")
	return f.findUser(email), nil
}

func (f *fakeStorage) UpdateUserByEmail(_ context.Context, email, name string) (*models.User, error) {
	f.record("UpdateUserByEmail")
	user := f.findUser(email)
	if user == nil {
		return nil, errors.New("user not found")
	}
	user.Name = name
	return user, nil
}

func (f *fakeStorage) UpdatePassword(_ context.Context, email, currentPassword, newPassword string) (*models.User, error) {
	f.record("UpdatePassword")
	if f.passwords[email] != currentPassword {
		return nil, errors.New("current password is incorrect")
	}
	f.passwords[email] = newPassword
	return f.findUser(email), nil
}

func (f *fakeStorage) GetAllUsers(context.Context) ([]*models.User, error) {
	f.record("GetAllUsers")
	return f.users, nil
}

func (f *fakeStorage) DeleteUser(_ context.Context, id string) error {
	f.record("DeleteUser")
	if f.deleteUserErr != nil {
		return f.deleteUserErr
	}
	for i, user := range f.users {
		if user.ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return errors.New("user not found")
}

var _ storage.Storage = (*fakeStorage)(nil)

func (f *fakeStorage) findUser(email string) *models.User {
	for _, user := range f.users {
		if user.Email == email {
			return user
		}
	}
	return nil
}

func (f *fakeStorage) addUser(name, email, password, role string) *models.User {
	user := &models.User{ID: "usr_" + email, Name: name, Email: email, Role: role}
	f.users = append(f.users, user)
	f.passwords[email] = password
	return user
}

func newTokenService(store storage.Storage) *auth.TokenService {
	return auth.NewTokenService(store, config.JWTConfig{})
}

func jsonapiBody(t *testing.T, attributes interface{}) *bytes.Reader {
	t.Helper()
	body := map[string]interface{}{
		"data": map[string]interface{}{"attributes": attributes},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}
	return bytes.NewReader(raw)
}

func withClaims(r *http.Request, email string) *http.Request {
	claims := &auth.Claims{Email: email}
	return r.WithContext(context.WithValue(r.Context(), apiContext.Claims, claims))
}

func withParams(r *http.Request, params httprouter.Params) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), apiContext.Params, params))
}

type envelope struct {
	Data struct {
		ID         string                 `json:"id"`
		Type       string                 `json:"type"`
		Attributes map[string]interface{} `json:"attributes"`
	} `json:"data"`
	Errors []struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	} `json:"errors"`
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode response %q: %v", body.String(), err)
	}
	return env
}
