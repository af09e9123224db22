package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestRegisterAndLogin(t *testing.T) {
	db := openTestDB(t)
	uc := UserController{}

	register := httptest.NewRequest("POST", "/register",
		strings.NewReader(`{"name":"alice","email":"alice@example.com","password":"hunter22"}`))
	rr := httptest.NewRecorder()
	uc.Register(db)(rr, register)

	if rr.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rr.Code, rr.Body.String())
	}
	var registered struct {
		Token string `json:"token"`
		User  struct {
			ID    int    `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &registered); err != nil {
		t.Fatalf("decode register body: %v", err)
	}
	if registered.Token == "" {
		t.Errorf("register returned no token")
	}
	if registered.User.ID == 0 || registered.User.Email != "alice@example.com" {
		t.Errorf("user = %+v", registered.User)
	}

	login := httptest.NewRequest("POST", "/login",
		strings.NewReader(`{"email":"alice@example.com","password":"hunter22"}`))
	rr = httptest.NewRecorder()
	uc.Login(db)(rr, login)

	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "hunter22") {
		t.Errorf("password leaked in login response")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	uc := UserController{}

	body := `{"name":"alice","email":"dup@example.com","password":"hunter22"}`

	rr := httptest.NewRecorder()
	uc.Register(db)(rr, httptest.NewRequest("POST", "/register", strings.NewReader(body)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("first register: status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	uc.Register(db)(rr, httptest.NewRequest("POST", "/register", strings.NewReader(body)))
	if rr.Code != http.StatusConflict {
		t.Errorf("second register: status = %d, want 409", rr.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	db := openTestDB(t)
	uc := UserController{}

	rr := httptest.NewRecorder()
	uc.Register(db)(rr, httptest.NewRequest("POST", "/register",
		strings.NewReader(`{"name":"alice","email":"alice@example.com","password":"hunter22"}`)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: status = %d", rr.Code)
	}

	tests := []struct {
		name string
		body string
	}{
		{"wrong password", `{"email":"alice@example.com","password":"wrong"}`},
		{"unknown email", `{"email":"nobody@example.com","password":"hunter22"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			uc.Login(db)(rr, httptest.NewRequest("POST", "/login", strings.NewReader(tt.body)))
			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rr.Code)
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	db := openTestDB(t)
	uc := UserController{}

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"email":"a@example.com","password":"hunter22"}`},
		{"bad email", `{"name":"a","email":"not-an-email","password":"hunter22"}`},
		{"short password", `{"name":"a","email":"a@example.com","password":"abc"}`},
		{"malformed json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			uc.Register(db)(rr, httptest.NewRequest("POST", "/register", strings.NewReader(tt.body)))
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestGetMe(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")
	uc := UserController{}

	req := httptest.NewRequest("GET", "/getMe", nil)
	authorize(t, req, user)
	rr := httptest.NewRecorder()
	uc.GetMe(db)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var got struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.ID != user || got.Name != "alice" {
		t.Errorf("got %+v, want alice (%d)", got, user)
	}

	// No token means 401.
	rr = httptest.NewRecorder()
	uc.GetMe(db)(rr, httptest.NewRequest("GET", "/getMe", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rr.Code)
	}
}
