package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"canteen/internal/repos"
)

// seeded passwords are stored as bcrypt hashes
func TestPasswordsSeededAreHashed(t *testing.T) {
	db, err := repos.OpenDB("sqlite", ":memory:", true)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	var hashes []string
	if err := db.Select(&hashes, `SELECT password_hash FROM users`); err != nil {
		t.Fatalf("select hashes: %v", err)
	}
	if len(hashes) == 0 {
		t.Fatal("no users seeded")
	}
	for _, h := range hashes {
		if strings.Contains(h, "Passw0rd!") {
			t.Fatalf("hash contains plaintext password")
		}
		if !strings.HasPrefix(h, "$2") {
			t.Fatalf("unexpected hash format: %s", h)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(h), []byte("Passw0rd!")); err != nil {
			t.Fatalf("seed hash does not validate known password: %v", err)
		}
	}
}

func TestLoginSuccessFailAndThrottle(t *testing.T) {
	lim := roomyLimits
	lim.Login = 2
	ta := newTestApp(t, lim)

	resp := ta.do(t, "POST", "/api/auth/login", "", `{"mobile":"9000000002","password":"wrongpass!"}`)
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = ta.do(t, "POST", "/api/auth/login", "", `{"mobile":"9000000002","password":"Passw0rd!"}`)
	expectStatus(t, resp, http.StatusOK)
	sid := cookie(resp, "sid")
	if sid == "" {
		t.Fatal("no session cookie after login")
	}
	var body struct {
		User struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
	}
	decode(t, resp, &body)
	if body.User.ID != "u-asha" || body.User.Role != "student" {
		t.Fatalf("unexpected user: %+v", body.User)
	}

	me := ta.do(t, "GET", "/api/auth/me", sid, "")
	expectStatus(t, me, http.StatusOK)

	// a third attempt inside the window is throttled
	resp = ta.do(t, "POST", "/api/auth/login", "", `{"mobile":"9000000002","password":"wrongpass!"}`)
	expectStatus(t, resp, http.StatusTooManyRequests)
}

func TestLoginRotatesSession(t *testing.T) {
	ta := newTestApp(t, roomyLimits)
	resp := ta.do(t, "POST", "/api/auth/login", "sid-fixed", `{"mobile":"9000000003","password":"Passw0rd!"}`)
	expectStatus(t, resp, http.StatusOK)
	if sid := cookie(resp, "sid"); sid == "" || sid == "sid-fixed" {
		t.Fatalf("expected a fresh session id, got %q", sid)
	}
}

func TestLogoutUnbindsSession(t *testing.T) {
	ta := newTestApp(t, roomyLimits)

	expectStatus(t, ta.do(t, "GET", "/api/auth/me", "sid-ravi", ""), http.StatusOK)
	expectStatus(t, ta.do(t, "POST", "/api/auth/logout", "sid-ravi", ""), http.StatusOK)
	expectStatus(t, ta.do(t, "GET", "/api/auth/me", "sid-ravi", ""), http.StatusUnauthorized)
}

func TestMalformedLoginBody(t *testing.T) {
	ta := newTestApp(t, roomyLimits)
	resp := ta.do(t, "POST", "/api/auth/login", "", `{"mobile":`)
	expectStatus(t, resp, http.StatusBadRequest)
}
