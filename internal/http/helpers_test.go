package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"canteen/internal/config"
	"canteen/internal/events"
	"canteen/internal/http/handlers"
	"canteen/internal/repos"
)

type testApp struct {
	app  *fiber.App
	db   *sqlx.DB
	deps *handlers.Deps
	csrf string
}

// newTestApp runs the real middleware chain and routes over a seeded
// in-memory database. Sessions sid-admin, sid-asha and sid-ravi are bound.
func newTestApp(t *testing.T, lim handlers.Limits) *testApp {
	t.Helper()
	cfg := config.Config{DBDriver: "sqlite", DBDSN: ":memory:", TemplatesDir: "../../web/templates"}
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN, true)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	users := repos.NewUserRepo(db)
	for sid, uid := range map[string]string{"sid-admin": "u-admin", "sid-asha": "u-asha", "sid-ravi": "u-ravi"} {
		if err := users.BindSession(context.Background(), sid, uid); err != nil {
			t.Fatalf("bind session: %v", err)
		}
	}

	deps := handlers.NewDeps(db, cfg, events.Nop{})
	ta := &testApp{app: handlers.NewApp(cfg, deps, lim), db: db, deps: deps}

	resp, err := ta.app.Test(httptest.NewRequest("GET", "/healthz", nil))
	if err != nil {
		t.Fatal(err)
	}
	ta.csrf = cookie(resp, "csrf_")
	if ta.csrf == "" {
		t.Fatal("csrf token missing")
	}
	return ta
}

var roomyLimits = handlers.Limits{Global: 1000, OrderCreate: 100, Login: 100}

func cookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// do sends a request as the given session ("" for anonymous) with the CSRF
// header and cookie set.
func (ta *testApp) do(t *testing.T, method, path, sid, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Csrf-Token", ta.csrf)
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: ta.csrf})
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected %d, got %d body=%s", want, resp.StatusCode, b)
	}
}

type itemJSON struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	PriceAtTime string `json:"priceAtTime"`
	Subtotal    string `json:"subtotal"`
	Product     *struct {
		Price string `json:"price"`
	} `json:"product"`
}

type orderJSON struct {
	ID                 int64      `json:"id"`
	OrderCode          string     `json:"orderCode"`
	UserID             string     `json:"userId"`
	Status             string     `json:"status"`
	TotalAmount        string     `json:"totalAmount"`
	PaymentMethod      string     `json:"paymentMethod"`
	PaymentMethodLabel string     `json:"paymentMethodLabel"`
	PaymentStatus      string     `json:"paymentStatus"`
	Items              []itemJSON `json:"items"`
}

func (ta *testApp) placeOrder(t *testing.T, sid, body string) orderJSON {
	t.Helper()
	resp := ta.do(t, "POST", "/api/orders", sid, body)
	expectStatus(t, resp, http.StatusCreated)
	var o orderJSON
	decode(t, resp, &o)
	return o
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
