package handlers_test

import (
	"net/http"
	"testing"
)

func TestAdminRoutesRequireAdmin(t *testing.T) {
	ta := newTestApp(t, roomyLimits)

	routes := []struct{ method, path, body string }{
		{"POST", "/api/products", `{"name":"Vada Pav","category":"Snacks","price":"20.00"}`},
		{"PATCH", "/api/products/1", `{"price":"1.00"}`},
		{"DELETE", "/api/products/1", ""},
		{"PATCH", "/api/orders/1/status", `{"status":"confirmed"}`},
		{"POST", "/api/orders/1/force-status", `{"status":"completed"}`},
		{"GET", "/api/admin/summary", ""},
	}
	for _, r := range routes {
		if resp := ta.do(t, r.method, r.path, "", r.body); resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s anonymous: expected 401, got %d", r.method, r.path, resp.StatusCode)
		}
		if resp := ta.do(t, r.method, r.path, "sid-asha", r.body); resp.StatusCode != http.StatusForbidden {
			t.Fatalf("%s %s student: expected 403, got %d", r.method, r.path, resp.StatusCode)
		}
	}

	// the catalog is untouched
	resp := ta.do(t, "GET", "/api/products/1", "", "")
	expectStatus(t, resp, http.StatusOK)
	var p struct {
		Price string `json:"price"`
	}
	decode(t, resp, &p)
	if p.Price != "60.00" {
		t.Fatalf("product changed by non-admin: %s", p.Price)
	}
}

func TestOrderRoutesRequireLogin(t *testing.T) {
	ta := newTestApp(t, roomyLimits)
	expectStatus(t, ta.do(t, "POST", "/api/orders", "", `{"items":[{"productId":1,"quantity":1}],"paymentMethod":"cod"}`), http.StatusUnauthorized)
	expectStatus(t, ta.do(t, "GET", "/api/orders", "", ""), http.StatusUnauthorized)
	expectStatus(t, ta.do(t, "GET", "/api/orders/1", "sid-unknown", ""), http.StatusUnauthorized)
}

func TestAdminProductCRUD(t *testing.T) {
	ta := newTestApp(t, roomyLimits)

	resp := ta.do(t, "POST", "/api/products", "sid-admin", `{"name":"Vada Pav","description":"Mumbai style","category":"Snacks","price":20}`)
	expectStatus(t, resp, http.StatusCreated)
	var p struct {
		ID          int64  `json:"id"`
		Price       string `json:"price"`
		IsAvailable bool   `json:"isAvailable"`
	}
	decode(t, resp, &p)
	if p.ID == 0 || p.Price != "20.00" || !p.IsAvailable {
		t.Fatalf("unexpected product: %+v", p)
	}

	expectStatus(t, ta.do(t, "PATCH", "/api/products/999", "sid-admin", `{"price":"1.00"}`), http.StatusNotFound)
	expectStatus(t, ta.do(t, "DELETE", "/api/products/999", "sid-admin", ""), http.StatusNotFound)
	expectStatus(t, ta.do(t, "GET", "/api/products/abc", "", ""), http.StatusNotFound)

	var list struct {
		Products []struct {
			Name string `json:"name"`
		} `json:"products"`
	}
	resp = ta.do(t, "GET", "/api/products", "", "")
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &list)
	if len(list.Products) != 8 {
		t.Fatalf("expected 8 products, got %d", len(list.Products))
	}
}
