package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"payflow/internal/backend"
	"payflow/internal/models"
	"payflow/internal/pkg/httpclient"
)

func testResolver(t *testing.T, handler http.HandlerFunc) *Resolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := backend.NewWithHTTP(httpclient.New().WithBaseURL(srv.URL), zap.NewNop())
	return NewResolver(client, zap.NewNop())
}

// TestResolveOfferFlattensCurrency checks the nested currency object is
// flattened to a plain code.
func TestResolveOfferFlattensCurrency(t *testing.T) {
	t.Parallel()

	r := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/api/v1/offers/7" {
			t.Errorf("unexpected path: %s", req.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"offer": map[string]interface{}{
				"id":       "7",
				"name":     "VIP Pass",
				"price":    "2500.00",
				"currency": map[string]string{"code": "USD"},
			},
		})
	})

	res, err := r.Resolve(context.Background(), models.KindOffer, "7", false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Item.Currency != "USD" {
		t.Fatalf("currency not flattened: %q", res.Item.Currency)
	}
	if res.Item.Kind != models.KindOffer || res.Item.Name != "VIP Pass" {
		t.Fatalf("unexpected item: %#v", res.Item)
	}
}

// TestResolveDefaultCurrency applies XAF when the platform omits currency.
func TestResolveDefaultCurrency(t *testing.T) {
	t.Parallel()

	r := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "success",
			"product": map[string]interface{}{"id": "3", "name": "Data Pack", "price": 500},
		})
	})

	res, err := r.Resolve(context.Background(), models.KindProduct, "3", false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Item.Currency != models.DefaultCurrency {
		t.Fatalf("expected default %s, got %q", models.DefaultCurrency, res.Item.Currency)
	}
}

// TestResolveInactiveOffer treats inactive as not found.
func TestResolveInactiveOffer(t *testing.T) {
	t.Parallel()

	r := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"offer":  map[string]interface{}{"id": "7", "name": "Old", "active": false},
		})
	})

	_, err := r.Resolve(context.Background(), models.KindOffer, "7", false)
	if !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestResolveListingGroupReroutes: a non-package group requested as a
// direct checkout signals a reroute, not a not-found failure.
func TestResolveListingGroupReroutes(t *testing.T) {
	t.Parallel()

	r := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"group": map[string]interface{}{
				"id":         "g1",
				"name":       "Season Events",
				"is_package": false,
				"offers": []map[string]interface{}{
					{"id": "o1", "name": "Day One", "price": 1000},
				},
			},
		})
	})

	res, err := r.Resolve(context.Background(), models.KindGroupPackage, "g1", true)
	if !errors.Is(err, ErrGroupNotPackage) {
		t.Fatalf("expected ErrGroupNotPackage, got %v", err)
	}
	if res == nil || res.Group == nil || res.Group.IsPackage {
		t.Fatalf("expected listing group context, got %#v", res)
	}
	if len(res.Group.Items) != 1 || res.Group.Items[0].ID != "o1" {
		t.Fatalf("group items not resolved: %#v", res.Group.Items)
	}
}

// TestResolvePackageGroup treats the group itself as the purchasable item.
func TestResolvePackageGroup(t *testing.T) {
	t.Parallel()

	r := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"group": map[string]interface{}{
				"id":         "g2",
				"name":       "Bundle A",
				"is_package": true,
				"price":      "9000",
				"currency":   "XAF",
			},
		})
	})

	res, err := r.Resolve(context.Background(), models.KindGroupPackage, "g2", true)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Item.Kind != models.KindGroupPackage || res.Item.Name != "Bundle A" {
		t.Fatalf("unexpected package item: %#v", res.Item)
	}
}

// TestMethodsEmptyListIsValid: an empty catalog is a valid fetch result.
func TestMethodsEmptyListIsValid(t *testing.T) {
	t.Parallel()

	r := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":          "success",
			"payment_methods": []interface{}{},
		})
	})

	methods, err := r.Methods(context.Background())
	if err != nil {
		t.Fatalf("methods: %v", err)
	}
	if len(methods) != 0 {
		t.Fatalf("expected empty list, got %d", len(methods))
	}
}
