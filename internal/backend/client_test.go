package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"payflow/internal/models"
	"payflow/internal/pkg/httpclient"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	h := httpclient.New().WithBaseURL(srv.URL)
	return NewWithHTTP(h, zap.NewNop())
}

// TestInitiateDispatchByKind verifies that each purchase kind hits exactly
// its own initiation endpoint.
func TestInitiateDispatchByKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		kind models.ItemKind
		path string
	}{
		{models.KindOffer, "/api/v1/payments/offers"},
		{models.KindProduct, "/api/v1/payments/products"},
		{models.KindGroupPackage, "/api/v1/payments/groups"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.kind), func(t *testing.T) {
			t.Parallel()
			var gotPath string
			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"status":            "success",
					"reference":         "R1",
					"gateway_reference": "G1",
					"payment_id":        "P1",
					"amount":            1500,
					"currency":          "XAF",
				})
			})

			init, err := client.InitiatePayment(context.Background(), models.CheckoutRequest{
				Email:           "a@b.cm",
				PaymentMethodID: "m1",
				Target:          models.PurchaseTarget{Kind: tc.kind, ID: "42"},
			})
			if err != nil {
				t.Fatalf("initiate: %v", err)
			}
			if gotPath != tc.path {
				t.Fatalf("endpoint mismatch: got %s want %s", gotPath, tc.path)
			}
			if init.Reference != "R1" || init.GatewayReference != "G1" {
				t.Fatalf("unexpected initiation: %#v", init)
			}
		})
	}
}

// TestInitiateErrorStatus ensures a non-success backend status becomes an
// InitiationError carrying the backend message.
func TestInitiateErrorStatus(t *testing.T) {
	t.Parallel()

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "error",
			"message": "insufficient funds",
		})
	})

	_, err := client.InitiatePayment(context.Background(), models.CheckoutRequest{
		Target: models.PurchaseTarget{Kind: models.KindOffer, ID: "1"},
	})
	initErr, ok := err.(*InitiationError)
	if !ok {
		t.Fatalf("expected InitiationError, got %v", err)
	}
	if initErr.Message != "insufficient funds" {
		t.Fatalf("unexpected message: %s", initErr.Message)
	}
}

// TestVerifySingleTicket decodes the single-ticket success shape into a
// one-element list.
func TestVerifySingleTicket(t *testing.T) {
	t.Parallel()

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/payments/offers/verify" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["reference"] != "R1" || body["gateway_reference"] != "G1" {
			t.Errorf("unexpected body: %#v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"ticket": map[string]string{
				"ticket_id":  "T1",
				"password":   "P1",
				"offer_name": "VIP",
			},
		})
	})

	out, err := client.VerifyPayment(context.Background(), models.KindOffer, "R1", "G1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if out.State != VerifyCompleted {
		t.Fatalf("expected completed, got %s", out.State)
	}
	if len(out.Tickets) != 1 || out.Tickets[0].TicketID != "T1" {
		t.Fatalf("unexpected tickets: %#v", out.Tickets)
	}
	if out.Package {
		t.Fatal("single offer should not be a package outcome")
	}
}

// TestVerifyMultiTicketPackage decodes the ticket-list success shape and
// marks the outcome as a package purchase.
func TestVerifyMultiTicketPackage(t *testing.T) {
	t.Parallel()

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     "success",
			"group_name": "Bundle A",
			"tickets": []map[string]string{
				{"ticket_id": "T1"},
				{"ticket_id": "T2"},
			},
		})
	})

	out, err := client.VerifyPayment(context.Background(), models.KindGroupPackage, "R1", "G1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if out.State != VerifyCompleted {
		t.Fatalf("expected completed, got %s", out.State)
	}
	if len(out.Tickets) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(out.Tickets))
	}
	if !out.Package || out.GroupName != "Bundle A" {
		t.Fatalf("unexpected outcome: %#v", out)
	}
}

// TestVerifyStatuses maps pending and error statuses to their tags.
func TestVerifyStatuses(t *testing.T) {
	t.Parallel()

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch body["reference"] {
		case "pending":
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
		case "declined":
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "card declined"})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	out, err := client.VerifyPayment(context.Background(), models.KindOffer, "pending", "G")
	if err != nil || out.State != VerifyPending {
		t.Fatalf("expected pending, got %s err=%v", out.State, err)
	}

	out, err = client.VerifyPayment(context.Background(), models.KindOffer, "declined", "G")
	if err != nil || out.State != VerifyFailed || out.Message != "card declined" {
		t.Fatalf("expected failed with message, got %#v err=%v", out, err)
	}
}

// TestVerifyTransportErrorIsTransient makes sure a dead backend yields a
// Transient outcome, never a Failed one.
func TestVerifyTransportErrorIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	h := httpclient.New().WithBaseURL(srv.URL)
	client := NewWithHTTP(h, zap.NewNop())

	out, err := client.VerifyPayment(context.Background(), models.KindOffer, "R", "G")
	if err != nil {
		t.Fatalf("transport error must not surface as error: %v", err)
	}
	if out.State != VerifyTransient || out.Err == nil {
		t.Fatalf("expected transient outcome, got %#v", out)
	}
}

// TestVerifyCancellation surfaces the caller's own cancellation so the
// poller can discard the attempt silently.
func TestVerifyCancellation(t *testing.T) {
	t.Parallel()

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.VerifyPayment(ctx, models.KindOffer, "R", "G")
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
}

// TestGetItemNotFound maps a 404 and a non-success status to ErrNotFound.
func TestGetItemNotFound(t *testing.T) {
	t.Parallel()

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	if _, err := client.GetItem(context.Background(), models.KindOffer, "9"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
