package moncash_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/afepanou/payments/internal"
	moncashtypes "github.com/afepanou/payments/internal/core/datamodel/moncash"
	"github.com/afepanou/payments/internal/moncash"
)

func TestMonCashClient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "MonCash Client Suite")
}

// fakeProvider simulates the MonCash REST API for client tests.
type fakeProvider struct {
	server *httptest.Server

	tokenCalls    int64
	tokenStatus   int
	tokenExpires  int64
	rejectCreate  bool
	createdOrders []string
	payments      map[string]moncashtypes.PaymentDetails
}

func newFakeProvider() *fakeProvider {
	f := &fakeProvider{
		tokenStatus:  http.StatusOK,
		tokenExpires: 59,
		payments:     make(map[string]moncashtypes.PaymentDetails),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", f.handleToken)
	mux.HandleFunc("/v1/CreatePayment", f.handleCreate)
	mux.HandleFunc("/v1/RetrieveTransactionPayment", f.handleRetrieveTransaction)
	mux.HandleFunc("/v1/RetrieveOrderPayment", f.handleRetrieveOrder)

	f.server = httptest.NewServer(mux)
	return f
}

func (f *fakeProvider) handleToken(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&f.tokenCalls, 1)

	user, pass, ok := r.BasicAuth()
	if !ok || user != "test-client" || pass != "test-secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if f.tokenStatus != http.StatusOK {
		w.WriteHeader(f.tokenStatus)
		w.Write([]byte(`{"error": "invalid_client"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(moncashtypes.TokenResponse{
		AccessToken: "fake-access-token",
		TokenType:   "Bearer",
		ExpiresIn:   f.tokenExpires,
	})
}

func (f *fakeProvider) requireBearer(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer fake-access-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func (f *fakeProvider) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !f.requireBearer(w, r) {
		return
	}

	if f.rejectCreate {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(moncashtypes.ErrorPayload{
			Status:  422,
			Error:   "Unprocessable Entity",
			Message: "order id already used",
			Path:    "/v1/CreatePayment",
		})
		return
	}

	var req moncashtypes.CreatePaymentRequest
	json.NewDecoder(r.Body).Decode(&req)
	f.createdOrders = append(f.createdOrders, req.OrderID)

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(moncashtypes.CreatePaymentResponse{
		Mode:   "sandbox",
		Status: 202,
		PaymentToken: moncashtypes.PaymentToken{
			Token: "payment-token-" + req.OrderID,
		},
	})
}

func (f *fakeProvider) handleRetrieveTransaction(w http.ResponseWriter, r *http.Request) {
	if !f.requireBearer(w, r) {
		return
	}

	var req moncashtypes.RetrieveByTransactionRequest
	json.NewDecoder(r.Body).Decode(&req)

	details, exists := f.payments[req.TransactionID]
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(moncashtypes.ErrorPayload{
			Status:  404,
			Message: "transaction not found",
		})
		return
	}

	json.NewEncoder(w).Encode(moncashtypes.RetrieveResponse{
		Payment: details,
		Status:  200,
	})
}

func (f *fakeProvider) handleRetrieveOrder(w http.ResponseWriter, r *http.Request) {
	if !f.requireBearer(w, r) {
		return
	}

	var req moncashtypes.RetrieveByOrderRequest
	json.NewDecoder(r.Body).Decode(&req)

	for _, details := range f.payments {
		if details.OrderID == req.OrderID {
			json.NewEncoder(w).Encode(moncashtypes.RetrieveResponse{
				Payment: details,
				Status:  200,
			})
			return
		}
	}

	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(moncashtypes.ErrorPayload{
		Status:  404,
		Message: "order not found",
	})
}

var _ = Describe("Client", func() {
	var (
		provider *fakeProvider
		client   *moncash.Client
		logger   *slog.Logger
		ctx      context.Context
	)

	BeforeEach(func() {
		provider = newFakeProvider()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ctx = context.Background()

		client = moncash.NewClient(moncash.Config{
			ClientID:     "test-client",
			ClientSecret: "test-secret",
			BaseURL:      provider.server.URL,
			GatewayURL:   provider.server.URL + "/Moncash-middleware",
			Timeout:      5 * time.Second,
		}, logger)
	})

	AfterEach(func() {
		provider.server.Close()
	})

	Describe("Authenticate", func() {
		It("should exchange credentials for a bearer token", func() {
			token, err := client.Authenticate(ctx)

			Expect(err).ToNot(HaveOccurred())
			Expect(token).To(Equal("fake-access-token"))
		})

		It("should reuse the cached token until it expires", func() {
			_, err := client.Authenticate(ctx)
			Expect(err).ToNot(HaveOccurred())

			_, err = client.Authenticate(ctx)
			Expect(err).ToNot(HaveOccurred())

			Expect(atomic.LoadInt64(&provider.tokenCalls)).To(Equal(int64(1)))
		})

		It("should re-authenticate when the token lifetime is too short to cache", func() {
			// expires_in below the safety skew means the token is treated
			// as already expired on the next call
			provider.tokenExpires = 10

			_, err := client.Authenticate(ctx)
			Expect(err).ToNot(HaveOccurred())

			_, err = client.Authenticate(ctx)
			Expect(err).ToNot(HaveOccurred())

			Expect(atomic.LoadInt64(&provider.tokenCalls)).To(Equal(int64(2)))
		})

		Context("when credentials are rejected", func() {
			It("should return an auth error", func() {
				client = moncash.NewClient(moncash.Config{
					ClientID:     "wrong-client",
					ClientSecret: "wrong-secret",
					BaseURL:      provider.server.URL,
					GatewayURL:   provider.server.URL + "/Moncash-middleware",
				}, logger)

				_, err := client.Authenticate(ctx)

				Expect(err).To(HaveOccurred())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeProviderAuth))
			})
		})
	})

	Describe("CreatePayment", func() {
		It("should send the decimal amount and return the payment token", func() {
			token, err := client.CreatePayment(ctx, "ORD-ABC123", 25050)

			Expect(err).ToNot(HaveOccurred())
			Expect(token.Token).To(Equal("payment-token-ORD-ABC123"))
			Expect(provider.createdOrders).To(ContainElement("ORD-ABC123"))
		})

		Context("when the provider rejects the request", func() {
			It("should return a provider error carrying the provider payload", func() {
				provider.rejectCreate = true

				token, err := client.CreatePayment(ctx, "ORD-DUP", 10000)

				Expect(err).To(HaveOccurred())
				Expect(token).To(BeNil())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeProviderRejected))
			})
		})

		Context("when the provider is unreachable", func() {
			It("should return a retryable unavailable error", func() {
				// authenticate first so the failure happens on the payment
				// call, not the token exchange
				_, err := client.Authenticate(ctx)
				Expect(err).ToNot(HaveOccurred())

				provider.server.Close()

				_, err = client.CreatePayment(ctx, "ORD-DOWN", 10000)

				Expect(err).To(HaveOccurred())
				Expect(apperrors.IsRetryable(err)).To(BeTrue())
			})
		})
	})

	Describe("RetrieveByTransactionID", func() {
		It("should return the provider's payment details", func() {
			provider.payments["MC-1001"] = moncashtypes.PaymentDetails{
				Reference:     "ref-1",
				TransactionID: "MC-1001",
				OrderID:       "ORD-ABC123",
				Message:       "successful",
				Payer:         "50937001234",
			}

			details, err := client.RetrieveByTransactionID(ctx, "MC-1001")

			Expect(err).ToNot(HaveOccurred())
			Expect(details.Message).To(Equal("successful"))
			Expect(details.Payer).To(Equal("50937001234"))
		})

		It("should surface unknown transactions as provider rejections", func() {
			_, err := client.RetrieveByTransactionID(ctx, "MC-NOPE")

			Expect(err).To(HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeProviderRejected))
		})
	})

	Describe("RetrieveByOrderID", func() {
		It("should find the payment by the MonCash order id", func() {
			provider.payments["MC-2002"] = moncashtypes.PaymentDetails{
				TransactionID: "MC-2002",
				OrderID:       "ORD-XYZ789",
				Message:       "failed",
			}

			details, err := client.RetrieveByOrderID(ctx, "ORD-XYZ789")

			Expect(err).ToNot(HaveOccurred())
			Expect(details.TransactionID).To(Equal("MC-2002"))
			Expect(details.Message).To(Equal("failed"))
		})
	})

	Describe("GatewayURL", func() {
		It("should build the hosted payment page redirect", func() {
			url := client.GatewayURL("tok 123")

			Expect(url).To(Equal(provider.server.URL + "/Moncash-middleware/Payment/Redirect?token=tok+123"))
		})
	})

	Describe("FormatAmount", func() {
		It("should render centimes as decimal gourdes", func() {
			Expect(moncash.FormatAmount(25050)).To(Equal("250.50"))
			Expect(moncash.FormatAmount(100)).To(Equal("1.00"))
			Expect(moncash.FormatAmount(5)).To(Equal("0.05"))
			Expect(moncash.FormatAmount(1200000)).To(Equal("12000.00"))
		})
	})
})
