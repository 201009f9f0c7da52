package payment_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	ordermodel "github.com/afepanou/payments/internal/core/datamodel/order"
	"github.com/afepanou/payments/internal/core/datamodel/transaction"
	"github.com/afepanou/payments/internal/core/events"
	paymentPkg "github.com/afepanou/payments/internal/payment"
	"github.com/afepanou/payments/internal/transport"
)

var _ = Describe("WebhookHandler", func() {
	var (
		handler    *paymentPkg.WebhookHandler
		service    *paymentPkg.Service
		mockRepo   *mockTransactionRepository
		mockOrders *mockOrderService
		provider   *mockProvider
		logger     *slog.Logger
	)

	BeforeEach(func() {
		mockRepo = newMockTransactionRepository()
		mockOrders = newMockOrderService()
		provider = &mockProvider{reportedMessage: "successful", reportedTxnID: "MC-77777"}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		mockOrders.orders[1] = &ordermodel.Order{
			ID:             1,
			OrderNumber:    "AFP-TEST0001",
			AmountCentimes: 50000,
			Currency:       "HTG",
			Status:         ordermodel.StatusPending,
		}

		eventBus := events.NewEventBus(logger)
		service = paymentPkg.NewService(mockRepo, mockOrders, provider, eventBus, logger)
		handler = paymentPkg.NewWebhookHandler(transport.NewBaseHandler(logger), service, logger)
	})

	Describe("HandleCallback", func() {
		Context("when the callback references a known transaction", func() {
			It("should reconcile against the provider and return the result", func() {
				result, err := service.Initiate(context.Background(), 1)
				Expect(err).ToNot(HaveOccurred())

				body := `{"transactionId": "", "orderId": "` + result.ExternalOrderID + `", "message": "successful"}`
				req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", strings.NewReader(body))
				rec := httptest.NewRecorder()

				handler.HandleCallback(rec, req)

				Expect(rec.Code).To(Equal(http.StatusOK))

				var resp map[string]interface{}
				Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp["status"]).To(Equal("ok"))

				txn, err := mockRepo.GetByID(result.TransactionID)
				Expect(err).ToNot(HaveOccurred())
				Expect(txn.Status).To(Equal(transaction.StatusSuccess))
			})

			It("should ignore a spoofed message field and trust the provider", func() {
				provider.reportedMessage = "failed"

				result, err := service.Initiate(context.Background(), 1)
				Expect(err).ToNot(HaveOccurred())

				// attacker claims success; the provider says failed
				body := `{"orderId": "` + result.ExternalOrderID + `", "message": "successful"}`
				req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", strings.NewReader(body))
				rec := httptest.NewRecorder()

				handler.HandleCallback(rec, req)

				Expect(rec.Code).To(Equal(http.StatusOK))

				txn, err := mockRepo.GetByID(result.TransactionID)
				Expect(err).ToNot(HaveOccurred())
				Expect(txn.Status).To(Equal(transaction.StatusFailed))
				Expect(mockOrders.orders[1].Status).To(Equal(ordermodel.StatusPending))
			})
		})

		Context("when the callback pairs a foreign transaction id with a known order", func() {
			It("should acknowledge without settling the transaction", func() {
				provider.reportedOrderID = "ORD-SOMEONE-ELSES"

				result, err := service.Initiate(context.Background(), 1)
				Expect(err).ToNot(HaveOccurred())

				body := `{"transactionId": "MC-SOMEONE-ELSES", "orderId": "` + result.ExternalOrderID + `", "message": "successful"}`
				req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", strings.NewReader(body))
				rec := httptest.NewRecorder()

				handler.HandleCallback(rec, req)

				Expect(rec.Code).To(Equal(http.StatusOK))

				var resp map[string]interface{}
				Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp["status"]).To(Equal("ignored"))

				txn, err := mockRepo.GetByID(result.TransactionID)
				Expect(err).ToNot(HaveOccurred())
				Expect(txn.Status).To(Equal(transaction.StatusInitiated))
				Expect(mockOrders.orders[1].Status).To(Equal(ordermodel.StatusPending))
			})
		})

		Context("when the callback references an unknown transaction", func() {
			It("should acknowledge with 200 so the provider stops retrying", func() {
				body := `{"transactionId": "MC-UNKNOWN", "orderId": "ORD-UNKNOWN", "message": "successful"}`
				req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", strings.NewReader(body))
				rec := httptest.NewRecorder()

				handler.HandleCallback(rec, req)

				Expect(rec.Code).To(Equal(http.StatusOK))

				var resp map[string]interface{}
				Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp["status"]).To(Equal("ignored"))
			})
		})

		Context("when the body is not JSON", func() {
			It("should return 400", func() {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", strings.NewReader("not json"))
				rec := httptest.NewRecorder()

				handler.HandleCallback(rec, req)

				Expect(rec.Code).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("HandleReturn", func() {
		It("should reconcile from the redirect query parameters", func() {
			result, err := service.Initiate(context.Background(), 1)
			Expect(err).ToNot(HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/return?orderId="+result.ExternalOrderID, nil)
			rec := httptest.NewRecorder()

			handler.HandleReturn(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			txn, err := mockRepo.GetByID(result.TransactionID)
			Expect(err).ToNot(HaveOccurred())
			Expect(txn.Status).To(Equal(transaction.StatusSuccess))
			Expect(mockOrders.orders[1].Status).To(Equal(ordermodel.StatusPaid))
		})

		It("should acknowledge an unknown reference with 200", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/return?transactionId=MC-UNKNOWN", nil)
			rec := httptest.NewRecorder()

			handler.HandleReturn(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})
})
