package payment_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/afepanou/payments/internal"
	paymentPkg "github.com/afepanou/payments/internal/payment"
)

var _ = Describe("StatusRequest", func() {
	It("should accept a transaction id alone", func() {
		req := &paymentPkg.StatusRequest{TransactionID: "MC-12345"}

		Expect(req.Validate()).To(Succeed())
	})

	It("should accept an order id alone", func() {
		req := &paymentPkg.StatusRequest{OrderID: "ORD-ABC123"}

		Expect(req.Validate()).To(Succeed())
	})

	It("should reject a request with neither id", func() {
		req := &paymentPkg.StatusRequest{}

		err := req.Validate()

		Expect(err).To(HaveOccurred())
		appErr, ok := apperrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(400))
		Expect(appErr.Code).To(Equal(apperrors.ErrCodeValidationFailed))
	})
})

var _ = Describe("InitiatePaymentRequest", func() {
	It("should require an order id", func() {
		req := &paymentPkg.InitiatePaymentRequest{}

		err := req.Validate()

		Expect(err).To(HaveOccurred())
		appErr, ok := apperrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(400))
	})
})
