package internal_test

import (
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/resolution-tracker/internal"
)

var _ = Describe("AppError", func() {
	It("matches copies of a sentinel by type and code", func() {
		err := fmt.Errorf("approve: %w", internal.ErrDeadlineRequired.WithMessage("set a deadline first"))
		Expect(errors.Is(err, internal.ErrDeadlineRequired)).To(BeTrue())
		Expect(errors.Is(err, internal.ErrReasonRequired)).To(BeFalse())
		Expect(internal.ErrDeadlineRequired.Message).ToNot(Equal("set a deadline first"))
	})

	It("rebuilds a server error envelope", func() {
		body := []byte(`{"error":{"type":"VALIDATION_ERROR","code":"VALIDATION_FAILED","message":"Validation failed",
			"details":{"errors":[{"field":"clause","message":"clause is required","code":"VALIDATION_FAILED"}]}}}`)
		appErr := internal.NewAppErrorFromResponse(http.StatusBadRequest, body)
		Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		Expect(internal.UserMessage(appErr)).To(Equal("clause is required"))
		Expect(internal.IsRetryable(appErr)).To(BeFalse())
	})

	It("keeps a plain body verbatim and classifies the status", func() {
		appErr := internal.NewAppErrorFromResponse(http.StatusServiceUnavailable, []byte("  upstream down \n"))
		Expect(appErr.Message).To(Equal("upstream down"))
		Expect(internal.IsRetryable(appErr)).To(BeTrue())

		empty := internal.NewAppErrorFromResponse(http.StatusTeapot, nil)
		Expect(empty.Message).To(Equal(http.StatusText(http.StatusTeapot)))
		Expect(empty.Type).To(Equal(internal.ErrorTypeExternal))
	})

	It("marshals without the status code or cause", func() {
		appErr := internal.NewInternalError("boom", errors.New("db gone"))
		b, err := appErr.MarshalJSON()
		Expect(err).ToNot(HaveOccurred())
		Expect(string(b)).To(MatchJSON(`{"type":"INTERNAL_ERROR","code":"INTERNAL_ERROR","message":"boom"}`))
		Expect(appErr.Error()).To(Equal("boom: db gone"))
	})
})
