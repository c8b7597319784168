package validation_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/core/common/validation"
)

var _ = Describe("ValidateDraft", func() {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	valid := func() validation.Draft {
		return validation.Draft{
			MeetingNumber: "12",
			MeetingDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			Clause:        "4",
			Description:   "Renegotiate vendor contracts",
			Type:          "operational",
		}
	}

	fields := func(err *internal.AppError) []string {
		Expect(err).ToNot(BeNil())
		details, ok := err.Details.(internal.ValidationErrors)
		Expect(ok).To(BeTrue())
		var out []string
		for _, e := range details.Errors {
			out = append(out, e.Field)
		}
		return out
	}

	It("accepts a complete draft", func() {
		Expect(validation.ValidateDraft(valid(), now)).To(BeNil())
	})

	It("accepts a draft without a meeting date", func() {
		d := valid()
		d.MeetingDate = time.Time{}
		Expect(validation.ValidateDraft(d, now)).To(BeNil())
	})

	It("collects every failing field in order", func() {
		d := validation.Draft{Type: "strategic"}
		err := validation.ValidateDraft(d, now)
		Expect(err.Type).To(Equal(internal.ErrorTypeValidation))
		Expect(fields(err)).To(Equal([]string{"meeting_number", "clause", "description", "type"}))
		Expect(err.GetDetailedMessage()).To(ContainSubstring("type must be operational or informational"))
	})

	It("reports only the first failure of a field", func() {
		d := valid()
		d.Clause = strings.Repeat("x", validation.MaxReferenceLength+1)
		err := validation.ValidateDraft(d, now)
		Expect(err.Error()).To(Equal("clause must not exceed 50 characters"))
	})

	It("counts characters rather than bytes", func() {
		d := valid()
		d.Description = strings.Repeat("é", validation.MaxDescriptionLength)
		Expect(validation.ValidateDraft(d, now)).To(BeNil())
	})

	It("rejects future meetings and deadlines on or before the meeting", func() {
		d := valid()
		d.MeetingDate = now.Add(time.Hour)
		Expect(fields(validation.ValidateDraft(d, now))).To(Equal([]string{"meeting_date"}))

		d = valid()
		same := d.MeetingDate
		d.Deadline = &same
		err := validation.ValidateDraft(d, now)
		Expect(fields(err)).To(Equal([]string{"deadline"}))
		Expect(err.Details.(internal.ValidationErrors).Errors[0].Code).To(Equal(string(internal.ErrCodeInvalidDate)))
	})
})
