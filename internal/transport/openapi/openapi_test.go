package openapi_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/resolution-tracker/internal/transport/openapi"
)

var _ = Describe("document", func() {
	It("is a valid OpenAPI 3 document", func() {
		doc, err := openapi.Load(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(doc.Info.Title).To(Equal("Resolution Tracker"))
	})

	It("describes every resolution endpoint", func() {
		doc, err := openapi.Load(context.Background())
		Expect(err).ToNot(HaveOccurred())
		for _, path := range []string{
			"/resolutions",
			"/resolutions/{publicID}",
			"/resolutions/{publicID}/interactions",
			"/resolutions/{publicID}/progress",
			"/resolutions/{publicID}/transitions",
			"/resolutions/{publicID}/timeline",
			"/hierarchy/check",
		} {
			Expect(doc.Paths.Find(path)).ToNot(BeNil(), path)
		}
	})
})
