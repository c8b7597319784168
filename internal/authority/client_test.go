package authority_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/authority"
	"github.com/frahmantamala/resolution-tracker/internal/resolution"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   []byte
}

var _ = Describe("Client", func() {
	var (
		ctx      context.Context
		server   *httptest.Server
		client   *authority.Client
		last     recordedRequest
		status   int
		response string
	)

	BeforeEach(func() {
		ctx = context.Background()
		status = http.StatusOK
		response = `{}`
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			last = recordedRequest{
				Method: r.Method,
				Path:   r.URL.EscapedPath(),
				Auth:   r.Header.Get("Authorization"),
				Body:   body,
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, response)
		}))
		client = authority.NewClient(internal.AuthorityConfig{
			BaseURL: server.URL + "/",
			Timeout: 2 * time.Second,
			Token:   "service-token",
		}, logger.Discard())
	})

	AfterEach(func() {
		server.Close()
	})

	It("fetches a resolution by public id", func() {
		response = `{"public_id":"R-1","status":"notified","type":"operational","executor_unit":{"id":5,"username":"ops","position":"manager"}}`

		r, err := client.FetchResolution(ctx, "R-1")

		Expect(err).NotTo(HaveOccurred())
		Expect(last.Method).To(Equal(http.MethodGet))
		Expect(last.Path).To(Equal("/api/v1/resolutions/R-1"))
		Expect(r.Status).To(Equal(resolution.StatusNotified))
		Expect(r.IsExecutor(5)).To(BeTrue())
	})

	It("resolves the current user from the token", func() {
		response = `{"id":10,"username":"finance","department":"Finance","position":"head"}`
		u, err := client.FetchCurrentUser(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(last.Method).To(Equal(http.MethodGet))
		Expect(last.Path).To(Equal("/api/v1/users/me"))
		Expect(last.Auth).To(Equal("Bearer service-token"))
		Expect(u.ID).To(Equal(int64(10)))
		Expect(u.DisplayName()).To(Equal("Finance"))
	})

	It("escapes the public id", func() {
		_, _ = client.FetchResolution(ctx, "a/b")
		Expect(last.Path).To(Equal("/api/v1/resolutions/a%2Fb"))
	})

	It("prefers the token carried by the context", func() {
		_, _ = client.FetchProgress(internal.ContextWithToken(ctx, "actor-token"), "R-1")
		Expect(last.Auth).To(Equal("Bearer actor-token"))

		_, _ = client.FetchProgress(ctx, "R-1")
		Expect(last.Auth).To(Equal("Bearer service-token"))
	})

	It("decodes the interactions page", func() {
		response = `{
			"comments":[{"id":1,"content":"hi","comment_type":"message","author":{"id":2,"name":"Finance"},"created_at":"2024-01-01T10:00:00Z"}],
			"permissions":{"can_accept":true,"can_chat":true},
			"chat_participants":[{"id":2,"username":"fin","department":"Finance","position":"manager"}]
		}`

		page, err := client.FetchInteractions(ctx, "R-1")

		Expect(err).NotTo(HaveOccurred())
		Expect(page.Comments).To(HaveLen(1))
		Expect(page.Permissions.CanAccept).To(BeTrue())
		Expect(page.Permissions.CanReturn).To(BeFalse())
		Expect(page.ChatParticipants[0].DisplayName()).To(Equal("Finance"))
	})

	It("always sends a mentions array", func() {
		response = `{"id":9,"content":"hello"}`

		_, err := client.PostInteraction(ctx, "R-1", authority.PostInteractionRequest{Content: "hello"})

		Expect(err).NotTo(HaveOccurred())
		Expect(last.Method).To(Equal(http.MethodPost))
		Expect(last.Path).To(Equal("/api/v1/resolutions/R-1/interactions"))
		Expect(last.Body).To(MatchJSON(`{"content":"hello","mentions":[]}`))
	})

	It("posts transitions with their payload", func() {
		response = `{"public_id":"R-1","status":"pending_ceo_approval"}`

		r, err := client.Transition(ctx, "R-1", resolution.Request{Action: resolution.ActionReturn, Reason: "wrong unit"})

		Expect(err).NotTo(HaveOccurred())
		Expect(last.Path).To(Equal("/api/v1/resolutions/R-1/transitions"))
		Expect(last.Body).To(MatchJSON(`{"action":"return","reason":"wrong unit"}`))
		Expect(r.Status).To(Equal(resolution.StatusPendingCEOApproval))
	})

	It("asks the hierarchy endpoint", func() {
		response = `{"is_subordinate":true}`

		ok, err := client.CheckHierarchy(ctx, 7, []int64{1, 2})

		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(last.Path).To(Equal("/api/v1/hierarchy/check"))
		var sent authority.HierarchyCheckRequest
		Expect(json.Unmarshal(last.Body, &sent)).To(Succeed())
		Expect(sent.SupervisorIDs).To(Equal([]int64{1, 2}))
	})

	Context("when the authority refuses", func() {
		It("rebuilds the error envelope", func() {
			status = http.StatusUnprocessableEntity
			response = `{"error":{"type":"VALIDATION_ERROR","code":"DEADLINE_REQUIRED","message":"a deadline must be set"}}`

			_, err := client.Transition(ctx, "R-1", resolution.Request{Action: resolution.ActionApproveCEO})

			Expect(err).To(MatchError(internal.ErrDeadlineRequired))
			Expect(internal.UserMessage(err)).To(Equal("a deadline must be set"))
			Expect(internal.IsRetryable(err)).To(BeFalse())
		})

		It("keeps a non-envelope body as the message", func() {
			status = http.StatusForbidden
			response = `not yours`

			_, err := client.FetchResolution(ctx, "R-1")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeForbidden))
			Expect(appErr.Message).To(Equal("not yours"))
		})

		It("marks gateway failures retryable", func() {
			status = http.StatusServiceUnavailable
			response = ``

			_, err := client.FetchTimeline(ctx, "R-1")
			Expect(internal.IsRetryable(err)).To(BeTrue())
		})
	})

	It("reports an unreachable server as transient", func() {
		server.Close()

		_, err := client.FetchResolution(ctx, "R-1")

		Expect(err).To(HaveOccurred())
		Expect(internal.IsRetryable(err)).To(BeTrue())
	})

	It("reports an undecodable success body", func() {
		response = `not json`

		_, err := client.FetchResolution(ctx, "R-1")

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeAuthorityResponse))
	})
})
