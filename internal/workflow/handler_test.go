package workflow_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/authority"
	"github.com/frahmantamala/resolution-tracker/internal/interaction"
	"github.com/frahmantamala/resolution-tracker/internal/resolution"
	"github.com/frahmantamala/resolution-tracker/internal/timeline"
	"github.com/frahmantamala/resolution-tracker/internal/workflow"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

type stubService struct {
	workflow.ServiceAPI

	lastID      string
	lastRequest resolution.Request
	err         error
}

func (s *stubService) Create(_ context.Context, req authority.CreateResolutionRequest) (*resolution.Resolution, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &resolution.Resolution{PublicID: "R-new", Clause: req.Clause, Type: req.Type, Status: resolution.StatusPendingCEOApproval}, nil
}

func (s *stubService) Get(_ context.Context, publicID string) (*resolution.Resolution, error) {
	s.lastID = publicID
	if s.err != nil {
		return nil, s.err
	}
	return &resolution.Resolution{PublicID: publicID, Status: resolution.StatusNotified}, nil
}

func (s *stubService) Progress(_ context.Context, publicID string) ([]interaction.ProgressUpdate, error) {
	s.lastID = publicID
	return []interaction.ProgressUpdate{{ID: 1, Progress: 30}}, s.err
}

func (s *stubService) Transition(_ context.Context, publicID string, req resolution.Request) (*resolution.Resolution, error) {
	s.lastID = publicID
	s.lastRequest = req
	if s.err != nil {
		return nil, s.err
	}
	return &resolution.Resolution{PublicID: publicID, Status: resolution.StatusInProgress}, nil
}

func (s *stubService) Timeline(_ context.Context, publicID string) ([]timeline.Event, error) {
	return []timeline.Event{{ID: "e1", Action: timeline.ActionCreated}}, s.err
}

func (s *stubService) CheckHierarchy(_ context.Context, userID int64, supervisorIDs []int64) (bool, error) {
	return userID == 20 && len(supervisorIDs) > 0, s.err
}

var _ = Describe("Handler", func() {
	var (
		stub   *stubService
		router chi.Router
	)

	BeforeEach(func() {
		stub = &stubService{}
		router = chi.NewRouter()
		workflow.NewHandler(stub, logger.Discard()).Routes(router)
	})

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("creates a resolution with 201", func() {
		rec := serve(http.MethodPost, "/resolutions", `{"meeting_number":"12","clause":"4","type":"operational"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))

		var body resolution.Resolution
		Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
		Expect(body.PublicID).To(Equal("R-new"))
		Expect(body.Clause).To(Equal("4"))
	})

	It("rejects a malformed body", func() {
		rec := serve(http.MethodPost, "/resolutions", `{"clause":`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("passes the public id from the path", func() {
		rec := serve(http.MethodGet, "/resolutions/R-7/", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(stub.lastID).To(Equal("R-7"))
	})

	It("renders service errors in the error envelope", func() {
		stub.err = internal.ErrUnauthorizedAccess
		rec := serve(http.MethodGet, "/resolutions/R-7/", "")
		Expect(rec.Code).To(Equal(http.StatusForbidden))

		var envelope struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(rec.Body).Decode(&envelope)).To(Succeed())
		Expect(envelope.Error.Code).To(Equal(string(internal.ErrCodeUnauthorizedAccess)))
	})

	It("wraps lists in an items envelope", func() {
		rec := serve(http.MethodGet, "/resolutions/R-7/progress", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"items":[`))

		rec = serve(http.MethodGet, "/resolutions/R-7/timeline", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"action":"created"`))
	})

	It("decodes transition requests", func() {
		rec := serve(http.MethodPost, "/resolutions/R-7/transitions", `{"action":"return","reason":"No budget"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(stub.lastRequest.Action).To(Equal(resolution.ActionReturn))
		Expect(stub.lastRequest.Reason).To(Equal("No budget"))
	})

	It("maps conflicts to 409", func() {
		stub.err = internal.ErrInvalidTransition
		rec := serve(http.MethodPost, "/resolutions/R-7/transitions", `{"action":"accept"}`)
		Expect(rec.Code).To(Equal(http.StatusConflict))
	})

	It("answers hierarchy checks", func() {
		rec := serve(http.MethodPost, "/hierarchy/check", `{"user_id":20,"supervisor_ids":[10]}`)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var body authority.HierarchyCheckResponse
		Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
		Expect(body.IsSubordinate).To(BeTrue())
	})
})
