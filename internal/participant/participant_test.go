package participant_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/resolution-tracker/internal/hierarchy"
	"github.com/frahmantamala/resolution-tracker/internal/participant"
	"github.com/frahmantamala/resolution-tracker/internal/resolution"
	"github.com/frahmantamala/resolution-tracker/internal/user"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

type countingChecker struct {
	mu    sync.Mutex
	calls int
	inner hierarchy.Checker
}

func (c *countingChecker) CheckHierarchy(ctx context.Context, sub int64, sups []int64) (bool, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.CheckHierarchy(ctx, sub, sups)
}

func (c *countingChecker) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

var _ = Describe("Classifier", func() {
	var (
		ctx        context.Context
		roster     *hierarchy.RosterLookup
		checker    *countingChecker
		classifier *participant.Classifier
		res        resolution.Resolution

		executor = user.User{ID: 10, Username: "ops", Department: "Operations", Position: user.PositionHead}
		coworker = user.User{ID: 11, Username: "fin", Department: "Finance", Position: user.PositionHead}
	)

	BeforeEach(func() {
		ctx = context.Background()
		roster = hierarchy.NewRosterLookup()
		roster.Set(20, 10) // 20 reports to the executor
		roster.Set(21, 20) // 21 reports to 20
		roster.Set(30, 11) // 30 reports to the coworker
		checker = &countingChecker{inner: hierarchy.NewChainChecker(roster)}
		resolver := hierarchy.NewResolver(checker, logger.Discard())
		classifier = participant.NewClassifier(resolver, participant.NewCache(), logger.Discard())

		res = resolution.Resolution{
			PublicID:     "res-1",
			Type:         resolution.TypeOperational,
			Status:       resolution.StatusInProgress,
			ExecutorUnit: &executor,
			Coworkers:    []user.User{coworker},
		}
	})

	It("ranks auditors above executor membership", func() {
		auditingExecutor := executor
		auditingExecutor.Position = user.PositionAuditor
		Expect(classifier.Classify(ctx, auditingExecutor, res)).To(Equal(participant.TypeAuditor))
	})

	It("classifies the chief executive as an auditor with its own label", func() {
		chief := user.User{ID: 1, Position: user.PositionCEO}
		t := classifier.Classify(ctx, chief, res)
		Expect(t).To(Equal(participant.TypeAuditor))
		Expect(participant.Label(chief, t)).To(Equal("chief executive"))
	})

	It("recognises the executor and coworker units directly", func() {
		Expect(classifier.Classify(ctx, executor, res)).To(Equal(participant.TypeExecutor))
		Expect(classifier.Classify(ctx, coworker, res)).To(Equal(participant.TypeCoworker))
		Expect(checker.count()).To(Equal(0))
	})

	Describe("Scenario: supervisor is the executor unit", func() {
		It("classifies the subordinate as executor", func() {
			p := user.User{ID: 20, Username: "staff", Position: user.PositionEmployee, Supervisor: &user.Ref{ID: executor.ID}}
			Expect(classifier.Classify(ctx, p, res)).To(Equal(participant.TypeExecutor))
		})
	})

	It("follows the chain transitively", func() {
		Expect(classifier.Classify(ctx, user.User{ID: 21}, res)).To(Equal(participant.TypeExecutor))
		Expect(classifier.Classify(ctx, user.User{ID: 30}, res)).To(Equal(participant.TypeCoworker))
	})

	It("falls back to other", func() {
		Expect(classifier.Classify(ctx, user.User{ID: 99}, res)).To(Equal(participant.TypeOther))
	})

	It("memoizes per participant in the view cache", func() {
		classifier.Classify(ctx, user.User{ID: 99}, res)
		calls := checker.count()
		classifier.Classify(ctx, user.User{ID: 99}, res)
		Expect(checker.count()).To(Equal(calls))
		Expect(classifier.Cache().TypeOf(99)).To(Equal(participant.TypeOther))
	})

	It("does not leak answers between views", func() {
		classifier.Classify(ctx, user.User{ID: 20}, res)

		other := participant.NewClassifier(hierarchy.NewResolver(checker, logger.Discard()), participant.NewCache(), logger.Discard())
		_, ok := other.Cache().Get(20)
		Expect(ok).To(BeFalse())
	})

	It("skips hierarchy lookups for informational resolutions", func() {
		info := resolution.Resolution{Type: resolution.TypeInformational, Status: resolution.StatusNotified}
		Expect(classifier.Classify(ctx, user.User{ID: 20}, info)).To(Equal(participant.TypeOther))
		Expect(checker.count()).To(Equal(0))
	})

	Describe("ClassifyRoster", func() {
		It("reads unresolved participants as other until their answer lands", func() {
			Expect(classifier.Cache().TypeOf(20)).To(Equal(participant.TypeOther))

			var mu sync.Mutex
			results := map[int64]participant.Type{}
			people := []user.User{executor, coworker, {ID: 20}, {ID: 21}, {ID: 30}, {ID: 99}}
			classifier.ClassifyRoster(ctx, people, res, 2, func(id int64, t participant.Type) {
				mu.Lock()
				results[id] = t
				mu.Unlock()
			})

			Expect(results).To(HaveLen(6))
			Expect(results[20]).To(Equal(participant.TypeExecutor))
			Expect(results[30]).To(Equal(participant.TypeCoworker))
			Expect(classifier.Cache().TypeOf(20)).To(Equal(participant.TypeExecutor))
		})

		It("seeds direct answers without lookups", func() {
			classifier.Seed([]user.User{executor, coworker, {ID: 3, Position: user.PositionAuditor}, {ID: 20}}, res)
			Expect(classifier.Cache().Len()).To(Equal(3))
			Expect(checker.count()).To(Equal(0))
		})
	})
})
