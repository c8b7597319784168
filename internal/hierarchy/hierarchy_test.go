package hierarchy_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/resolution-tracker/internal/hierarchy"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

type recordingChecker struct {
	mu      sync.Mutex
	calls   [][]int64
	answer  bool
	failing error
}

func (c *recordingChecker) CheckHierarchy(_ context.Context, _ int64, supervisorIDs []int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, supervisorIDs)
	if c.failing != nil {
		return false, c.failing
	}
	return c.answer, nil
}

func (c *recordingChecker) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

var _ = Describe("Resolver", func() {
	var (
		ctx      context.Context
		checker  *recordingChecker
		resolver *hierarchy.Resolver
	)

	BeforeEach(func() {
		ctx = context.Background()
		checker = &recordingChecker{answer: true}
		resolver = hierarchy.NewResolver(checker, logger.Discard())
	})

	It("answers false for an empty target set without calling out", func() {
		Expect(resolver.IsSubordinateOf(ctx, 7, nil)).To(BeFalse())
		Expect(resolver.IsSubordinateOf(ctx, 7, []int64{})).To(BeFalse())
		Expect(checker.callCount()).To(Equal(0))
	})

	It("memoizes by candidate and normalized targets", func() {
		Expect(resolver.IsSubordinateOf(ctx, 7, []int64{3, 1, 3})).To(BeTrue())
		Expect(resolver.IsSubordinateOf(ctx, 7, []int64{1, 3})).To(BeTrue())
		Expect(checker.callCount()).To(Equal(1))
		Expect(checker.calls[0]).To(Equal([]int64{1, 3}))
	})

	It("keys separately per candidate", func() {
		resolver.IsSubordinateOf(ctx, 7, []int64{1})
		resolver.IsSubordinateOf(ctx, 8, []int64{1})
		Expect(checker.callCount()).To(Equal(2))
		Expect(resolver.Len()).To(Equal(2))
	})

	It("fails closed and does not cache failures", func() {
		checker.failing = errors.New("connection refused")
		Expect(resolver.IsSubordinateOf(ctx, 7, []int64{1})).To(BeFalse())
		Expect(resolver.Len()).To(Equal(0))

		checker.failing = nil
		Expect(resolver.IsSubordinateOf(ctx, 7, []int64{1})).To(BeTrue())
		Expect(checker.callCount()).To(Equal(2))
	})

	It("forgets answers on Clear", func() {
		resolver.IsSubordinateOf(ctx, 7, []int64{1})
		resolver.Clear()
		resolver.IsSubordinateOf(ctx, 7, []int64{1})
		Expect(checker.callCount()).To(Equal(2))
	})
})

type failingLookup struct{}

func (failingLookup) SupervisorOf(context.Context, int64) (*int64, error) {
	return nil, errors.New("directory unavailable")
}

var _ = Describe("WalkChain", func() {
	var (
		ctx    context.Context
		roster *hierarchy.RosterLookup
	)

	BeforeEach(func() {
		ctx = context.Background()
		// 40 -> 30 -> 20 -> 10
		roster = hierarchy.NewRosterLookup()
		roster.Set(40, 30)
		roster.Set(30, 20)
		roster.Set(20, 10)
	})

	It("finds a direct supervisor", func() {
		ok, err := hierarchy.WalkChain(ctx, roster, 40, []int64{30})
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("finds a transitive supervisor", func() {
		ok, err := hierarchy.WalkChain(ctx, roster, 40, []int64{99, 10})
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("does not treat a person as their own subordinate", func() {
		ok, err := hierarchy.WalkChain(ctx, roster, 30, []int64{30})
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("does not walk downwards", func() {
		ok, err := hierarchy.WalkChain(ctx, roster, 20, []int64{40})
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("terminates on a cyclic chain", func() {
		roster.Set(10, 40)
		ok, err := hierarchy.WalkChain(ctx, roster, 40, []int64{99})
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("propagates lookup failures", func() {
		_, err := hierarchy.WalkChain(ctx, failingLookup{}, 40, []int64{1})
		Expect(err).To(MatchError(ContainSubstring("directory unavailable")))
	})

	It("stops on a cancelled context", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := hierarchy.WalkChain(cctx, roster, 40, []int64{10})
		Expect(err).To(MatchError(context.Canceled))
	})

	It("backs the Resolver through ChainChecker", func() {
		resolver := hierarchy.NewResolver(hierarchy.NewChainChecker(roster), logger.Discard())
		Expect(resolver.IsSubordinateOf(ctx, 40, []int64{20})).To(BeTrue())
		Expect(resolver.IsSubordinateOf(ctx, 10, []int64{20})).To(BeFalse())
	})
})

var _ = Describe("LocalFirst", func() {
	var (
		ctx    context.Context
		roster *hierarchy.RosterLookup
		remote *recordingChecker
		check  hierarchy.LocalFirst
	)

	BeforeEach(func() {
		ctx = context.Background()
		roster = hierarchy.NewRosterLookup()
		roster.Set(40, 30)
		remote = &recordingChecker{answer: true}
		check = hierarchy.LocalFirst{Local: hierarchy.NewChainChecker(roster), Remote: remote}
	})

	It("answers from the local chain without asking the remote", func() {
		ok, err := check.CheckHierarchy(ctx, 40, []int64{30})
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(remote.callCount()).To(Equal(0))
	})

	It("asks the remote when the local chain cannot prove it", func() {
		ok, err := check.CheckHierarchy(ctx, 40, []int64{10})
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(remote.calls).To(Equal([][]int64{{10}}))
	})

	It("falls through to the remote when the local lookup fails", func() {
		check.Local = hierarchy.NewChainChecker(failingLookup{})
		remote.answer = false
		ok, err := check.CheckHierarchy(ctx, 40, []int64{30})
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeFalse())
		Expect(remote.callCount()).To(Equal(1))
	})

	It("reports remote failures", func() {
		remote.failing = errors.New("authority down")
		_, err := check.CheckHierarchy(ctx, 99, []int64{30})
		Expect(err).To(MatchError("authority down"))
		Expect(roster.Len()).To(Equal(1))
	})
})
