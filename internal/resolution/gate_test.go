package resolution_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/resolution-tracker/internal/resolution"
	"github.com/frahmantamala/resolution-tracker/internal/user"
)

var _ = Describe("Gate", func() {
	chatty := resolution.Permissions{CanChat: true}

	Describe("Chat", func() {
		It("hides the discussion of a cancelled resolution", func() {
			g := resolution.NewGate(operational(resolution.StatusCancelled), executorUnit, chatty)
			Expect(g.Chat()).To(Equal(resolution.ChatHidden))
		})

		It("hides the discussion from the secretary once work starts", func() {
			for _, s := range []resolution.Status{resolution.StatusNotified, resolution.StatusInProgress} {
				g := resolution.NewGate(operational(s), secretary, chatty)
				Expect(g.Chat()).To(Equal(resolution.ChatHidden))
			}
		})

		It("keeps a completed discussion read-only", func() {
			g := resolution.NewGate(operational(resolution.StatusCompleted), executorUnit, chatty)
			Expect(g.Chat()).To(Equal(resolution.ChatReadOnly))
		})

		It("follows the chat flag otherwise", func() {
			r := operational(resolution.StatusPendingCEOApproval)
			Expect(resolution.NewGate(r, coworkerUnit, chatty).Chat()).To(Equal(resolution.ChatEnabled))
			Expect(resolution.NewGate(r, coworkerUnit, resolution.Permissions{}).Chat()).To(Equal(resolution.ChatReadOnly))
		})
	})

	Describe("Scenario: executor viewing a notified resolution", func() {
		It("hides the progress composer and enables chat", func() {
			r := operational(resolution.StatusNotified)
			perms := resolution.ComputePermissions(executorUnit, r, true)
			g := resolution.NewGate(r, executorUnit, perms)

			Expect(g.CanSubmitProgress()).To(BeFalse())
			Expect(g.Chat()).To(Equal(resolution.ChatEnabled))
			Expect(g.Actions()).To(ConsistOf(resolution.ActionAccept, resolution.ActionReturn))
		})
	})

	Describe("CanSubmitProgress", func() {
		It("allows the exact executor while in progress", func() {
			g := resolution.NewGate(operational(resolution.StatusInProgress), executorUnit, resolution.Permissions{})
			Expect(g.CanSubmitProgress()).To(BeTrue())
		})

		It("excludes coworkers and subordinates", func() {
			r := operational(resolution.StatusInProgress)
			subordinate := user.User{ID: 50, Position: user.PositionEmployee, Supervisor: &user.Ref{ID: executorUnit.ID}}
			Expect(resolution.NewGate(r, coworkerUnit, resolution.Permissions{}).CanSubmitProgress()).To(BeFalse())
			Expect(resolution.NewGate(r, subordinate, resolution.Permissions{}).CanSubmitProgress()).To(BeFalse())
		})

		It("excludes an executor holding an oversight position", func() {
			r := operational(resolution.StatusInProgress)
			odd := executorUnit
			odd.Position = user.PositionAuditor
			Expect(resolution.NewGate(r, odd, resolution.Permissions{}).CanSubmitProgress()).To(BeFalse())
		})

		It("excludes informational resolutions", func() {
			r := resolution.Resolution{Type: resolution.TypeInformational, Status: resolution.StatusInProgress}
			Expect(resolution.NewGate(r, executorUnit, resolution.Permissions{}).CanSubmitProgress()).To(BeFalse())
		})
	})

	Describe("CanInvoke", func() {
		It("requires the server flag even when the role fits", func() {
			r := operational(resolution.StatusNotified)
			Expect(resolution.NewGate(r, executorUnit, resolution.Permissions{}).CanInvoke(resolution.ActionAccept)).To(BeFalse())
			Expect(resolution.NewGate(r, executorUnit, resolution.Permissions{CanAccept: true}).CanInvoke(resolution.ActionAccept)).To(BeTrue())
		})

		It("requires the role even when the flag is set", func() {
			r := operational(resolution.StatusPendingCEOApproval)
			Expect(resolution.NewGate(r, secretary, resolution.Permissions{CanEdit: true}).CanInvoke(resolution.ActionApproveCEO)).To(BeFalse())
			Expect(resolution.NewGate(r, ceo, resolution.Permissions{CanEdit: true}).CanInvoke(resolution.ActionApproveCEO)).To(BeTrue())
		})

		It("gates the secretary dialogue on its own flag", func() {
			r := operational(resolution.StatusPendingSecretaryApproval)
			g := resolution.NewGate(r, secretary, resolution.ComputePermissions(secretary, r, true))
			Expect(g.CanInvoke(resolution.ActionReturnToSecretary)).To(BeTrue())
			Expect(g.CanInvoke(resolution.ActionApproveSecretary)).To(BeTrue())
		})

		It("offers completion to auditors only while in progress", func() {
			perms := resolution.Permissions{CanEdit: true}
			Expect(resolution.NewGate(operational(resolution.StatusInProgress), auditor, perms).CanSetStatus(resolution.StatusCompleted)).To(BeTrue())
			Expect(resolution.NewGate(operational(resolution.StatusNotified), auditor, perms).CanSetStatus(resolution.StatusCompleted)).To(BeFalse())
			Expect(resolution.NewGate(operational(resolution.StatusNotified), auditor, perms).CanSetStatus(resolution.StatusCancelled)).To(BeTrue())
		})

		It("never offers system actions to people", func() {
			r := operational(resolution.StatusNotified)
			all := resolution.Permissions{CanAccept: true, CanReturn: true, CanEdit: true, CanDialogue: true, CanChat: true}
			Expect(resolution.NewGate(r, executorUnit, all).CanInvoke(resolution.ActionAutoAccept)).To(BeFalse())
		})

		It("offers nothing on terminal resolutions", func() {
			all := resolution.Permissions{CanAccept: true, CanReturn: true, CanEdit: true, CanDialogue: true, CanChat: true}
			Expect(resolution.NewGate(operational(resolution.StatusCancelled), ceo, all).Actions()).To(BeEmpty())
		})
	})
})
