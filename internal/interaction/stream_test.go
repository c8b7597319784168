package interaction_test

import (
	"fmt"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/resolution-tracker/internal/interaction"
	"github.com/frahmantamala/resolution-tracker/internal/user"
)

var (
	t0  = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	ops = user.Ref{ID: 10, Name: "Operations"}
	fin = user.Ref{ID: 11, Name: "Finance"}
	sec = user.Ref{ID: 2, Name: "Secretariat"}
)

func message(id int64, at time.Time, author user.Ref, content string) interaction.Interaction {
	return interaction.Interaction{ID: id, Content: content, CommentType: interaction.CommentMessage, Author: author, CreatedAt: at}
}

func progress(id int64, at time.Time, pct int) interaction.ProgressUpdate {
	return interaction.ProgressUpdate{ID: id, Progress: pct, Description: "step", Author: ops, CreatedAt: at}
}

func ids(items []interaction.StreamItem) []string {
	var out []string
	for _, it := range items {
		out = append(out, fmt.Sprintf("%s:%d", it.Kind[:1], it.ID()))
	}
	return out
}

var _ = Describe("Merge", func() {
	Describe("Scenario: equal timestamps", func() {
		It("puts the comment before the progress update", func() {
			items := interaction.Merge(
				[]interaction.Interaction{message(1, t0, ops, "hello")},
				[]interaction.ProgressUpdate{progress(9, t0, 40)},
			)
			Expect(items).To(HaveLen(2))
			Expect(items[0].Kind).To(Equal(interaction.KindInteraction))
			Expect(items[0].ID()).To(Equal(int64(1)))
			Expect(items[1].Kind).To(Equal(interaction.KindProgress))
			Expect(items[1].ID()).To(Equal(int64(9)))
		})
	})

	It("orders by creation time", func() {
		items := interaction.Merge(
			[]interaction.Interaction{message(1, t0.Add(2*time.Minute), ops, "b"), message(2, t0, fin, "a")},
			[]interaction.ProgressUpdate{progress(3, t0.Add(time.Minute), 10)},
		)
		Expect(ids(items)).To(Equal([]string{"i:2", "p:3", "i:1"}))
	})

	It("is idempotent", func() {
		in := []interaction.Interaction{message(1, t0, ops, "a"), message(2, t0, fin, "b"), message(3, t0.Add(-time.Hour), sec, "c")}
		pr := []interaction.ProgressUpdate{progress(4, t0, 10), progress(5, t0.Add(-time.Hour), 5)}
		first := interaction.Merge(in, pr)
		for n := 0; n < 10; n++ {
			Expect(interaction.Merge(in, pr)).To(Equal(first))
		}
		Expect(ids(first)).To(Equal([]string{"i:3", "p:5", "i:1", "i:2", "p:4"}))
	})

	It("does not alias the caller's slices", func() {
		in := []interaction.Interaction{message(1, t0, ops, "a")}
		items := interaction.Merge(in, nil)
		items[0].Interaction.Content = "changed"
		Expect(in[0].Content).To(Equal("a"))
	})
})

var _ = Describe("Placement", func() {
	It("centers actions and splits messages by author", func() {
		action := message(1, t0, sec, "approved")
		action.CommentType = interaction.CommentAction
		items := interaction.Merge(
			[]interaction.Interaction{action, message(2, t0, ops, "mine"), message(3, t0, fin, "theirs")},
			[]interaction.ProgressUpdate{progress(4, t0, 50)},
		)
		Expect(items[0].Placement(ops.ID)).To(Equal(interaction.PlacementCenter))
		Expect(items[1].Placement(ops.ID)).To(Equal(interaction.PlacementRight))
		Expect(items[2].Placement(ops.ID)).To(Equal(interaction.PlacementLeft))
		Expect(items[3].Placement(ops.ID)).To(Equal(interaction.PlacementRight))
	})
})

var _ = Describe("Stream", func() {
	It("de-duplicates echoes of items it already holds", func() {
		s := interaction.NewStream([]interaction.Interaction{message(1, t0, ops, "a")}, nil)

		Expect(s.AddInteraction(message(2, t0.Add(time.Minute), fin, "b"))).To(BeTrue())
		Expect(s.AddInteraction(message(2, t0.Add(time.Minute), fin, "b"))).To(BeFalse())
		Expect(s.AddProgress(progress(7, t0, 30))).To(BeTrue())
		Expect(s.AddProgress(progress(7, t0, 35))).To(BeFalse())

		Expect(s.Len()).To(Equal(3))
		Expect(ids(s.Items())).To(Equal([]string{"i:1", "p:7", "i:2"}))
		latest, ok := s.LatestProgress()
		Expect(ok).To(BeTrue())
		Expect(latest.Progress).To(Equal(35))
	})

	It("re-sorts late arrivals into place", func() {
		s := interaction.NewStream([]interaction.Interaction{message(2, t0.Add(time.Minute), ops, "later")}, nil)
		s.AddInteraction(message(1, t0, fin, "earlier"))
		Expect(ids(s.Items())).To(Equal([]string{"i:1", "i:2"}))
	})

	It("removes pending sends but never confirmed items", func() {
		s := interaction.NewStream([]interaction.Interaction{message(1, t0, ops, "a")}, nil)
		pending := message(-1, t0.Add(time.Minute), fin, "draft")
		pending.Pending = true
		s.AddInteraction(pending)
		Expect(ids(s.Items())).To(Equal([]string{"i:1", "i:-1"}))

		Expect(s.RemovePending(1)).To(BeFalse())
		Expect(s.RemovePending(-1)).To(BeTrue())
		Expect(s.RemovePending(-1)).To(BeFalse())
		Expect(ids(s.Items())).To(Equal([]string{"i:1"}))
	})
})

var _ = Describe("ResolveReply", func() {
	It("resolves to the original content when the target is in the stream", func() {
		original := message(1, t0, ops, "the full original text")
		reply := message(2, t0.Add(time.Minute), fin, "agreed")
		reply.ReplyTo = &interaction.ReplyRef{ID: 1, Content: "stale snapshot"}

		items := interaction.Merge([]interaction.Interaction{original, reply}, nil)
		got := interaction.ResolveReply(items, *items[1].Interaction.ReplyTo)
		Expect(got.Live).To(BeTrue())
		Expect(got.Content).To(Equal(original.Content))
		Expect(got.Author.ID).To(Equal(ops.ID))
	})

	It("falls back to a truncated snapshot", func() {
		long := strings.Repeat("é", 200)
		got := interaction.ResolveReply(nil, interaction.ReplyRef{ID: 5, Author: &fin, Content: long})
		Expect(got.Live).To(BeFalse())
		Expect([]rune(got.Content)).To(HaveLen(interaction.SnippetLength))
		Expect(got.Author).To(Equal(&fin))
	})

	It("builds snapshots from interactions", func() {
		ref := message(3, t0, sec, "note").Snapshot()
		Expect(ref.ID).To(Equal(int64(3)))
		Expect(ref.Author.Name).To(Equal("Secretariat"))
		Expect(ref.Content).To(Equal("note"))
	})
})
