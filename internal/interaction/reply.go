package interaction

import "github.com/frahmantamala/resolution-tracker/internal/user"

// SnippetLength caps reply previews that fall back to the stored snapshot.
const SnippetLength = 120

// ResolvedReply is what a reply preview renders.
type ResolvedReply struct {
	ID      int64
	Author  *user.Ref
	Content string
	// Live is false when the target is not in the stream and the stored
	// snapshot was used instead.
	Live bool
}

// ResolveReply finds the interaction ref points at in items. A target that
// is no longer present degrades to the snapshot, truncated.
func ResolveReply(items []StreamItem, ref ReplyRef) ResolvedReply {
	for _, it := range items {
		if it.Kind != KindInteraction || it.Interaction.ID != ref.ID {
			continue
		}
		author := it.Interaction.Author
		return ResolvedReply{ID: ref.ID, Author: &author, Content: it.Interaction.Content, Live: true}
	}
	return ResolvedReply{ID: ref.ID, Author: ref.Author, Content: Truncate(ref.Content, SnippetLength)}
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
