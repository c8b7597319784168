package mention

import (
	"strings"
	"unicode"

	"github.com/frahmantamala/resolution-tracker/internal/user"
)

// Composer is the draft state of a discussion message: its text, the cursor
// position in runes and the mentions picked from the suggestion list.
type Composer struct {
	roster   []user.User
	viewerID int64

	text     []rune
	cursor   int
	selected []user.User

	active      bool
	anchor      int
	query       string
	suggestions []user.User
	highlight   int
}

func NewComposer(roster []user.User, viewerID int64) *Composer {
	return &Composer{roster: roster, viewerID: viewerID}
}

// SetRoster replaces the known participants.
func (c *Composer) SetRoster(roster []user.User) {
	c.roster = roster
	c.refresh()
}

func (c *Composer) Text() string { return string(c.text) }

func (c *Composer) Cursor() int { return c.cursor }

// SetText is called on every edit. It drops selected mentions whose name
// was edited away and recomputes the suggestion list.
func (c *Composer) SetText(text string, cursor int) {
	c.text = []rune(text)
	c.cursor = clamp(cursor, 0, len(c.text))
	c.selected = Prune(text, c.selected)
	c.refresh()
}

// Query returns the partial name typed after the active @, if any.
func (c *Composer) Query() (string, bool) {
	return c.query, c.active
}

func (c *Composer) Suggestions() []user.User {
	return c.suggestions
}

func (c *Composer) HighlightIndex() int {
	return c.highlight
}

func (c *Composer) Highlighted() (user.User, bool) {
	if len(c.suggestions) == 0 {
		return user.User{}, false
	}
	return c.suggestions[c.highlight], true
}

func (c *Composer) MoveDown() {
	if n := len(c.suggestions); n > 0 {
		c.highlight = (c.highlight + 1) % n
	}
}

func (c *Composer) MoveUp() {
	if n := len(c.suggestions); n > 0 {
		c.highlight = (c.highlight - 1 + n) % n
	}
}

// Select inserts suggestion i.
func (c *Composer) Select(i int) bool {
	if i < 0 || i >= len(c.suggestions) {
		return false
	}
	c.Insert(c.suggestions[i])
	return true
}

func (c *Composer) SelectHighlighted() bool {
	return c.Select(c.highlight)
}

// Insert writes "@Name " for u. With an active query it replaces the text
// from the @ to the cursor; otherwise the mention is appended.
func (c *Composer) Insert(u user.User) {
	insertion := []rune(string(trigger) + u.DisplayName() + " ")

	if c.active {
		next := make([]rune, 0, len(c.text)+len(insertion))
		next = append(next, c.text[:c.anchor]...)
		next = append(next, insertion...)
		next = append(next, c.text[c.cursor:]...)
		c.cursor = c.anchor + len(insertion)
		c.text = next
	} else {
		if n := len(c.text); n > 0 && !unicode.IsSpace(c.text[n-1]) {
			c.text = append(c.text, ' ')
		}
		c.text = append(c.text, insertion...)
		c.cursor = len(c.text)
	}

	c.selected = Union(c.selected, []user.User{u})
	c.close()
}

// Selected returns the mentions picked explicitly and still present.
func (c *Composer) Selected() []user.User {
	return c.selected
}

// Mentions is the mention set sent with the message: the explicit picks plus
// any names typed out in full.
func (c *Composer) Mentions() []user.User {
	return Union(c.selected, Parse(string(c.text), c.roster))
}

func (c *Composer) MentionIDs() []int64 {
	return user.IDs(c.Mentions())
}

// Empty reports whether there is nothing to send.
func (c *Composer) Empty() bool {
	return strings.TrimSpace(string(c.text)) == ""
}

// Reset clears the draft after a successful send.
func (c *Composer) Reset() {
	c.text = nil
	c.cursor = 0
	c.selected = nil
	c.close()
}

func (c *Composer) close() {
	c.active = false
	c.anchor = 0
	c.query = ""
	c.suggestions = nil
	c.highlight = 0
}

func (c *Composer) refresh() {
	c.close()

	anchor := -1
	for i := c.cursor - 1; i >= 0; i-- {
		if triggerAt(c.text, i) {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return
	}

	token := string(c.text[anchor+1 : c.cursor])
	if strings.ContainsAny(token, "\r\n") {
		return
	}
	if strings.IndexFunc(token, IsBoundary) >= 0 && !c.prefixOfName(token) {
		return
	}

	c.active = true
	c.anchor = anchor
	c.query = token
	c.suggestions = c.suggest(token)
}

func (c *Composer) prefixOfName(token string) bool {
	for _, u := range c.roster {
		if strings.HasPrefix(u.DisplayName(), token) {
			return true
		}
	}
	return false
}

func (c *Composer) suggest(query string) []user.User {
	q := strings.ToLower(query)
	var out []user.User
	for _, u := range c.roster {
		if u.ID == c.viewerID {
			continue
		}
		if strings.Contains(strings.ToLower(u.DisplayName()), q) || strings.Contains(strings.ToLower(u.Username), q) {
			out = append(out, u)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
