package interaction

import (
	"time"

	"github.com/frahmantamala/resolution-tracker/internal/user"
)

type CommentType string

const (
	CommentMessage CommentType = "message"
	CommentAction  CommentType = "action"
)

// ReplyRef points at an earlier interaction and carries a snapshot of it,
// taken when the reply was written.
type ReplyRef struct {
	ID      int64     `json:"id"`
	Author  *user.Ref `json:"author,omitempty"`
	Content string    `json:"content"`
}

// Attachment references an uploaded file. The bytes live elsewhere.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Interaction struct {
	ID          int64        `json:"id"`
	Content     string       `json:"content"`
	CommentType CommentType  `json:"comment_type"`
	Author      user.Ref     `json:"author"`
	CreatedAt   time.Time    `json:"created_at"`
	ReplyTo     *ReplyRef    `json:"reply_to,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Mentions    []int64      `json:"mentions,omitempty"`
	// Pending marks a local send the server has not confirmed yet.
	Pending bool `json:"-"`
}

type ProgressUpdate struct {
	ID          int64     `json:"id"`
	Progress    int       `json:"progress"`
	Description string    `json:"description"`
	Author      user.Ref  `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
}

// Snapshot builds the reply reference another message stores for i.
func (i Interaction) Snapshot() *ReplyRef {
	author := i.Author
	return &ReplyRef{ID: i.ID, Author: &author, Content: i.Content}
}
