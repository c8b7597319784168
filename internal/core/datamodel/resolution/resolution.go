package resolution

import (
	"time"

	"github.com/frahmantamala/resolution-tracker/internal/core/datamodel/user"
)

const (
	UnitRoleCoworker = "coworker"
	UnitRoleInform   = "inform"
)

type Resolution struct {
	ID             int64      `gorm:"primaryKey"`
	PublicID       string     `gorm:"column:public_id;uniqueIndex;not null"`
	MeetingNumber  string     `gorm:"column:meeting_number;not null"`
	MeetingDate    time.Time  `gorm:"column:meeting_date"`
	Clause         string     `gorm:"column:clause;not null"`
	Subclause      string     `gorm:"column:subclause"`
	Description    string     `gorm:"column:description;not null"`
	Type           string     `gorm:"column:type;not null"`
	Status         string     `gorm:"column:status;index;not null"`
	Progress       int        `gorm:"column:progress;default:0"`
	Deadline       *time.Time `gorm:"column:deadline"`
	ExecutorUnitID *int64     `gorm:"column:executor_unit_id"`
	ExecutorUnit   *user.User `gorm:"foreignKey:ExecutorUnitID"`
	NotifiedAt     *time.Time `gorm:"column:notified_at"`
	CreatedByID    *int64     `gorm:"column:created_by_id"`
	CreatedBy      *user.User `gorm:"foreignKey:CreatedByID"`
	Units          []Unit     `gorm:"foreignKey:ResolutionID"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Resolution) TableName() string {
	return "resolutions"
}

// Unit links a coworker or inform unit to a resolution.
type Unit struct {
	ResolutionID int64      `gorm:"primaryKey;column:resolution_id"`
	UserID       int64      `gorm:"primaryKey;column:user_id"`
	Role         string     `gorm:"primaryKey;column:role"`
	Position     int        `gorm:"column:position"`
	User         *user.User `gorm:"foreignKey:UserID"`
}

func (Unit) TableName() string {
	return "resolution_units"
}

type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Interaction struct {
	ID            int64        `gorm:"primaryKey"`
	ResolutionID  int64        `gorm:"column:resolution_id;index;not null"`
	AuthorID      int64        `gorm:"column:author_id;not null"`
	Author        *user.User   `gorm:"foreignKey:AuthorID"`
	Content       string       `gorm:"column:content;not null"`
	CommentType   string       `gorm:"column:comment_type;default:message"`
	ReplyToID     *int64       `gorm:"column:reply_to_id"`
	ReplyAuthorID *int64       `gorm:"column:reply_author_id"`
	ReplyAuthor   string       `gorm:"column:reply_author"`
	ReplyContent  string       `gorm:"column:reply_content"`
	Attachments   []Attachment `gorm:"column:attachments;serializer:json"`
	Mentions      []int64      `gorm:"column:mentions;serializer:json"`
	CreatedAt     time.Time    `gorm:"column:created_at;autoCreateTime"`
}

func (Interaction) TableName() string {
	return "interactions"
}

type ProgressUpdate struct {
	ID           int64      `gorm:"primaryKey"`
	ResolutionID int64      `gorm:"column:resolution_id;index;not null"`
	AuthorID     int64      `gorm:"column:author_id;not null"`
	Author       *user.User `gorm:"foreignKey:AuthorID"`
	Progress     int        `gorm:"column:progress;not null"`
	Description  string     `gorm:"column:description"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (ProgressUpdate) TableName() string {
	return "progress_updates"
}

// Event is one row of the append-only log. It is written with sqlx, not
// gorm, and the struct doubles as the scan target.
type Event struct {
	ID           string    `db:"id" gorm:"primaryKey"`
	ResolutionID string    `db:"resolution_id" gorm:"column:resolution_id;index"`
	Seq          int64     `db:"seq" gorm:"column:seq"`
	Action       string    `db:"action" gorm:"column:action"`
	ActorID      *int64    `db:"actor_id" gorm:"column:actor_id"`
	ActorName    *string   `db:"actor_name" gorm:"column:actor_name"`
	Description  string    `db:"description" gorm:"column:description"`
	Data         string    `db:"data" gorm:"column:data"`
	OccurredAt   time.Time `db:"occurred_at" gorm:"column:occurred_at"`
}

func (Event) TableName() string {
	return "resolution_events"
}
