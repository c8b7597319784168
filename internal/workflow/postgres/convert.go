package postgres

import (
	rdm "github.com/frahmantamala/resolution-tracker/internal/core/datamodel/resolution"
	udm "github.com/frahmantamala/resolution-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/resolution-tracker/internal/interaction"
	"github.com/frahmantamala/resolution-tracker/internal/resolution"
	"github.com/frahmantamala/resolution-tracker/internal/user"
)

func toResolutionRow(r *resolution.Resolution) *rdm.Resolution {
	row := &rdm.Resolution{
		PublicID:      r.PublicID,
		MeetingNumber: r.MeetingNumber,
		MeetingDate:   r.MeetingDate,
		Clause:        r.Clause,
		Subclause:     r.Subclause,
		Description:   r.Description,
		Type:          string(r.Type),
		Status:        string(r.Status),
		Progress:      r.Progress,
		Deadline:      r.Deadline,
		NotifiedAt:    r.NotifiedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.ExecutorUnit != nil {
		id := r.ExecutorUnit.ID
		row.ExecutorUnitID = &id
	}
	if r.CreatedBy != nil {
		id := r.CreatedBy.ID
		row.CreatedByID = &id
	}
	for i, u := range r.Coworkers {
		row.Units = append(row.Units, rdm.Unit{UserID: u.ID, Role: rdm.UnitRoleCoworker, Position: i})
	}
	for i, u := range r.InformUnits {
		row.Units = append(row.Units, rdm.Unit{UserID: u.ID, Role: rdm.UnitRoleInform, Position: i})
	}
	return row
}

func fromResolutionRow(row *rdm.Resolution) resolution.Resolution {
	r := resolution.Resolution{
		PublicID:      row.PublicID,
		MeetingNumber: row.MeetingNumber,
		MeetingDate:   row.MeetingDate,
		Clause:        row.Clause,
		Subclause:     row.Subclause,
		Description:   row.Description,
		Type:          resolution.Type(row.Type),
		Status:        resolution.Status(row.Status),
		Progress:      row.Progress,
		Deadline:      row.Deadline,
		NotifiedAt:    row.NotifiedAt,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.ExecutorUnit != nil {
		r.ExecutorUnit = user.FromDataModel(row.ExecutorUnit)
	}
	if row.CreatedBy != nil {
		ref := user.FromDataModel(row.CreatedBy).Ref()
		r.CreatedBy = &ref
	} else if row.CreatedByID != nil {
		r.CreatedBy = &user.Ref{ID: *row.CreatedByID}
	}
	// Units arrive ordered by position.
	for _, unit := range row.Units {
		u := user.User{ID: unit.UserID}
		if unit.User != nil {
			u = *user.FromDataModel(unit.User)
		}
		switch unit.Role {
		case rdm.UnitRoleCoworker:
			r.Coworkers = append(r.Coworkers, u)
		case rdm.UnitRoleInform:
			r.InformUnits = append(r.InformUnits, u)
		}
	}
	return r
}

func authorRef(id int64, author *udm.User) user.Ref {
	if author == nil {
		return user.Ref{ID: id}
	}
	return user.FromDataModel(author).Ref()
}

func fromInteractionRow(row *rdm.Interaction) interaction.Interaction {
	in := interaction.Interaction{
		ID:          row.ID,
		Content:     row.Content,
		CommentType: interaction.CommentType(row.CommentType),
		Author:      authorRef(row.AuthorID, row.Author),
		CreatedAt:   row.CreatedAt,
		Mentions:    row.Mentions,
	}
	for _, a := range row.Attachments {
		in.Attachments = append(in.Attachments, interaction.Attachment{Name: a.Name, URL: a.URL})
	}
	if row.ReplyToID != nil {
		ref := &interaction.ReplyRef{ID: *row.ReplyToID, Content: row.ReplyContent}
		if row.ReplyAuthorID != nil {
			ref.Author = &user.Ref{ID: *row.ReplyAuthorID, Name: row.ReplyAuthor}
		}
		in.ReplyTo = ref
	}
	return in
}

func toInteractionRow(resolutionID int64, in *interaction.Interaction) *rdm.Interaction {
	row := &rdm.Interaction{
		ResolutionID: resolutionID,
		AuthorID:     in.Author.ID,
		Content:      in.Content,
		CommentType:  string(in.CommentType),
		Mentions:     in.Mentions,
		CreatedAt:    in.CreatedAt,
	}
	if row.CommentType == "" {
		row.CommentType = string(interaction.CommentMessage)
	}
	for _, a := range in.Attachments {
		row.Attachments = append(row.Attachments, rdm.Attachment{Name: a.Name, URL: a.URL})
	}
	if in.ReplyTo != nil {
		id := in.ReplyTo.ID
		row.ReplyToID = &id
		row.ReplyContent = in.ReplyTo.Content
		if in.ReplyTo.Author != nil {
			authorID := in.ReplyTo.Author.ID
			row.ReplyAuthorID = &authorID
			row.ReplyAuthor = in.ReplyTo.Author.Name
		}
	}
	return row
}

func fromProgressRow(row *rdm.ProgressUpdate) interaction.ProgressUpdate {
	return interaction.ProgressUpdate{
		ID:          row.ID,
		Progress:    row.Progress,
		Description: row.Description,
		Author:      authorRef(row.AuthorID, row.Author),
		CreatedAt:   row.CreatedAt,
	}
}
