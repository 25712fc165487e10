package database

import (
	"reflect"
)

// FieldMap binds a column to the model field it scans into.
type FieldMap struct {
	Column string
	Ptr    any
}

// model is implemented by pointers to the row types.
type model interface {
	Fields() []FieldMap
}

func (u *User) Fields() []FieldMap {
	return []FieldMap{
		{"id", &u.ID},
		{"name", &u.Name},
		{"email", &u.Email},
		{"password", &u.Password},
		{"permission", &u.Permission},
		{"created_at", &u.CreatedAt},
		{"updated_at", &u.UpdatedAt},
	}
}

func (p *Profile) Fields() []FieldMap {
	return []FieldMap{
		{"id", &p.ID},
		{"author_id", &p.AuthorID},
		{"created_at", &p.CreatedAt},
	}
}

func (t *Tank) Fields() []FieldMap {
	return []FieldMap{
		{"id", &t.ID},
		{"title", &t.Title},
		{"profile_id", &t.ProfileID},
		{"created_at", &t.CreatedAt},
		{"updated_at", &t.UpdatedAt},
	}
}

func (p *TankPost) Fields() []FieldMap {
	return []FieldMap{
		{"id", &p.ID},
		{"body", &p.Body},
		{"tank_id", &p.TankID},
		{"author_id", &p.AuthorID},
		{"created_at", &p.CreatedAt},
		{"updated_at", &p.UpdatedAt},
	}
}

func (r *TankReply) Fields() []FieldMap {
	return []FieldMap{
		{"id", &r.ID},
		{"body", &r.Body},
		{"post_id", &r.PostID},
		{"author_id", &r.AuthorID},
		{"created_at", &r.CreatedAt},
		{"updated_at", &r.UpdatedAt},
	}
}

func (i *TankImage) Fields() []FieldMap {
	return []FieldMap{
		{"id", &i.ID},
		{"url", &i.URL},
		{"tank_id", &i.TankID},
		{"created_at", &i.CreatedAt},
	}
}

func (f *Feed) Fields() []FieldMap {
	return []FieldMap{
		{"id", &f.ID},
		{"message", &f.Message},
		{"author_id", &f.AuthorID},
		{"created_at", &f.CreatedAt},
		{"updated_at", &f.UpdatedAt},
	}
}

func (i *FeedImage) Fields() []FieldMap {
	return []FieldMap{
		{"id", &i.ID},
		{"url", &i.URL},
		{"feed_id", &i.FeedID},
		{"created_at", &i.CreatedAt},
	}
}

func (c *FeedComment) Fields() []FieldMap {
	return []FieldMap{
		{"id", &c.ID},
		{"body", &c.Body},
		{"feed_id", &c.FeedID},
		{"author_id", &c.AuthorID},
		{"created_at", &c.CreatedAt},
		{"updated_at", &c.UpdatedAt},
	}
}

func (r *FeedCommentReply) Fields() []FieldMap {
	return []FieldMap{
		{"id", &r.ID},
		{"body", &r.Body},
		{"comment_id", &r.CommentID},
		{"author_id", &r.AuthorID},
		{"created_at", &r.CreatedAt},
		{"updated_at", &r.UpdatedAt},
	}
}

func columns(m model) []string {
	fields := m.Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
	}
	return cols
}

func scanTargets(m model) []any {
	fields := m.Fields()
	ptrs := make([]any, len(fields))
	for i, f := range fields {
		ptrs[i] = f.Ptr
	}
	return ptrs
}

func values(m model) []any {
	fields := m.Fields()
	vals := make([]any, len(fields))
	for i, f := range fields {
		vals[i] = reflect.ValueOf(f.Ptr).Elem().Interface()
	}
	return vals
}

// table describes how an entity is stored and listed.
type table struct {
	name   string
	entity string
	// text is the column matched by ListParams.Query; parent the column
	// matched by ListParams.Filter. Either may be empty.
	text   string
	parent string
	// sortable maps orderBy fields to columns.
	sortable map[string]string
}

func (t table) orderFields() []string {
	fields := make([]string, 0, len(t.sortable))
	for field := range t.sortable {
		fields = append(fields, field)
	}
	return fields
}

func sortable(text string, updated bool) map[string]string {
	m := map[string]string{"id": "id", "createdAt": "created_at"}
	if updated {
		m["updatedAt"] = "updated_at"
	}
	if text != "" {
		m[text] = text
	}
	return m
}

var (
	usersTable = table{name: "users", entity: "User", text: "name",
		sortable: sortable("name", true)}
	profilesTable = table{name: "profiles", entity: "Profile", parent: "author_id",
		sortable: sortable("", false)}
	tanksTable = table{name: "tanks", entity: "Tank", text: "title", parent: "profile_id",
		sortable: sortable("title", true)}
	tankPostsTable = table{name: "tank_posts", entity: "TankPost", text: "body", parent: "tank_id",
		sortable: sortable("body", true)}
	tankRepliesTable = table{name: "tank_replies", entity: "TankReply", text: "body", parent: "post_id",
		sortable: sortable("body", true)}
	tankImagesTable = table{name: "tank_images", entity: "TankImage", parent: "tank_id",
		sortable: sortable("", false)}
	feedsTable = table{name: "feeds", entity: "Feed", text: "message", parent: "author_id",
		sortable: sortable("message", true)}
	feedImagesTable = table{name: "feed_images", entity: "FeedImage", parent: "feed_id",
		sortable: sortable("", false)}
	feedCommentsTable = table{name: "feed_comments", entity: "FeedComment", text: "body", parent: "feed_id",
		sortable: sortable("body", true)}
	feedCommentRepliesTable = table{name: "feed_comment_replies", entity: "FeedCommentReply", text: "body", parent: "comment_id",
		sortable: sortable("body", true)}
)
