package task

import (
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const dateLayout = "2006-01-02"

// ErrCommentRequired is reported when a backward or lateral move has no comment.
var ErrCommentRequired = validation.NewError(
	"validation_comment_required",
	"a comment is required for backward or lateral moves",
)

var (
	typeRule     = validation.In(TypeArticle, TypeRecommendation, TypeCoverLetter)
	languageRule = validation.In(LanguageRU, LanguageEN)
)

// CreateRequest is the payload for creating a task.
type CreateRequest struct {
	ClientID       string   `json:"client_id"`
	MediaID        string   `json:"media_id,omitempty"`
	AuthorID       string   `json:"author_id,omitempty"`
	EditorID       string   `json:"editor_id,omitempty"`
	ManagerID      string   `json:"manager_id,omitempty"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Type           Type     `json:"task_type,omitempty"`
	Language       Language `json:"language,omitempty"`
	GoogleDocURL   string   `json:"google_doc_url,omitempty"`
	GoogleFormsURL string   `json:"google_forms_url,omitempty"`
}

// Validate checks the payload before it is sent.
func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.ClientID, validation.Required, is.UUID),
		validation.Field(&r.MediaID, is.UUID),
		validation.Field(&r.AuthorID, is.UUID),
		validation.Field(&r.EditorID, is.UUID),
		validation.Field(&r.ManagerID, is.UUID),
		validation.Field(&r.Type, typeRule),
		validation.Field(&r.Language, languageRule),
		validation.Field(&r.GoogleDocURL, is.URL),
		validation.Field(&r.GoogleFormsURL, is.URL),
	)
}

// UpdateRequest is a partial update; nil fields are left untouched.
type UpdateRequest struct {
	ClientID       *string   `json:"client_id,omitempty"`
	MediaID        *string   `json:"media_id,omitempty"`
	AuthorID       *string   `json:"author_id,omitempty"`
	EditorID       *string   `json:"editor_id,omitempty"`
	ManagerID      *string   `json:"manager_id,omitempty"`
	Title          *string   `json:"title,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Type           *Type     `json:"task_type,omitempty"`
	Language       *Language `json:"language,omitempty"`
	GoogleDocURL   *string   `json:"google_doc_url,omitempty"`
	GoogleFormsURL *string   `json:"google_forms_url,omitempty"`

	PublicationURL  *string `json:"publication_url,omitempty"`
	PublicationDate *string `json:"publication_date,omitempty"`
	ClientGratitude *string `json:"client_gratitude,omitempty"`
	SentToWhom      *string `json:"sent_to_whom,omitempty"`
	SentMethod      *string `json:"sent_method,omitempty"`
}

// Validate checks the fields that are set.
func (r UpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.ClientID, validation.NilOrNotEmpty, is.UUID),
		validation.Field(&r.MediaID, is.UUID),
		validation.Field(&r.AuthorID, is.UUID),
		validation.Field(&r.EditorID, is.UUID),
		validation.Field(&r.ManagerID, is.UUID),
		validation.Field(&r.Type, typeRule),
		validation.Field(&r.Language, languageRule),
		validation.Field(&r.GoogleDocURL, is.URL),
		validation.Field(&r.GoogleFormsURL, is.URL),
		validation.Field(&r.PublicationURL, is.URL),
		validation.Field(&r.PublicationDate, validation.Date(dateLayout)),
	)
}

// Empty reports whether no field is set.
func (r UpdateRequest) Empty() bool {
	return r == UpdateRequest{}
}

// StatusExtra carries stage-specific fields sent along with a status change.
type StatusExtra struct {
	PostponeReason     string `json:"postpone_reason,omitempty"`
	PostponeResumeDate string `json:"postpone_resume_date,omitempty"`
	PublicationURL     string `json:"publication_url,omitempty"`
	PublicationDate    string `json:"publication_date,omitempty"`
	ClientGratitude    string `json:"client_gratitude,omitempty"`
	SentToWhom         string `json:"sent_to_whom,omitempty"`
	SentMethod         string `json:"sent_method,omitempty"`
}

// StatusChange moves a task to another stage. It encodes as
// {"status": ..., "comment": ..., <extra fields>}; comment is null when unset.
type StatusChange struct {
	Status  Status  `json:"status"`
	Comment *string `json:"comment"`
	StatusExtra
}

// NewStatusChange builds a status change; an empty comment is sent as null.
func NewStatusChange(status Status, comment string, extra StatusExtra) StatusChange {
	change := StatusChange{Status: status, StatusExtra: extra}
	if comment != "" {
		change.Comment = &comment
	}
	return change
}

// Validate checks the payload shape without knowing the current stage.
func (c StatusChange) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Status, validation.Required, validation.By(knownStatus)),
		validation.Field(&c.StatusExtra),
	)
}

// Validate checks date and URL formats of the extra fields.
func (e StatusExtra) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.PostponeResumeDate, validation.Date(dateLayout)),
		validation.Field(&e.PublicationURL, is.URL),
		validation.Field(&e.PublicationDate, validation.Date(dateLayout)),
	)
}

// ValidateFrom additionally enforces that any move other than a single step
// forward carries a comment.
func (c StatusChange) ValidateFrom(from Status) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if IsForwardMove(from, c.Status) {
		return nil
	}
	if c.Comment == nil || *c.Comment == "" {
		return validation.Errors{"comment": ErrCommentRequired}
	}
	return nil
}

func knownStatus(value interface{}) error {
	s, _ := value.(Status)
	if !s.Valid() {
		return validation.NewError("validation_unknown_status", "must be a known pipeline stage")
	}
	return nil
}

// Filters narrows a task listing. Empty fields are not sent.
type Filters struct {
	Status    Status
	AuthorID  string
	EditorID  string
	ManagerID string
	ClientID  string
	MediaID   string
	Search    string
}

// Values encodes the non-empty filters as query parameters.
func (f Filters) Values() url.Values {
	values := url.Values{}
	add := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	add("status", string(f.Status))
	add("author_id", f.AuthorID)
	add("editor_id", f.EditorID)
	add("manager_id", f.ManagerID)
	add("client_id", f.ClientID)
	add("media_id", f.MediaID)
	add("search", f.Search)
	return values
}
