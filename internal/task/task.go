package task

import "time"

// Task is a unit of editorial work tracked on the board.
type Task struct {
	ID          string   `json:"id"`
	ClientID    string   `json:"client_id"`
	MediaID     string   `json:"media_id,omitempty"`
	AuthorID    string   `json:"author_id,omitempty"`
	EditorID    string   `json:"editor_id,omitempty"`
	ManagerID   string   `json:"manager_id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        Type     `json:"task_type"`
	Language    Language `json:"language"`
	Status      Status   `json:"status"`

	GoogleDocURL   string `json:"google_doc_url,omitempty"`
	GoogleFormsURL string `json:"google_forms_url,omitempty"`

	CreatedAt       time.Time `json:"created_at"`
	StatusChangedAt time.Time `json:"status_changed_at"`
	Iteration       int       `json:"iteration"`

	PostponeReason     string `json:"postpone_reason,omitempty"`
	PostponeResumeDate string `json:"postpone_resume_date,omitempty"`

	PublicationURL  string `json:"publication_url,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`
	ClientGratitude string `json:"client_gratitude,omitempty"`

	SentToWhom string `json:"sent_to_whom,omitempty"`
	SentMethod string `json:"sent_method,omitempty"`

	Client  *Client `json:"client,omitempty"`
	Media   *Media  `json:"media,omitempty"`
	Author  *User   `json:"author,omitempty"`
	Editor  *User   `json:"editor,omitempty"`
	Manager *User   `json:"manager,omitempty"`
}

// Type is the kind of document a task produces.
type Type string

// Task type constants
const (
	TypeArticle        Type = "article"
	TypeRecommendation Type = "recommendation"
	TypeCoverLetter    Type = "cover_letter"
)

// Language is the language a task is written in.
type Language string

// Language constants
const (
	LanguageRU Language = "RU"
	LanguageEN Language = "EN"
)

// OverdueAfter is how long a task may sit in one stage before it is overdue.
const OverdueAfter = 72 * time.Hour

// IsOverdue reports whether the task has been in its current stage longer than
// limit as of now.
func (t Task) IsOverdue(now time.Time, limit time.Duration) bool {
	return t.StatusChangedAt.Before(now.Add(-limit))
}

// ClientName returns the display name of the linked client, if loaded.
func (t Task) ClientName() string {
	if t.Client == nil {
		return ""
	}
	return t.Client.FullName()
}

// AuthorName returns the display name of the assigned author, if loaded.
func (t Task) AuthorName() string {
	if t.Author == nil {
		return ""
	}
	return t.Author.FullName()
}
