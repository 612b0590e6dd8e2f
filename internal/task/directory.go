package task

import (
	"strings"
	"time"
)

// User is a CRM staff member (author, editor or manager).
type User struct {
	ID               string   `json:"id"`
	Email            string   `json:"email"`
	FirstName        string   `json:"first_name"`
	LastName         string   `json:"last_name"`
	Role             string   `json:"role,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	TelegramUsername string   `json:"telegram_username,omitempty"`
	Topics           []string `json:"topics,omitempty"`
	Languages        []string `json:"languages,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return joinName(u.FirstName, u.LastName)
}

// Client is a person the agency writes on behalf of.
type Client struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Company          string    `json:"company,omitempty"`
	Position         string    `json:"position,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Email            string    `json:"email,omitempty"`
	TelegramUsername string    `json:"telegram_username,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// FullName joins first and last name.
func (c Client) FullName() string {
	return joinName(c.FirstName, c.LastName)
}

// Media is a publication outlet tasks can be placed in.
type Media struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Language    Language  `json:"language"`
	WebsiteURL  string    `json:"website_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func joinName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
