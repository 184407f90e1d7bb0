package models

import "time"

type User struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"-"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
}

// Ref returns the public part of u that is embedded in events and messages.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Image is an uploaded event image as the server knows it.
type Image struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Owner        UserRef   `json:"owner"`
	Participants []UserRef `json:"participants"`
	Images       []Image   `json:"images"`
	Files        []string  `json:"files"`
}

// IsMember reports whether userID owns or participates in e.
func (e *Event) IsMember(userID string) bool {
	if e.Owner.ID == userID {
		return true
	}
	for _, p := range e.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

type Message struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Author    UserRef   `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
