package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pliu/eventplanner/internal/models"
)

type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// EventInput is the payload for creating an event.
type EventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

// EventPatch changes only the fields that are set.
type EventPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

type Participants struct {
	Owner        *models.UserRef  `json:"owner,omitempty"`
	Participants []models.UserRef `json:"participants"`
	Added        []models.UserRef `json:"added,omitempty"`
}

type Media struct {
	Images []models.Image `json:"images"`
	Files  []string       `json:"files"`
}

func eventPath(id string, parts ...string) string {
	p := "/api/events/" + url.PathEscape(id)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// Health succeeds when the backend answers its health probe.
func (c *Client) Health(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodGet, "/api/users/health", nil, nil)
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	var user models.User
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.doRequest(ctx, http.MethodPost, "/api/users/register", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.doRequest(ctx, http.MethodPost, "/api/users/login", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.doRequest(ctx, http.MethodGet, "/api/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateName(ctx context.Context, name string) (*models.User, error) {
	var res struct {
		User models.User `json:"user"`
	}
	if err := c.doRequest(ctx, http.MethodPut, "/api/users/update-name", map[string]string{"name": name}, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

type notificationSettings struct {
	NotificationsEnabled bool `json:"notificationsEnabled"`
}

func (c *Client) Notifications(ctx context.Context) (bool, error) {
	var res notificationSettings
	if err := c.doRequest(ctx, http.MethodGet, "/api/users/notifications", nil, &res); err != nil {
		return false, err
	}
	return res.NotificationsEnabled, nil
}

// SetNotifications stores the preference and returns the value the backend kept.
func (c *Client) SetNotifications(ctx context.Context, enabled bool) (bool, error) {
	var res notificationSettings
	if err := c.doRequest(ctx, http.MethodPut, "/api/users/notifications", notificationSettings{enabled}, &res); err != nil {
		return false, err
	}
	return res.NotificationsEnabled, nil
}

func (c *Client) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := c.doRequest(ctx, http.MethodGet, "/api/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) CreateEvent(ctx context.Context, in EventInput) (*models.Event, error) {
	var event models.Event
	if err := c.doRequest(ctx, http.MethodPost, "/api/events", in, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id string, patch EventPatch) (*models.Event, error) {
	var res struct {
		Event models.Event `json:"event"`
	}
	if err := c.doRequest(ctx, http.MethodPut, eventPath(id), patch, &res); err != nil {
		return nil, err
	}
	return &res.Event, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.doRequest(ctx, http.MethodDelete, eventPath(id), nil, nil)
}

func (c *Client) AddParticipants(ctx context.Context, eventID string, emails []string) (*Participants, error) {
	var res Participants
	body := map[string][]string{"emails": emails}
	if err := c.doRequest(ctx, http.MethodPost, eventPath(eventID, "participants"), body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Participants(ctx context.Context, eventID string) (*Participants, error) {
	var res Participants
	if err := c.doRequest(ctx, http.MethodGet, eventPath(eventID, "participants"), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) RemoveParticipant(ctx context.Context, eventID, email string) ([]models.UserRef, error) {
	var res Participants
	body := map[string]string{"participantEmail": email}
	if err := c.doRequest(ctx, http.MethodDelete, eventPath(eventID, "participants"), body, &res); err != nil {
		return nil, err
	}
	return res.Participants, nil
}

func (c *Client) UploadImage(ctx context.Context, eventID, filename string, content io.Reader) (models.Image, error) {
	var res struct {
		Image models.Image `json:"image"`
	}
	if err := c.doMultipart(ctx, eventPath(eventID, "images"), "image", filename, content, &res); err != nil {
		return models.Image{}, err
	}
	return res.Image, nil
}

// DeleteImage removes the image whose server id or path is ref.
func (c *Client) DeleteImage(ctx context.Context, eventID, ref string) ([]models.Image, error) {
	var res Media
	body := map[string]string{"imagePath": ref}
	if err := c.doRequest(ctx, http.MethodDelete, eventPath(eventID, "images"), body, &res); err != nil {
		return nil, err
	}
	return res.Images, nil
}

func (c *Client) UploadFile(ctx context.Context, eventID, filename string, content io.Reader) (string, error) {
	var res struct {
		File string `json:"file"`
	}
	if err := c.doMultipart(ctx, eventPath(eventID, "files"), "file", filename, content, &res); err != nil {
		return "", err
	}
	return res.File, nil
}

func (c *Client) DeleteFile(ctx context.Context, eventID, path string) ([]string, error) {
	var res Media
	body := map[string]string{"filePath": path}
	if err := c.doRequest(ctx, http.MethodDelete, eventPath(eventID, "files"), body, &res); err != nil {
		return nil, err
	}
	return res.Files, nil
}

func (c *Client) Media(ctx context.Context, eventID string) (*Media, error) {
	var res Media
	if err := c.doRequest(ctx, http.MethodGet, eventPath(eventID, "media"), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) SendMessage(ctx context.Context, eventID, text string) (*models.Message, error) {
	var res struct {
		MessageData models.Message `json:"messageData"`
	}
	body := map[string]string{"eventId": eventID, "text": text}
	if err := c.doRequest(ctx, http.MethodPost, "/api/messages", body, &res); err != nil {
		return nil, err
	}
	return &res.MessageData, nil
}

func (c *Client) Messages(ctx context.Context, eventID string) ([]models.Message, error) {
	var messages []models.Message
	path := "/api/messages/" + url.PathEscape(eventID) + "/messages"
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
