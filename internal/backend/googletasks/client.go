// Package googletasks implements service.Reminders by mirroring reminders
// into a Google Tasks list.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"taskdeck/internal/config"
	"taskdeck/internal/service"
)

const (
	// PageSize is the number of entries per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	// notesMarker prefixes the owning task id in an entry's notes.
	notesMarker = "taskdeck:"
)

// Client implements service.Reminders using the Google Tasks API.
type Client struct {
	svc      *tasks.Service
	listName string

	mu     sync.Mutex
	listID string
}

// OAuthConfig reads the Google OAuth client credentials.
func OAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(cfg.GoogleClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.GoogleClientFile, err)
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.GoogleClientFile, err)
	}
	return oauthConfig, nil
}

// New creates a reminders client.
// Requires google_oauth_client.json and google_token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}

	tokenData, err := os.ReadFile(cfg.GoogleTokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s (run: taskdeck login --google): %w", config.GoogleTokenFile, err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.GoogleTokenFile, err)
	}

	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))
	svc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc, listName: cfg.Reminders.ListName}, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client and
// endpoint (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, endpoint, listName string) (*Client, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{svc: svc, listName: listName}, nil
}

// ScheduleReminder creates an entry for r in the reminder list.
// Google Tasks keeps only the date part of the due time.
func (c *Client) ScheduleReminder(ctx context.Context, r service.Reminder) error {
	listID, err := c.reminderList(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	entry := &tasks.Task{
		Title: r.Title,
		Notes: notesMarker + r.TaskID,
		Due:   r.Due.UTC().Format(time.RFC3339),
	}
	if _, err := c.svc.Tasks.Insert(listID, entry).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

// ListReminders returns the open entries whose notes reference taskID.
func (c *Client) ListReminders(ctx context.Context, taskID string) ([]service.Reminder, error) {
	// Unmarked entries have no owner and must never match.
	if taskID == "" {
		return nil, nil
	}
	listID, err := c.reminderList(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var result []service.Reminder
	err = c.svc.Tasks.List(listID).
		MaxResults(PageSize).
		ShowCompleted(false).
		ShowDeleted(false).
		ShowHidden(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, entry := range resp.Items {
				if ownerOf(entry) != taskID {
					continue
				}
				r := service.Reminder{ID: entry.Id, TaskID: taskID, Title: entry.Title}
				if due, err := time.Parse(time.RFC3339, entry.Due); err == nil {
					r.Due = due
				}
				result = append(result, r)
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// DeleteReminderSchedules deletes every entry referencing taskID.
// Entries already gone are ignored.
func (c *Client) DeleteReminderSchedules(ctx context.Context, taskID string) error {
	if taskID == "" {
		return nil
	}
	reminders, err := c.ListReminders(ctx, taskID)
	if err != nil {
		return err
	}
	for _, r := range reminders {
		if err := c.deleteEntry(ctx, r.ID); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) deleteEntry(ctx context.Context, entryID string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	c.mu.Lock()
	listID := c.listID
	c.mu.Unlock()

	err := c.svc.Tasks.Delete(listID, entryID).Context(ctx).Do()
	if err != nil && !isNotFound(err) {
		return wrapError(err)
	}
	return nil
}

// reminderList resolves the reminder list by name (case-insensitive,
// trimmed), creating it when missing. The id is cached.
func (c *Client) reminderList(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listID != "" {
		return c.listID, nil
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	want := strings.ToLower(strings.TrimSpace(c.listName))
	var found string
	err := c.svc.Tasklists.List().MaxResults(100).Pages(ctx, func(resp *tasks.TaskLists) error {
		for _, list := range resp.Items {
			if found == "" && strings.ToLower(strings.TrimSpace(list.Title)) == want {
				found = list.Id
			}
		}
		return nil
	})
	if err != nil {
		return "", wrapError(err)
	}

	if found == "" {
		list, err := c.svc.Tasklists.Insert(&tasks.TaskList{Title: c.listName}).Context(ctx).Do()
		if err != nil {
			return "", wrapError(err)
		}
		found = list.Id
	}
	c.listID = found
	return found, nil
}

func ownerOf(entry *tasks.Task) string {
	if !strings.HasPrefix(entry.Notes, notesMarker) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(entry.Notes, notesMarker))
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
	}
	return false
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("google token expired or revoked (run: taskdeck login --google)")
		case http.StatusNotFound:
			return fmt.Errorf("reminder list not found")
		}
	}

	if strings.Contains(err.Error(), "context deadline exceeded") {
		return fmt.Errorf("request timed out")
	}
	return err
}
