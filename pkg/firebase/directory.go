package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/gronit/club-portal/pkg/config"
)

var (
	// ErrUserNotFound is returned when a uid does not exist
	ErrUserNotFound = errors.New("firebase: user not found")
	// ErrEmailExists is returned when creating a user whose email is taken
	ErrEmailExists = errors.New("firebase: email already exists")
)

const listPageSize = 1000

// User is a Firebase Auth account
type User struct {
	UID         string
	Email       string
	DisplayName string
	Disabled    bool
	CreatedAt   time.Time
	LastLoginAt *time.Time
}

// Directory manages Firebase Auth users through the Admin SDK
type Directory struct {
	client *auth.Client
}

// NewDirectory initializes the Admin SDK. Without service account fields
// it falls back to application default credentials.
func NewDirectory(ctx context.Context, cfg config.FirebaseConfig) (*Directory, error) {
	var opts []option.ClientOption
	if cfg.HasServiceAccount() {
		creds, err := serviceAccountJSON(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: init auth client: %w", err)
	}
	return &Directory{client: client}, nil
}

func serviceAccountJSON(cfg config.FirebaseConfig) ([]byte, error) {
	return json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   cfg.ProjectID,
		"client_email": cfg.ClientEmail,
		"private_key":  cfg.PrivateKey,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
}

// ListUsers pages through every account
func (d *Directory) ListUsers(ctx context.Context) ([]User, error) {
	pager := iterator.NewPager(d.client.Users(ctx, ""), listPageSize, "")

	var users []User
	for {
		var page []*auth.ExportedUserRecord
		next, err := pager.NextPage(&page)
		if err != nil {
			return nil, fmt.Errorf("firebase: list users: %w", err)
		}
		for _, rec := range page {
			users = append(users, toUser(rec.UserRecord))
		}
		if next == "" {
			break
		}
	}
	return users, nil
}

// CreateUser creates an account for email
func (d *Directory) CreateUser(ctx context.Context, email string) (*User, error) {
	rec, err := d.client.CreateUser(ctx, (&auth.UserToCreate{}).Email(email))
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("firebase: create user: %w", err)
	}
	u := toUser(rec)
	return &u, nil
}

// DeleteUser removes an account by uid
func (d *Directory) DeleteUser(ctx context.Context, uid string) error {
	if err := d.client.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("firebase: delete user: %w", err)
	}
	return nil
}

func toUser(rec *auth.UserRecord) User {
	u := User{Disabled: rec.Disabled}
	if rec.UserInfo != nil {
		u.UID = rec.UID
		u.Email = rec.Email
		u.DisplayName = rec.DisplayName
	}
	if rec.UserMetadata != nil {
		u.CreatedAt = time.UnixMilli(rec.UserMetadata.CreationTimestamp).UTC()
		if rec.UserMetadata.LastLogInTimestamp > 0 {
			t := time.UnixMilli(rec.UserMetadata.LastLogInTimestamp).UTC()
			u.LastLoginAt = &t
		}
	}
	return u
}
