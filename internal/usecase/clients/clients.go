package clients

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pylos/internal/domain/client"
	"pylos/internal/errors"
)

type ClientStore interface {
	Put(ctx context.Context, c client.Client) error
	Get(ctx context.Context, clientUUID string) (client.Client, error)
	Delete(ctx context.Context, clientUUID string) error
}

// ProfileStore keeps names and avatars across registrations. It is optional.
type ProfileStore interface {
	SaveProfile(ctx context.Context, c client.Client) error
	LoadProfile(ctx context.Context, clientUUID string) (client.Client, error)
}

const DefaultName = "Anonymous"

type ClientsUseCase struct {
	store    ClientStore
	profiles ProfileStore
	wsURL    string
	log      *zap.SugaredLogger
}

func NewClientsUseCase(store ClientStore, profiles ProfileStore, wsURL string, log *zap.SugaredLogger) *ClientsUseCase {
	return &ClientsUseCase{
		store:    store,
		profiles: profiles,
		wsURL:    strings.TrimRight(wsURL, "/"),
		log:      log,
	}
}

// Register stores the client and returns the websocket url it should connect to.
// An empty name falls back to the saved profile, then to DefaultName.
func (u *ClientsUseCase) Register(ctx context.Context, req client.RegisterRequest) (string, error) {
	if _, err := uuid.Parse(req.UserUUID); err != nil {
		return "", fmt.Errorf("%w: %q", errors.ErrBadClientUUID, req.UserUUID)
	}

	c := client.Client{
		UUID:      req.UserUUID,
		Name:      strings.TrimSpace(req.UserName),
		Avatar:    req.UserAvatar,
		UpdatedAt: time.Now(),
	}
	if c.Name == "" {
		c.Name = DefaultName
		if u.profiles != nil {
			if saved, err := u.profiles.LoadProfile(ctx, c.UUID); err == nil && saved.Name != "" {
				c.Name = saved.Name
				if c.Avatar == "" {
					c.Avatar = saved.Avatar
				}
			}
		}
	}

	if err := u.store.Put(ctx, c); err != nil {
		return "", fmt.Errorf("register %s: %w", c.UUID, err)
	}
	u.saveProfile(ctx, c)
	return u.wsURL + "/" + c.UUID, nil
}

func (u *ClientsUseCase) Unregister(ctx context.Context, clientUUID string) error {
	return u.store.Delete(ctx, clientUUID)
}

func (u *ClientsUseCase) Get(ctx context.Context, clientUUID string) (client.Client, error) {
	return u.store.Get(ctx, clientUUID)
}

// Name never fails: unknown clients are reported under DefaultName.
func (u *ClientsUseCase) Name(ctx context.Context, clientUUID string) string {
	c, err := u.store.Get(ctx, clientUUID)
	if err != nil || c.Name == "" {
		return DefaultName
	}
	return c.Name
}

func (u *ClientsUseCase) Rename(ctx context.Context, clientUUID, name, avatar string) (client.Client, error) {
	c, err := u.store.Get(ctx, clientUUID)
	if err != nil {
		return client.Client{}, err
	}
	if name = strings.TrimSpace(name); name != "" {
		c.Name = name
	}
	if avatar != "" {
		c.Avatar = avatar
	}
	c.UpdatedAt = time.Now()

	if err := u.store.Put(ctx, c); err != nil {
		return client.Client{}, fmt.Errorf("rename %s: %w", clientUUID, err)
	}
	u.saveProfile(ctx, c)
	return c, nil
}

func (u *ClientsUseCase) saveProfile(ctx context.Context, c client.Client) {
	if u.profiles == nil {
		return
	}
	if err := u.profiles.SaveProfile(ctx, c); err != nil {
		u.log.Warnw("failed to save profile", "client", c.UUID, "error", err)
	}
}
