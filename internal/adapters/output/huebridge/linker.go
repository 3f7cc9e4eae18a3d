package huebridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amimof/huego"
)

type userCreator interface {
	CreateUserContext(ctx context.Context, deviceType string) (string, error)
}

// Linker registers this integration as an API user on a bridge. The link
// button on the bridge has to be pressed shortly before.
type Linker struct {
	deviceType string
	timeout    time.Duration
	newAPI     func(host string) userCreator
}

func NewLinker(deviceType string, timeout time.Duration) *Linker {
	return &Linker{
		deviceType: deviceType,
		timeout:    timeout,
		newAPI: func(host string) userCreator {
			return huego.New(host, "")
		},
	}
}

func (l *Linker) Link(ctx context.Context, host string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	user, err := l.newAPI(host).CreateUserContext(ctx, l.deviceType)
	if err != nil {
		var apiErr *huego.APIError
		if errors.As(err, &apiErr) && apiErr.Type == apiErrLinkButtonNotPress {
			return "", fmt.Errorf("%w: %s", ErrLinkButtonNotPressed, host)
		}
		return "", fmt.Errorf("%w: %s: %w", ErrCannotConnect, host, err)
	}
	if user == "" {
		return "", fmt.Errorf("%w: %s: empty username", ErrCannotConnect, host)
	}
	return user, nil
}
