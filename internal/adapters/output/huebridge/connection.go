// Package huebridge connects config entries to physical bridges through huego.
package huebridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hue-bridge-integration/internal/domain/model"
	"hue-bridge-integration/internal/ports"
	"sync"
	"time"

	"github.com/amimof/huego"
	"github.com/rs/zerolog"
)

// Hue API error types.
const (
	apiErrUnauthorizedUser   = 1
	apiErrLinkButtonNotPress = 101
)

var (
	ErrCannotConnect          = errors.New("huebridge: cannot connect")
	ErrAuthenticationRequired = errors.New("huebridge: authentication required")
	ErrLinkButtonNotPressed   = errors.New("huebridge: link button not pressed")
)

// api is the subset of *huego.Bridge a connection uses.
type api interface {
	GetConfigContext(ctx context.Context) (*huego.Config, error)
	GetLightsContext(ctx context.Context) ([]huego.Light, error)
	GetGroupsContext(ctx context.Context) ([]huego.Group, error)
}

// Connector creates huego-backed connections.
type Connector struct {
	timeout time.Duration
	logger  zerolog.Logger
	newAPI  func(host, username string) api
}

func NewConnector(timeout time.Duration, logger zerolog.Logger) *Connector {
	return &Connector{
		timeout: timeout,
		logger:  logger.With().Str("component", "huebridge").Logger(),
		newAPI: func(host, username string) api {
			return huego.New(host, username)
		},
	}
}

func (c *Connector) Connect(entry *model.ConfigEntry) ports.BridgeConnection {
	return &Connection{
		host:             entry.Host(),
		allowUnreachable: model.FlagOption(entry.Options, model.ConfAllowUnreachable, model.DefaultAllowUnreachable),
		allowGroups:      model.FlagOption(entry.Options, model.ConfAllowHueGroups, model.DefaultAllowHueGroups),
		api:              c.newAPI(entry.Host(), entry.Username()),
		timeout:          c.timeout,
		logger:           c.logger.With().Str("entry_id", entry.EntryID).Logger(),
	}
}

// Connection is one bridge bound to one config entry.
type Connection struct {
	host             string
	allowUnreachable bool
	allowGroups      bool
	api              api
	timeout          time.Duration
	logger           zerolog.Logger

	mu     sync.RWMutex
	ready  bool
	config model.BridgeDescriptor
	lights int
	groups int
}

// Setup reads the bridge configuration and its lights, and its groups when
// groups are allowed.
func (c *Connection) Setup(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cfg, err := c.api.GetConfigContext(ctx)
	if err != nil {
		return classify(c.host, err)
	}

	lights, err := c.api.GetLightsContext(ctx)
	if err != nil {
		return classify(c.host, err)
	}

	groups := 0
	if c.allowGroups {
		g, err := c.api.GetGroupsContext(ctx)
		if err != nil {
			return classify(c.host, err)
		}
		groups = len(g)
	}

	unreachable := 0
	for _, l := range lights {
		if l.State != nil && !l.State.Reachable {
			unreachable++
		}
	}
	if unreachable > 0 && !c.allowUnreachable {
		c.logger.Debug().Int("count", unreachable).Msg("unreachable lights will be reported unavailable")
	}

	c.mu.Lock()
	c.ready = true
	c.lights = len(lights)
	c.groups = groups
	c.config = model.BridgeDescriptor{
		BridgeID:          cfg.BridgeID,
		Mac:               cfg.Mac,
		Name:              cfg.Name,
		ModelID:           cfg.ModelID,
		SwVersion:         cfg.SwVersion,
		BridgeUpdateState: cfg.SwUpdate2.Bridge.State,
	}
	c.mu.Unlock()

	c.logger.Debug().Str("host", c.host).Int("lights", len(lights)).Int("groups", groups).Msg("connected to bridge")
	return nil
}

// Reset releases the connection. Resetting a connection that never came up
// succeeds.
func (c *Connection) Reset(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = false
	c.lights, c.groups = 0, 0
	return true
}

func (c *Connection) Config() model.BridgeDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *Connection) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Inventory returns the light and group counts seen by the last Setup.
func (c *Connection) Inventory() (lights, groups int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lights, c.groups
}

func (c *Connection) AllowUnreachable() bool { return c.allowUnreachable }
func (c *Connection) AllowGroups() bool      { return c.allowGroups }

func (c *Connection) Status() model.BridgeStatus {
	lights, groups := c.Inventory()
	return model.BridgeStatus{
		Ready:            c.Ready(),
		Lights:           lights,
		Groups:           groups,
		AllowUnreachable: c.AllowUnreachable(),
		AllowHueGroups:   c.AllowGroups(),
	}
}

// classify maps huego failures to ErrAuthenticationRequired or ErrCannotConnect.
func classify(host string, err error) error {
	var apiErr *huego.APIError
	if errors.As(err, &apiErr) && apiErr.Type == apiErrUnauthorizedUser {
		return fmt.Errorf("%w: %s: %w", ErrAuthenticationRequired, host, err)
	}
	// the bridge answers an unauthorised GET with an error list instead of an object
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Value == "array" {
		return fmt.Errorf("%w: %s: %w", ErrAuthenticationRequired, host, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrCannotConnect, host, err)
}
