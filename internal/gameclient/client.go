// Package gameclient simulates the game client that macros drive. It exposes
// UI surfaces ("addons") and text nodes to queries, records every action, and
// raises session events on login and logout.
package gameclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"peon/internal/logger"
	"peon/pkg/macrotypes"
)

// ErrActionFailed marks an action the scenario rejects.
var ErrActionFailed = errors.New("action failed")

const addonPrefix = "addon:"

// Action is one recorded action.
type Action struct {
	Kind   string
	Target string
	At     time.Time
}

// String renders the action as "kind:target".
func (a Action) String() string {
	return a.Kind + ":" + a.Target
}

// Client is an in-memory game client. It is safe for concurrent use.
type Client struct {
	mu        sync.Mutex
	loggedIn  bool
	addons    map[string]bool
	values    map[string]string
	reactions map[string][]Effect
	actions   []Action
	listeners []macrotypes.SessionListener
	timers    []*time.Timer
	logger    *log.Logger
}

var _ macrotypes.Environment = (*Client)(nil)

// New creates a client in the scenario's initial state.
func New(s Scenario) *Client {
	c := &Client{
		loggedIn:  s.LoggedIn,
		addons:    make(map[string]bool),
		values:    make(map[string]string),
		reactions: make(map[string][]Effect),
		logger:    logger.NewStyledLogger("GameClient"),
	}
	for _, a := range s.Addons {
		c.addons[a] = true
	}
	for k, v := range s.Values {
		c.values[k] = v
	}
	for k, v := range s.Reactions {
		c.reactions[strings.ToLower(k)] = v
	}
	return c
}

// Subscribe registers a listener for session events.
func (c *Client) Subscribe(l macrotypes.SessionListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Login makes the client available. Listeners are notified only on an actual
// transition.
func (c *Client) Login() {
	c.mu.Lock()
	if c.loggedIn {
		c.mu.Unlock()
		return
	}
	c.loggedIn = true
	listeners := append([]macrotypes.SessionListener(nil), c.listeners...)
	c.mu.Unlock()

	c.logger.Info("Logged in")
	for _, l := range listeners {
		l.OnBecameAvailable()
	}
}

// Logout makes the client unavailable and closes every addon.
func (c *Client) Logout() {
	c.mu.Lock()
	if !c.loggedIn {
		c.mu.Unlock()
		return
	}
	c.loggedIn = false
	clear(c.addons)
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	listeners := append([]macrotypes.SessionListener(nil), c.listeners...)
	c.mu.Unlock()

	c.logger.Info("Logged out")
	for _, l := range listeners {
		l.OnBecameUnavailable()
	}
}

// Available reports whether a session is active.
func (c *Client) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loggedIn
}

// QueryState answers "addon:Name" visibility and text node selectors.
func (c *Client) QueryState(ctx context.Context, selector string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loggedIn {
		return "", false, macrotypes.ErrEnvironmentUnavailable
	}
	if name, ok := strings.CutPrefix(selector, addonPrefix); ok {
		return "", c.addons[name], nil
	}
	v, ok := c.values[selector]
	return v, ok, nil
}

// PerformAction records the action and applies the scenario's reactions.
func (c *Client) PerformAction(ctx context.Context, kind, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loggedIn {
		return macrotypes.ErrEnvironmentUnavailable
	}

	action := Action{Kind: kind, Target: target, At: time.Now()}
	c.actions = append(c.actions, action)
	c.logger.Debug("Action performed", "command", action.String())

	for _, effect := range c.reactions[strings.ToLower(action.String())] {
		if effect.Fail != "" {
			return fmt.Errorf("%s: %w: %s", action, ErrActionFailed, effect.Fail)
		}
		if effect.Delay > 0 {
			e := effect
			delay := time.Duration(e.Delay * float64(time.Second))
			c.timers = append(c.timers, time.AfterFunc(delay, func() {
				c.mu.Lock()
				defer c.mu.Unlock()
				if c.loggedIn {
					c.applyLocked(e)
				}
			}))
			continue
		}
		c.applyLocked(effect)
	}
	return nil
}

func (c *Client) applyLocked(e Effect) {
	if e.Hide != "" {
		delete(c.addons, e.Hide)
	}
	if e.Show != "" {
		c.addons[e.Show] = true
	}
	for k, v := range e.Set {
		c.values[k] = v
	}
}

// Actions returns every recorded action in order.
func (c *Client) Actions() []Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Action, len(c.actions))
	copy(out, c.actions)
	return out
}

// ShowAddon opens a UI surface.
func (c *Client) ShowAddon(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addons[name] = true
}

// HideAddon closes a UI surface.
func (c *Client) HideAddon(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.addons, name)
}

// SetValue sets a text node.
func (c *Client) SetValue(selector, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[selector] = value
}
