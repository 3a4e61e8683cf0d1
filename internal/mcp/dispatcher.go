package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kutbudev/gtm-mcp/internal/apperrors"
	"github.com/kutbudev/gtm-mcp/internal/credential"
	"github.com/kutbudev/gtm-mcp/internal/resource"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State is the credential lifecycle state of a Dispatcher.
type State int32

const (
	Uninitialized State = iota
	Authorized
	Executing
	Refreshing
	Unauthorized
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Authorized:
		return "authorized"
	case Executing:
		return "executing"
	case Refreshing:
		return "refreshing"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Dispatcher routes tool calls and owns the process-wide credential.
//
// Calls are handled one at a time. The credential is loaded on first
// use, refreshed before a call when it has expired, and refreshed once
// more when the remote API rejects it, after which the call is retried
// exactly once.
type Dispatcher struct {
	mu        sync.Mutex
	registry  *Registry
	store     credential.Store
	refresher credential.Refresher
	gateway   resource.Gateway
	now       func() time.Time

	state atomic.Int32
	file  *credential.File
}

type Option func(*Dispatcher)

// WithClock replaces the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(registry *Registry, store credential.Store, refresher credential.Refresher, gateway resource.Gateway, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:  registry,
		store:     store,
		refresher: refresher,
		gateway:   gateway,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) State() State { return State(d.state.Load()) }

func (d *Dispatcher) setState(s State) { d.state.Store(int32(s)) }

func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch runs the named tool with raw JSON arguments and returns the
// remote response verbatim. Every failure is an apperrors envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	logger := log.With().Str("request_id", uuid.NewString()).Str("tool", name).Logger()

	router, err := d.registry.Lookup(name)
	if err != nil {
		logger.Warn().Msg("unknown tool")
		return nil, err
	}
	plan, err := router.Plan(args)
	if err != nil {
		logger.Debug().Str("code", apperrors.Code(err)).Msg("rejected arguments")
		return nil, err
	}
	logger = logger.With().
		Str("action", plan.Action.String()).
		Str("parent", plan.Parent).
		Stringer("call", plan.Call).
		Logger()

	d.mu.Lock()
	defer d.mu.Unlock()

	file, err := d.ensureCredential(ctx, logger)
	if err != nil {
		return nil, err
	}

	d.setState(Executing)
	out, err := router.Execute(ctx, d.gateway, file.Credentials.AccessToken, plan)
	if err == nil {
		d.setState(Authorized)
		logger.Debug().Msg("call completed")
		return out, nil
	}
	if !apperrors.HasCode(err, apperrors.CodeAuthorization) {
		d.setState(Authorized)
		logger.Debug().Str("code", apperrors.Code(err)).Msg("call failed")
		return nil, err
	}

	logger.Info().Msg("access token rejected, refreshing")
	file, rerr := d.refresh(ctx, logger, file)
	if rerr != nil {
		return nil, apperrors.RefreshFailure(rerr)
	}

	d.setState(Executing)
	out, err = router.Execute(ctx, d.gateway, file.Credentials.AccessToken, plan)
	d.setState(Authorized)
	if err != nil {
		logger.Warn().Str("code", apperrors.Code(err)).Msg("call failed after refresh")
		return nil, apperrors.RefreshFailure(err)
	}
	return out, nil
}

// ensureCredential returns a credential that is not known to be expired.
// Caller must hold d.mu.
func (d *Dispatcher) ensureCredential(ctx context.Context, logger zerolog.Logger) (*credential.File, error) {
	if d.file == nil {
		file, err := d.store.Load(ctx)
		if err != nil {
			d.setState(Unauthorized)
			if errors.Is(err, credential.ErrNotFound) {
				logger.Warn().Msg("no stored credential")
				return nil, apperrors.NotAuthorized(nil)
			}
			logger.Error().Err(err).Msg("failed to load credential")
			return nil, apperrors.NotAuthorized(err)
		}
		if file.Credentials.AccessToken == "" && file.Credentials.RefreshToken == "" {
			d.setState(Unauthorized)
			logger.Warn().Msg("stored credential has no tokens")
			return nil, apperrors.NotAuthorized(nil)
		}
		d.file = file
		d.setState(Authorized)
	}

	if credential.IsExpired(d.file.Credentials, d.now()) || d.file.Credentials.AccessToken == "" {
		logger.Info().Msg("access token expired, refreshing before call")
		file, err := d.refresh(ctx, logger, d.file)
		if err != nil {
			return nil, apperrors.RefreshFailure(err)
		}
		return file, nil
	}
	return d.file, nil
}

// refresh exchanges the refresh token and persists the result. A failed
// save is logged and the new token is still used. A failed refresh drops
// the cached credential so the next call loads it again. Caller must hold
// d.mu.
func (d *Dispatcher) refresh(ctx context.Context, logger zerolog.Logger, file *credential.File) (*credential.File, error) {
	d.setState(Refreshing)

	next, err := d.refresher.Refresh(ctx, file.Credentials)
	if err != nil {
		logger.Error().Err(err).Msg("token refresh failed")
		d.file = nil
		d.setState(Unauthorized)
		return nil, err
	}

	updated := &credential.File{Credentials: next, User: file.User}
	if err := d.store.Save(ctx, updated); err != nil {
		logger.Error().Err(err).Msg("failed to persist refreshed credential")
	}
	d.file = updated
	d.setState(Authorized)

	if expiry, ok := next.Expiry(); ok {
		logger.Info().Time("expires_at", expiry).Msg("access token refreshed")
	} else {
		logger.Info().Msg("access token refreshed")
	}
	return updated, nil
}
