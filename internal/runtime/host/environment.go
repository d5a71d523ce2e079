package host

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/CosmWasm/wasm2vm/types"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	envKey contextKey = "env"
)

// Environment is everything one invocation exposes to its guest. It is
// created per call and never shared between calls.
type Environment struct {
	Operation types.Operation
	Store     types.KVStore
	API       types.GoAPI
	Querier   types.Querier
	Logger    zerolog.Logger
}

// NewEnvironment creates an environment. A nil querier rejects every query.
func NewEnvironment(op types.Operation, store types.KVStore, goapi types.GoAPI, querier types.Querier, logger zerolog.Logger) *Environment {
	if querier == nil {
		querier = types.NoQuerier{}
	}
	return &Environment{
		Operation: op,
		Store:     store,
		API:       goapi,
		Querier:   querier,
		Logger:    logger.With().Stringer("operation", op).Logger(),
	}
}

// WithEnvironment returns a context carrying env for host functions.
func WithEnvironment(ctx context.Context, env *Environment) context.Context {
	return context.WithValue(ctx, envKey, env)
}

// EnvironmentFrom returns the environment stored by WithEnvironment.
func EnvironmentFrom(ctx context.Context) (*Environment, bool) {
	env, ok := ctx.Value(envKey).(*Environment)
	return env, ok && env != nil
}
