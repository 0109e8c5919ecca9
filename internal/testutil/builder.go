// Package testutil builds model version fixtures for repository tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/modelreg/internal/versions/domain"
)

// Builder accumulates versions and inserts them in order within one transaction.
type Builder struct {
	t        *testing.T
	repo     domain.Repository
	versions []domain.NewVersionParams
}

// NewBuilder creates a builder for the given repository.
func NewBuilder(t *testing.T, repo domain.Repository) *Builder {
	t.Helper()
	return &Builder{t: t, repo: repo}
}

// WithVersion adds a version with optional configuration.
func (b *Builder) WithVersion(name string, opts ...VersionOption) *Builder {
	params := defaultVersion(name)
	for _, opt := range opts {
		opt(&params)
	}
	b.versions = append(b.versions, params)
	return b
}

// Build inserts all accumulated versions and returns them with IDs assigned.
func (b *Builder) Build() []*domain.ModelVersion {
	b.t.Helper()
	out := make([]*domain.ModelVersion, 0, len(b.versions))
	for _, params := range b.versions {
		v, err := domain.NewModelVersion(params)
		require.NoError(b.t, err)
		out = append(out, v)
	}

	err := b.repo.WithinTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		for _, v := range out {
			if err := tx.Insert(ctx, v); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(b.t, err)
	return out
}
