package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	domainrepo "github.com/benchline/lims-core/domains/naming/be/repo"
	"github.com/benchline/lims-core/platform/go/persistence"
	"github.com/benchline/lims-core/platform/go/persistence/pgtest"
)

func TestGeneratorAgainstPostgres(t *testing.T) {
	env := pgtest.Start(t)
	ctx := context.Background()

	templates, err := persistence.NewNameTemplateStore(env.SessionDB)
	require.NoError(t, err)
	sequences, err := persistence.NewSequenceStore(env.SessionDB)
	require.NoError(t, err)
	names, err := persistence.NewEntityNameStore(env.SessionDB)
	require.NoError(t, err)

	svc := New(domainrepo.NewPostgresRepository(templates, sequences, names))

	_, err = svc.CreateTemplate(ctx, CreateTemplateInput{EntityType: persistence.EntityBatch, Template: "B-{SEQ}", SeqPaddingDigits: 3})
	require.NoError(t, err)

	t.Run("preview is stable", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			preview, err := svc.Preview(ctx, GenerateInput{EntityType: persistence.EntityBatch})
			require.NoError(t, err)
			require.Equal(t, "B-001", preview)
		}
	})

	t.Run("forced collision skips the taken value", func(t *testing.T) {
		_, err := env.Pool.Exec(ctx, `INSERT INTO batches (batch_id, name) VALUES ($1, 'B-001')`, uuid.New())
		require.NoError(t, err)

		name, err := svc.Generate(ctx, GenerateInput{EntityType: persistence.EntityBatch})
		require.NoError(t, err)
		require.Equal(t, "B-002", name)
	})

	t.Run("concurrent generation never repeats a sequence value", func(t *testing.T) {
		const workers = 16

		var (
			mu   sync.Mutex
			seen = make(map[string]struct{}, workers)
		)
		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < workers; i++ {
			g.Go(func() error {
				name, err := svc.Generate(gctx, GenerateInput{EntityType: persistence.EntityBatch})
				if err != nil {
					return err
				}
				mu.Lock()
				seen[name] = struct{}{}
				mu.Unlock()
				return nil
			})
		}
		require.NoError(t, g.Wait())
		require.Len(t, seen, workers)
	})

	t.Run("missing template falls back without touching the sequence", func(t *testing.T) {
		before, err := sequences.PeekNextValue(ctx, persistence.EntityContainer)
		require.NoError(t, err)

		name, err := svc.Generate(ctx, GenerateInput{EntityType: persistence.EntityContainer})
		require.NoError(t, err)
		_, err = uuid.Parse(name)
		require.NoError(t, err)

		after, err := sequences.PeekNextValue(ctx, persistence.EntityContainer)
		require.NoError(t, err)
		require.Equal(t, before, after)
	})
}
