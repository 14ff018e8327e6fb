package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/benchline/lims-core/platform/go/identity"
)

// fakeTx satisfies pgx.Tx and records Exec statements invoked.
type fakeTx struct {
	stmts      []string
	args       [][]any
	committed  bool
	rolledBack bool
	execErr    error
}

func (f *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeTx) Commit(ctx context.Context) error {
	f.committed = true
	return nil
}
func (f *fakeTx) Rollback(ctx context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}
func (f *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not implemented")
}
func (f *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (f *fakeTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (f *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return &pgconn.StatementDescription{}, errors.New("not implemented")
}
func (f *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row { return nil }
func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.stmts = append(f.stmts, sql)
	f.args = append(f.args, args)
	return pgconn.CommandTag{}, f.execErr
}
func (f *fakeTx) Conn() *pgx.Conn { return nil }

// fakePool returns a preconstructed transaction.
type fakePool struct{ tx *fakeTx }

func (p *fakePool) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return p.tx, nil
}

func TestSessionDBWithSystemClearsUserSetting(t *testing.T) {
	ftx := &fakeTx{}
	db := &SessionDB{pool: &fakePool{tx: ftx}, appRole: "lims_app"}

	err := db.WithSystem(context.Background(), func(tx pgx.Tx) error { return nil })
	require.NoError(t, err)
	require.Len(t, ftx.stmts, 1)
	require.Contains(t, ftx.stmts[0], "set_config($1, $2, true)")
	require.Equal(t, []any{CurrentUserSetting, ""}, ftx.args[0])
	require.True(t, ftx.committed)
}

func TestSessionDBWithUserSetsRoleThenIdentity(t *testing.T) {
	ftx := &fakeTx{}
	db := &SessionDB{pool: &fakePool{tx: ftx}, appRole: "lims_app"}
	rc := identity.RequestContext{UserID: uuid.New(), ClientID: uuid.New()}

	var seenInside int
	err := db.WithUser(context.Background(), rc, func(tx pgx.Tx) error {
		seenInside = len(ftx.stmts)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, seenInside, "identity must be bound before fn runs")
	require.Contains(t, ftx.stmts[0], "SET LOCAL ROLE lims_app")
	require.Equal(t, []any{CurrentUserSetting, rc.UserID.String()}, ftx.args[1])
}

func TestSessionDBWithUserWithoutAppRole(t *testing.T) {
	ftx := &fakeTx{}
	db := &SessionDB{pool: &fakePool{tx: ftx}}

	err := db.WithUser(context.Background(), identity.RequestContext{UserID: uuid.New()}, func(tx pgx.Tx) error { return nil })
	require.NoError(t, err)
	require.Len(t, ftx.stmts, 1)
}

func TestSessionDBWithUserMissingIdentity(t *testing.T) {
	db := &SessionDB{pool: &fakePool{tx: &fakeTx{}}}
	err := db.WithUser(context.Background(), identity.RequestContext{}, func(tx pgx.Tx) error { return nil })
	require.ErrorIs(t, err, ErrMissingIdentity)
}

func TestSessionDBRollsBackWhenFnFails(t *testing.T) {
	ftx := &fakeTx{}
	db := &SessionDB{pool: &fakePool{tx: ftx}}
	boom := errors.New("boom")

	err := db.WithUser(context.Background(), identity.RequestContext{UserID: uuid.New()}, func(tx pgx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.False(t, ftx.committed)
	require.True(t, ftx.rolledBack)
}

func TestSessionDBSetConfigFailureAborts(t *testing.T) {
	ftx := &fakeTx{execErr: errors.New("conn closed")}
	db := &SessionDB{pool: &fakePool{tx: ftx}}

	called := false
	err := db.WithSystem(context.Background(), func(tx pgx.Tx) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "set current user")
	require.False(t, called)
}
