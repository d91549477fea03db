package pg

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Begin(t *testing.T) {
	errFn := errors.New("fn failed")

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		fn        func(conn *Conn, m *Manager) TransactionalFn
		wantErr   error
	}{
		{
			name: "commits when fn succeeds",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE bookings").
					WithArgs("assigned").
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectCommit()
			},
			fn: func(conn *Conn, _ *Manager) TransactionalFn {
				return func(ctx context.Context) error {
					_, err := conn.Exec(ctx, "UPDATE bookings SET status = $1", "assigned")
					return err
				}
			},
		},
		{
			name: "rolls back when fn fails",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			fn: func(_ *Conn, _ *Manager) TransactionalFn {
				return func(ctx context.Context) error { return errFn }
			},
			wantErr: errFn,
		},
		{
			name: "nested begin joins the outer transaction",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec("DELETE FROM favorites").
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
				mock.ExpectCommit()
			},
			fn: func(conn *Conn, m *Manager) TransactionalFn {
				return func(ctx context.Context) error {
					return m.Begin(ctx, func(ctx context.Context) error {
						_, err := conn.Exec(ctx, "DELETE FROM favorites")
						return err
					})
				}
			},
		},
		{
			name: "begin error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
			},
			fn: func(_ *Conn, _ *Manager) TransactionalFn {
				return func(ctx context.Context) error { return nil }
			},
			wantErr: errors.New("begin transaction: connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			conn := New(mock)
			m := NewTXManager(mock)
			tt.mockSetup(mock)

			err = m.Begin(context.Background(), tt.fn(conn, m))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestConn_UsesPoolOutsideTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(pgxmock.NewRows([]string{"n"}).AddRow(1))

	conn := New(mock)
	require.NoError(t, conn.Ping(context.Background()))

	var n int
	require.NoError(t, conn.QueryRow(context.Background(), "SELECT 1").Scan(&n))
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
