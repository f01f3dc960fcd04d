package rpc_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rpggio/cotime/internal/clock"
	"github.com/rpggio/cotime/internal/domain/checkin"
	"github.com/rpggio/cotime/internal/domain/project"
	"github.com/rpggio/cotime/internal/rpc"
	"github.com/rpggio/cotime/internal/signature"
	"github.com/stretchr/testify/require"
)

func TestAuthenticator_UsesWindowAsGiven(t *testing.T) {
	s := newSigner(t)
	clk := clock.NewManual(start)
	signed := func(ts int64) rpc.Signed {
		sig, err := s.SignAction(rpc.ActionJoin, 3, ts)
		require.NoError(t, err)
		return rpc.Signed{Caller: s.Address().Hex(), Timestamp: ts, Signature: hexutil.Encode(sig)}
	}

	strict := rpc.NewAuthenticator(true, signature.NewVerifier(), clk, checkin.Window{})
	caller, err := strict.Authenticate(rpc.ActionJoin, 3, signed(start.Unix()))
	require.NoError(t, err)
	require.Equal(t, s.Address(), caller)

	_, err = strict.Authenticate(rpc.ActionJoin, 3, signed(start.Add(-time.Minute).Unix()))
	require.ErrorIs(t, err, project.ErrReplay)

	lenient := rpc.NewAuthenticator(true, nil, clk, checkin.DefaultWindow())
	_, err = lenient.Authenticate(rpc.ActionJoin, 3, signed(start.Add(-time.Minute).Unix()))
	require.NoError(t, err)
}
