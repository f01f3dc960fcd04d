package signature

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestCheckInDigestMatchesPackedEncoding(t *testing.T) {
	signer := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	ts := int64(1_700_000_000)

	expected := crypto.Keccak256Hash(
		common.LeftPadBytes(big.NewInt(7).Bytes(), 32),
		[]byte("Qm-proof"),
		common.LeftPadBytes(big.NewInt(ts).Bytes(), 32),
		signer.Bytes(),
	)
	require.Equal(t, expected, CheckInDigest(7, "Qm-proof", ts, signer))
	require.NotEqual(t, expected, CheckInDigest(8, "Qm-proof", ts, signer))
}

func TestActionDigestBindsAction(t *testing.T) {
	signer := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	require.NotEqual(t,
		ActionDigest("join_project", 1, 100, signer),
		ActionDigest("finish_project", 1, 100, signer),
	)
}

func TestVerifyRoundTrip(t *testing.T) {
	s, err := GenerateSigner()
	require.NoError(t, err)

	sig, err := s.SignCheckIn(3, "proof", 1_700_000_000)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	require.Contains(t, []byte{27, 28}, sig[64])

	v := NewVerifier()
	digest := CheckInDigest(3, "proof", 1_700_000_000, s.Address())
	require.NoError(t, v.Verify(s.Address(), digest, sig))

	// Raw 0/1 recovery ids are accepted as well.
	raw := append([]byte(nil), sig...)
	raw[64] -= 27
	require.NoError(t, v.Verify(s.Address(), digest, raw))
}

func TestVerifyRejectsOtherSigner(t *testing.T) {
	alice, err := GenerateSigner()
	require.NoError(t, err)
	bob, err := GenerateSigner()
	require.NoError(t, err)

	sig, err := alice.SignCheckIn(1, "proof", 100)
	require.NoError(t, err)

	err = NewVerifier().Verify(bob.Address(), CheckInDigest(1, "proof", 100, bob.Address()), sig)
	require.ErrorIs(t, err, ErrMismatch)
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	s, err := GenerateSigner()
	require.NoError(t, err)

	sig, err := s.SignCheckIn(1, "proof", 100)
	require.NoError(t, err)

	err = NewVerifier().Verify(s.Address(), CheckInDigest(1, "proof", 101, s.Address()), sig)
	require.Error(t, err)
}

func TestVerifyRejectsMalformed(t *testing.T) {
	s, err := GenerateSigner()
	require.NoError(t, err)
	digest := CheckInDigest(1, "proof", 100, s.Address())

	err = NewVerifier().Verify(s.Address(), digest, []byte{1, 2, 3})
	require.ErrorIs(t, err, ErrMalformed)

	sig, err := s.Sign(digest)
	require.NoError(t, err)
	badV := append([]byte(nil), sig...)
	badV[64] = 5
	require.ErrorIs(t, NewVerifier().Verify(s.Address(), digest, badV), ErrMalformed)
}

func TestVerifyRejectsHighS(t *testing.T) {
	s, err := GenerateSigner()
	require.NoError(t, err)
	digest := CheckInDigest(9, "proof", 100, s.Address())

	sig, err := s.Sign(digest)
	require.NoError(t, err)

	n := crypto.S256().Params().N
	lowS := new(big.Int).SetBytes(sig[32:64])
	highS := new(big.Int).Sub(n, lowS)

	malleable := make([]byte, 65)
	copy(malleable[:32], sig[:32])
	copy(malleable[32:64], common.LeftPadBytes(highS.Bytes(), 32))
	malleable[64] = 27 + ((sig[64] - 27) ^ 1)

	require.ErrorIs(t, NewVerifier().Verify(s.Address(), digest, malleable), ErrMalformed)
}

func TestParseSignerRoundTrip(t *testing.T) {
	s, err := GenerateSigner()
	require.NoError(t, err)

	parsed, err := ParseSigner("0x" + s.HexKey())
	require.NoError(t, err)
	require.Equal(t, s.Address(), parsed.Address())

	_, err = ParseSigner("not-a-key")
	require.Error(t, err)
}
