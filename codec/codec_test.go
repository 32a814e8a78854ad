package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftopia/stellar-auth/core"
)

func testEnvelope(t *testing.T) core.Envelope {
	t.Helper()
	kp, err := core.NewKeypair()
	require.NoError(t, err)
	return core.NewChallengeEnvelope(kp.Identity(), []byte("0123456789abcdef0123456789abcdef"))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	env := testEnvelope(t)

	data, err := Encode(env)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, env, decoded)
}

func TestEncodeDecodeRoundTripWithSignature(t *testing.T) {
	env := testEnvelope(t)
	var sig core.DecoratedSignature
	copy(sig.Hint[:], []byte{1, 2, 3, 4})
	copy(sig.Signature[:], make([]byte, core.SignatureSize))
	env.Signatures = append(env.Signatures, sig)

	data, err := Encode(env)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, env, decoded)
}

func TestEncodeIsDeterministic(t *testing.T) {
	env := testEnvelope(t)

	a, err := Encode(env)
	require.NoError(t, err)
	b, err := Encode(env)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	data, err := Encode(testEnvelope(t))
	require.NoError(t, err)

	_, err = Decode(append(data, 0x00))
	assert.ErrorIs(t, err, core.ErrMalformed)
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	data, err := Encode(testEnvelope(t))
	require.NoError(t, err)

	data[0] = 0x7f
	_, err = Decode(data)
	assert.ErrorIs(t, err, core.ErrUnsupportedVersion)
}

func TestDecodeRejectsTruncation(t *testing.T) {
	data, err := Encode(testEnvelope(t))
	require.NoError(t, err)

	for _, n := range []int{0, 1, len(data) / 2, len(data) - 1} {
		_, err := Decode(data[:n])
		assert.Error(t, err, "length %d", n)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte{FormatV1, 0xff, 0xff, 0xff})
	assert.ErrorIs(t, err, core.ErrMalformed)
}

func TestDecodeRejectsBadKeyLengths(t *testing.T) {
	env := testEnvelope(t)
	wire := toWireEnvelope(env)
	wire.Body.Source = wire.Body.Source[:16]

	body, err := encMode.Marshal(wire)
	require.NoError(t, err)

	_, err = Decode(append([]byte{FormatV1}, body...))
	assert.ErrorIs(t, err, core.ErrMalformed)
}

func TestDecodeRejectsBadSignatureLengths(t *testing.T) {
	env := testEnvelope(t)
	wire := toWireEnvelope(env)
	wire.Signatures = append(wire.Signatures, wireSignature{
		Hint:      []byte{1, 2, 3, 4},
		Signature: make([]byte, 10),
	})

	body, err := encMode.Marshal(wire)
	require.NoError(t, err)

	_, err = Decode(append([]byte{FormatV1}, body...))
	assert.ErrorIs(t, err, core.ErrMalformed)
}

func TestEncodeBodyExcludesSignatures(t *testing.T) {
	env := testEnvelope(t)

	unsigned, err := EncodeBody(env)
	require.NoError(t, err)

	var sig core.DecoratedSignature
	env.Signatures = append(env.Signatures, sig)
	signed, err := EncodeBody(env)
	require.NoError(t, err)

	assert.Equal(t, unsigned, signed)
}
