package rollup

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksumAddress(t *testing.T) {
	got, err := ChecksumAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	require.NoError(t, err)
	require.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", got)

	again, err := ChecksumAddress("0xF39FD6E51AAD88F6F4CE6AB8827279CFFFB92266")
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestChecksumAddressRejectsInvalid(t *testing.T) {
	for _, input := range []string{"", "alice", "0x1234", "0xzz9fd6e51aad88f6f4ce6ab8827279cfffb92266"} {
		_, err := ChecksumAddress(input)
		require.ErrorIs(t, err, ErrSenderInvalid, input)
	}
}

func TestHexRoundTrip(t *testing.T) {
	encoded := EncodeHex([]byte(`{"method":"mint_nft"}`))
	require.Equal(t, "0x7b226d6574686f64223a226d696e745f6e6674227d", encoded)

	decoded, err := DecodeHex(encoded)
	require.NoError(t, err)
	require.Equal(t, `{"method":"mint_nft"}`, string(decoded))

	empty, err := DecodeHex("0x")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestDecodeHexRejectsMalformed(t *testing.T) {
	for _, input := range []string{"7b7d", "0x7", "0xzz"} {
		_, err := DecodeHex(input)
		require.Error(t, err, input)
	}
}

func TestDecodeAdvance(t *testing.T) {
	data := mustJSON(t, advanceRequest("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", `{"method":"x"}`, 3)["data"])

	advance, err := DecodeAdvance(data)
	require.NoError(t, err)
	require.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", advance.Sender)
	require.Equal(t, uint64(3), advance.Metadata.InputIndex)
	require.Equal(t, uint64(13), advance.Metadata.BlockNumber)
	require.Equal(t, `{"method":"x"}`, string(advance.Payload))
}

func TestDecodeAdvanceRejectsInvalidEnvelope(t *testing.T) {
	cases := map[string]string{
		"bad sender":       `{"metadata":{"msg_sender":"bob"},"payload":"0x"}`,
		"missing metadata": `{"payload":"0x"}`,
		"missing payload":  `{"metadata":{"msg_sender":"0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"}}`,
		"unprefixed hex":   `{"metadata":{"msg_sender":"0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"},"payload":"7b7d"}`,
		"odd hex":          `{"metadata":{"msg_sender":"0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"},"payload":"0x7b7"}`,
		"not json":         `[`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeAdvance(json.RawMessage(data))
			require.Error(t, err)
		})
	}
}

func TestDecodeInspect(t *testing.T) {
	inspect, err := DecodeInspect(mustJSON(t, inspectRequest("nft/1")["data"]))
	require.NoError(t, err)
	require.Equal(t, "nft/1", string(inspect.Payload))

	_, err = DecodeInspect(json.RawMessage(`{"payload":""}`))
	require.Error(t, err)
}

func mustJSON(t *testing.T, value any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	return data
}
