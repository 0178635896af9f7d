package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCardCodec(t *testing.T) {
	cases := []string{
		"HCN123",
		"1234-567-890",
		"",
		"Ünïcode-Çard-№42",
	}

	for _, hcn := range cases {
		encoded := encodeHealthCard(hcn)
		decoded, err := decodeHealthCard(encoded)
		require.NoError(t, err)
		assert.Equal(t, hcn, decoded)
	}
}

func TestHealthCardCodec_Encoded(t *testing.T) {
	assert.Equal(t, "48434e313233", encodeHealthCard("HCN123"))
}

func TestDecodeHealthCard_Invalid(t *testing.T) {
	_, err := decodeHealthCard("not-hex!")
	require.Error(t, err)
}
