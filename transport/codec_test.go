package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawCodecRoundTrip(t *testing.T) {
	var c RawCodec
	in := []byte("hello world")

	encoded, err := c.Marshal(&in)
	require.NoError(t, err)
	assert.Equal(t, in, encoded)

	var out []byte
	require.NoError(t, c.Unmarshal(encoded, &out))
	assert.Equal(t, in, out)
}

func TestRawCodecRejectsWrongType(t *testing.T) {
	var c RawCodec

	_, err := c.Marshal("not a pointer to []byte")
	assert.Error(t, err)

	assert.Error(t, c.Unmarshal([]byte("x"), new(string)))
}

func TestRawCodecName(t *testing.T) {
	assert.Equal(t, "raw-bytes", RawCodec{}.Name())
}
