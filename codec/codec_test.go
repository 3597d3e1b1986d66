package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Datatype uint32 `json:"datatype" msgpack:"datatype"`
	Guard    bool   `json:"guard" msgpack:"guard"`
	IDs      []byte `json:"ids" msgpack:"ids"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "msgpack"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())

		in := payload{Datatype: 7, Guard: true, IDs: []byte{1, 2, 3}}
		data, err := c.Marshal(in)
		require.NoError(t, err)
		var out payload
		require.NoError(t, c.Unmarshal(data, &out))
		assert.Equal(t, in, out)
	}

	_, ok := ByName("gob")
	assert.False(t, ok)
	assert.Equal(t, []string{"json", "msgpack"}, Names())
}

func TestCompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("facet-term-result "), 200)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			block, err := Compress(data, c)
			require.NoError(t, err)
			assert.Equal(t, byte(c), block[0])
			if c != CompressionNone {
				assert.Less(t, len(block), len(data))
			}

			got, err := Decompress(block)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestCompressIncompressibleFallsBack(t *testing.T) {
	data := []byte{0x01}
	block, err := Compress(data, CompressionZstd)
	require.NoError(t, err)
	assert.Equal(t, byte(CompressionNone), block[0])

	got, err := Decompress(block)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDecompressCorrupt(t *testing.T) {
	_, err := Decompress([]byte{1, 2})
	assert.ErrorIs(t, err, ErrCorruptBlock)

	_, err = Decompress([]byte{9, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrCorruptBlock)

	_, err = Decompress([]byte{byte(CompressionNone), 4, 0, 0, 0, 1})
	assert.ErrorIs(t, err, ErrCorruptBlock)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("zstd")
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, c)

	c, err = ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, c)

	_, err = ParseCompression("brotli")
	assert.Error(t, err)
}
