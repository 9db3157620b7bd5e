package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURL(t *testing.T) {
	in, err := DecodeDataURL("data:text/plain;base64,aGVsbG8gd29ybGQ=")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", in.ContentType)
	assert.Equal(t, "hello world", string(in.Data))
}

func TestDecodeDataURL_Invalid(t *testing.T) {
	_, err := DecodeDataURL("data:nonsense")
	assert.Error(t, err)
}

func TestIsDataURL(t *testing.T) {
	assert.True(t, IsDataURL("data:application/pdf;base64,JVBERi0="))
	assert.False(t, IsDataURL("https://example.com/file.pdf"))
	assert.False(t, IsDataURL("#"))
}

func TestNewMinIO_RequiresConfig(t *testing.T) {
	_, err := NewMinIO(t.Context(), MinIOConfig{})
	assert.ErrorContains(t, err, "endpoint is required")

	_, err = NewMinIO(t.Context(), MinIOConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "credentials are required")

	_, err = NewMinIO(t.Context(), MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket is required")

	assert.False(t, MinIOConfig{}.Enabled())
	assert.True(t, MinIOConfig{Endpoint: "localhost:9000"}.Enabled())
}
