package blob

import (
	"fmt"
	"strings"

	"github.com/vincent-petithory/dataurl"
)

// Inline is a decoded data URL.
type Inline struct {
	ContentType string
	Data        []byte
}

// IsDataURL reports whether s carries an embedded payload.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURL decodes an RFC 2397 data URL.
func DecodeDataURL(s string) (*Inline, error) {
	du, err := dataurl.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return &Inline{
		ContentType: du.MediaType.ContentType(),
		Data:        du.Data,
	}, nil
}
