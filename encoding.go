// Package plantuml implements the PlantUML text-transport codec and a client
// for a PlantUML rendering server.
//
// The codec turns arbitrary UTF-8 diagram text into a URL-safe token by
// deflating the text and re-encoding it over the PlantUML alphabet, and turns
// such tokens back into text. The wire format is the public PlantUML text
// encoding (https://plantuml.com/text-encoding), so tokens are accepted by
// any PlantUML server.
package plantuml

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	base64Alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	plantumlAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"
)

// Position-wise substitution tables between the two alphabets. 0xFF marks a
// byte that belongs to neither alphabet.
var (
	toPlantuml [256]byte
	toBase64   [256]byte
)

func init() {
	for i := range toPlantuml {
		toPlantuml[i] = 0xFF
		toBase64[i] = 0xFF
	}
	for i := 0; i < 64; i++ {
		toPlantuml[base64Alphabet[i]] = plantumlAlphabet[i]
		toBase64[plantumlAlphabet[i]] = base64Alphabet[i]
	}
}

// Encode compresses text with raw DEFLATE at the default level and encodes
// the payload over the PlantUML alphabet. The result contains only the 62
// alphanumerics plus '-' and '_', so it can be embedded in a URL path
// segment without percent-encoding. Encoding is deterministic: the same text
// always yields the same token.
func Encode(text string) (string, error) {
	var buf bytes.Buffer
	zw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if _, err := zw.Write([]byte(text)); err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncode, err)
	}

	// Unpadded base64: the PlantUML alphabet has no symbol for '=', and the
	// payload length recovers the padding deterministically on decode.
	b64 := base64.RawStdEncoding.EncodeToString(buf.Bytes())

	out := make([]byte, len(b64))
	for i := 0; i < len(b64); i++ {
		out[i] = toPlantuml[b64[i]]
	}
	return string(out), nil
}

// Decode reverses Encode: translate the token back to the standard base64
// alphabet, decode it, and inflate the raw DEFLATE payload. Raw DEFLATE
// carries no checksum, matching the reference behavior of never verifying
// the zlib trailer. Trailing '=' padding is tolerated for compatibility with
// encoders that keep it; any other byte outside the PlantUML alphabet is
// rejected.
func Decode(token string) (string, error) {
	token = strings.TrimRight(token, "=")

	b64 := make([]byte, len(token))
	for i := 0; i < len(token); i++ {
		c := toBase64[token[i]]
		if c == 0xFF {
			return "", fmt.Errorf("%w: %w: %q at offset %d", ErrDecode, ErrInvalidSymbol, token[i], i)
		}
		b64[i] = c
	}

	payload, err := base64.RawStdEncoding.DecodeString(string(b64))
	if err != nil {
		return "", fmt.Errorf("%w: %w: %w", ErrDecode, ErrBase64Malformed, err)
	}

	zr := flate.NewReader(bytes.NewReader(payload))
	defer zr.Close()
	text, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("%w: %w: %w", ErrDecode, ErrDeflateCorrupt, err)
	}

	if !utf8.Valid(text) {
		return "", fmt.Errorf("%w: %w", ErrDecode, ErrInvalidUTF8)
	}
	return string(text), nil
}
