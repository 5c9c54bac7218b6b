package plantuml

import "errors"

// Sentinel errors for the text-transport codec. Decode failures wrap both
// ErrDecode and exactly one of the kind sentinels, so callers can branch
// with errors.Is at either granularity.
var (
	ErrEncode = errors.New("plantuml: encode failed")
	ErrDecode = errors.New("plantuml: decode failed")

	ErrInvalidSymbol   = errors.New("byte outside the PlantUML alphabet")
	ErrBase64Malformed = errors.New("malformed base64 payload")
	ErrDeflateCorrupt  = errors.New("corrupt deflate stream")
	ErrInvalidUTF8     = errors.New("decompressed text is not valid UTF-8")
)
