package inspect

import (
	"bytes"

	"golang.org/x/text/unicode/norm"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// normalizeBytes performs the same input normalization AILANG's lexer
// applies at its source boundary: strip a UTF-8 BOM, then fold to
// Unicode NFC so visually identical declaration names typed two
// different ways (precomposed vs. combining-mark) compare equal.
func normalizeBytes(src []byte) []byte {
	src = bytes.TrimPrefix(src, bomUTF8)
	if !norm.NFC.IsNormal(src) {
		src = norm.NFC.Bytes(src)
	}
	return src
}
