package raster

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// IHDR is always the first chunk: length, type, 13 bytes of data and the crc
const ihdrEnd = 8 + 4 + 4 + 13 + 4

// SetComment embeds a comment into encoded image data
// Only PNG carries comments, other formats are returned as is
func SetComment(data []byte, format Format, comment string) ([]byte, error) {
	if format != PNG || comment == "" {
		return data, nil
	}

	if len(data) < ihdrEnd || !bytes.Equal(data[:8], pngSignature) || string(data[12:16]) != "IHDR" {
		return nil, errors.New("invalid png data")
	}

	// tEXt is latin-1 and the keyword is null terminated
	text := make([]byte, 0, len("Comment")+1+len(comment))
	text = append(text, "Comment"...)
	text = append(text, 0)
	text = append(text, comment...)

	chunk := make([]byte, 0, 12+len(text))
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(text)))
	chunk = append(chunk, "tEXt"...)
	chunk = append(chunk, text...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunk...)
	out = append(out, data[ihdrEnd:]...)

	return out, nil
}
