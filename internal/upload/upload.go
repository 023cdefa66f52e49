// Package upload pulls the "file" part out of a multipart/form-data body.
package upload

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"strings"
)

// FieldName is the form field the schema upload endpoint reads.
const FieldName = "file"

// ExtractFile returns the bytes of the first part whose form name is "file",
// compared case-insensitively. It reports false when contentType carries no
// boundary, the body cannot be parsed up to that part, or no such part
// exists. A "file" part cut off by the end of the body, with no closing
// delimiter, still counts: its bytes run to the end minus one trailing CRLF.
func ExtractFile(body []byte, contentType string) ([]byte, bool) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, false
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, false
	}

	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			// io.EOF means no "file" part; anything else is a malformed body.
			return nil, false
		}

		if !strings.EqualFold(part.FormName(), FieldName) {
			part.Close()
			continue
		}

		data, err := io.ReadAll(part)
		part.Close()
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return bytes.TrimSuffix(data, []byte("\r\n")), true
		}
		if err != nil {
			return nil, false
		}
		return data, true
	}
}
