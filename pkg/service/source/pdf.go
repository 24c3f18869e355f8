package source

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/m-mizutani/goerr/v2"
)

// ExtractPDFText returns the plain text of every page, pages separated by a blank line.
// Pages whose text cannot be extracted are skipped.
func ExtractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", goerr.Wrap(err, "failed to create PDF reader")
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", goerr.New("PDF has no extractable text", goerr.V("pages", reader.NumPage()))
	}
	return sb.String(), nil
}
