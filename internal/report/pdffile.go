package report

import (
	"bytes"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/ledongthuc/pdf"

	"github.com/scanio-labs/retriage/internal/findings"
)

// pdfFileParser extracts plain text from a PDF and hands it to the text
// scanner. Layout information is gone at that point, which is exactly the
// situation the text scanner is built for.
type pdfFileParser struct {
	logger hclog.Logger
	text   *pdfTextParser
}

func (p *pdfFileParser) Format() Format {
	return FormatPDF
}

func (p *pdfFileParser) Parse(inputPath string) ([]findings.Finding, error) {
	f, reader, err := pdf.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF report %q: %w", inputPath, err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from PDF report %q: %w", inputPath, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return nil, fmt.Errorf("failed to extract text from PDF report %q: %w", inputPath, err)
	}

	collected := p.text.parseText(buf.String())
	p.logger.Debug("parsed PDF report", "path", inputPath, "findings", len(collected))
	return collected, nil
}
