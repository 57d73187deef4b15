package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"

	"github.com/ibu-sdp/rag-api/internal/domain/commonModels"
	"github.com/ibu-sdp/rag-api/pkg/logger_i"
)

var extractLogger = logger_i.NewLogger("doc_extraction")

func baseName(path string) string {
	return filepath.Base(path)
}

func getDocType(docPath string) commonModels.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".rtf", ".odt":
		return commonModels.DOCX
	case ".txt", ".md":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

func extractText(path string) (string, error) {
	switch getDocType(path) {
	case commonModels.PDF:
		return extractPDF(path)
	case commonModels.DOCX, commonModels.TXT:
		return extractDocxTxt(path)
	default:
		return "", fmt.Errorf("%w: %s", commonModels.ErrUnsupportedDocType, filepath.Ext(path))
	}
}

func extractPDF(path string) (string, error) {
	extractLogger.Debug("extractPDF", "attempting extraction", path)
	f, err := pdf.Open(path)
	if err != nil {
		extractLogger.Error("failed opening of pdf file", "error", err)
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var sb strings.Builder
	numPages := f.NumPage()
	extractLogger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// A broken page should not sink the rest of the document.
			extractLogger.Error("Error parsing page content", "page", i, "error", err)
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(content)
	}
	return sb.String(), nil
}

// extractDocxTxt reads a .odt, .docx, .rtf or plaintext file and returns the
// content as a string.
func extractDocxTxt(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		extractLogger.Error("Error extracting content from doc", "error", err)
		return "", fmt.Errorf("failed to extract document: %w", err)
	}
	return text, nil
}

// protectExtract guards GetPlainText, which can hang on malformed pages.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(time.Second * 10):
		extractLogger.Error("pageExtract timed out")
		return "", errors.New("timeout")
	}
}
