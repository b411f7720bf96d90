package ingest

import (
	"mime"
	"net/http"
	"path"
	"strings"
)

const (
	MIMEZip  = "application/zip"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMECSV  = "text/csv"
	MIMETSV  = "text/tab-separated-values"
)

// DetectMIME returns the media type of an upload from its leading bytes,
// refined by the file extension. Zip-based formats all sniff as zip, so the
// extension decides between a plain archive and a workbook.
func DetectMIME(name string, head []byte) string {
	sniffed := http.DetectContentType(head)
	if mt, _, err := mime.ParseMediaType(sniffed); err == nil {
		sniffed = mt
	}

	ext := strings.ToLower(path.Ext(strings.ReplaceAll(name, `\`, "/")))
	switch sniffed {
	case MIMEZip:
		if ext == ".xlsx" {
			return MIMEXLSX
		}
		return MIMEZip
	case "text/plain":
		switch ext {
		case ".csv":
			return MIMECSV
		case ".tsv", ".tab":
			return MIMETSV
		}
	}
	return sniffed
}

// IsXLSX reports whether a detected media type is an xlsx workbook.
func IsXLSX(mediaType string) bool {
	return mediaType == MIMEXLSX
}
