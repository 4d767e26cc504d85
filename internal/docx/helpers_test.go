package docx_test

import (
	"archive/zip"
	"bytes"
	"testing"
)

func emptyZip(t *testing.T, buf *bytes.Buffer) []byte {
	t.Helper()
	zw := zip.NewWriter(buf)
	if _, err := zw.Create("word/other.xml"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return buf.Bytes()
}
