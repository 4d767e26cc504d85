package confluence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// Attach uploads the file at path to the page, replacing an attachment with
// the same name. The file is closed before Attach returns.
func (s *Session) Attach(ctx context.Context, pageID, path string) error {
	body, contentType, err := attachmentForm(path)
	if err != nil {
		return err
	}

	err = s.client.do(ctx, Request{
		Operation:   "attachment.upload",
		Method:      "PUT",
		Path:        "wiki/rest/api/content/" + url.PathEscape(pageID) + "/child/attachment",
		RawBody:     body,
		ContentType: contentType,
		Header:      http.Header{"X-Atlassian-Token": []string{"no-check"}},
	}, nil)
	if err != nil {
		return err
	}
	s.client.logger.Debug("confluence.attachment.uploaded", "page_id", pageID, "file", filepath.Base(path))
	return nil
}

// attachmentForm encodes the file as the "file" field of a multipart form.
func attachmentForm(path string) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("confluence: open attachment %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("confluence: attachment form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("confluence: read attachment %s: %w", path, err)
	}
	if err := mw.WriteField("minorEdit", "true"); err != nil {
		return nil, "", fmt.Errorf("confluence: attachment form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("confluence: attachment form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
