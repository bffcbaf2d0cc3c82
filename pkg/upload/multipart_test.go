package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/noventa-dev/noventa/pkg/render"
)

type recordingStore struct {
	saved []Stored
}

func (s *recordingStore) Save(ctx context.Context, filename, contentType string, r io.Reader) (Stored, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Stored{}, err
	}
	stored := Stored{
		ID:          "stored-1",
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Path:        "/tmp/stored-1",
	}
	s.saved = append(s.saved, stored)
	return stored, nil
}

func (s *recordingStore) Remove(ctx context.Context, id string) error { return nil }

func (s *recordingStore) Cleanup(ctx context.Context, maxAge time.Duration) error { return nil }

func buildMultipart(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			t.Fatal(err)
		}
	}
	for name, content := range files {
		part, err := w.CreateFormFile(name, name+".txt")
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte(content))
	}
	w.Close()
	return &body, w.FormDataContentType()
}

func emptyRequest() *render.Request {
	return &render.Request{
		Method: "POST",
		Form:   map[string]string{},
		Files:  map[string]render.FilePart{},
	}
}

func TestAttachMultipartSmallPartStaysInMemory(t *testing.T) {
	body, contentType := buildMultipart(t,
		map[string]string{"action": "save", "title": "hello"},
		map[string]string{"attachment": "tiny"},
	)
	r := httptest.NewRequest("POST", "/notes", body)
	r.Header.Set("Content-Type", contentType)

	store := &recordingStore{}
	req := emptyRequest()
	if err := AttachMultipart(context.Background(), r, req, store, 1<<20); err != nil {
		t.Fatal(err)
	}

	if req.Form["action"] != "save" || req.Form["title"] != "hello" {
		t.Errorf("form = %v", req.Form)
	}
	part, ok := req.Files["attachment"]
	if !ok {
		t.Fatal("attachment missing from Files")
	}
	if string(part.Data) != "tiny" {
		t.Errorf("data = %q", part.Data)
	}
	if part.Path != "" {
		t.Errorf("small part was spooled to %q", part.Path)
	}
	if len(store.saved) != 0 {
		t.Errorf("store saw %d saves", len(store.saved))
	}
}

func TestAttachMultipartLargePartGoesThroughStore(t *testing.T) {
	big := strings.Repeat("x", 64)
	body, contentType := buildMultipart(t, nil, map[string]string{"upload": big})
	r := httptest.NewRequest("POST", "/files", body)
	r.Header.Set("Content-Type", contentType)

	store := &recordingStore{}
	req := emptyRequest()
	if err := AttachMultipart(context.Background(), r, req, store, 16); err != nil {
		t.Fatal(err)
	}

	part := req.Files["upload"]
	if part.Data != nil {
		t.Error("large part kept in memory")
	}
	if part.Path != "/tmp/stored-1" {
		t.Errorf("path = %q", part.Path)
	}
	if len(store.saved) != 1 || store.saved[0].Size != int64(len(big)) {
		t.Errorf("store saves = %+v", store.saved)
	}
}

func TestAttachMultipartMalformedBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/notes", strings.NewReader("not multipart"))
	r.Header.Set("Content-Type", "multipart/form-data; boundary=missing")

	err := AttachMultipart(context.Background(), r, emptyRequest(), &recordingStore{}, 1<<20)
	if err == nil {
		t.Fatal("expected an error")
	}
	var invalid *render.InvalidRequestError
	if !errors.As(err, &invalid) {
		t.Errorf("err = %T, want InvalidRequestError", err)
	}
}

func TestIsMultipart(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set("Content-Type", "multipart/form-data; boundary=abc")
	if !IsMultipart(r) {
		t.Error("multipart request not detected")
	}
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if IsMultipart(r) {
		t.Error("urlencoded request detected as multipart")
	}
}
