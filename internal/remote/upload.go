package remote

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/Arcelliteserver/arcellite-sub000/internal/protocol"
)

// ProgressFunc receives incremental upload percentages in the range 0-100.
type ProgressFunc func(pct int)

// progressReader reports transfer progress while the request body is read.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	lastPct  int
	progress ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 && p.total > 0 && p.progress != nil {
		p.read += int64(n)
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct > p.lastPct {
			p.lastPct = pct
			p.progress(pct)
		}
	}
	return n, err
}

// Upload sends one file as multipart form data to (namespace, path),
// streaming percentage updates through progress as the body is consumed.
func (c *Client) Upload(ctx context.Context, namespace, path, fileName string, content io.Reader, size int64, progress ProgressFunc) (*protocol.UploadResponse, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	// When the server rejects the request without draining the body, the
	// writer goroutine is still parked on the pipe (or in content.Read).
	// Closing the read end on return makes its next write fail so it
	// cannot linger past the call.
	defer pr.Close()

	go func() {
		werr := func() error {
			if err := form.WriteField("namespace", namespace); err != nil {
				return err
			}
			if err := form.WriteField("path", path); err != nil {
				return err
			}
			part, err := form.CreateFormFile("file", fileName)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, &progressReader{
				r:        content,
				total:    size,
				progress: progress,
			}); err != nil {
				return err
			}
			return form.Close()
		}()
		pw.CloseWithError(werr)
	}()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/upload", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.applyAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setOnline(false)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.setOnline(false)
		return nil, errorFrom(resp)
	}

	c.setOnline(true)

	var result protocol.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
