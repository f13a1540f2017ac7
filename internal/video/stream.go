package video

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

var (
	jpegStart = []byte{0xff, 0xd8}
	jpegEnd   = []byte{0xff, 0xd9}
)

// streamSource pulls the next complete JPEG from a continuously-updating
// MJPEG stream URL. One Capture performs one bounded fetch; the connection
// is not held between events.
type streamSource struct {
	cameraID int
	url      string
	client   http.Client
}

func (s *streamSource) CameraID() int { return s.cameraID }

func (s *streamSource) Capture(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("camera %d: build request: %w", s.cameraID, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("camera %d: fetch stream: %w", s.cameraID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera %d: stream returned HTTP %d", s.cameraID, resp.StatusCode)
	}

	frame, err := readJPEG(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("camera %d: %w", s.cameraID, err)
	}
	return frame, nil
}

// readJPEG scans the stream for the first complete SOI..EOI frame.
func readJPEG(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			data := buf.Bytes()
			start := bytes.Index(data, jpegStart)
			if start >= 0 {
				if end := bytes.Index(data[start:], jpegEnd); end >= 0 {
					frame := make([]byte, end+len(jpegEnd))
					copy(frame, data[start:start+end+len(jpegEnd)])
					return frame, nil
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("stream ended without a complete frame")
			}
			return nil, fmt.Errorf("read stream: %w", err)
		}
	}
}
