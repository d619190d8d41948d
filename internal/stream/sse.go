package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
)

// MaxEventBytes bounds one SSE line and the data of one event. An event
// over the bound is dropped and the stream keeps going.
const MaxEventBytes = 1024 * 1024

// Decoder splits a text/event-stream body into frames.
type Decoder struct {
	r    *bufio.Reader
	line []byte
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next frame. A comment line outside an event is returned
// as its own frame. An event over MaxEventBytes is returned with Oversized
// set and no data. io.EOF is returned when the body ends.
func (d *Decoder) Next() (Frame, error) {
	var (
		f        Frame
		data     bytes.Buffer
		pending  bool
		oversize bool
	)
	for {
		line, tooLong, err := d.readLine()
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		if err != nil {
			return Frame{}, fmt.Errorf("read event stream: %w", err)
		}
		if tooLong {
			oversize, pending = true, true
			data.Reset()
			continue
		}

		if line == "" {
			if oversize {
				return Frame{Event: f.Event, ID: f.ID, Oversized: true}, nil
			}
			if pending {
				f.Data = data.Bytes()
				return f, nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			if !pending {
				return Frame{Data: []byte(line), Comment: true}, nil
			}
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "data":
			pending = true
			if oversize {
				continue
			}
			if data.Len()+len(value)+1 > MaxEventBytes {
				oversize = true
				data.Reset()
				continue
			}
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(value)
		case "event":
			f.Event = value
			pending = true
		case "id":
			f.ID = value
		}
	}
}

// readLine returns the next line without its terminator. A line longer than
// MaxEventBytes is consumed up to its newline and reported as tooLong with
// its content discarded. A final line without a newline is still returned;
// io.EOF follows on the next call.
func (d *Decoder) readLine() (line string, tooLong bool, err error) {
	d.line = d.line[:0]
	for {
		chunk, err := d.r.ReadSlice('\n')
		if !tooLong {
			if len(d.line)+len(chunk) > MaxEventBytes+2 {
				tooLong = true
				d.line = d.line[:0]
			} else {
				d.line = append(d.line, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF && (len(d.line) > 0 || tooLong) {
			break
		}
		if err != nil {
			return "", false, err
		}
		break
	}
	if tooLong {
		return "", true, nil
	}
	s := strings.TrimSuffix(string(d.line), "\n")
	return strings.TrimSuffix(s, "\r"), false, nil
}

// SSEDialer opens server-sent event streams over HTTP.
type SSEDialer struct {
	client *http.Client
}

// NewSSEDialer returns an SSEDialer. A nil client means http.DefaultClient.
func NewSSEDialer(client *http.Client) *SSEDialer {
	if client == nil {
		client = http.DefaultClient
	}
	return &SSEDialer{client: client}
}

func (d *SSEDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt != "text/event-stream" {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}

	return &sseConn{body: resp.Body, dec: NewDecoder(resp.Body)}, nil
}

type sseConn struct {
	body io.ReadCloser
	dec  *Decoder
	once sync.Once
}

func (c *sseConn) Next() (Frame, error) {
	return c.dec.Next()
}

func (c *sseConn) Close() error {
	var err error
	c.once.Do(func() { err = c.body.Close() })
	return err
}
