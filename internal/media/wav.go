package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// WAVDuration reads a WAV file's duration from its RIFF header: the data
// chunk size divided by the declared byte rate. Only the header is read,
// never the samples.
func WAVDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()
	return readWAVDuration(f)
}

func readWAVDuration(r io.ReadSeeker) (float64, error) {
	header := make([]byte, 12)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, fmt.Errorf("read riff header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return 0, errors.New("not a wav file")
	}

	var byteRate uint32
	chunk := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, chunk); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return 0, errors.New("wav: no data chunk")
			}
			return 0, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return 0, errors.New("wav: fmt chunk too short")
			}
			body := make([]byte, 16)
			if _, err := io.ReadFull(r, body); err != nil {
				return 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			byteRate = binary.LittleEndian.Uint32(body[8:12])
			if err := skipChunk(r, size-16, size%2); err != nil {
				return 0, err
			}
		case "data":
			if byteRate == 0 {
				return 0, errors.New("wav: data chunk before fmt")
			}
			return float64(size) / float64(byteRate), nil
		default:
			if err := skipChunk(r, size, size%2); err != nil {
				return 0, err
			}
		}
	}
}

// skipChunk advances past a chunk body plus its alignment pad byte.
// Chunks are 2-byte aligned, so odd sizes carry one pad byte.
func skipChunk(r io.ReadSeeker, size, pad uint32) error {
	if size == 0 && pad == 0 {
		return nil
	}
	if _, err := r.Seek(int64(size)+int64(pad), io.SeekCurrent); err != nil {
		return fmt.Errorf("skip chunk: %w", err)
	}
	return nil
}
