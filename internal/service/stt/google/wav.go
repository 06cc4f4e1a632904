package google

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// wavHeaderSize is the header size of a canonical PCM WAV file.
const wavHeaderSize = 44

// ErrNotWAV is returned for input that is not a PCM WAV file.
var ErrNotWAV = errors.New("not a PCM WAV file")

// WAVHeader describes the audio in a WAV file.
type WAVHeader struct {
	Format        uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// ReadWAVHeader reads and validates a canonical WAV header. r is left at the
// first audio byte.
func ReadWAVHeader(r io.Reader) (WAVHeader, error) {
	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return WAVHeader{}, fmt.Errorf("%w: %w", ErrNotWAV, err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return WAVHeader{}, fmt.Errorf("%w: missing RIFF/WAVE marker", ErrNotWAV)
	}

	h := WAVHeader{
		Format:        binary.LittleEndian.Uint16(header[20:22]),
		Channels:      binary.LittleEndian.Uint16(header[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(header[24:28]),
		BitsPerSample: binary.LittleEndian.Uint16(header[34:36]),
	}
	if h.Format != 1 {
		return WAVHeader{}, fmt.Errorf("%w: format %d", ErrNotWAV, h.Format)
	}
	return h, nil
}

// WAVFile is an opened WAV file positioned at its audio data.
type WAVFile struct {
	Header WAVHeader
	f      *os.File
}

// OpenWAV opens a PCM WAV file for streaming.
func OpenWAV(path string) (*WAVFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	h, err := ReadWAVHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &WAVFile{Header: h, f: f}, nil
}

func (w *WAVFile) Read(p []byte) (int, error) {
	return w.f.Read(p)
}

func (w *WAVFile) Close() error {
	return w.f.Close()
}
