package voice

import (
	"bufio"
	"context"
	"encoding/binary"
	"math"
	"os"
	"strings"
)

const (
	placeholderSampleRate = 22050
	placeholderFrequency  = 440.0
	secondsPerWord        = 0.5
)

// Placeholder writes a 440 Hz mono tone lasting half a second per word.
type Placeholder struct{}

func (Placeholder) Name() string { return "placeholder" }
func (Placeholder) Ext() string  { return ".wav" }

func (Placeholder) Synthesize(ctx context.Context, req Request, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	words := len(strings.Fields(req.Text))
	if words == 0 {
		words = 1
	}
	samples := int(float64(words) * secondsPerWord * placeholderSampleRate)

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := writeTone(w, samples); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeTone emits a 16-bit PCM WAV file.
func writeTone(w *bufio.Writer, samples int) error {
	const bitsPerSample, channels = 16, 1
	dataSize := uint32(samples * channels * bitsPerSample / 8)
	byteRate := uint32(placeholderSampleRate * channels * bitsPerSample / 8)

	header := []interface{}{
		[4]byte{'R', 'I', 'F', 'F'},
		36 + dataSize,
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(1), // PCM
		uint16(channels),
		uint32(placeholderSampleRate),
		byteRate,
		uint16(channels * bitsPerSample / 8),
		uint16(bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		dataSize,
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	for i := 0; i < samples; i++ {
		t := float64(i) / placeholderSampleRate
		v := int16(0.3 * math.MaxInt16 * math.Sin(2*math.Pi*placeholderFrequency*t))
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}
