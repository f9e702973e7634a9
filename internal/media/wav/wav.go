// Package wav encodes and inspects 16-bit PCM mono WAV files. Every audio
// asset in a run shares this format so assembly can read clip durations
// without shelling out to ffprobe.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	headerSize    = 44
	bitsPerSample = 16
	numChannels   = 1
)

// Encode wraps mono 16-bit samples in a WAV container.
func Encode(samples []int16, sampleRate int) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(sample))
	}
	return EncodePCM(pcm, sampleRate)
}

// EncodePCM wraps raw little-endian 16-bit mono PCM bytes in a WAV container.
func EncodePCM(pcm []byte, sampleRate int) []byte {
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8

	buf := make([]byte, headerSize+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], numChannels)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[headerSize:], pcm)
	return buf
}

// WriteFile encodes samples and writes the WAV to disk.
func WriteFile(path string, samples []int16, sampleRate int) error {
	return os.WriteFile(path, Encode(samples, sampleRate), 0o644)
}

// Duration reads the fmt and data chunks of a WAV payload and returns the
// audio length.
func Duration(data []byte) (time.Duration, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, errors.New("not a wav payload")
	}

	var byteRate uint32
	var dataSize uint32
	foundFmt := false
	foundData := false

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		body := offset + 8

		switch chunkID {
		case "fmt ":
			if body+16 > len(data) {
				return 0, errors.New("truncated fmt chunk")
			}
			byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
			foundFmt = true
		case "data":
			dataSize = chunkSize
			foundData = true
		}

		// Chunks are word aligned.
		advance := int(chunkSize)
		if advance%2 == 1 {
			advance++
		}
		offset = body + advance
	}

	if !foundFmt || !foundData {
		return 0, errors.New("missing fmt or data chunk")
	}
	if byteRate == 0 {
		return 0, errors.New("fmt chunk has zero byte rate")
	}
	seconds := float64(dataSize) / float64(byteRate)
	return time.Duration(seconds * float64(time.Second)), nil
}

// FileDuration reads a WAV file from disk and returns its audio length.
func FileDuration(path string) (time.Duration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read wav: %w", err)
	}
	return Duration(data)
}
