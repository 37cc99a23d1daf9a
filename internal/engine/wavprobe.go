package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/wav"
)

// LocalFileLoader is an engine stand-in for demos and tests: it
// answers a load request by decoding a real WAV file's duration
// instead of talking to a running audio engine, the way
// getbpm.Length did for the tracker's own BPM-detection pass.
type LocalFileLoader struct {
	baseDir      string
	nextBufferID int
}

// NewLocalFileLoader resolves audio URLs as filenames under baseDir.
func NewLocalFileLoader(baseDir string) *LocalFileLoader {
	return &LocalFileLoader{baseDir: baseDir, nextBufferID: 1}
}

// Load decodes the WAV file named by audioURL (joined to baseDir) and
// returns a freshly minted buffer id plus its duration in seconds.
func (l *LocalFileLoader) Load(audioURL string) (bufferID int, durationSeconds float64, err error) {
	seconds, _, _, err := wavLength(filepath.Join(l.baseDir, audioURL))
	if err != nil {
		return 0, 0, fmt.Errorf("local file loader: %s: %w", audioURL, err)
	}
	bufferID = l.nextBufferID
	l.nextBufferID++
	return bufferID, seconds, nil
}

// wavLength reports a WAV file's duration, sample rate, and total
// frame count. PCM files are measured from the raw data chunk size;
// compressed formats fall back to the decoder's own Duration.
func wavLength(filename string) (seconds float64, sampleRate int64, totalFrames int64, err error) {
	f, openErr := os.Open(filename)
	if openErr != nil {
		err = fmt.Errorf("open: %w", openErr)
		return
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		err = fmt.Errorf("invalid WAV file")
		return
	}
	d.ReadInfo()

	const wavFormatPCM = 1
	const wavFormatExtensible = 65534
	if int(d.WavAudioFormat) != wavFormatPCM && int(d.WavAudioFormat) != wavFormatExtensible {
		var dur time.Duration
		dur, err = d.Duration()
		if err != nil {
			err = fmt.Errorf("duration (non-PCM): %w", err)
			return
		}
		seconds = dur.Seconds()
		sampleRate = int64(d.SampleRate)
		totalFrames = int64(dur.Seconds() * float64(d.SampleRate))
		return
	}

	if d.SampleRate == 0 {
		err = fmt.Errorf("invalid sample rate: 0")
		return
	}
	bytesPerSample := int64(d.BitDepth) / 8
	if bytesPerSample <= 0 {
		err = fmt.Errorf("invalid bit depth: %d", d.BitDepth)
		return
	}
	chans := int64(d.NumChans)
	if chans <= 0 {
		err = fmt.Errorf("invalid channel count: %d", d.NumChans)
		return
	}

	if !d.WasPCMAccessed() && d.PCMChunk == nil {
		if fwdErr := d.FwdToPCM(); fwdErr != nil {
			err = fmt.Errorf("locate PCM: %w", fwdErr)
			return
		}
	}

	totalBytes := d.PCMLen()
	if totalBytes <= 0 {
		err = fmt.Errorf("no PCM data")
		return
	}

	frameSize := bytesPerSample * chans
	if frameSize == 0 {
		err = fmt.Errorf("invalid frame size")
		return
	}

	totalFrames = totalBytes / frameSize
	sampleRate = int64(d.SampleRate)
	seconds = float64(totalFrames) / float64(sampleRate)
	return
}
