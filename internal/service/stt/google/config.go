package google

import (
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

// Config holds the streaming recognition settings.
type Config struct {
	LanguageCode   string
	SampleRateHz   int
	AudioEncoding  string
	InterimResults bool
	ChunkMillis    int // Audio sent per request, paced in real time
}

// DefaultConfig returns the settings for 16kHz LINEAR16 audio.
func DefaultConfig() Config {
	return Config{
		LanguageCode:   "en-US",
		SampleRateHz:   16000,
		AudioEncoding:  "LINEAR16",
		InterimResults: true,
		ChunkMillis:    100,
	}
}

// chunkBytes returns the size of one paced audio chunk, assuming 16-bit
// mono samples.
func (c Config) chunkBytes() int {
	n := c.SampleRateHz * 2 * c.ChunkMillis / 1000
	if n <= 0 {
		return 3200
	}
	return n
}

// parseAudioEncoding maps an encoding name to the API enum. Unknown names
// fall back to LINEAR16.
func parseAudioEncoding(name string) speechpb.RecognitionConfig_AudioEncoding {
	switch name {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "AMR":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}
