package config

// Watermark stages.
const (
	StageFrame   = "frame"
	StageEncoder = "encoder"
	StageBoth    = "both"
)

const (
	defaultWidth            = 1920
	defaultHeight           = 1080
	defaultFPS              = 30
	defaultOutputDir        = "output"
	defaultFFmpegPath       = "ffmpeg"
	defaultCodec            = "auto"
	defaultPreset           = "medium"
	defaultEncoderTimeout   = 600
	defaultWatermarkLabel   = "scene2video"
	defaultWatermarkOpacity = 0.7
	defaultLogFormat        = "auto"
	defaultLogLevel         = "info"
	defaultServerBind       = "127.0.0.1:8088"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Render: Render{
			Width:     defaultWidth,
			Height:    defaultHeight,
			FPS:       defaultFPS,
			OutputDir: defaultOutputDir,
		},
		Encoder: Encoder{
			FFmpegPath:     defaultFFmpegPath,
			Codec:          defaultCodec,
			Preset:         defaultPreset,
			TimeoutSeconds: defaultEncoderTimeout,
		},
		Watermark: Watermark{
			Enabled: true,
			Label:   defaultWatermarkLabel,
			Opacity: defaultWatermarkOpacity,
			Stage:   StageFrame,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
	}
}
