package deps

import "devbox/internal/config"

// SystemRequirements lists the binaries the provisioned container should
// provide once setup has run.
func SystemRequirements(cfg *config.Config) []Requirement {
	tool := "uv"
	minVersion := ""
	if cfg != nil {
		tool = cfg.Python.Tool
		minVersion = cfg.Python.MinVersion
	}
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Video composition and audio processing",
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "Chromium",
			Command:     "chromium",
			Aliases:     []string{"chromium-browser", "google-chrome"},
			Description: "Headless rendering of HTML frames",
			VersionArgs: []string{"--version"},
		},
		{
			Name:        "uv",
			Command:     tool,
			Description: "Python dependency manager",
			VersionArgs: []string{"--version"},
			MinVersion:  minVersion,
		},
		{
			Name:        "Bash",
			Command:     "bash",
			Description: "Runs the secondary setup script",
			Optional:    true,
			VersionArgs: []string{"--version"},
		},
	}
}
