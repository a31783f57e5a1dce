package config

const (
	defaultConfigPath          = "~/.config/devbox/config.toml"
	projectConfigName          = "devbox.toml"
	defaultProjectRoot         = "."
	defaultProjectName         = "Pixelle-Video"
	defaultSetupScript         = ".devcontainer/setup.sh"
	defaultAppConfig           = "config.yaml"
	defaultAppConfigExample    = "config.example.yaml"
	defaultPackageManager      = "apt-get"
	defaultSudoMode            = SudoAuto
	defaultOutputTailLines     = 5
	defaultPythonTool          = "uv"
	defaultLinkMode            = "copy"
	defaultPythonMinVersion    = "0.4.0"
	defaultServerPort          = 8501
	defaultServerAddress       = "0.0.0.0"
	defaultServerLogLevel      = "info"
	defaultServerLogFile       = "/tmp/pixelle-video.log"
	defaultLivenessWaitSeconds = 5
	defaultEnvFile             = ".env"
	defaultHealthPath          = "/_stcore/health"
	defaultStopTimeoutSeconds  = 10
	defaultStateDir            = "~/.local/share/devbox"
	defaultLogDir              = "~/.local/share/devbox/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 14
)

// Sudo modes for package manager invocations.
const (
	SudoAuto   = "auto"
	SudoAlways = "always"
	SudoNever  = "never"
)

func defaultPackages() []string {
	return []string{"ffmpeg", "chromium", "fonts-noto-cjk", "fonts-liberation", "ca-certificates"}
}

func defaultInstallCommands() [][]string {
	return [][]string{
		{"pip", "install", "--user", "uv"},
		{"pipx", "install", "uv"},
	}
}

func defaultServerCommand() []string {
	return []string{"uv", "run", "streamlit", "run", "web/app.py"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Project: Project{
			Root:             defaultProjectRoot,
			Name:             defaultProjectName,
			SetupScript:      defaultSetupScript,
			AppConfig:        defaultAppConfig,
			AppConfigExample: defaultAppConfigExample,
		},
		Packages: Packages{
			Manager:         defaultPackageManager,
			Sudo:            defaultSudoMode,
			Update:          true,
			Install:         defaultPackages(),
			OutputTailLines: defaultOutputTailLines,
		},
		Python: Python{
			Tool:            defaultPythonTool,
			InstallCommands: defaultInstallCommands(),
			SyncArgs:        []string{"sync"},
			LinkMode:        defaultLinkMode,
			MinVersion:      defaultPythonMinVersion,
		},
		Server: Server{
			Command:             defaultServerCommand(),
			Port:                defaultServerPort,
			Address:             defaultServerAddress,
			Headless:            true,
			LogLevel:            defaultServerLogLevel,
			LogFile:             defaultServerLogFile,
			LivenessWaitSeconds: defaultLivenessWaitSeconds,
			EnvFile:             defaultEnvFile,
			HealthPath:          defaultHealthPath,
			StopTimeoutSeconds:  defaultStopTimeoutSeconds,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
