package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/jmagar/streamgrab/internal/helpers"
	"github.com/jmagar/streamgrab/internal/model"
	"github.com/jmagar/streamgrab/internal/ui"
)

// LoadedConfigPath tracks which config file was loaded, empty if none was found.
var LoadedConfigPath string

// SearchPaths returns the config file locations in lookup order.
func SearchPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return []string{
		"config.json",
		filepath.Join(homeDir, ".streamgrab", "config.json"),
		filepath.Join(homeDir, ".config", "streamgrab", "config.json"),
	}, nil
}

// ParseCfg reads the optional config file, parses CLI args, and returns the resolved Config.
func ParseCfg() (*model.Config, error) {
	cfg, err := ReadConfig()
	if err != nil {
		return nil, err
	}
	return Merge(cfg, ParseArgs())
}

// Merge overlays CLI args on cfg, applies defaults and validates the result.
func Merge(cfg *model.Config, args *model.Args) (*model.Config, error) {
	if cfg == nil {
		cfg = &model.Config{}
	}
	urls, err := helpers.ProcessUrls(args.VideoURLs)
	if err != nil {
		ui.PrintError("Failed to process URLs")
		return nil, err
	}
	cfg.VideoURLs = urls
	cfg.Simulate = args.Simulate
	cfg.Verbose = args.Verbose

	if v := strings.TrimSpace(args.Username); v != "" {
		cfg.Username = v
	}
	if v := strings.TrimSpace(args.OutputDirectory); v != "" {
		cfg.OutputDirectory = v
	}
	if v := strings.TrimSpace(args.Format); v != "" {
		cfg.Format = v
	}
	if v := strings.TrimSpace(args.ChromePath); v != "" {
		cfg.ChromePath = v
	}
	if v := strings.TrimSpace(args.Downloader); v != "" {
		cfg.DownloaderPath = v
	}

	cfg.OutputDirectory = strings.TrimSpace(cfg.OutputDirectory)
	if cfg.OutputDirectory == "" {
		cfg.OutputDirectory = model.DefaultOutputDirectory
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = model.DefaultAPIBaseURL
	}
	cfg.APIBaseURL = strings.TrimSuffix(cfg.APIBaseURL, "/")
	if cfg.AuthDomain == "" {
		cfg.AuthDomain = model.DefaultAuthDomain
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks a merged Config before anything is launched.
func Validate(cfg *model.Config) error {
	if len(cfg.VideoURLs) == 0 {
		return errors.New("at least one video url is required")
	}
	if cfg.Username == "" {
		return errors.New("username is required")
	}
	if err := helpers.ValidatePath(cfg.OutputDirectory); err != nil {
		return fmt.Errorf("invalid output directory: %w", err)
	}
	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid apiBaseUrl %q: must be an absolute URL", cfg.APIBaseURL)
	}
	return nil
}

// ReadConfig reads the config file from known locations. A missing file is
// not an error; an empty Config is returned instead.
func ReadConfig() (*model.Config, error) {
	configPaths, err := SearchPaths()
	if err != nil {
		return nil, err
	}

	var data []byte
	var configPath string
	for _, path := range configPaths {
		data, err = os.ReadFile(path)
		if err == nil {
			configPath = path
			break
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config at %s: %w", path, err)
		}
	}

	LoadedConfigPath = configPath
	if data == nil {
		return &model.Config{}, nil
	}

	var obj model.Config
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("failed to parse config at %s: %w", configPath, err)
	}
	warnInsecurePermissions(configPath)
	return &obj, nil
}

// warnInsecurePermissions flags config files readable by others and tightens them.
func warnInsecurePermissions(configPath string) {
	fileInfo, err := os.Stat(configPath)
	if err != nil {
		return
	}
	mode := fileInfo.Mode()
	if mode.Perm()&0077 == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "%s WARNING: Config file has insecure permissions (%04o)\n", ui.ColorYellow+ui.SymbolWarning+ui.ColorReset, mode.Perm())
	fmt.Fprintf(os.Stderr, "   File: %s\n", configPath)
	fmt.Fprintf(os.Stderr, "   Risk: Config contains your username and should only be readable by you\n")
	if runtime.GOOS == "windows" {
		fmt.Fprintf(os.Stderr, "   Windows ACLs in use; skipping chmod auto-fix\n\n")
		return
	}
	if chmodErr := os.Chmod(configPath, 0600); chmodErr != nil {
		fmt.Fprintf(os.Stderr, "   Auto-fix failed: %v\n", chmodErr)
		fmt.Fprintf(os.Stderr, "   Fix manually: chmod 600 %s\n\n", configPath)
	} else {
		fmt.Fprintf(os.Stderr, "   Auto-fix applied: chmod 600 %s\n\n", configPath)
	}
}

// ParseArgs parses CLI arguments using go-arg.
func ParseArgs() *model.Args {
	var args model.Args
	arg.MustParse(&args)
	return &args
}
