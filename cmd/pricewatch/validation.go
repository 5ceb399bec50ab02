package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	minPort = 1024
	maxPort = 65535
)

// validatePort makes sure a given port is inside the valid port range for its usage.
func validatePort(port int) error {
	if port < minPort || port > maxPort {
		return fmt.Errorf("port outside of valid port range [%v - %v]: %v", minPort, maxPort, port)
	}
	return nil
}

func validateDispatchTimeout(timeout time.Duration) error {
	if timeout < 0 {
		return fmt.Errorf("must not be negative: %v", timeout)
	}
	return nil
}

// validateConfigPath makes sure the path points to an existing YAML file.
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("must be set")
	}

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
	default:
		return fmt.Errorf("unsupported file extension %q: must be .yaml or .yml", ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	return nil
}
