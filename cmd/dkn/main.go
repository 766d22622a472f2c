package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/r9s-ai/dkn/internal/server"
	"github.com/r9s-ai/dkn/internal/version"
)

func main() {
	var cfgPath string
	var signalCmd string
	var showVersion bool
	var testOnly bool
	flag.StringVar(&cfgPath, "config", "dkn.yaml", "path to config yaml")
	flag.StringVar(&cfgPath, "c", "dkn.yaml", "path to config yaml (alias of --config)")
	flag.StringVar(&signalCmd, "s", "", "send signal to a running dkn (supported: reload)")
	flag.BoolVar(&showVersion, "version", false, "show version information")
	flag.BoolVar(&testOnly, "t", false, "test the config and the rule document it resolves to, then exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.Get())
		return
	}

	if testOnly {
		if err := checkConfig(context.Background(), cfgPath, os.Stdout); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "dkn: configuration %s test failed: %v\n", cfgPath, err)
			os.Exit(1)
		}
		return
	}

	if strings.TrimSpace(signalCmd) != "" {
		switch strings.ToLower(strings.TrimSpace(signalCmd)) {
		case "reload":
			if err := sendReloadSignal(cfgPath); err != nil {
				_, _ = fmt.Fprintln(os.Stderr, err.Error())
				os.Exit(1)
			}
			return
		default:
			_, _ = fmt.Fprintln(os.Stderr, "unsupported -s value: "+strings.TrimSpace(signalCmd)+" (supported: reload)")
			os.Exit(2)
		}
	}

	if err := server.Run(cfgPath); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func sendReloadSignal(cfgPath string) error {
	pidFile, err := pidFileFromConfig(cfgPath)
	if err != nil {
		return err
	}
	// #nosec G304 -- pid file path comes from trusted config/env.
	b, err := os.ReadFile(pidFile)
	if err != nil {
		return fmt.Errorf("read pid file %q: %w", pidFile, err)
	}
	pidStr := strings.TrimSpace(string(b))
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return fmt.Errorf("invalid pid in %q: %q", pidFile, pidStr)
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process pid=%d: %w", pid, err)
	}
	if err := p.Signal(syscall.SIGHUP); err != nil {
		return fmt.Errorf("send SIGHUP pid=%d: %w", pid, err)
	}
	return nil
}

// pidFileFromConfig reads server.pid_file without a full config load so
// that -s reload works even when other sections are invalid. DKN_PID_FILE
// wins, matching config.Load.
func pidFileFromConfig(cfgPath string) (string, error) {
	const def = "/var/run/dkn.pid"
	if v := strings.TrimSpace(os.Getenv("DKN_PID_FILE")); v != "" {
		return v, nil
	}
	path := strings.TrimSpace(cfgPath)
	if path == "" {
		return def, nil
	}
	// #nosec G304 -- config path comes from trusted flag.
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read config %q: %w", path, err)
	}
	var partial struct {
		Server struct {
			PidFile string `yaml:"pid_file"`
		} `yaml:"server"`
	}
	if err := yaml.Unmarshal(b, &partial); err != nil {
		return "", fmt.Errorf("parse config %q: %w", path, err)
	}
	if v := strings.TrimSpace(partial.Server.PidFile); v != "" {
		return v, nil
	}
	return def, nil
}
