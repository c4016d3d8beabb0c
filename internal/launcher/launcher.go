// Package launcher opens ticket URLs in the platform browser.
package launcher

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// ErrInvalidURL is returned for empty, relative or non-http(s) URLs.
var ErrInvalidURL = errors.New("invalid url")

// Validate checks that raw is an absolute http or https URL.
func Validate(raw string) (*url.URL, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, fmt.Errorf("%w: url is empty", ErrInvalidURL)
	}
	u, err := url.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %s is not absolute", ErrInvalidURL, value)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u, nil
	default:
		return nil, fmt.Errorf("%w: scheme %s is not supported", ErrInvalidURL, u.Scheme)
	}
}

// Opener hands URLs to the operating system.
type Opener struct {
	goos  string
	start func(name string, args ...string) error
}

// New returns an opener for the running platform.
func New() *Opener {
	return &Opener{goos: runtime.GOOS, start: startCommand}
}

// Open validates raw and launches the platform opener without waiting for it.
func (o *Opener) Open(raw string) error {
	u, err := Validate(raw)
	if err != nil {
		return err
	}
	name, args := command(o.goos, u.String())
	if err := o.start(name, args...); err != nil {
		return fmt.Errorf("open %s: %w", u, err)
	}
	return nil
}

func command(goos, target string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}

func startCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
