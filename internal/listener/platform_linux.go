//go:build linux

package listener

import (
	"bufio"
	"context"
	"encoding/binary"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// evdevSource reads key presses from /dev/input. Only key codes are read,
// never composed text, and codes are reduced to a KeyKind before they leave
// this package.
type evdevSource struct {
	log    *slog.Logger
	events chan KeyEvent
	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.Mutex
	appCache   ActiveApp
	appCacheAt time.Time
}

func newPlatformSource(log *slog.Logger) Source {
	return &evdevSource{
		log:    log,
		events: make(chan KeyEvent, 256),
	}
}

func (s *evdevSource) Start(ctx context.Context) error {
	devices, err := findKeyboardDevices()
	if err != nil || len(devices) == 0 {
		return ErrNotAvailable
	}

	var f *os.File
	for _, dev := range devices {
		f, err = os.OpenFile(dev, os.O_RDONLY, 0)
		if err == nil {
			s.log.Info("reading keyboard device", "device", dev)
			break
		}
	}
	if f == nil {
		return ErrNotAvailable
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go func() {
		// Closing the device unblocks the blocking Read in readLoop.
		<-ctx.Done()
		f.Close()
	}()
	go s.readLoop(f)
	return nil
}

func (s *evdevSource) Events() <-chan KeyEvent {
	return s.events
}

func (s *evdevSource) Close() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	close(s.events)
	return nil
}

// findKeyboardDevices scans /proc/bus/input/devices for event handlers with
// key capabilities.
func findKeyboardDevices() ([]string, error) {
	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var devices []string
	var handler string
	isKeyboard := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "H: Handlers=") {
			for _, part := range strings.Fields(line) {
				if strings.HasPrefix(part, "event") {
					handler = "/dev/input/" + part
				}
			}
		}
		if strings.HasPrefix(line, "B: KEY=") && len(line) > 10 {
			isKeyboard = true
		}
		if line == "" {
			if isKeyboard && handler != "" {
				devices = append(devices, handler)
			}
			handler = ""
			isKeyboard = false
		}
	}

	matches, _ := filepath.Glob("/dev/input/by-id/*-kbd")
	devices = append(devices, matches...)
	return devices, scanner.Err()
}

// inputEvent mirrors the kernel's struct input_event.
type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

const (
	evKey    = 0x01
	keyPress = 1
)

func (s *evdevSource) readLoop(f *os.File) {
	defer close(s.done)
	defer f.Close()

	size := binary.Size(inputEvent{})
	buf := make([]byte, size)

	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}
		if n < size {
			continue
		}

		typ := binary.LittleEndian.Uint16(buf[size-8 : size-6])
		code := binary.LittleEndian.Uint16(buf[size-6 : size-4])
		value := int32(binary.LittleEndian.Uint32(buf[size-4 : size]))
		if typ != evKey || value != keyPress {
			continue
		}

		ev := KeyEvent{
			Time: time.Now(),
			Kind: classifyCode(code),
			App:  s.activeApp(),
		}
		select {
		case s.events <- ev:
		default:
			// Drop rather than stall the device reader.
		}
	}
}

// classifyCode reduces a raw key code to its kind. Which key was pressed is
// discarded here.
func classifyCode(code uint16) KeyKind {
	switch code {
	case 14:
		return KeyBackspace
	case 15:
		return KeyTab
	case 28, 96:
		return KeyEnter
	case 57:
		return KeySpace
	}
	switch {
	case code >= 2 && code <= 13, // digit row
		code >= 16 && code <= 27, // q..p, brackets
		code >= 30 && code <= 41, // a..l, punctuation
		code >= 43 && code <= 53: // z..m, punctuation
		return KeyCharacter
	}
	return KeyOther
}

// activeApp resolves the focused X11 window, cached for a second so a fast
// typist does not fork xprop per keystroke.
func (s *evdevSource) activeApp() ActiveApp {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.appCacheAt) < time.Second {
		return s.appCache
	}
	s.appCache = queryActiveApp()
	s.appCacheAt = time.Now()
	return s.appCache
}

func queryActiveApp() ActiveApp {
	unknown := ActiveApp{Name: "Unknown", Class: "unknown"}

	out, err := exec.Command("xprop", "-root", "_NET_ACTIVE_WINDOW").Output()
	if err != nil {
		return unknown
	}
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return unknown
	}
	winID := fields[len(fields)-1]
	if !strings.HasPrefix(winID, "0x") {
		return unknown
	}

	out, err = exec.Command("xprop", "-id", winID, "WM_CLASS", "_NET_WM_NAME").Output()
	if err != nil {
		return unknown
	}

	app := unknown
	for _, line := range strings.Split(string(out), "\n") {
		switch {
		case strings.HasPrefix(line, "WM_CLASS"):
			// WM_CLASS(STRING) = "instance", "Class"
			parts := strings.Split(line, "\"")
			if len(parts) >= 4 {
				app.Class = strings.ToLower(parts[3])
			}
		case strings.HasPrefix(line, "_NET_WM_NAME"):
			parts := strings.SplitN(line, "\"", 3)
			if len(parts) >= 2 {
				app.Name = strings.TrimSuffix(parts[1], "\"")
			}
		}
	}
	return app
}
