package alert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"
)

// commandPlayer plays a sound file through whichever system audio command
// is installed. Load verifies both the asset and the command; the asset is
// resolved once and reused across pulses.
type commandPlayer struct {
	soundPath string
	logger    *zap.Logger

	mu      sync.Mutex
	command string
	loaded  bool
}

var playbackCommands = []string{"paplay", "aplay", "afplay"}

// NewCommandPlayer returns a Player that shells out to the system audio
// stack for each pulse.
func NewCommandPlayer(soundPath string, logger *zap.Logger) Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &commandPlayer{soundPath: soundPath, logger: logger}
}

func (p *commandPlayer) Load(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded {
		return nil
	}
	if p.soundPath == "" {
		return fmt.Errorf("no alert sound path configured")
	}
	if _, err := os.Stat(p.soundPath); err != nil {
		return fmt.Errorf("alert sound asset not readable: %w", err)
	}

	for _, cmd := range playbackCommands {
		if path, err := exec.LookPath(cmd); err == nil {
			p.command = path
			p.loaded = true
			return nil
		}
	}
	return fmt.Errorf("no audio playback command available")
}

func (p *commandPlayer) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

func (p *commandPlayer) Play() error {
	p.mu.Lock()
	cmd, path := p.command, p.soundPath
	loaded := p.loaded
	p.mu.Unlock()

	if !loaded {
		return fmt.Errorf("alert sound not loaded")
	}
	if err := exec.Command(cmd, path).Run(); err != nil {
		return fmt.Errorf("playback command failed: %w", err)
	}
	return nil
}

func (p *commandPlayer) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.command = ""
	p.loaded = false
}
