package notify

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/dvloznov/ledger-sync/internal/logger"
)

// DefaultCommand pushes the message to every device via the Pushbullet CLI.
var DefaultCommand = []string{"pb", "push", "-d", "0"}

// CommandSink runs an external command with the message as its last argument.
type CommandSink struct {
	Command []string
}

// NewCommandSink returns a sink for command. An empty command selects
// DefaultCommand.
func NewCommandSink(command []string) *CommandSink {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &CommandSink{Command: command}
}

// Send runs the command and waits for it to exit.
func (s *CommandSink) Send(ctx context.Context, message string) error {
	log := logger.FromContext(ctx)

	args := append(append([]string(nil), s.Command[1:]...), message)
	cmd := exec.CommandContext(ctx, s.Command[0], args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notify command %q: %w: %s", s.Command[0], err, strings.TrimSpace(out.String()))
	}

	log.Debug().Str("command", s.Command[0]).Msg("Notification sent")
	return nil
}
