package imageprocessing

import (
	"fmt"
	"image"
	"log/slog"
	"time"
)

// CommandInvoker executes a sequence of commands on a decoded image
type CommandInvoker struct {
	commands []Command
}

// NewCommandInvoker creates a new command invoker
func NewCommandInvoker(commands []Command) *CommandInvoker {
	return &CommandInvoker{
		commands: commands,
	}
}

// Execute applies all commands in sequence, feeding each output into the next command
func (i *CommandInvoker) Execute(img image.Image) (image.Image, error) {
	start := time.Now()

	if len(i.commands) == 0 {
		slog.Debug("no commands to execute, returning original image")
		return img, nil
	}

	current := img
	for idx, command := range i.commands {
		commandStart := time.Now()

		processed, err := command.Execute(current)
		if err != nil {
			slog.Error("command execution failed",
				"index", idx,
				"command_name", command.Name(),
				"error", err)
			return nil, fmt.Errorf("command %s (index %d) failed: %w", command.Name(), idx, err)
		}

		slog.Debug("command completed",
			"index", idx,
			"command_name", command.Name(),
			"duration_ms", time.Since(commandStart).Milliseconds())

		current = processed
	}

	slog.Debug("image processing pipeline completed",
		"command_count", len(i.commands),
		"total_duration_ms", time.Since(start).Milliseconds(),
		"width", current.Bounds().Dx(),
		"height", current.Bounds().Dy())

	return current, nil
}
