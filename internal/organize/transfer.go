package organize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"reshelf/internal/fileutil"
	"reshelf/internal/logging"
	"reshelf/internal/services"
)

// Mode selects how a file reaches its destination.
type Mode string

const (
	ModeHardlink Mode = "hardlink"
	ModeCopy     Mode = "copy"
	ModeMove     Mode = "move"
	ModeSymlink  Mode = "symlink"
)

// KnownModes lists every supported transfer mode.
func KnownModes() []Mode {
	return []Mode{ModeHardlink, ModeCopy, ModeMove, ModeSymlink}
}

// ParseMode validates a transfer mode string.
func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	switch mode {
	case ModeHardlink, ModeCopy, ModeMove, ModeSymlink:
		return mode, nil
	case "":
		return "", errors.New("transfer mode is empty")
	default:
		return "", fmt.Errorf("unknown transfer mode %q (valid: hardlink, copy, move, symlink)", raw)
	}
}

// transfer places src at dst under the given mode. Destination parents must
// already exist.
func (o *Organizer) transfer(ctx context.Context, mode Mode, src, dst string) error {
	logger := logging.WithContext(ctx, o.logger)

	switch mode {
	case ModeHardlink:
		same, err := fileutil.SameDevice(src, filepath.Dir(dst))
		if err != nil {
			return services.Wrap(services.ErrTransfer, "organize", "compare volumes",
				"Failed to compare source and destination volumes", err)
		}
		if !same {
			return services.Wrap(services.ErrTransfer, "organize", "hardlink",
				"Source and destination are on different filesystems; use copy or move mode", nil)
		}
		if err := os.Link(src, dst); err != nil {
			return classifyTransferError("hardlink", err)
		}

	case ModeCopy:
		if err := o.copyInto(src, dst); err != nil {
			return classifyTransferError("copy", err)
		}

	case ModeMove:
		if err := os.Rename(src, dst); err != nil {
			var linkErr *os.LinkError
			if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, unix.EXDEV) {
				return classifyTransferError("move", err)
			}
			if copyErr := o.copyInto(src, dst); copyErr != nil {
				return classifyTransferError("copy across volumes", copyErr)
			}
			if rmErr := os.Remove(src); rmErr != nil {
				logger.Warn("failed to remove source after cross-device move", logging.Error(rmErr))
			}
		}

	case ModeSymlink:
		target, err := filepath.Abs(src)
		if err != nil {
			return services.Wrap(services.ErrTransfer, "organize", "resolve symlink target",
				"Failed to resolve absolute source path", err)
		}
		if err := os.Symlink(target, dst); err != nil {
			return classifyTransferError("symlink", err)
		}

	default:
		return services.Wrap(services.ErrValidation, "organize", "transfer",
			fmt.Sprintf("Unknown transfer mode %q", mode), nil)
	}
	return nil
}

func (o *Organizer) copyInto(src, dst string) error {
	if o.cfg.Transfer.VerifyCopies {
		return fileutil.CopyFileVerified(src, dst)
	}
	return fileutil.CopyFile(src, dst)
}

// classifyTransferError maps common errnos onto actionable messages before
// wrapping with the transfer marker.
func classifyTransferError(operation string, err error) error {
	message := "Failed to transfer file into library"
	switch {
	case errors.Is(err, unix.EACCES), errors.Is(err, os.ErrPermission):
		message = "Permission denied writing to the library; check directory ownership"
	case errors.Is(err, unix.EXDEV):
		message = "Source and destination are on different filesystems; use copy or move mode"
	case errors.Is(err, unix.ENOSPC):
		message = "Destination filesystem is out of space"
	}
	return services.Wrap(services.ErrTransfer, "organize", operation, message, err)
}
