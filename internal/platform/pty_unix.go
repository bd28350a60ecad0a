//go:build !windows

package platform

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// UnixPTY is the real PTY implementation, spawning the shell under
// creack/pty directly since a real window implementation here is always
// X11 and therefore always Unix.
type UnixPTY struct {
	master *os.File
	cmd    *exec.Cmd
}

// OpenPTY spawns shell with args attached to a new pseudo-terminal of the
// given size (§6's open+exec, folded into one call the way
// pty.StartWithSize itself combines them).
func OpenPTY(shell string, args []string, cols, rows, pixelsX, pixelsY int) (*UnixPTY, error) {
	cmd := exec.Command(shell, args...)
	master, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows), Cols: uint16(cols),
		X: uint16(pixelsX), Y: uint16(pixelsY),
	})
	if err != nil {
		return nil, fmt.Errorf("platform: start pty: %w", err)
	}
	if err := unix.SetNonblock(int(master.Fd()), true); err != nil {
		_ = master.Close()
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		return nil, fmt.Errorf("platform: set pty nonblocking: %w", err)
	}
	return &UnixPTY{master: master, cmd: cmd}, nil
}

func (p *UnixPTY) Read(b []byte) (int, error)  { return p.master.Read(b) }
func (p *UnixPTY) Write(b []byte) (int, error) { return p.master.Write(b) }

func (p *UnixPTY) Resize(cols, rows, pixelsX, pixelsY int) error {
	return pty.Setsize(p.master, &pty.Winsize{
		Rows: uint16(rows), Cols: uint16(cols),
		X: uint16(pixelsX), Y: uint16(pixelsY),
	})
}

func (p *UnixPTY) FD() int { return int(p.master.Fd()) }

func (p *UnixPTY) Close() error {
	err := p.master.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	return err
}
