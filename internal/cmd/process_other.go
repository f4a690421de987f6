//go:build !unix

package cmd

import "os/exec"

func setProcGroup(*exec.Cmd) {}

func killProcGroup(c *exec.Cmd) error {
	if c.Process == nil {
		return nil
	}
	return c.Process.Kill()
}
