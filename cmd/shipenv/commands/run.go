package commands

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/shipenv/shipenv/pkg/envfile"
)

type RunCmd struct {
	Env     string   `help:"Environment profile to inject, e.g. 'prod' for .env.prod" short:"e" default:""`
	Command []string `arg:"" name:"command" help:"Command to run with the profile's variables in its environment"`
}

func (c *RunCmd) Run(ctx *cliCtx) error {
	if len(c.Command) == 0 {
		return fmt.Errorf("no command specified to run")
	}
	if err := validateCommand(c.Command); err != nil {
		return err
	}

	ctx.Logger.Debug("preparing to run command", "command", strings.Join(c.Command, " "))

	fileName, err := envfile.Filename(c.Env)
	if err != nil {
		return err
	}
	if _, err := os.Stat(fileName); os.IsNotExist(err) {
		return fmt.Errorf("profile %s does not exist", fileName)
	}
	envVars, err := envfile.Read(fileName)
	if err != nil {
		return fmt.Errorf("error reading profile %s: %v", fileName, err)
	}
	envVars = sanitizeEnvVars(envVars)

	if len(envVars) == 0 {
		ctx.Logger.Debug("warning: no environment variables found in the profile")
	} else {
		ctx.Logger.Debug("loaded environment variables", "count", len(envVars))
	}

	ctx.Logger.Debug("executing command", "command", strings.Join(c.Command, " "))

	cmd := exec.Command(c.Command[0], c.Command[1:]...)

	cmd.Env = os.Environ() // Start with current environment
	for k, v := range envVars {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	// Connect stdin, stdout, stderr for full terminal support
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if runtime.GOOS != "windows" {
		// Keep the child in its own process group but hand it the terminal.
		cmd.SysProcAttr = &syscall.SysProcAttr{
			Setpgid:    true,
			Ctty:       int(os.Stdin.Fd()),
			Foreground: true,
		}
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("error starting command: %v", err)
	}

	pid := cmd.Process.Pid
	ctx.Logger.Debug("started process", "pid", pid)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case sig := <-sigChan:
		signal.Stop(sigChan)
		close(sigChan)

		ctx.Logger.Debug("received signal", "signal", sig.String())

		// Forward the signal and let the terminal clean up the child.
		if runtime.GOOS != "windows" {
			syscall.Kill(pid, sig.(syscall.Signal))
		} else {
			cmd.Process.Kill()
		}
		return nil

	case err := <-done:
		signal.Stop(sigChan)

		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				ctx.Logger.Debug("command exited with error", "code", exitErr.ExitCode())
				os.Exit(exitErr.ExitCode())
			}
			return fmt.Errorf("error running command: %v", err)
		}

		ctx.Logger.Debug("command completed successfully")
		return nil
	}
}

// validateCommand checks if the command is safe to execute
func validateCommand(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("no command specified to run")
	}
	for _, arg := range command {
		if strings.Contains(arg, "$(") || strings.Contains(arg, "`") {
			return fmt.Errorf("command contains potentially unsafe shell metacharacters")
		}
	}
	return nil
}

// sanitizeEnvVars removes potentially dangerous environment variables
func sanitizeEnvVars(vars map[string]string) map[string]string {
	for k := range vars {
		if strings.Contains(k, "=") || strings.Contains(k, ";") || strings.Contains(k, "\n") {
			delete(vars, k)
		}
	}
	return vars
}
