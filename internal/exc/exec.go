// Package exc runs external maintenance commands with a bounded timeout.
package exc

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"os/user"
	"time"

	"github.com/fbdash/fbdash/internal/errors"
)

var systemDirs = []string{
	`/usr/bin/`,
	`/bin/`,
	// likely not in the following
	`/usr/sbin/`,
	`/sbin/`,
}

var (
	// key: rel. path, value: abs. path
	exePaths            = make(map[string]string)
	rootChecked, isRoot bool
)

// LookSystemDirs resolves exe against the usual system directories,
// ignoring $PATH. Results are cached.
func LookSystemDirs(exe string) (string, error) {
	if len(exe) == 0 {
		return ``, errors.New(`empty executable name`)
	}
	if exeAbs, ok := exePaths[exe]; ok && len(exeAbs) > 0 && exeAbs[0] == '/' {
		return exeAbs, nil
	}
	for _, systemDir := range systemDirs {
		exeAbs := systemDir + exe
		fi, err := os.Stat(exeAbs)
		if err != nil || fi == nil {
			continue
		}
		// check if executable for others
		if fi.Mode()&0b001 == 0b001 {
			exePaths[exe] = exeAbs
			return exeAbs, nil
		}
	}
	return ``, errors.Errorf(`executable %q not found in system directories`, exe)
}

// IsRoot reports whether the current user is root. The result is cached.
func IsRoot() bool {
	if rootChecked {
		return isRoot
	}
	rootChecked = true
	if user, err := user.Current(); err == nil {
		isRoot = user.Uid == `0`
	}
	return isRoot
}

// Result is the typed outcome of a finished command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Run executes exe with args, killing it after timeout. A non-zero exit
// status is returned as an error alongside the captured output.
func Run(ctx context.Context, timeout time.Duration, exe string, args ...string) (Result, error) {
	var res Result
	exeAbs, err := LookSystemDirs(exe)
	if err != nil {
		return res, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, exeAbs, args...)
	var bufOut, bufErr bytes.Buffer
	cmd.Stdout = &bufOut
	cmd.Stderr = &bufErr
	err = cmd.Run()
	res.Stdout = bufOut.String()
	res.Stderr = bufErr.String()
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, errors.New(ctxErr)
	}
	if err != nil {
		return res, errors.New(err)
	}
	return res, nil
}

// RunPrivileged runs exe through sudo unless already root.
func RunPrivileged(ctx context.Context, timeout time.Duration, exe string, args ...string) (Result, error) {
	if IsRoot() {
		return Run(ctx, timeout, exe, args...)
	}
	return Run(ctx, timeout, `sudo`, append([]string{`-n`, exe}, args...)...)
}
