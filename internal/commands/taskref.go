package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
)

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses the 1-based display number in args[0].
func ParseTaskRef(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrTaskRefRequired
	}
	ref := args[0]
	if !isAllDigits(ref) {
		return 0, fmt.Errorf("invalid task reference: %s", ref)
	}
	num, err := strconv.Atoi(ref)
	if err != nil {
		return 0, fmt.Errorf("invalid task reference: %s", ref)
	}
	if num < 1 {
		return 0, fmt.Errorf("task number out of range: %d", num)
	}
	return num, nil
}

// ResolveTask returns the task shown at display number num.
func ResolveTask(sess *session.Session, num int) (service.Task, error) {
	ordered := sess.Ordered()
	if num < 1 || num > len(ordered) {
		return service.Task{}, fmt.Errorf("%w: number out of range: %d", service.ErrTaskNotFound, num)
	}
	return ordered[num-1], nil
}

// lookupTask parses args[0] and resolves it against the session,
// reporting failures to errOut. The exit code is Success on a match.
func lookupTask(sess *session.Session, args []string, errOut io.Writer) (service.Task, int) {
	num, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, exitcode.UserError
	}
	task, err := ResolveTask(sess, num)
	if err != nil {
		fmt.Fprintf(errOut, "error: task number out of range: %d\n", num)
		return service.Task{}, exitcode.UserError
	}
	return task, exitcode.Success
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
