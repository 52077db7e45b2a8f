// Package console drives the mission from typed commands, either through the
// bubbletea terminal UI or a plain line reader.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"launchops-sim/internal/fault"
	"launchops-sim/internal/mission"
)

// ErrUnknownCommand is returned for a verb Dispatch does not recognise.
var ErrUnknownCommand = errors.New("unknown command")

// Usage lists the console commands.
const Usage = `operator:
  start                      power up the console
  diag                       run subsystem diagnostics
  proceed                    advance to authentication
  verify N CODE              enter officer N's code (N = 1 or 2)
  target LAT LON             submit target coordinates
  key N                      turn launch key N
  launch                     start the countdown
  abort                      abort the countdown
  check ID                   toggle a checklist item
admin:
  lock [soft|hard]           place the mission on hold
  unlock                     release the hold
  force [SUB=RESULT ...]     force diagnostics with overrides
  fault SUB TYPE [PROB]      inject a fault
  clear SUB                  clear an injected fault
  legacy                     toggle the comms fault switch
  delay M                    set the delay multiplier
  reset                      start a new run`

// Dispatch parses one command line and applies it to ctrl. It must run on the
// mission loop. Rejections by the controller are logged as mission events;
// the returned error covers only malformed input.
func Dispatch(ctrl *mission.Controller, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]
	switch verb {
	case "start":
		ctrl.Start()
	case "diag", "diagnostics":
		ctrl.RunDiagnostics()
	case "proceed":
		ctrl.ProceedToAuthentication()
	case "verify":
		if len(args) != 2 {
			return errors.New("usage: verify N CODE")
		}
		slot, err := parseSlot(args[0])
		if err != nil {
			return err
		}
		ctrl.VerifyCode(slot, args[1])
	case "target", "command":
		if len(args) != 2 {
			return errors.New("usage: target LAT LON")
		}
		ctrl.SubmitCommand(args[0], args[1])
	case "key":
		if len(args) != 1 {
			return errors.New("usage: key N")
		}
		slot, err := parseSlot(args[0])
		if err != nil {
			return err
		}
		ctrl.TurnKey(slot)
	case "launch":
		ctrl.Launch()
	case "abort":
		ctrl.Abort()
	case "check":
		if len(args) != 1 {
			return errors.New("usage: check ID")
		}
		ctrl.ToggleChecklist(args[0])
	case "lock":
		mode := mission.LockSoft
		if len(args) > 0 {
			mode = mission.LockMode(strings.ToLower(args[0]))
		}
		ctrl.Lock(mode)
	case "unlock":
		ctrl.Unlock()
	case "force":
		overrides, err := parseOverrides(args)
		if err != nil {
			return err
		}
		ctrl.ForceDiagnostics(overrides)
	case "fault":
		if len(args) < 2 || len(args) > 3 {
			return errors.New("usage: fault SUB TYPE [PROB]")
		}
		spec := fault.Spec{Type: fault.Type(strings.ToUpper(args[1]))}
		if len(args) == 3 {
			p, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid probability %q", args[2])
			}
			spec.Probability = p
		}
		ctrl.InjectFault(strings.ToLower(args[0]), spec)
	case "clear":
		if len(args) != 1 {
			return errors.New("usage: clear SUB")
		}
		ctrl.ClearFault(strings.ToLower(args[0]))
	case "legacy":
		ctrl.ToggleLegacyFault()
	case "delay":
		if len(args) != 1 {
			return errors.New("usage: delay M")
		}
		m, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid multiplier %q", args[0])
		}
		ctrl.SetDelayMultiplier(m)
	case "reset":
		ctrl.Reset(true)
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, verb)
	}
	return nil
}

// parseSlot converts a 1-based officer number to a slot index.
func parseSlot(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 2 {
		return 0, fmt.Errorf("slot must be 1 or 2, got %q", s)
	}
	return n - 1, nil
}

func parseOverrides(args []string) (map[string]fault.Result, error) {
	out := make(map[string]fault.Result, len(args))
	for _, a := range args {
		id, res, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("override %q must be SUB=RESULT", a)
		}
		out[strings.ToLower(id)] = fault.Result(strings.ToUpper(res))
	}
	return out, nil
}
