package probe

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/yllada/mullvad-ping/common"
)

var (
	// "rtt min/avg/max/mdev = 10.1/12.3/..." (Linux) or "round-trip min/avg/max/stddev = ..." (BSD)
	summaryRTT = regexp.MustCompile(`=\s*[\d.]+/([\d.]+)/`)
	// "64 bytes from ...: icmp_seq=1 ttl=57 time=12.3 ms" or "time<1ms" (Windows)
	replyRTT = regexp.MustCompile(`time[=<]\s*([\d.]+)\s*ms`)
)

// SystemPinger runs the operating system's ping binary for a single echo
// request, as the `ping -c 1 host` one-liner does.
type SystemPinger struct {
	// Command is the ping binary, "ping" when empty.
	Command string

	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewSystemPinger returns a SystemPinger using the ping binary on PATH.
func NewSystemPinger() *SystemPinger {
	return &SystemPinger{Command: "ping"}
}

// Ping implements Pinger.
func (p *SystemPinger) Ping(ctx context.Context, address string) (time.Duration, error) {
	command := p.Command
	if command == "" {
		command = "ping"
	}
	run := p.run
	if run == nil {
		run = runCommand
	}

	out, err := run(ctx, command, pingArgs(runtime.GOOS, waitSeconds(ctx), address)...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}
	if err != nil {
		if isTimeoutOutput(out) {
			return 0, fmt.Errorf("%w: %s", common.ErrProbeTimeout, lastLine(out))
		}
		return 0, fmt.Errorf("%w: %v: %s", common.ErrProbeUnreachable, err, lastLine(out))
	}

	return parseRTT(out)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// force the C locale so the output is parseable
	cmd.Env = append(cmd.Environ(), "LC_ALL=C")
	return cmd.CombinedOutput()
}

// pingArgs builds the arguments for one echo request with a reply wait of
// secs seconds.
func pingArgs(goos string, secs int, address string) []string {
	switch goos {
	case "windows":
		return []string{"-n", "1", "-w", strconv.Itoa(secs * 1000), address}
	case "darwin", "freebsd", "openbsd", "netbsd":
		return []string{"-c", "1", "-t", strconv.Itoa(secs), address}
	default:
		return []string{"-c", "1", "-W", strconv.Itoa(secs), address}
	}
}

// waitSeconds converts the context deadline into ping's whole-second wait.
func waitSeconds(ctx context.Context) int {
	deadline, ok := ctx.Deadline()
	if !ok {
		return int(common.DefaultPingTimeout / time.Second)
	}
	secs := int(math.Ceil(time.Until(deadline).Seconds()))
	return max(secs, 1)
}

// parseRTT extracts the round-trip time from ping output. The summary
// average is preferred over the per-reply time.
func parseRTT(out []byte) (time.Duration, error) {
	text := string(out)

	match := summaryRTT.FindStringSubmatch(text)
	if match == nil {
		match = replyRTT.FindStringSubmatch(text)
	}
	if match == nil {
		return 0, fmt.Errorf("%w: no round-trip time in ping output: %s", common.ErrProbeUnreachable, lastLine(out))
	}

	ms, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad round-trip time %q", common.ErrProbeUnreachable, match[1])
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

func isTimeoutOutput(out []byte) bool {
	text := strings.ToLower(string(out))
	return strings.Contains(text, "100% packet loss") ||
		strings.Contains(text, "100.0% packet loss") ||
		strings.Contains(text, "request timed out")
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
