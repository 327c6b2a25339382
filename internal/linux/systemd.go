package linux

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"hostlink/internal/domain"
)

// Runner executes a host command and returns its stdout. Swapped for a
// fake in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", domain.E(domain.CodeExecution, "systemd.exec",
			fmt.Sprintf("%s %s", name, strings.Join(args, " ")), err)
	}
	return string(out), nil
}

// Systemd wraps systemctl and journalctl invocations.
type Systemd struct {
	runner Runner
}

func NewSystemd() *Systemd {
	return &Systemd{runner: execRunner{}}
}

func NewSystemdWithRunner(runner Runner) *Systemd {
	return &Systemd{runner: runner}
}

// UnitInfo is one row of systemctl list-units output.
type UnitInfo struct {
	Name        string `json:"name"`
	LoadState   string `json:"load_state"`
	State       string `json:"state"`
	SubState    string `json:"sub_state"`
	Description string `json:"description"`
}

// ListUnits returns all service units, active or not.
func (s *Systemd) ListUnits(ctx context.Context) ([]UnitInfo, error) {
	out, err := s.runner.Run(ctx, "systemctl",
		"list-units", "--type=service", "--all", "--no-pager", "--no-legend")
	if err != nil {
		return nil, err
	}

	units := []UnitInfo{}
	for _, line := range strings.Split(out, "\n") {
		// A bullet prefix marks failed units in list-units output.
		line = strings.TrimPrefix(strings.TrimSpace(line), "● ")
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		units = append(units, UnitInfo{
			Name:        fields[0],
			LoadState:   fields[1],
			State:       fields[2],
			SubState:    fields[3],
			Description: strings.Join(fields[4:], " "),
		})
	}
	return units, nil
}

// UnitStatus returns the full property map from systemctl show.
func (s *Systemd) UnitStatus(ctx context.Context, name string) (map[string]string, error) {
	out, err := s.runner.Run(ctx, "systemctl", "show", name, "--no-pager")
	if err != nil {
		return nil, err
	}

	props := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		props[key] = strings.TrimSpace(value)
	}
	return props, nil
}

// JournalTail returns the last n journal entries, optionally scoped to a
// unit. Entries come back as the raw journald JSON objects.
func (s *Systemd) JournalTail(ctx context.Context, unit string, lines int) ([]map[string]any, error) {
	args := []string{"-o", "json", "-n", strconv.Itoa(lines), "--no-pager"}
	if unit != "" {
		args = append(args, "-u", unit)
	}
	out, err := s.runner.Run(ctx, "journalctl", args...)
	if err != nil {
		return nil, err
	}
	return parseJournalLines(out), nil
}

// JournalSearch greps the journal for a keyword with optional time-range
// and priority filters.
func (s *Systemd) JournalSearch(ctx context.Context, keyword, since, priority string) ([]map[string]any, error) {
	args := []string{"-o", "json", "--no-pager", "--grep", keyword}
	if since != "" {
		args = append(args, "--since="+since)
	}
	if priority != "" {
		args = append(args, "-p", priority)
	}
	out, err := s.runner.Run(ctx, "journalctl", args...)
	if err != nil {
		return nil, err
	}
	return parseJournalLines(out), nil
}

func parseJournalLines(out string) []map[string]any {
	entries := []map[string]any{}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
