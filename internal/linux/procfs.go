package linux

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"hostlink/internal/domain"
)

// Collector reads host facts out of a procfs tree. The root is
// configurable so tests can point it at a fixture directory.
type Collector struct {
	root string
}

func NewCollector() *Collector {
	return &Collector{root: "/proc"}
}

func NewCollectorAt(root string) *Collector {
	return &Collector{root: root}
}

func (c *Collector) readFile(name string) (string, error) {
	path := filepath.Join(c.root, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", domain.E(domain.CodeExecution, "procfs.read", fmt.Sprintf("read %s", path), err)
	}
	return string(raw), nil
}

// SystemInfo reports hostname, kernel version, and architecture.
func (c *Collector) SystemInfo() (map[string]any, error) {
	hostname := "unknown"
	if raw, err := c.readFile("sys/kernel/hostname"); err == nil {
		hostname = strings.TrimSpace(raw)
	}

	version := "unknown"
	arch := "unknown"
	if raw, err := c.readFile("version"); err == nil {
		fields := strings.Fields(raw)
		if len(fields) >= 3 {
			version = fields[2]
		}
		switch {
		case strings.Contains(raw, "x86_64"):
			arch = "x86_64"
		case strings.Contains(raw, "aarch64"):
			arch = "aarch64"
		}
	}

	return map[string]any{
		"hostname": hostname,
		"os":       "linux",
		"kernel":   version,
		"arch":     arch,
	}, nil
}

// CPU reports the core count from /proc/stat.
func (c *Collector) CPU() (map[string]any, error) {
	stat, err := c.readFile("stat")
	if err != nil {
		return nil, err
	}
	cores := 0
	for _, line := range strings.Split(stat, "\n") {
		// "cpu0".."cpuN" lines; skip the aggregate "cpu " line.
		if strings.HasPrefix(line, "cpu") && len(line) > 3 && line[3] != ' ' {
			cores++
		}
	}
	return map[string]any{"cores": cores}, nil
}

// Memory reports RAM and swap figures from /proc/meminfo in MB.
func (c *Collector) Memory() (map[string]any, error) {
	meminfo, err := c.readFile("meminfo")
	if err != nil {
		return nil, err
	}

	var total, available, swapTotal, swapFree uint64
	for _, line := range strings.Split(meminfo, "\n") {
		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			total = parseKB(line)
		case strings.HasPrefix(line, "MemAvailable:"):
			available = parseKB(line)
		case strings.HasPrefix(line, "SwapTotal:"):
			swapTotal = parseKB(line)
		case strings.HasPrefix(line, "SwapFree:"):
			swapFree = parseKB(line)
		}
	}

	used := uint64(0)
	if total > available {
		used = total - available
	}
	swapUsed := uint64(0)
	if swapTotal > swapFree {
		swapUsed = swapTotal - swapFree
	}

	return map[string]any{
		"total_mb":      total / 1024,
		"used_mb":       used / 1024,
		"available_mb":  available / 1024,
		"swap_total_mb": swapTotal / 1024,
		"swap_used_mb":  swapUsed / 1024,
	}, nil
}

// Uptime reports uptime, idle time, and load averages.
func (c *Collector) Uptime() (map[string]any, error) {
	raw, err := c.readFile("uptime")
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(raw)
	uptime := parseFloat(fields, 0)
	idle := parseFloat(fields, 1)

	loads := []float64{0, 0, 0}
	if loadRaw, err := c.readFile("loadavg"); err == nil {
		loadFields := strings.Fields(loadRaw)
		for i := 0; i < 3; i++ {
			loads[i] = parseFloat(loadFields, i)
		}
	}

	return map[string]any{
		"uptime_seconds": uptime,
		"idle_seconds":   idle,
		"load_1m":        loads[0],
		"load_5m":        loads[1],
		"load_15m":       loads[2],
	}, nil
}

// Disk reports usage per mounted filesystem, skipping pseudo mounts.
func (c *Collector) Disk() ([]map[string]any, error) {
	mounts, err := c.readFile("mounts")
	if err != nil {
		return nil, err
	}

	out := []map[string]any{}
	seen := map[string]struct{}{}
	for _, line := range strings.Split(mounts, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		device, mountPoint := fields[0], fields[1]
		if !strings.HasPrefix(device, "/dev/") {
			continue
		}
		if _, dup := seen[mountPoint]; dup {
			continue
		}
		seen[mountPoint] = struct{}{}

		var stat unix.Statfs_t
		if err := unix.Statfs(mountPoint, &stat); err != nil {
			continue
		}
		total := stat.Blocks * uint64(stat.Bsize)
		free := stat.Bavail * uint64(stat.Bsize)
		used := total - stat.Bfree*uint64(stat.Bsize)
		usePct := 0.0
		if total > 0 {
			usePct = float64(used) / float64(total) * 100
		}

		out = append(out, map[string]any{
			"device":       device,
			"mount_point":  mountPoint,
			"total_mb":     total / (1024 * 1024),
			"used_mb":      used / (1024 * 1024),
			"available_mb": free / (1024 * 1024),
			"use_percent":  usePct,
		})
	}
	return out, nil
}

// ProcessInfo is one row of the process table.
type ProcessInfo struct {
	PID        int     `json:"pid"`
	Name       string  `json:"name,omitempty"`
	State      string  `json:"state,omitempty"`
	User       string  `json:"user"`
	CPUPercent float64 `json:"cpu_percent"`
	MemMB      float64 `json:"mem_mb"`
	Command    string  `json:"command,omitempty"`
}

// Processes walks /proc for numeric entries and reads each one's status
// and cmdline. Processes that vanish mid-walk are skipped.
func (c *Collector) Processes() ([]ProcessInfo, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, domain.E(domain.CodeExecution, "procfs.processes", fmt.Sprintf("read %s", c.root), err)
	}

	var procs []ProcessInfo
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		info := ProcessInfo{PID: pid, User: "unknown"}

		if status, err := c.readFile(filepath.Join(entry.Name(), "status")); err == nil {
			for _, line := range strings.Split(status, "\n") {
				switch {
				case strings.HasPrefix(line, "Name:"):
					info.Name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
				case strings.HasPrefix(line, "State:"):
					info.State = strings.TrimSpace(strings.TrimPrefix(line, "State:"))
				case strings.HasPrefix(line, "VmRSS:"):
					info.MemMB = float64(parseKB(line)) / 1024
				}
			}
		}

		if raw, err := os.ReadFile(filepath.Join(c.root, entry.Name(), "cmdline")); err == nil {
			parts := strings.Split(string(raw), "\x00")
			cleaned := parts[:0]
			for _, p := range parts {
				if p != "" {
					cleaned = append(cleaned, p)
				}
			}
			info.Command = strings.Join(cleaned, " ")
		}

		procs = append(procs, info)
	}

	sort.Slice(procs, func(i, j int) bool { return procs[i].PID < procs[j].PID })
	return procs, nil
}

// parseKB extracts the numeric field from a "Key:   1234 kB" line.
func parseKB(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	n, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseFloat(fields []string, idx int) float64 {
	if idx >= len(fields) {
		return 0
	}
	f, err := strconv.ParseFloat(fields[idx], 64)
	if err != nil {
		return 0
	}
	return f
}
