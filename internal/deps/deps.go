package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external command AppDeck shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// Requirements lists the commands used by scanning, the process census and
// the launcher on goos. needRegistry drops reg.exe when no namespaces are set.
func Requirements(goos string, needRegistry bool) []Requirement {
	switch goos {
	case "windows":
		reqs := []Requirement{
			{Name: "cmd", Command: "cmd", Description: "Runs registry queries under the UTF-8 code page"},
			{Name: "tasklist", Command: "tasklist", Description: "Process census"},
			{Name: "PowerShell", Command: "powershell", Description: "Resolves Start Menu shortcut targets", Optional: true},
			{Name: "taskkill", Command: "taskkill", Description: "Stops running apps", Optional: true},
		}
		if needRegistry {
			reqs = append(reqs, Requirement{Name: "reg", Command: "reg", Description: "Reads uninstall registry keys"})
		}
		return reqs
	case "linux":
		return []Requirement{
			{Name: "ps", Command: "ps", Description: "Process census when /proc is unavailable", Optional: true},
			{Name: "pkill", Command: "pkill", Description: "Stops running apps", Optional: true},
		}
	default:
		return []Requirement{
			{Name: "ps", Command: "ps", Description: "Process census"},
			{Name: "pkill", Command: "pkill", Description: "Stops running apps", Optional: true},
		}
	}
}

// CheckBinaries evaluates the provided requirements against PATH.
func CheckBinaries(requirements []Requirement) []Status {
	return checkWith(requirements, exec.LookPath)
}

// Missing reports the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			out = append(out, status)
		}
	}
	return out
}

func checkWith(requirements []Requirement, lookPath func(string) (string, error)) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch resolved, err := lookPath(cmd); {
		case cmd == "":
			status.Detail = "command not configured"
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
		default:
			status.Available = true
			status.Path = resolved
		}
		results = append(results, status)
	}
	return results
}
