//go:build windows

package profile

import (
	"os/exec"
	"strings"
)

const frontmostPS = `Add-Type -Name U -Namespace W -MemberDefinition '[DllImport("user32.dll")] public static extern System.IntPtr GetForegroundWindow(); [DllImport("user32.dll")] public static extern int GetWindowThreadProcessId(System.IntPtr h, out int p);'; $h = [W.U]::GetForegroundWindow(); $pid = 0; [W.U]::GetWindowThreadProcessId($h, [ref]$pid) | Out-Null; (Get-Process -Id $pid).ProcessName`

// windowsProbe polls the foreground process name via PowerShell at the
// Watcher's own poll cadence, per spec.md §4.5.
type windowsProbe struct{}

func newFrontmostProbe() frontmostProbe { return &windowsProbe{} }

func (p *windowsProbe) Frontmost() (string, error) {
	out, err := exec.Command("powershell", "-NoProfile", "-Command", frontmostPS).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
