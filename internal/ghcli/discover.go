package ghcli

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// candidatePaths lists the locations gh is commonly installed to. GUI and
// launchd processes often run with a minimal PATH, so LookPath alone misses
// Homebrew and Nix installs.
func candidatePaths(goos, home, localAppData string) []string {
	switch goos {
	case "windows":
		paths := []string{
			`C:\Program Files\GitHub CLI\gh.exe`,
			`C:\Program Files (x86)\GitHub CLI\gh.exe`,
		}
		if localAppData != "" {
			paths = append(paths,
				filepath.Join(localAppData, "Programs", "gh", "gh.exe"),
				filepath.Join(localAppData, "GitHub CLI", "gh.exe"),
			)
		}
		return paths
	case "darwin":
		return []string{
			"/opt/homebrew/bin/gh",
			"/usr/local/bin/gh",
			"/usr/bin/gh",
			"/opt/local/bin/gh",
			"/run/current-system/sw/bin/gh",
			"/nix/var/nix/profiles/default/bin/gh",
		}
	case "linux":
		paths := []string{
			"/usr/local/bin/gh",
			"/usr/bin/gh",
			"/home/linuxbrew/.linuxbrew/bin/gh",
			"/snap/bin/gh",
			"/run/current-system/sw/bin/gh",
			"/var/lib/flatpak/exports/bin/gh",
		}
		if home != "" {
			paths = append(paths, filepath.Join(home, "go", "bin", "gh"))
		}
		return paths
	default:
		return []string{
			"/usr/local/bin/gh",
			"/usr/bin/gh",
			"/usr/pkg/bin/gh",
			"/opt/local/bin/gh",
		}
	}
}

// findExecutable resolves gh via PATH first and then the candidate list.
func findExecutable(lookPath func(string) (string, error), exists func(string) bool, candidates []string) (string, error) {
	if p, err := lookPath("gh"); err == nil {
		if real, err := filepath.EvalSymlinks(p); err == nil {
			return real, nil
		}
		return p, nil
	}
	for _, p := range candidates {
		if p != "" && exists(p) {
			return p, nil
		}
	}
	return "", ErrToolNotFound
}

func discover() (string, error) {
	home, _ := os.UserHomeDir()
	candidates := candidatePaths(runtime.GOOS, home, os.Getenv("LOCALAPPDATA"))
	return findExecutable(exec.LookPath, fileExists, candidates)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
