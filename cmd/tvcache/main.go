package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/docker/go-units"
	"golang.org/x/term"

	"github.com/librashuai/tacentview/internal/config"
	"github.com/librashuai/tacentview/internal/thumbnail"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "trim":
		os.Exit(runTrim(os.Args[2:]))
	case "clear":
		os.Exit(runClear(os.Args[2:]))
	case "help", "-h", "--help":
		printUsage()
	default:
		// Sanitize command input using allowlist to break taint chain
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage()
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for
// display. It uses an allowlist approach, replacing any character that is
// not alphanumeric, a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("TacentView Thumbnail Cache Maintenance")
	fmt.Println("")
	fmt.Println("Usage: tvcache <command> [flags]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  status  - Show cache directory usage")
	fmt.Println("  trim    - Delete the oldest cache files down to the configured cap")
	fmt.Println("  clear   - Delete every cache file")
	fmt.Println("")
	fmt.Println("Flags:")
	fmt.Println("  -config <path>  - Configuration file (default: ./config.toml when present)")
	fmt.Println("  -y              - Skip the confirmation prompt (clear only)")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  %s - Cache directory override\n", config.EnvCacheDir)
	fmt.Printf("  %s - Cache file cap override\n", config.EnvCacheMaxFiles)
}

// loadCacheConfig resolves the same configuration the daemon would see,
// so the CLI always operates on the daemon's cache directory.
func loadCacheConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.toml")
	_ = fs.Parse(args)

	cfg, err := loadCacheConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if _, err := os.Stat(cfg.Cache.Dir); os.IsNotExist(err) {
		fmt.Printf("Cache directory: %s (does not exist)\n", cfg.Cache.Dir)
		return 0
	}

	cache, err := thumbnail.NewCache(cfg.Cache.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	files, size, err := cache.Stats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading cache: %v\n", err)
		return 1
	}

	fmt.Printf("Cache directory: %s\n", cfg.Cache.Dir)
	fmt.Printf("Files:           %d\n", files)
	fmt.Printf("Size:            %s\n", units.BytesSize(float64(size)))
	fmt.Printf("Cap:             %d files\n", cfg.Cache.MaxFiles)
	if files > cfg.Cache.MaxFiles {
		fmt.Printf("\n%d files over the cap, run: tvcache trim\n", files-cfg.Cache.MaxFiles)
	}
	return 0
}

func runTrim(args []string) int {
	fs := flag.NewFlagSet("trim", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.toml")
	_ = fs.Parse(args)

	cfg, err := loadCacheConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	deleted, err := thumbnail.RemoveOldCacheFiles(cfg.Cache.Dir, cfg.Cache.MaxFiles)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error trimming cache: %v\n", err)
		return 1
	}
	if deleted == 0 {
		fmt.Println("Cache is within the cap, nothing to do.")
	} else {
		fmt.Printf("Deleted %d cache files.\n", deleted)
	}
	return 0
}

func runClear(args []string) int {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.toml")
	yes := fs.Bool("y", false, "skip confirmation")
	_ = fs.Parse(args)

	cfg, err := loadCacheConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if !*yes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: refusing to clear without -y (stdin is not a terminal)")
			return 1
		}
		fmt.Printf("Delete ALL cache files from %s? [y/N]: ", cfg.Cache.Dir)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading answer: %v\n", err)
			return 1
		}
		if !confirmed(line) {
			fmt.Println("Aborted.")
			return 1
		}
	}

	deleted, err := thumbnail.ClearCache(cfg.Cache.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error clearing cache: %v\n", err)
		return 1
	}
	fmt.Printf("Deleted %d cache files.\n", deleted)
	return 0
}

// confirmed reports whether an interactive answer means yes.
func confirmed(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
