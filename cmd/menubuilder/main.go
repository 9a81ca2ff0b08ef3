package main

import (
	"os"
	"strings"

	"menu-builder/internal/cli"
	"menu-builder/internal/logger"
)

const itemIDPrefix = "mi-"

func isItemID(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, itemIDPrefix) && len(s) > len(itemIDPrefix)
}

// Persistent flags that take a value in the next token.
var valueFlags = map[string]bool{
	"--config":    true,
	"--db":        true,
	"--server":    true,
	"--format":    true,
	"--log-level": true,
}

// rewriteDirectItemLookupArgs turns `menubuilder [flags] <item-id>` into
// `menubuilder [flags] items show <item-id>`. Cobra would read the id as a subcommand name,
// so argv is rewritten before parsing. Flags may come first, so the first positional token is
// located rather than assuming argv[1].
func rewriteDirectItemLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	insertAt := func(i int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "items", "show")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		switch {
		case a == "":
			continue
		case a == "--":
			if i+1 < len(argv) && isItemID(argv[i+1]) {
				return insertAt(i)
			}
			return argv
		case strings.HasPrefix(a, "-"):
			// Unknown flags are skipped without their value so an id is never swallowed.
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		case isItemID(a):
			return insertAt(i)
		default:
			return argv
		}
	}
	return argv
}

func main() {
	os.Args = rewriteDirectItemLookupArgs(os.Args)
	logger.SetDefault("menubuilder", cli.Version, "")

	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
