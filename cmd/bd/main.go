// Command bd is the CLI surface for the task-tracking core: task
// lifecycle commands plus query-cache daemon and sync management
// (§6.4's minimal normative subset).
package main

import "os"

func main() {
	os.Exit(Execute())
}
