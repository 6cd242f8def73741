// Command enroll walks the signed-in user through TOTP enrollment in the
// terminal, using the same wizard and alert relay as the HTTP server.
package main

import (
	"os"

	"github.com/shandysiswandi/iamportal/cmd/enroll/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
