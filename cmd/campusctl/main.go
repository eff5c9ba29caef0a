// Command campusctl logs in to the campus auth gateway from a terminal, with
// the same validation and remember-me behaviour as the portal forms.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
