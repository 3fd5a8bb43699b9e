// Command rosterctl is the operator CLI for reviewing and resolving
// duplicate organizations and contacts.
package main

import "github.com/agenthands/roster/cmd/rosterctl/cmd"

func main() {
	cmd.Execute()
}
