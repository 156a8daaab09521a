// File: cmd/poolbench/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import "github.com/momentics/hioload-pool/internal/cli"

func main() {
	cli.Execute()
}
