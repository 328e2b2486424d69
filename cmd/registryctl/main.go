// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command registryctl is the operator tool for the civil registry.
package main

import (
	"os"

	"github.com/taibuivan/civilregistry/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
