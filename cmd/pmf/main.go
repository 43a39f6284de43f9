package main

import (
	"fmt"
	"os"
)

// #region main
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// #endregion main
