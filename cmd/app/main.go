package main

import (
	"fmt"
	"os"

	"github.com/KunalPandey-675/oceanResQ/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
