package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

func main() {
	bin, err := exec.LookPath("critpath")
	if err != nil {
		fmt.Fprintln(os.Stderr, "cpx: critpath not found on PATH")
		os.Exit(1)
	}
	if err := syscall.Exec(bin, append([]string{"critpath"}, os.Args[1:]...), os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "cpx: %v\n", err)
		os.Exit(1)
	}
}
