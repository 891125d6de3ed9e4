// Command fatfs runs a scripted session against a fresh file store region
// and reports each check, sizes and timing. The region and an optional
// snapshot backend are described by a TOML file.
//
//	fatfs -config fatfs.toml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	configPath := flag.String("config", "", "Path to the TOML configuration file (defaults apply when empty)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		os.Exit(exitCode(err))
	}

	fmt.Println("Starting testing...")
	err = run(ctx, cfg, os.Stdout, os.Stderr)
	fmt.Println("Ended testing.")
	stop()
	os.Exit(exitCode(err))
}
