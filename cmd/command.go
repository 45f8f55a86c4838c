// Package cmd provides common command line tools for the acmefetch binary.
package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func FailOnError(err error, msg string) {
	// If there wasn't an error, return
	if err == nil {
		return
	}

	// Otherwise, print the error and fail
	log.Fatalf("[!] %s - %s", msg, err)
}

var signalToName = map[os.Signal]string{
	syscall.SIGTERM: "SIGTERM",
	syscall.SIGINT:  "SIGINT",
	syscall.SIGHUP:  "SIGHUP",
}

// SignalContext returns a context that is cancelled when SIGTERM, SIGINT or
// SIGHUP is received. Issuance operations run under this context so
// a shutdown signal aborts polling waits instead of leaving the process
// hanging until the poll budget runs out.
func SignalContext(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM)
	signal.Notify(sigChan, syscall.SIGINT)
	signal.Notify(sigChan, syscall.SIGHUP)

	go func() {
		sig := <-sigChan
		log.Printf("Caught %s", signalToName[sig])
		cancel()
	}()

	return ctx
}
