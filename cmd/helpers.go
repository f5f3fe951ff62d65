package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"github.com/google/uuid"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func RecoverFromPanic() {
	if err := recover(); err != nil {
		log.Println("=======================================")
		log.Println("tap-redshift encountered an unexpected error, please report the issue.")
		log.Println(err)
		log.Println("=======================================")
		b := bufio.NewScanner(bytes.NewBuffer(debug.Stack()))
		for b.Scan() {
			log.Println(b.Text())
		}
		os.Exit(1)
	}
}

// printError writes to stderr, stdout is reserved for the message stream.
func printError(err error, output string, message string) {
	if output == "json" {
		js, marshalErr := json.Marshal(ErrorResponse{Error: err.Error()})
		if marshalErr != nil {
			fmt.Fprintln(os.Stderr, marshalErr)
			return
		}
		fmt.Fprintln(os.Stderr, string(js))
		return
	}

	errorPrinter.Fprintf(os.Stderr, "%s: %v\n", message, err)
}

func NewRunID() string {
	if runID := os.Getenv("TAP_REDSHIFT_RUN_ID"); runID != "" {
		return runID
	}
	return uuid.NewString()
}
