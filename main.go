package main

import (
	"context"
	"os"

	"github.com/tonimelisma/filebrowser-go/internal/metrics"
)

func main() {
	rec := metrics.New()

	err := newRootCmd(rec).ExecuteContext(context.Background())

	if flagMetrics {
		if dumpErr := rec.WriteText(os.Stderr); dumpErr != nil {
			exitOnError(dumpErr)
		}
	}

	if err != nil {
		exitOnError(err)
	}
}
