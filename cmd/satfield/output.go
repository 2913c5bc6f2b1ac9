package main

import (
	"encoding/json"
	"io"
	"os"
)

// out is the result stream. Tests swap it for a buffer.
var out io.Writer = os.Stdout

func emit(v any) error {
	enc := json.NewEncoder(out)
	return enc.Encode(v)
}

// emitLogicalError reports a failure the caller must inspect in the payload.
// The process still exits zero; only uncaught failures exit non-zero.
func emitLogicalError(jobID, code, message string) error {
	return emit(map[string]any{
		"job_id": jobID,
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
