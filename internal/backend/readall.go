package backend

import (
	"io"
	"net/http"
)

// maxResponseSize caps how much of a backend response is buffered. Local
// completions are small; anything past this is a misbehaving backend.
const maxResponseSize = 32 << 20 // 32 MiB

func readAll(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
}
