// Package debug holds the optional info-providing mechanisms for the
// client: the pprof server and frame hexdumps for protocol work.
package debug

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yntha/castleclash/internal/core"
)

// StartUtilities spins off the services associated with debug mode.
func StartUtilities(logger *logrus.Logger, cfg *core.Config) {
	if cfg.Debugging.PprofEnabled {
		startPprofServer(logger, cfg.Debugging.PprofPort)
	}
}

// This function starts the default pprof HTTP server that can be accessed
// via localhost to get runtime information about the client.
// See https://golang.org/pkg/net/http/pprof/
func startPprofServer(logger *logrus.Logger, port int) {
	listenerAddr := "localhost:" + strconv.Itoa(port)
	logger.Infof("starting pprof server on %s", listenerAddr)

	go func() {
		if err := http.ListenAndServe(listenerAddr, nil); err != nil {
			logger.Infof("error starting pprof server: %s", err)
		}
	}()
}

const displayWidth = 16

// Hexdump renders data in the usual two-column layout: offset, hex bytes,
// and the printable ASCII representation.
func Hexdump(data []byte) string {
	var b strings.Builder

	for offset := 0; offset < len(data); offset += displayWidth {
		end := offset + displayWidth
		if end > len(data) {
			end = len(data)
		}
		line := data[offset:end]

		fmt.Fprintf(&b, "(%04x) ", offset)
		for i := 0; i < displayWidth; i++ {
			if i == displayWidth/2 {
				b.WriteString("  ")
			}
			if i < len(line) {
				fmt.Fprintf(&b, "%02x ", line[i])
			} else {
				b.WriteString("   ")
			}
		}

		b.WriteString("    ")
		for _, c := range line {
			// 0x20 (space) through 0x7e (~) are the printable range.
			if c >= 0x20 && c < 0x7f {
				b.WriteByte(c)
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
