//go:build wasip1

package log

import "log/slog"

// init routes slog inside the guest to the host's debug console.
func init() {
	slog.SetDefault(slog.New(NewHandler(Console())))
}
