package notifier

import (
	"context"
	"strings"

	"MarketPulse/internal/model"
)

// Commands backs the chat commands.
type Commands struct {
	Status  func() Status
	Sectors func(ctx context.Context) (model.SectorSnapshot, error)
}

// Handler returns the CommandHandler for StartPolling.
func (c Commands) Handler() CommandHandler {
	return func(ctx context.Context, command string) string {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return ""
		}
		cmd := strings.ToLower(fields[0])
		if i := strings.Index(cmd, "@"); i > 0 {
			cmd = cmd[:i]
		}
		switch cmd {
		case "/status":
			return FormatStatus(c.Status())
		case "/sectors":
			snap, err := c.Sectors(ctx)
			if err != nil && len(snap.Sectors) == 0 {
				return "⚠️ sector data unavailable: " + model.Reason(err)
			}
			return FormatSectors(snap)
		case "/help", "/start":
			return "Commands:\n/status - broadcaster state\n/sectors - sector performance"
		default:
			return ""
		}
	}
}
