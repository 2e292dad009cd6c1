package notifier

import (
	"fmt"
	"strings"
	"time"

	"MarketPulse/internal/model"
)

// Status is the service summary shown by the /status command.
type Status struct {
	Universe    string
	State       string
	Cycles      uint64
	Subscribers int
	LastCycle   *model.CycleReport
}

// FormatOutage formats the alert sent when the provider is unreachable for every symbol.
func FormatOutage(r model.CycleReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚨 <b>MarketPulse outage</b> | %s\n\n", r.StartedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Universe: %s\n", r.Source))
	b.WriteString(fmt.Sprintf("Available: %d/%d\n", r.Available, r.Available+r.Unavailable))
	if r.Err != nil {
		b.WriteString(fmt.Sprintf("Error: %s\n", r.Err))
	}
	b.WriteString("\nSubscribers keep receiving N/A snapshots until the provider recovers.")
	return b.String()
}

// FormatRecovery formats the message sent on the first good cycle after an outage.
func FormatRecovery(r model.CycleReport, downtime time.Duration) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✅ <b>MarketPulse recovered</b> | %s\n\n", r.StartedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Universe: %s\n", r.Source))
	b.WriteString(fmt.Sprintf("Downtime: %s\n", downtime.Round(time.Second)))
	b.WriteString(fmt.Sprintf("Available: %d/%d\n", r.Available, r.Available+r.Unavailable))
	return b.String()
}

// FormatStatus formats the current broadcaster state.
func FormatStatus(s Status) string {
	var b strings.Builder
	b.WriteString("📡 <b>MarketPulse status</b>\n\n")
	b.WriteString(fmt.Sprintf("Universe: %s\n", s.Universe))
	b.WriteString(fmt.Sprintf("Broadcaster: %s\n", s.State))
	b.WriteString(fmt.Sprintf("Cycles: %d\n", s.Cycles))
	b.WriteString(fmt.Sprintf("Subscribers: %d\n", s.Subscribers))
	if c := s.LastCycle; c != nil {
		b.WriteString(fmt.Sprintf("Last cycle: %s (%dms), %d/%d available\n",
			c.StartedAt.Format("15:04:05"), c.Duration.Milliseconds(), c.Available, c.Available+c.Unavailable))
		if c.Err != nil {
			b.WriteString(fmt.Sprintf("Last error: %s\n", model.Reason(c.Err)))
		}
	}
	return b.String()
}

// FormatSectors formats the sector dashboard, heaviest sector first.
func FormatSectors(snap model.SectorSnapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Sector performance</b> | %s\n\n", snap.GeneratedAt.Format("2006-01-02 15:04")))
	for _, s := range snap.Sectors {
		b.WriteString(fmt.Sprintf("%s (%s): %s today, %s 1d, %s YTD\n",
			s.Sector, s.Symbol, pct(s.Change), pct(s.DailyChange), pct(s.YTDChange)))
	}
	return b.String()
}

func pct(m model.Metric) string {
	if !m.OK() {
		return model.NotAvailable
	}
	return fmt.Sprintf("%+.2f%%", m.Value)
}
