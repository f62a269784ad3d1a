// Package events stores engine events in a transactional outbox for the
// external notifier to consume.
package events

// Event types written by the engine.
const (
	EventBinAlertCritical = "bin.alert.critical"
	EventBinCollected     = "bin.collected"
	EventTicketResolved   = "ticket.resolved"
	EventInsightPublished = "insight.published"
)

// BinAlertPayload captures the minimal data a notifier needs for a critical
// bin alert.
type BinAlertPayload struct {
	BinID       string `json:"bin_id"`
	Area        string `json:"area"`
	FillPercent int    `json:"fill_percent"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p BinAlertPayload) ToMap() map[string]any {
	return map[string]any{
		"bin_id":       p.BinID,
		"area":         p.Area,
		"fill_percent": p.FillPercent,
	}
}

// TicketResolvedPayload records a resolution and the points it granted.
type TicketResolvedPayload struct {
	TicketID   string `json:"ticket_id"`
	Area       string `json:"area"`
	ReporterID string `json:"reporter_id"`
	Points     int64  `json:"points"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p TicketResolvedPayload) ToMap() map[string]any {
	return map[string]any{
		"ticket_id":   p.TicketID,
		"area":        p.Area,
		"reporter_id": p.ReporterID,
		"points":      p.Points,
	}
}
