package model

// ScheduledJob describes one recurring prediction registration. Jobs live
// only in process memory; a restart drops them.
type ScheduledJob struct {
	CronExpression string `json:"cron_expression"`
	Identifier     string `json:"identifier"`
	ChannelID      string `json:"channel_id"`
}
