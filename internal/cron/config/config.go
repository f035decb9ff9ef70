package cron_config

type Config struct {
	// Heartbeat log line, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Panel balance check, daily at 06:00
	CronScheduleBalanceCheck string `env:"CRON_SCHEDULE_BALANCE_CHECK" envDefault:"0 0 6 * * *"`
}
