package cron

import (
	"context"
	"strconv"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"

	"github.com/mailboost/mailboost/interfaces"
	cron_config "github.com/mailboost/mailboost/internal/cron/config"
	"github.com/mailboost/mailboost/internal/logger"
	"github.com/mailboost/mailboost/internal/metrics"
	"github.com/mailboost/mailboost/internal/tracing"
)

type CronManager struct {
	log    logger.Logger
	cron   *cronv3.Cron
	jobIDs map[string]cronv3.EntryID
	panel  interfaces.PanelService
}

func NewCronManager(log logger.Logger, panel interfaces.PanelService) *CronManager {
	return &CronManager{
		log:    log,
		jobIDs: make(map[string]cronv3.EntryID),
		panel:  panel,
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	if cronConfig.CronScheduleHeartbeat != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Info("Cron heartbeat")
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	if cronConfig.CronScheduleBalanceCheck != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleBalanceCheck, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.checkPanelBalance()
		})
		if err != nil {
			cm.log.Fatalf("Could not add balance check cron job: %v", err)
		}
		cm.jobIDs["balance_check"] = id
		cm.log.Infof("Registered balance check job with schedule: %s", cronConfig.CronScheduleBalanceCheck)
	}
}

// checkPanelBalance logs the remaining panel balance so a drained account is
// noticed before orders start getting rejected.
func (cm *CronManager) checkPanelBalance() {
	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.checkPanelBalance")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	balance, err := cm.panel.Balance(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to check panel balance: %v", err)
		return
	}

	cm.log.Infof("Panel balance: %s %s", balance.Balance, balance.Currency)

	if amount, err := strconv.ParseFloat(balance.Balance, 64); err == nil {
		metrics.PanelBalance.Set(amount)
	}
}
