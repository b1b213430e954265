package cmd

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func cmdLambda() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lambda",
		Short: "Run as an AWS Lambda function",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.Root().PersistentPreRun(cmd, args)
			return nil
		},
	}

	cmd.AddCommand(
		cmdLambdaEvents(),
		cmdLambdaAlarms(),
		cmdLambdaAlarmRefresh(),
		cmdLambdaAPI(),
	)

	bindEnvMap(cmd, lambdaEnvMapString)
	bindEnvMap(cmd, lambdaEnvMapBool)
	return cmd
}

// cmdLambdaEvents consumes the media service events of the event bus.
func cmdLambdaEvents() *cobra.Command {
	return &cobra.Command{
		Use: "events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger = logger.With("entrypoint", "events")
			if err := setup(cmd, false, false); err != nil {
				return errors.Wrap(err, "failed to setup lambda")
			}
			logger.Info("lambda starting...")
			lambda.StartWithOptions(mapperRuntime.LambdaForEvent,
				lambda.WithContext(cmd.Context()))
			return nil
		},
	}
}

// cmdLambdaAlarms consumes the CloudWatch alarm state changes of the event bus.
func cmdLambdaAlarms() *cobra.Command {
	return &cobra.Command{
		Use: "alarms",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger = logger.With("entrypoint", "alarms")
			if err := setup(cmd, false, false); err != nil {
				return errors.Wrap(err, "failed to setup lambda")
			}
			logger.Info("lambda starting...")
			lambda.StartWithOptions(mapperRuntime.LambdaForAlarm,
				lambda.WithContext(cmd.Context()))
			return nil
		},
	}
}

// cmdLambdaAlarmRefresh re-reads the state of every subscribed alarm on a schedule.
func cmdLambdaAlarmRefresh() *cobra.Command {
	return &cobra.Command{
		Use: "alarm-refresh",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger = logger.With("entrypoint", "alarm-refresh")
			if err := setup(cmd, false, false); err != nil {
				return errors.Wrap(err, "failed to setup lambda")
			}
			logger.Info("lambda starting...")
			lambda.StartWithOptions(mapperRuntime.LambdaForAlarmRefresh,
				lambda.WithContext(cmd.Context()))
			return nil
		},
	}
}

// cmdLambdaAPI serves the REST API behind an API Gateway proxy integration.
func cmdLambdaAPI() *cobra.Command {
	return &cobra.Command{
		Use: "api",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger = logger.With("entrypoint", "api")
			if err := setup(cmd, true, false); err != nil {
				return errors.Wrap(err, "failed to setup lambda")
			}
			logger.Info("lambda starting...")
			lambda.StartWithOptions(mapperRuntime.LambdaForAPI,
				lambda.WithContext(cmd.Context()))
			return nil
		},
	}
}
