package main

import (
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/reqguard/internal"
	"github.com/rios0rios0/reqguard/internal/infrastructure/controllers"
)

const lambdaRuntimeEnvVar = "AWS_LAMBDA_RUNTIME_API"

func buildRootCommand() *cobra.Command {
	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{
		Use:   "reqguard",
		Short: "Gate new Python requirements behind a vulnerability scan",
		Long: `reqguard watches requirements files in a source repository and makes sure
every newly referenced Python package version is scanned before it is
published to the private package repository.

The same binary runs both pipeline functions on AWS Lambda and locally:
  reqguard detect      List the requirement entries a commit added or modified
  reqguard reconcile   Publish the entries missing from the package repository
  reqguard lambda      Serve a pipeline function on the Lambda runtime`,
		SilenceUsage: true,
		PersistentPreRun: func(command *cobra.Command, _ []string) {
			if verbose, _ := command.Flags().GetBool("verbose"); verbose {
				logger.SetLevel(logger.DebugLevel)
			}
		},
	}

	// Global persistent flags
	cmd.PersistentFlags().StringP("config", "c", "",
		"Path to config file (default: auto-detect)")
	cmd.PersistentFlags().Bool("dry-run", false,
		"Show what would be done without uploading or starting builds")
	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose output")

	return cmd
}

func addSubcommands(rootCmd *cobra.Command, appContext *internal.AppInternal) {
	for _, controller := range appContext.GetControllers() {
		bind := controller.GetBind()
		ctrl := controller // capture for closure
		//nolint:exhaustruct // Minimal Command initialization with required fields only
		subCmd := &cobra.Command{
			Use:   bind.Use,
			Short: bind.Short,
			Long:  bind.Long,
			RunE: func(command *cobra.Command, arguments []string) error {
				return ctrl.Execute(command, arguments)
			},
		}
		ctrl.AddFlags(subCmd)

		rootCmd.AddCommand(subCmd)
	}
}

func configureLogger(onLambda bool) {
	if onLambda {
		//nolint:exhaustruct // Default JSONFormatter is what CloudWatch expects
		logger.SetFormatter(&logger.JSONFormatter{})
	} else {
		//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
		logger.SetFormatter(&logger.TextFormatter{
			ForceColors:   true,
			FullTimestamp: true,
		})
	}
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}
}

func main() {
	onLambda := os.Getenv(lambdaRuntimeEnvVar) != "" && len(os.Args) == 1
	configureLogger(onLambda)

	// Inject controllers via DIG
	appContext := injectAppContext()

	if onLambda {
		if err := appContext.GetLambdaController().Serve(os.Getenv(controllers.HandlerEnvVar)); err != nil {
			logger.Fatalf("Error starting Lambda handler: %s", err)
		}
		return
	}

	cobraRoot := buildRootCommand()
	addSubcommands(cobraRoot, appContext)

	if err := cobraRoot.Execute(); err != nil {
		logger.Fatalf("Error executing 'reqguard': %s", err)
	}
}
