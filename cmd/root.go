package cmd

import (
	"os"

	"augment-gateway/pkg/common/consts"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "augment-gateway",
	Short: "Augment gateway is a directive driven GraphQL proxy.",
	Long:  `Augment gateway proxies a backing GraphQL engine and augments query responses through operation directives: retain query history and replay it, sample and validate datasets, detect anomalies and render results as files.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(gatewayVersion, gatewayCommit string) {
	if gatewayVersion == "" {
		gatewayVersion = consts.DevMode
	}
	if gatewayCommit == "" {
		gatewayCommit = consts.DevMode
	}
	viper.Set(consts.GatewayVersion, gatewayVersion)
	viper.Set(consts.GatewayCommit, gatewayCommit)
	if err := rootCmd.Execute(); err != nil {
		zap.S().Error(err)
		os.Exit(1)
	}
}
