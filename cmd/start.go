package cmd

import (
	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var startCmd = &cobra.Command{
	Use:     "start",
	Short:   "Start the gateway in front of the backing engine",
	Long:    `Start the gateway, merge the backing engine schema with the enabled plugin directives, and serve the augmented graphql endpoint`,
	Example: `./augment-gateway start --PORT 8000`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = viper.BindPFlags(cmd.Flags())
		utils.ExecuteInitMethods()
		server.Run(func() {
			zap.L().Info("gateway ready",
				zap.String(consts.HasuraUri, utils.GetStringWithLockViper(consts.HasuraUri)))
		})
	},
}

func init() {
	startCmd.Flags().String(consts.EnginePort, "8000", "Port to listen on")
	startCmd.Flags().String(consts.ActiveMode, "", "Mode active to run in different environment")
	startCmd.Flags().String(consts.HasuraUri, "", "Backing graphql engine endpoint")
	startCmd.Flags().String(consts.EnabledPlugins, "", "Comma separated plugin names to enable, empty enables all")
	rootCmd.AddCommand(startCmd)
}
