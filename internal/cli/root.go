package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kmartell/ddltools/internal/config"
)

var version = "dev" // set by the linker

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "ddltools",
		Short: "SQL Server schema export and replay toolkit",
		Long: `Administrative tools for SQL Server schema handling: export full DDL
for every user database on a set of servers, clean the generated files of
server-specific statements, and replay them against a target server to
create empty databases.`,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("ddltools", version)
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ddltools.yaml)")
	rootCmd.PersistentFlags().String("sql-user", "", "SQL Server authentication user (integrated authentication when omitted)")
	rootCmd.PersistentFlags().String("sql-password", "", "SQL Server authentication password")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(versionCmd)

	viper.BindPFlags(rootCmd.PersistentFlags())
	viper.BindPFlags(exportCmd.Flags())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".ddltools")
	}

	viper.SetEnvPrefix("DDLTOOLS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func connectionFromFlags() config.Connection {
	return config.Connection{
		User:     viper.GetString("sql-user"),
		Password: viper.GetString("sql-password"),
	}
}
