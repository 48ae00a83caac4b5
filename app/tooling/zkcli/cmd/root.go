// Package cmd contains the zk operation cli.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
	networkName string
)

const (
	keyExtenstion = ".ecdsa"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "Path to the private key.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zarf/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&networkName, "network", "n", "localhost", "Network the signatures are stamped for.")
}

var rootCmd = &cobra.Command{
	Use:   "zkcli",
	Short: "Operation tooling for the zkDpos network",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	if !strings.HasSuffix(accountName, keyExtenstion) {
		accountName += keyExtenstion
	}

	return filepath.Join(accountPath, accountName)
}
