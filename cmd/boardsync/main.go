// Package main is the entry point for the boardsync agent: a cobra CLI
// exposing a long-running daemon command plus thin client commands that
// talk to the daemon over its local control socket.
//
// WHY a separate main.go: keeps startup/shutdown wiring isolated from
// the daemon loop (run.go) and the client commands (commands.go), so
// each can be read and changed independently.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "boardsync-config.json"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "boardsync",
	Short: "Multi-device clipboard sync over a shared object-storage bulletin board",
	Long: `boardsync runs one device's half of a peer-less clipboard sync network.
Devices never talk to each other directly; they reconcile through a
shared object-storage backend using an operation log and last-writer-wins
merge.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to the JSON config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(syncNowCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configureStorageCmd)
	rootCmd.AddCommand(testConnectionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
