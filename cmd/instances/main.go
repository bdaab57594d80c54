// instances 进程实例管理工具
// 检查、终止和清理本机运行的 Tasklight 后端进程
package main

import (
	"fmt"
	"os"

	appInstance "github.com/tasklight/backend/internal/application/instance"
	"github.com/tasklight/backend/internal/infrastructure/config"
	infraInstance "github.com/tasklight/backend/internal/infrastructure/instance"
	applog "github.com/tasklight/backend/internal/infrastructure/log"
)

func usage() {
	fmt.Println("Usage: instances <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  status, check    Show the current instance state (default)")
	fmt.Println("  kill, terminate  Terminate the running instance")
	fmt.Println("  cleanup          Remove stale lock and port-config files")
	fmt.Println("  focus            Ask the running instance to take focus")
	fmt.Println("  help             Show this message")
}

func main() {
	// CLI 模式下压低日志级别，避免干扰 stdout 报告
	applog.Init(&applog.Config{Level: "error", Format: "console"})

	cfg := config.NewConfig()
	manager := appInstance.NewManager(
		infraInstance.NewLockFileStore(),
		infraInstance.NewProcessProbe(),
		infraInstance.NewFocusDialer(cfg.Server.FocusPort),
	)

	command := "status"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "status", "check":
		manager.ShowStatus()

	case "kill", "terminate":
		manager.KillAllInstances()

	case "cleanup":
		if err := manager.CleanupStaleFiles(); err != nil {
			fmt.Printf("Cleanup failed: %v\n", err)
			os.Exit(1)
		}

	case "focus":
		manager.FocusInstance()

	case "help", "-h", "--help":
		usage()

	default:
		// 未知命令回落到状态查看，并提示用法
		fmt.Printf("Unknown command: %s\n\n", command)
		manager.ShowStatus()
		fmt.Println("")
		fmt.Println("Run 'instances help' for the list of commands")
	}
}
