// @title LearnHire 后端 API
// @version 1.0
// @description 在线课程与招聘平台的后端服务。

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"learnhire_backend/internal/app"
	"learnhire_backend/internal/config"
	"learnhire_backend/pkg/logger"
	"log"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	watch := flag.Bool("watch-config", true, "监听配置文件变更并热加载日志级别")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dir := *configDir
	if !*watch {
		dir = ""
	}

	application := app.NewApp(cfg, dir)
	defer logger.Sync()

	application.Run()
}
